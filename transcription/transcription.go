package transcription

import (
	"context"
	"iter"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultLanguage = "de"

type (
	// Engine runs speech recognition on a single audio file. The returned
	// sequence is lazy and may be ranged over only once.
	Engine interface {
		Transcribe(ctx context.Context, audioPath string, language string) (iter.Seq2[Segment, error], DetectionInfo, error)
	}

	Request struct {
		AudioPath string
		Language  string
	}

	DetectionInfo struct {
		Language            string          `json:"language"`
		LanguageProbability decimal.Decimal `json:"language_probability"`
		Duration            decimal.Decimal `json:"duration"`
	}

	Segment struct {
		ID    int             `json:"id"`
		Start decimal.Decimal `json:"start"`
		End   decimal.Decimal `json:"end"`
		Text  string          `json:"text"`
	}

	Transcript struct {
		Detection DetectionInfo
		Segments  []Segment
	}
)

// NewRequest builds a request from positional command-line arguments:
// the audio path and an optional language code.
func NewRequest(args []string) (Request, error) {
	if len(args) < 1 {
		return Request{}, ErrUsage
	}

	req := Request{AudioPath: args[0], Language: DefaultLanguage}
	if len(args) > 1 {
		req.Language = args[1]
	}
	return req, nil
}

// Text joins the trimmed segment texts with single spaces, in segment order.
func (t Transcript) Text() string {
	parts := make([]string, len(t.Segments))
	for n, s := range t.Segments {
		parts[n] = strings.TrimSpace(s.Text)
	}
	return strings.Join(parts, " ")
}
