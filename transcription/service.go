package transcription

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"transcribe/b3"
)

type Service struct {
	engine Engine
	out    io.Writer
	log    *slog.Logger
}

func NewService(e Engine, out io.Writer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{engine: e, out: out, log: logger}
}

// CheckInput reports an *InputNotFoundError when the audio path cannot be
// stat'ed.
func CheckInput(path string) error {
	if _, err := os.Stat(path); err != nil {
		return &InputNotFoundError{Path: path, Err: err}
	}
	return nil
}

// Transcribe runs the engine on req, printing the detection line and one
// line per segment to the service output as segments arrive. Segments
// printed before an engine failure stay printed; the partial transcript is
// returned alongside the error.
func (s *Service) Transcribe(ctx context.Context, req Request) (Transcript, error) {
	if err := CheckInput(req.AudioPath); err != nil {
		return Transcript{}, err
	}

	// the fingerprint is a full extra read of the audio
	if s.log.Enabled(ctx, slog.LevelDebug) {
		fingerprint, err := b3.SumFile(req.AudioPath)
		if err != nil {
			return Transcript{}, fmt.Errorf("transcribe: %w", err)
		}
		s.log.Debug("audio fingerprint", "path", req.AudioPath, "blake3", fingerprint)
	}
	s.log.Info("transcribing", "path", req.AudioPath, "language", req.Language)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	segments, info, err := s.engine.Transcribe(ctx, req.AudioPath, req.Language)
	if err != nil {
		return Transcript{}, &EngineError{Err: err}
	}

	tr := Transcript{Detection: info}
	if _, err := fmt.Fprintln(s.out, FormatDetection(info)); err != nil {
		cancel()
		discard(segments)
		return tr, fmt.Errorf("transcribe: writing output: %w", err)
	}

	for seg, err := range segments {
		if err != nil {
			s.log.Error("engine failed mid-stream", "segments", len(tr.Segments), "err", err)
			return tr, &EngineError{Err: err}
		}
		if _, err := fmt.Fprintln(s.out, FormatSegment(seg)); err != nil {
			return tr, fmt.Errorf("transcribe: writing output: %w", err)
		}
		tr.Segments = append(tr.Segments, seg)
	}

	s.log.Info("transcription done", "segments", len(tr.Segments), "detected", info.Language)
	return tr, nil
}

// discard enters and immediately leaves segments so the engine can release
// whatever backs the sequence.
func discard(segments iter.Seq2[Segment, error]) {
	for range segments {
		break
	}
}
