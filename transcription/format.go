package transcription

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// FinalHeader labels the joined transcript block.
const FinalHeader = "=== Full Transcript ==="

// FormatDetection renders the detected language line.
func FormatDetection(info DetectionInfo) string {
	return fmt.Sprintf("Detected language: %s (probability: %s)", info.Language, fixed2(info.LanguageProbability))
}

// FormatSegment renders one "[start -> end] text" line; text is printed as
// the engine produced it.
func FormatSegment(s Segment) string {
	return fmt.Sprintf("[%ss -> %ss] %s", fixed2(s.Start), fixed2(s.End), s.Text)
}

// FormatFinal renders the labeled transcript block, including the blank
// line that separates it from the segment lines.
func FormatFinal(text string) string {
	return "\n" + FinalHeader + "\n" + text
}

// fixed2 rounds the binary float the engine reported, half to even on its
// exact value, so 0.125 renders as 0.12 and 2.675 as 2.67.
func fixed2(d decimal.Decimal) string {
	return strconv.FormatFloat(d.InexactFloat64(), 'f', 2, 64)
}
