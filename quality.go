package kreuzberg

import (
	"context"
	"strings"
	"unicode"
)

// Built-in post-processors. RegisterBuiltinProcessors wires them into a
// bundle; callers can disable individual ones per extraction through
// PostProcessingConfig.

// RegisterBuiltinProcessors registers the whitespace normalizer and the
// quality scorer.
func RegisterBuiltinProcessors(r *Registries) error {
	if err := r.PostProcessors.Register(&WhitespaceNormalizer{}); err != nil {
		return err
	}
	return r.PostProcessors.Register(&QualityScorer{})
}

// WhitespaceNormalizer is an Early-stage processor that strips trailing
// spaces and collapses runs of blank lines, preserving paragraph breaks.
type WhitespaceNormalizer struct{}

func (w *WhitespaceNormalizer) Name() string                     { return "whitespace-normalizer" }
func (w *WhitespaceNormalizer) Version() string                  { return "1.0.0" }
func (w *WhitespaceNormalizer) Initialize() error                { return nil }
func (w *WhitespaceNormalizer) Shutdown() error                  { return nil }
func (w *WhitespaceNormalizer) ProcessingStage() ProcessingStage { return StageEarly }
func (w *WhitespaceNormalizer) Priority() int                    { return 100 }

func (w *WhitespaceNormalizer) Process(_ context.Context, result *ExtractionResult, _ *ExtractionConfig) error {
	result.Content = normalizeBlock(result.Content)
	for i := range result.Pages {
		result.Pages[i].Content = normalizeBlock(result.Pages[i].Content)
	}
	return nil
}

func normalizeBlock(text string) string {
	if text == "" {
		return text
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var b strings.Builder
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blanks++
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
			if blanks > 0 {
				b.WriteByte('\n')
			}
		}
		blanks = 0
		b.WriteString(line)
	}
	return b.String()
}

// QualityScorer is a Middle-stage processor that records extraction
// quality metrics into the result metadata: the ratio of printable
// characters and the ratio of word-like tokens. Low printable ratios
// indicate garbled decoding (CIDFont without ToUnicode and the like); low
// word-like ratios indicate character-by-character extraction.
type QualityScorer struct{}

func (q *QualityScorer) Name() string                     { return "quality-scorer" }
func (q *QualityScorer) Version() string                  { return "1.0.0" }
func (q *QualityScorer) Initialize() error                { return nil }
func (q *QualityScorer) Shutdown() error                  { return nil }
func (q *QualityScorer) ProcessingStage() ProcessingStage { return StageMiddle }
func (q *QualityScorer) Priority() int                    { return 50 }

func (q *QualityScorer) Process(_ context.Context, result *ExtractionResult, _ *ExtractionConfig) error {
	printable := PrintableRatio(result.Content)
	wordlike := WordlikeRatio(result.Content)
	result.Metadata.Set("quality_printable_ratio", printable)
	result.Metadata.Set("quality_wordlike_ratio", wordlike)
	result.Metadata.Set("quality_score", (printable+wordlike)/2)
	return nil
}

// PrintableRatio returns the ratio of printable characters in text.
// Private Use Area runes, the replacement character, and control
// characters other than \n \r \t count as garbage.
func PrintableRatio(text string) float64 {
	if len(text) == 0 {
		return 1.0
	}
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// WordlikeRatio returns the ratio of tokens that look like words (2-15
// runes) to total tokens.
func WordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}
