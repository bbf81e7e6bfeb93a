// Package ocr provides OCR fallback decisions, the content-addressed OCR
// result cache, and the Tesseract backend.
package ocr

import (
	"strings"
	"unicode"
)

// Thresholds for deciding whether native PDF text is substantial enough
// to skip OCR.
const (
	minTotalNonWhitespace   = 64
	minNonWhitespacePerPage = 32.0
	minMeaningfulWordLen    = 4
	minMeaningfulWords      = 3
	minAlnumRatio           = 0.3
)

// NativeTextStats summarizes the native text layer of a document.
type NativeTextStats struct {
	NonWhitespace   int
	Alphanumeric    int
	MeaningfulWords int
	Pages           int
}

// FallbackDecision records whether OCR should run and the statistics the
// decision was based on.
type FallbackDecision struct {
	UseOCR bool
	Stats  NativeTextStats
}

// EvaluateNativeText decides whether OCR should run for a document whose
// native text layer is text, spread over pageCount pages. Empty or
// symbol-only text always triggers OCR; substantial text never does. In
// between, sparse or low-alphanumeric text falls back to OCR.
func EvaluateNativeText(text string, pageCount int) FallbackDecision {
	pages := pageCount
	if pages < 1 {
		pages = 1
	}
	stats := NativeTextStats{Pages: pages}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return FallbackDecision{UseOCR: true, Stats: stats}
	}

	for _, r := range text {
		if !unicode.IsSpace(r) {
			stats.NonWhitespace++
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			stats.Alphanumeric++
		}
	}
	for _, w := range strings.Fields(text) {
		if meaningfulWord(w) {
			stats.MeaningfulWords++
			if stats.MeaningfulWords >= minMeaningfulWords {
				break
			}
		}
	}

	if stats.NonWhitespace == 0 || stats.Alphanumeric == 0 {
		return FallbackDecision{UseOCR: true, Stats: stats}
	}

	avgNonWhitespace := float64(stats.NonWhitespace) / float64(pages)
	avgAlnum := float64(stats.Alphanumeric) / float64(pages)
	alnumRatio := float64(stats.Alphanumeric) / float64(stats.NonWhitespace)

	substantial := stats.NonWhitespace >= minTotalNonWhitespace &&
		avgNonWhitespace >= minNonWhitespacePerPage &&
		stats.MeaningfulWords >= minMeaningfulWords
	if substantial {
		return FallbackDecision{UseOCR: false, Stats: stats}
	}

	if (alnumRatio < minAlnumRatio && avgAlnum < minNonWhitespacePerPage) ||
		(stats.NonWhitespace < minTotalNonWhitespace && avgNonWhitespace < minNonWhitespacePerPage) {
		return FallbackDecision{UseOCR: true, Stats: stats}
	}

	useOCR := stats.MeaningfulWords == 0 && avgNonWhitespace < minNonWhitespacePerPage
	return FallbackDecision{UseOCR: useOCR, Stats: stats}
}

// meaningfulWord reports whether w contains at least minMeaningfulWordLen
// alphanumeric runes in total. Punctuation inside the token does not
// disqualify it, so hyphenated and contracted words still count.
func meaningfulWord(w string) bool {
	n := 0
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
			if n >= minMeaningfulWordLen {
				return true
			}
		}
	}
	return false
}
