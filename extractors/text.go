package extractors

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/kreuzberg"
)

// TextExtractor handles plain text and, through its wildcard claim, any
// text/* subtype no dedicated extractor covers.
type TextExtractor struct{}

func (t *TextExtractor) Name() string                 { return "text" }
func (t *TextExtractor) Version() string              { return "1.0.0" }
func (t *TextExtractor) Initialize() error            { return nil }
func (t *TextExtractor) Shutdown() error              { return nil }
func (t *TextExtractor) SupportedMimeTypes() []string { return []string{"text/plain", "text/*"} }
func (t *TextExtractor) Priority() int                { return 0 }

func (t *TextExtractor) Extract(_ context.Context, in kreuzberg.Input, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	data, err := inputData(in)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, kreuzberg.NewParsingError("text input is not valid UTF-8", nil)
	}
	content := strings.TrimRight(string(data), " \t\n\r")
	res := &kreuzberg.ExtractionResult{
		Content:  content,
		MimeType: "text/plain",
	}
	res.Metadata.Title = firstLine(content)
	return res, nil
}

// MarkdownExtractor parses Markdown, lifting the first heading into the
// title and an ATX heading outline into metadata.
type MarkdownExtractor struct{}

func (m *MarkdownExtractor) Name() string                 { return "markdown" }
func (m *MarkdownExtractor) Version() string              { return "1.0.0" }
func (m *MarkdownExtractor) Initialize() error            { return nil }
func (m *MarkdownExtractor) Shutdown() error              { return nil }
func (m *MarkdownExtractor) SupportedMimeTypes() []string { return []string{"text/markdown"} }
func (m *MarkdownExtractor) Priority() int                { return 10 }

func (m *MarkdownExtractor) Extract(_ context.Context, in kreuzberg.Input, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	data, err := inputData(in)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, kreuzberg.NewParsingError("markdown input is not valid UTF-8", nil)
	}
	content := string(data)

	var title string
	var headings []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		text := strings.TrimSpace(strings.TrimRight(strings.TrimLeft(trimmed, "#"), "#"))
		if text == "" {
			continue
		}
		if title == "" {
			title = text
		}
		headings = append(headings, text)
	}

	res := &kreuzberg.ExtractionResult{
		Content:  strings.TrimRight(content, " \t\n\r"),
		MimeType: "text/markdown",
	}
	res.Metadata.Title = title
	if res.Metadata.Title == "" {
		res.Metadata.Title = firstLine(content)
	}
	if len(headings) > 0 {
		res.Metadata.Set("headings", headings)
	}
	return res, nil
}
