package extractors

import (
	"context"
	"strings"
	"testing"

	"github.com/hazyhaar/kreuzberg"
)

func TestTextExtractor(t *testing.T) {
	e := &TextExtractor{}
	in := kreuzberg.Input{Data: []byte("First line\nsecond line\n\n")}
	res, err := e.Extract(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Content != "First line\nsecond line" {
		t.Errorf("content = %q", res.Content)
	}
	if res.Metadata.Title != "First line" {
		t.Errorf("title = %q", res.Metadata.Title)
	}
	if res.MimeType != "text/plain" {
		t.Errorf("mime = %q", res.MimeType)
	}
}

func TestTextExtractorRejectsBinary(t *testing.T) {
	e := &TextExtractor{}
	_, err := e.Extract(context.Background(), kreuzberg.Input{Data: []byte{0xff, 0xfe, 0x00, 0x80}}, nil)
	if !kreuzberg.IsKind(err, kreuzberg.KindParsing) {
		t.Fatalf("expected parsing error, got %v", err)
	}
}

func TestTextExtractorNoInput(t *testing.T) {
	e := &TextExtractor{}
	_, err := e.Extract(context.Background(), kreuzberg.Input{}, nil)
	if !kreuzberg.IsKind(err, kreuzberg.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkdownExtractor(t *testing.T) {
	src := "# Document Title\n\nIntro paragraph.\n\n## Section One\n\nBody text here.\n"
	e := &MarkdownExtractor{}
	res, err := e.Extract(context.Background(), kreuzberg.Input{Data: []byte(src)}, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Metadata.Title != "Document Title" {
		t.Errorf("title = %q", res.Metadata.Title)
	}
	headings, ok := res.Metadata.Additional["headings"].([]string)
	if !ok || len(headings) != 2 {
		t.Fatalf("headings = %v", res.Metadata.Additional["headings"])
	}
	if headings[1] != "Section One" {
		t.Errorf("second heading = %q", headings[1])
	}
	if !strings.Contains(res.Content, "Body text here.") {
		t.Errorf("content lost body: %q", res.Content)
	}
}

func TestMarkdownExtractorNoHeadings(t *testing.T) {
	e := &MarkdownExtractor{}
	res, err := e.Extract(context.Background(), kreuzberg.Input{Data: []byte("just prose\nmore prose")}, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Metadata.Title != "just prose" {
		t.Errorf("title = %q", res.Metadata.Title)
	}
	if _, exists := res.Metadata.Additional["headings"]; exists {
		t.Error("headings key set for heading-less document")
	}
}
