package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"strings"

	"github.com/hazyhaar/kreuzberg"
)

// DocxExtractor reads word/document.xml out of the OOXML archive and
// renders paragraphs and styled headings as Markdown.
type DocxExtractor struct{}

func (d *DocxExtractor) Name() string      { return "docx" }
func (d *DocxExtractor) Version() string   { return "1.0.0" }
func (d *DocxExtractor) Initialize() error { return nil }
func (d *DocxExtractor) Shutdown() error   { return nil }
func (d *DocxExtractor) Priority() int     { return 10 }

func (d *DocxExtractor) SupportedMimeTypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}

func (d *DocxExtractor) Extract(_ context.Context, in kreuzberg.Input, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	data, err := inputData(in)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, kreuzberg.NewParsingError("open docx archive", err)
	}
	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, kreuzberg.NewParsingError("word/document.xml not found in archive", nil)
	}
	rc, err := docFile.Open()
	if err != nil {
		return nil, kreuzberg.NewParsingError("open word/document.xml", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var content strings.Builder
	var title string
	var current strings.Builder
	var inParagraph bool
	var paragraphStyle string

	emit := func(text string, level int) {
		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		if level > 0 {
			content.WriteString(strings.Repeat("#", level))
			content.WriteByte(' ')
		}
		content.WriteString(text)
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "p":
				inParagraph = true
				current.Reset()
				paragraphStyle = ""
			case t.Name.Local == "pStyle" && inParagraph:
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						paragraphStyle = attr.Value
					}
				}
			}
		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				text := strings.TrimSpace(current.String())
				if text == "" {
					continue
				}
				level := docxHeadingLevel(paragraphStyle)
				if level > 0 && title == "" {
					title = text
				}
				emit(text, level)
			}
		}
	}

	res := &kreuzberg.ExtractionResult{
		Content:  content.String(),
		MimeType: "text/markdown",
	}
	res.Metadata.Title = title
	if res.Metadata.Title == "" {
		res.Metadata.Title = firstLine(res.Content)
	}
	return res, nil
}

// docxHeadingLevel maps a paragraph style name to an outline level:
// "Heading1" is 1, "Title" is 1, "Subtitle" is 2, localized prefixes
// such as "Titre2" work too. 0 means body text.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(style)
	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}
