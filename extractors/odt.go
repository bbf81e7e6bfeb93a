package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/hazyhaar/kreuzberg"
)

// OdtExtractor reads content.xml out of the OpenDocument archive and
// renders headings, paragraphs, and list items as Markdown.
type OdtExtractor struct{}

func (o *OdtExtractor) Name() string      { return "odt" }
func (o *OdtExtractor) Version() string   { return "1.0.0" }
func (o *OdtExtractor) Initialize() error { return nil }
func (o *OdtExtractor) Shutdown() error   { return nil }
func (o *OdtExtractor) Priority() int     { return 10 }

func (o *OdtExtractor) SupportedMimeTypes() []string {
	return []string{"application/vnd.oasis.opendocument.text"}
}

func (o *OdtExtractor) Extract(_ context.Context, in kreuzberg.Input, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	data, err := inputData(in)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, kreuzberg.NewParsingError("open odt archive", err)
	}
	var contentFile *zip.File
	for _, f := range zr.File {
		if f.Name == "content.xml" {
			contentFile = f
			break
		}
	}
	if contentFile == nil {
		return nil, kreuzberg.NewParsingError("content.xml not found in archive", nil)
	}
	rc, err := contentFile.Open()
	if err != nil {
		return nil, kreuzberg.NewParsingError("open content.xml", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var content strings.Builder
	var title string
	var current strings.Builder
	var inHeading bool
	var headingLevel int
	var inParagraph bool
	var inList bool

	emit := func(s string) {
		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(s)
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "h":
				inHeading = true
				current.Reset()
				headingLevel = 1
				for _, attr := range t.Attr {
					if attr.Name.Local == "outline-level" {
						if n, err := strconv.Atoi(attr.Value); err == nil && n >= 1 && n <= 6 {
							headingLevel = n
						}
					}
				}
			case "p":
				inParagraph = true
				current.Reset()
			case "list":
				inList = true
			}
		case xml.CharData:
			if inHeading || inParagraph {
				current.Write(t)
			}
		case xml.EndElement:
			switch {
			case t.Name.Local == "h" && inHeading:
				inHeading = false
				text := strings.TrimSpace(current.String())
				if text == "" {
					continue
				}
				if title == "" {
					title = text
				}
				emit(strings.Repeat("#", headingLevel) + " " + text)
			case t.Name.Local == "p" && inParagraph:
				inParagraph = false
				text := strings.TrimSpace(current.String())
				if text == "" {
					continue
				}
				if inList {
					text = "- " + text
				}
				emit(text)
			case t.Name.Local == "list":
				inList = false
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
