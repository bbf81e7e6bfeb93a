package extractors

import (
	"bytes"
	"context"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/kreuzberg"
)

// HTMLExtractor sanitizes markup and converts it to Markdown. The title
// and a visible-text fallback come from a DOM walk that skips scripts,
// styles, and boilerplate chrome.
type HTMLExtractor struct {
	policy    *bluemonday.Policy
	converter *htmltomarkdown.Converter
}

func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{
		policy: bluemonday.UGCPolicy(),
		converter: htmltomarkdown.NewConverter(
			htmltomarkdown.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (h *HTMLExtractor) Name() string      { return "html" }
func (h *HTMLExtractor) Version() string   { return "1.0.0" }
func (h *HTMLExtractor) Initialize() error { return nil }
func (h *HTMLExtractor) Shutdown() error   { return nil }
func (h *HTMLExtractor) Priority() int     { return 10 }

func (h *HTMLExtractor) SupportedMimeTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (h *HTMLExtractor) Extract(_ context.Context, in kreuzberg.Input, _ *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	data, err := inputData(in)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, kreuzberg.NewParsingError("parse html", err)
	}

	sanitized := h.policy.Sanitize(string(data))
	markdown, err := h.converter.ConvertString(sanitized)
	if err != nil || strings.TrimSpace(markdown) == "" {
		// Some documents defeat the converter; fall back to visible text.
		markdown = collectVisibleText(doc)
	}

	res := &kreuzberg.ExtractionResult{
		Content:  strings.TrimSpace(markdown),
		MimeType: "text/markdown",
	}
	res.Metadata.Title = findTitle(doc)
	if res.Metadata.Title == "" {
		res.Metadata.Title = firstLine(res.Content)
	}
	return res, nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// collectVisibleText gathers text nodes outside script, style, and page
// chrome elements.
func collectVisibleText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Header:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
