// Package extractors ships the built-in document extractor plugins: plain
// text, Markdown, HTML, DOCX, ODT, PDF, and raster images.
package extractors

import (
	"os"
	"strings"

	"github.com/hazyhaar/kreuzberg"
	"github.com/hazyhaar/kreuzberg/ocr"
)

// RegisterDefaults registers every built-in extractor into r. The PDF and
// image extractors resolve their OCR backend through r at extraction
// time, so OCR backends may be registered before or after this call.
func RegisterDefaults(r *kreuzberg.Registries) error {
	cache := ocr.NewCache("")
	all := []kreuzberg.DocumentExtractor{
		&TextExtractor{},
		&MarkdownExtractor{},
		NewHTMLExtractor(),
		&DocxExtractor{},
		&OdtExtractor{},
		NewPDFExtractor(r, cache),
		NewImageExtractor(r, cache),
	}
	for _, e := range all {
		if err := r.Extractors.Register(e); err != nil {
			return err
		}
	}
	return nil
}

// inputData returns the document bytes, reading from disk when the input
// carries only a path.
func inputData(in kreuzberg.Input) ([]byte, error) {
	if in.Data != nil {
		return in.Data, nil
	}
	if in.Path == "" {
		return nil, kreuzberg.NewValidationError("input carries neither data nor path")
	}
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, kreuzberg.NewIoError("read "+in.Path, err)
	}
	return data, nil
}

// firstLine returns the first non-empty line, capped at 200 bytes, for
// use as a fallback title.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 200 {
			line = line[:200]
		}
		return line
	}
	return ""
}

// cacheFor returns the OCR cache honoring a per-extraction directory
// override.
func cacheFor(base *ocr.Cache, cfg *kreuzberg.ExtractionConfig) *ocr.Cache {
	if cfg != nil && cfg.CacheDir != "" && cfg.CacheDir != base.Dir() {
		return ocr.NewCache(cfg.CacheDir)
	}
	return base
}

// cachedToResult rehydrates a cached OCR result.
func cachedToResult(c *ocr.Result) *kreuzberg.ExtractionResult {
	res := &kreuzberg.ExtractionResult{
		Content:  c.Content,
		MimeType: c.MimeType,
	}
	for k, v := range c.Metadata {
		res.Metadata.Set(k, v)
	}
	for _, t := range c.Tables {
		res.Tables = append(res.Tables, kreuzberg.Table{
			Rows:       t.Rows,
			PageNumber: t.PageNumber,
			Markdown:   t.Markdown,
		})
	}
	res.Metadata.Set("ocr_cached", true)
	return res
}

// resultToCached flattens an OCR result for storage.
func resultToCached(res *kreuzberg.ExtractionResult) *ocr.Result {
	c := &ocr.Result{
		Content:  res.Content,
		MimeType: res.MimeType,
	}
	if len(res.Metadata.Additional) > 0 {
		c.Metadata = make(map[string]string, len(res.Metadata.Additional))
		for k, v := range res.Metadata.Additional {
			if s, ok := v.(string); ok {
				c.Metadata[k] = s
			}
		}
	}
	for _, t := range res.Tables {
		c.Tables = append(c.Tables, ocr.Table{
			Rows:       t.Rows,
			PageNumber: t.PageNumber,
			Markdown:   t.Markdown,
		})
	}
	return c
}
