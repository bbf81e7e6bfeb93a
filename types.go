// Package kreuzberg is a document-extraction engine: raw bytes or a file
// path plus a MIME type in, normalized text, tables, images and metadata
// out. Format support is pluggable through capability-typed registries
// (extractors, validators, post-processors, OCR backends); a staged
// pipeline sequences them, and a bounded batch orchestrator fans the
// pipeline out over many inputs while preserving input order.
//
// Usage:
//
//	regs := kreuzberg.NewRegistries()
//	extractors.RegisterDefaults(regs)
//	result, err := regs.ExtractFile(ctx, "report.pdf", "", nil)
//
// The package-level Extract/ExtractFile/BatchExtract helpers operate on a
// lazily-initialized process-wide registry bundle for callers that do not
// need isolated registries.
package kreuzberg

import "github.com/hazyhaar/kreuzberg/chunk"

// ExtractionResult is the normalized output of one document extraction.
// It is owned by the pipeline invocation that produced it until returned;
// post-processors mutate it in place, sequentially, never concurrently.
type ExtractionResult struct {
	Content           string           `json:"content"`
	MimeType          string           `json:"mime_type"`
	Metadata          Metadata         `json:"metadata"`
	Tables            []Table          `json:"tables,omitempty"`
	Images            []ExtractedImage `json:"images,omitempty"`
	DetectedLanguages []string         `json:"detected_languages,omitempty"`
	Chunks            []chunk.Chunk    `json:"chunks,omitempty"`
	Pages             []PageContent    `json:"pages,omitempty"`
}

// Metadata carries structured document properties plus a free-form map for
// anything format- or processor-specific.
type Metadata struct {
	Title      string         `json:"title,omitempty"`
	Language   string         `json:"language,omitempty"`
	PageCount  int            `json:"page_count,omitempty"`
	Additional map[string]any `json:"additional,omitempty"`

	// Error records a recoverable failure (typically a post-processor)
	// that did not abort the extraction.
	Error *ErrorMetadata `json:"error,omitempty"`
}

// Set stores a key in the additional metadata map, allocating it on first use.
func (m *Metadata) Set(key string, value any) {
	if m.Additional == nil {
		m.Additional = make(map[string]any)
	}
	m.Additional[key] = value
}

// ErrorMetadata is the annotation left on a result when a recoverable
// error occurred during processing.
type ErrorMetadata struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Table is a detected table, row-major.
type Table struct {
	Rows       [][]string `json:"rows"`
	PageNumber int        `json:"page_number,omitempty"`
	Markdown   string     `json:"markdown,omitempty"`
}

// ExtractedImage is a raster image found inside a document.
type ExtractedImage struct {
	Data       []byte `json:"-"`
	MimeType   string `json:"mime_type"`
	PageNumber int    `json:"page_number,omitempty"`
	Index      int    `json:"index"`
}

// PageContent is the text of a single page, for formats that have pages.
type PageContent struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// Input is one document to extract: either raw bytes or a file path,
// plus the resolved MIME type.
type Input struct {
	Data     []byte
	Path     string
	MimeType string
}
