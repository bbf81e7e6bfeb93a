package kreuzberg

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Extension fast path for the formats this engine ships extractors for;
// everything else falls through to content sniffing.
var extensionMimeTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".odt":      "application/vnd.oasis.opendocument.text",
	".png":      "image/png",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".tif":      "image/tiff",
	".tiff":     "image/tiff",
	".bmp":      "image/bmp",
	".webp":     "image/webp",
}

// DetectMimeType resolves the MIME type of a file from its extension,
// falling back to content sniffing.
func DetectMimeType(path string) (string, error) {
	if mt, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt, nil
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", NewIoError("detect mime type of "+path, err)
	}
	return normalizeMimeType(mt.String()), nil
}

// DetectMimeTypeBytes sniffs the MIME type of in-memory content.
func DetectMimeTypeBytes(data []byte) string {
	return normalizeMimeType(mimetype.Detect(data).String())
}

// normalizeMimeType strips parameters such as "; charset=utf-8".
func normalizeMimeType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}
