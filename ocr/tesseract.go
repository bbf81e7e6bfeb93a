package ocr

import (
	"context"
	"os"

	"github.com/otiai10/gosseract/v2"

	"github.com/hazyhaar/kreuzberg"
)

// TesseractBackend runs OCR through the Tesseract engine. gosseract
// clients are not safe for concurrent use, so each call gets a fresh
// client; Tesseract's model load dominates either way.
type TesseractBackend struct {
	languages []string
}

// NewTesseractBackend returns a Tesseract-backed OCR plugin.
func NewTesseractBackend() *TesseractBackend {
	return &TesseractBackend{}
}

func (t *TesseractBackend) Name() string        { return "tesseract" }
func (t *TesseractBackend) Version() string     { return "1.0.0" }
func (t *TesseractBackend) BackendType() string { return "tesseract" }

// Initialize probes the installed Tesseract for its language packs.
func (t *TesseractBackend) Initialize() error {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return kreuzberg.NewOcrError("tesseract unavailable", err)
	}
	t.languages = langs
	return nil
}

func (t *TesseractBackend) Shutdown() error { return nil }

func (t *TesseractBackend) SupportedLanguages() []string { return t.languages }

func (t *TesseractBackend) SupportsLanguage(language string) bool {
	for _, l := range t.languages {
		if l == language {
			return true
		}
	}
	return false
}

func (t *TesseractBackend) SupportsTableDetection() bool { return false }

// ProcessImage recognizes text in raw image bytes.
func (t *TesseractBackend) ProcessImage(ctx context.Context, image []byte, cfg *kreuzberg.OcrConfig) (*kreuzberg.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := t.configure(client, cfg); err != nil {
		return nil, err
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, kreuzberg.NewOcrError("set image", err)
	}
	return t.recognize(client, cfg)
}

// ProcessFile recognizes text in an image file on disk.
func (t *TesseractBackend) ProcessFile(ctx context.Context, path string, cfg *kreuzberg.OcrConfig) (*kreuzberg.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kreuzberg.NewIoError("read image file", err)
	}
	return t.ProcessImage(ctx, data, cfg)
}

func (t *TesseractBackend) configure(client *gosseract.Client, cfg *kreuzberg.OcrConfig) error {
	if cfg == nil {
		return nil
	}
	if cfg.Language != "" {
		if err := client.SetLanguage(cfg.Language); err != nil {
			return kreuzberg.NewOcrError("set language "+cfg.Language, err)
		}
	}
	if cfg.PageSegMode >= 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
			return kreuzberg.NewOcrError("set page segmentation mode", err)
		}
	}
	return nil
}

func (t *TesseractBackend) recognize(client *gosseract.Client, cfg *kreuzberg.OcrConfig) (*kreuzberg.ExtractionResult, error) {
	text, err := client.Text()
	if err != nil {
		return nil, kreuzberg.NewOcrError("recognize", err)
	}
	result := &kreuzberg.ExtractionResult{
		Content:  text,
		MimeType: "text/plain",
	}
	result.Metadata.Set("ocr_backend", t.BackendType())
	if cfg != nil && cfg.Language != "" {
		result.Metadata.Set("ocr_language", cfg.Language)
		result.DetectedLanguages = []string{cfg.Language}
	}
	return result, nil
}
