package extractors

import (
	"context"
	"testing"

	"github.com/hazyhaar/kreuzberg"
	"github.com/hazyhaar/kreuzberg/ocr"
)

// fakeBackend records invocations and returns canned text.
type fakeBackend struct {
	text  string
	calls int
	fail  error
}

func (f *fakeBackend) Name() string                   { return "tesseract" }
func (f *fakeBackend) Version() string                { return "0.0.0" }
func (f *fakeBackend) Initialize() error              { return nil }
func (f *fakeBackend) Shutdown() error                { return nil }
func (f *fakeBackend) BackendType() string            { return "tesseract" }
func (f *fakeBackend) SupportedLanguages() []string   { return []string{"eng"} }
func (f *fakeBackend) SupportsLanguage(l string) bool { return l == "eng" }
func (f *fakeBackend) SupportsTableDetection() bool   { return false }

func (f *fakeBackend) ProcessImage(_ context.Context, _ []byte, _ *kreuzberg.OcrConfig) (*kreuzberg.ExtractionResult, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	return &kreuzberg.ExtractionResult{Content: f.text, MimeType: "text/plain"}, nil
}

func (f *fakeBackend) ProcessFile(ctx context.Context, _ string, cfg *kreuzberg.OcrConfig) (*kreuzberg.ExtractionResult, error) {
	return f.ProcessImage(ctx, nil, cfg)
}

func TestImageExtractor(t *testing.T) {
	reg := kreuzberg.NewRegistries()
	backend := &fakeBackend{text: "scanned words"}
	if err := reg.OcrBackends.Register(backend); err != nil {
		t.Fatal(err)
	}
	e := NewImageExtractor(reg, ocr.NewCache(t.TempDir()))

	in := kreuzberg.Input{Data: []byte("pretend png bytes"), MimeType: "image/png"}
	res, err := e.Extract(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Content != "scanned words" {
		t.Errorf("content = %q", res.Content)
	}
	if res.Metadata.Additional["source_mime_type"] != "image/png" {
		t.Errorf("source mime annotation = %v", res.Metadata.Additional["source_mime_type"])
	}
	if backend.calls != 1 {
		t.Errorf("backend calls = %d", backend.calls)
	}
}

func TestImageExtractorCacheHit(t *testing.T) {
	// WHAT: the second extraction of identical bytes is served from the
	// cache without touching the backend.
	reg := kreuzberg.NewRegistries()
	backend := &fakeBackend{text: "cached once"}
	if err := reg.OcrBackends.Register(backend); err != nil {
		t.Fatal(err)
	}
	e := NewImageExtractor(reg, ocr.NewCache(t.TempDir()))

	in := kreuzberg.Input{Data: []byte("same image"), MimeType: "image/png"}
	for i := 0; i < 2; i++ {
		res, err := e.Extract(context.Background(), in, nil)
		if err != nil {
			t.Fatalf("extract #%d: %v", i, err)
		}
		if res.Content != "cached once" {
			t.Errorf("extract #%d content = %q", i, res.Content)
		}
	}
	if backend.calls != 1 {
		t.Errorf("backend calls = %d, want 1 (second served from cache)", backend.calls)
	}
}

func TestImageExtractorCacheDisabled(t *testing.T) {
	reg := kreuzberg.NewRegistries()
	backend := &fakeBackend{text: "no cache"}
	if err := reg.OcrBackends.Register(backend); err != nil {
		t.Fatal(err)
	}
	e := NewImageExtractor(reg, ocr.NewCache(t.TempDir()))

	cfg := kreuzberg.DefaultConfig()
	cfg.UseCache = false
	in := kreuzberg.Input{Data: []byte("same image"), MimeType: "image/png"}
	for i := 0; i < 2; i++ {
		if _, err := e.Extract(context.Background(), in, cfg); err != nil {
			t.Fatalf("extract #%d: %v", i, err)
		}
	}
	if backend.calls != 2 {
		t.Errorf("backend calls = %d, want 2 with cache disabled", backend.calls)
	}
}

func TestImageExtractorConfigChangeMissesCache(t *testing.T) {
	reg := kreuzberg.NewRegistries()
	backend := &fakeBackend{text: "per config"}
	if err := reg.OcrBackends.Register(backend); err != nil {
		t.Fatal(err)
	}
	e := NewImageExtractor(reg, ocr.NewCache(t.TempDir()))

	in := kreuzberg.Input{Data: []byte("same image"), MimeType: "image/png"}
	eng := kreuzberg.DefaultConfig()
	deu := kreuzberg.DefaultConfig()
	deu.OCR.Language = "deu"

	if _, err := e.Extract(context.Background(), in, eng); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Extract(context.Background(), in, deu); err != nil {
		t.Fatal(err)
	}
	if backend.calls != 2 {
		t.Errorf("backend calls = %d, want 2 (language change must miss)", backend.calls)
	}
}

func TestImageExtractorNoBackend(t *testing.T) {
	reg := kreuzberg.NewRegistries()
	e := NewImageExtractor(reg, ocr.NewCache(t.TempDir()))
	_, err := e.Extract(context.Background(), kreuzberg.Input{Data: []byte("img"), MimeType: "image/png"}, nil)
	if !kreuzberg.IsKind(err, kreuzberg.KindOcr) {
		t.Fatalf("expected ocr error, got %v", err)
	}
}
