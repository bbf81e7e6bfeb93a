package extractors

import (
	"context"
	"strings"

	"github.com/hazyhaar/kreuzberg"
	"github.com/hazyhaar/kreuzberg/ocr"
)

// ImageExtractor routes raster images straight to an OCR backend,
// consulting the result cache first.
type ImageExtractor struct {
	reg   *kreuzberg.Registries
	cache *ocr.Cache
}

func NewImageExtractor(reg *kreuzberg.Registries, cache *ocr.Cache) *ImageExtractor {
	if cache == nil {
		cache = ocr.NewCache("")
	}
	return &ImageExtractor{reg: reg, cache: cache}
}

func (e *ImageExtractor) Name() string      { return "image" }
func (e *ImageExtractor) Version() string   { return "1.0.0" }
func (e *ImageExtractor) Initialize() error { return nil }
func (e *ImageExtractor) Shutdown() error   { return nil }
func (e *ImageExtractor) Priority() int     { return 0 }

func (e *ImageExtractor) SupportedMimeTypes() []string {
	return []string{"image/*"}
}

func (e *ImageExtractor) Extract(ctx context.Context, in kreuzberg.Input, cfg *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	if cfg == nil {
		cfg = kreuzberg.DefaultConfig()
	}
	data, err := inputData(in)
	if err != nil {
		return nil, err
	}
	backend, err := e.reg.OcrBackends.Get(cfg.OCR.Backend)
	if err != nil {
		return nil, kreuzberg.NewOcrError("image extraction requires an ocr backend", err)
	}

	cache := cacheFor(e.cache, cfg)
	hash := ocr.HashImage(data)
	cfgStr := cfg.OCR.ConfigString()
	if cfg.UseCache {
		cached, err := cache.Get(hash, backend.BackendType(), cfgStr)
		if err != nil {
			cfg.Logger.Debug("ocr cache read failed", "error", err)
		} else if cached != nil {
			res := cachedToResult(cached)
			e.annotate(res, in.MimeType, backend)
			return res, nil
		}
	}

	res, err := backend.ProcessImage(ctx, data, cfg.OCR)
	if err != nil {
		return nil, err
	}
	if cfg.UseCache {
		if err := cache.Set(hash, backend.BackendType(), cfgStr, resultToCached(res)); err != nil {
			cfg.Logger.Debug("ocr cache write failed", "error", err)
		}
	}
	e.annotate(res, in.MimeType, backend)
	return res, nil
}

func (e *ImageExtractor) annotate(res *kreuzberg.ExtractionResult, sourceMime string, backend kreuzberg.OcrBackend) {
	res.Metadata.Set("ocr_backend", backend.BackendType())
	if sourceMime != "" {
		res.Metadata.Set("source_mime_type", sourceMime)
	}
	if res.Metadata.Title == "" {
		res.Metadata.Title = firstLine(strings.TrimSpace(res.Content))
	}
}
