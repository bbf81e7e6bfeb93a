package kreuzberg

import (
	"context"
	"os"
	"sync"
)

// BatchItem is one input of a batch: either a file path or raw bytes plus
// a MIME type. For path items the MIME type may be left empty and is then
// detected per item.
type BatchItem struct {
	Path     string
	Data     []byte
	MimeType string
}

// BatchExtract fans the pipeline out over items under a counting admission
// gate (cfg.MaxConcurrent, default 2 × CPU cores) and returns exactly
// len(items) results in input order regardless of completion order.
//
// One item's failure never affects the others: a failed item yields an
// ExtractionResult whose Metadata.Error is populated, never a missing or
// shifted entry. The returned error is reserved for whole-batch setup
// failures.
func (r *Registries) BatchExtract(ctx context.Context, items []BatchItem, cfg *ExtractionConfig) ([]*ExtractionResult, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.defaults()

	results := make([]*ExtractionResult, len(items))
	if len(items) == 0 {
		return results, nil
	}

	sem := make(chan struct{}, r.batch.maxConcurrent(cfg))
	var wg sync.WaitGroup

	for i, item := range items {
		// Admission gate: one slot per in-flight pipeline invocation. A
		// cancelled context stops admitting work; already-running items
		// finish on their own.
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = errorResult(item.MimeType, NewIoError("batch cancelled", ctx.Err()))
			continue
		}

		wg.Add(1)
		go func(idx int, item BatchItem) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = r.extractBatchItem(ctx, item, cfg)
		}(i, item)
	}

	wg.Wait()
	return results, nil
}

// BatchExtractFiles is BatchExtract over file paths.
func (r *Registries) BatchExtractFiles(ctx context.Context, paths []string, cfg *ExtractionConfig) ([]*ExtractionResult, error) {
	items := make([]BatchItem, len(paths))
	for i, p := range paths {
		items[i] = BatchItem{Path: p}
	}
	return r.BatchExtract(ctx, items, cfg)
}

// extractBatchItem runs one item through the pipeline, converting any
// failure into an error-annotated result. File contents are staged
// through the shared byte pool so batch runs reuse read buffers.
func (r *Registries) extractBatchItem(ctx context.Context, item BatchItem, cfg *ExtractionConfig) *ExtractionResult {
	mimeType := item.MimeType
	data := item.Data

	if data == nil && item.Path != "" {
		if mimeType == "" {
			detected, err := DetectMimeType(item.Path)
			if err != nil {
				return errorResult("", err)
			}
			mimeType = detected
		}

		pool := r.batch.BytePool()
		buf := pool.Get()
		defer pool.Put(buf)

		f, err := os.Open(item.Path)
		if err != nil {
			return errorResult(mimeType, NewIoError("open "+item.Path, err))
		}
		if fi, statErr := f.Stat(); statErr == nil {
			buf.Grow(SizeHint(mimeType, fi.Size()))
		}
		_, err = buf.ReadFrom(f)
		f.Close()
		if err != nil {
			return errorResult(mimeType, NewIoError("read "+item.Path, err))
		}
		// The pipeline may retain the bytes in the result; copy out of the
		// pooled buffer before returning it.
		data = append([]byte(nil), buf.Bytes()...)
	}

	if mimeType == "" && data != nil {
		mimeType = DetectMimeTypeBytes(data)
	}

	res, err := r.runPipeline(ctx, Input{Data: data, Path: item.Path, MimeType: mimeType}, cfg)
	if err != nil {
		return errorResult(mimeType, err)
	}
	return res
}

// BatchExtract is the package-level convenience over the default registries.
func BatchExtract(ctx context.Context, items []BatchItem, cfg *ExtractionConfig) ([]*ExtractionResult, error) {
	return Default().BatchExtract(ctx, items, cfg)
}

// BatchExtractFiles is the package-level convenience over the default registries.
func BatchExtractFiles(ctx context.Context, paths []string, cfg *ExtractionConfig) ([]*ExtractionResult, error) {
	return Default().BatchExtractFiles(ctx, paths, cfg)
}

func errorResult(mimeType string, err error) *ExtractionResult {
	return &ExtractionResult{
		MimeType: mimeType,
		Metadata: Metadata{
			Error: &ErrorMetadata{Message: err.Error(), Type: KindOf(err).String()},
		},
	}
}
