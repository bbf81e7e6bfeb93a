package kreuzberg

import (
	"context"

	"github.com/hazyhaar/kreuzberg/chunk"
)

// runPipeline executes one document through the staged pipeline:
// resolve the extractor, extract, validate, then post-process stage by
// stage. Resolution and validation failures are fatal, as is any
// Plugin-kind post-processor error; every other post-processor error is
// recorded into the result's metadata and processing continues.
func (r *Registries) runPipeline(ctx context.Context, in Input, cfg *ExtractionConfig) (*ExtractionResult, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.defaults()
	log := cfg.Logger

	extractor, err := r.Extractors.Get(in.MimeType)
	if err != nil {
		return nil, err
	}
	log.Debug("extracting document", "mime_type", in.MimeType, "extractor", extractor.Name())

	result, err := extractor.Extract(ctx, in, cfg)
	if err != nil {
		// The extractor's own failure mode; propagate unchanged.
		return nil, err
	}
	if result.MimeType == "" {
		result.MimeType = in.MimeType
	}
	if result.Content == "" && len(result.Pages) > 0 {
		result.Content = r.joinPages(result.MimeType, result.Pages)
	}

	for _, v := range r.Validators.GetAll() {
		if err := v.Validate(result, cfg); err != nil {
			return nil, err
		}
	}

	pp := cfg.PostProcessing
	if pp == nil || !pp.Disabled {
		for _, stage := range []ProcessingStage{StageEarly, StageMiddle, StageLate} {
			for _, proc := range r.PostProcessors.ForStage(stage) {
				name := proc.Name()
				if !pp.ProcessorEnabled(name) {
					continue
				}
				if err := proc.Process(ctx, result, cfg); err != nil {
					if IsKind(err, KindPlugin) {
						return nil, err
					}
					log.Debug("post-processor error recorded", "processor", name, "error", err)
					result.Metadata.Set("processing_error_"+name, err.Error())
					result.Metadata.Error = &ErrorMetadata{
						Message: err.Error(),
						Type:    KindOf(err).String(),
					}
				}
			}
		}
	}

	if cc := cfg.Chunking; cc != nil && cc.Enabled {
		result.Chunks = chunk.Split(result.Content, chunk.Options{
			MaxTokens:     cc.MaxTokens,
			OverlapTokens: cc.OverlapTokens,
		})
		result.Metadata.Set("chunk_count", len(result.Chunks))
	}

	return result, nil
}

// joinPages assembles full-document content from per-page text using a
// pooled builder; PDF extractions with many pages hit this on every
// document of a batch.
func (r *Registries) joinPages(mimeType string, pages []PageContent) string {
	total := len(pages)
	for _, p := range pages {
		total += len(p.Content)
	}
	pool := r.batch.StringPool()
	b := pool.Get()
	defer pool.Put(b)
	b.Grow(SizeHint(mimeType, int64(total)))
	for i, p := range pages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.Content)
	}
	return b.String()
}
