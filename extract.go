package kreuzberg

import "context"

// Extract runs the pipeline over raw document bytes of a known MIME type.
func (r *Registries) Extract(ctx context.Context, data []byte, mimeType string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	if mimeType == "" {
		return nil, NewValidationError("mime type is required for byte extraction")
	}
	return r.runPipeline(ctx, Input{Data: data, MimeType: mimeType}, cfg)
}

// ExtractFile runs the pipeline over a file. When mimeType is empty, the
// type is detected from the file's extension and content.
func (r *Registries) ExtractFile(ctx context.Context, path string, mimeType string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	if path == "" {
		return nil, NewValidationError("path is required")
	}
	if mimeType == "" {
		detected, err := DetectMimeType(path)
		if err != nil {
			return nil, err
		}
		mimeType = detected
	}
	return r.runPipeline(ctx, Input{Path: path, MimeType: mimeType}, cfg)
}

// Extract is the package-level convenience over the default registries.
func Extract(ctx context.Context, data []byte, mimeType string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	return Default().Extract(ctx, data, mimeType, cfg)
}

// ExtractFile is the package-level convenience over the default registries.
func ExtractFile(ctx context.Context, path string, mimeType string, cfg *ExtractionConfig) (*ExtractionResult, error) {
	return Default().ExtractFile(ctx, path, mimeType, cfg)
}
