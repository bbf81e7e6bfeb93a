package kreuzberg

import "context"

// Plugin is the base contract every capability shares. Initialize is called
// exactly once when the plugin is registered; a failed Initialize rolls the
// registration back. Shutdown is called exactly once when the plugin is
// removed or the registry shuts down.
//
// Plugins must be safe for concurrent use: one instance serves every
// pipeline invocation in the process.
type Plugin interface {
	// Name is the unique registry key: non-empty, no whitespace, valid UTF-8.
	Name() string
	// Version is the plugin's semantic version.
	Version() string
	Initialize() error
	Shutdown() error
}

// DocumentExtractor converts raw document bytes of a given MIME type into
// an ExtractionResult.
type DocumentExtractor interface {
	Plugin
	// SupportedMimeTypes returns exact MIME strings or "type/*" wildcards.
	SupportedMimeTypes() []string
	// Priority breaks ties when several extractors claim a MIME type;
	// higher wins.
	Priority() int
	Extract(ctx context.Context, input Input, cfg *ExtractionConfig) (*ExtractionResult, error)
}

// Validator inspects a produced result and can reject it. Validators are a
// pre-acceptance gate: any validation error is fatal to the pipeline.
type Validator interface {
	Plugin
	Validate(result *ExtractionResult, cfg *ExtractionConfig) error
	Priority() int
}

// ProcessingStage orders post-processors into three sequential phases.
type ProcessingStage int

const (
	StageEarly ProcessingStage = iota
	StageMiddle
	StageLate
)

func (s ProcessingStage) String() string {
	switch s {
	case StageEarly:
		return "early"
	case StageMiddle:
		return "middle"
	case StageLate:
		return "late"
	}
	return "unknown"
}

// PostProcessor mutates an ExtractionResult in place after validation.
// Returning a Plugin-kind error aborts the pipeline; any other error is
// recorded into the result's metadata and processing continues.
type PostProcessor interface {
	Plugin
	Process(ctx context.Context, result *ExtractionResult, cfg *ExtractionConfig) error
	ProcessingStage() ProcessingStage
	// Priority breaks ties within a stage; higher runs first.
	Priority() int
}

// OcrBackend wraps an optical-character-recognition engine invoked on
// raster images or rendered PDF pages.
type OcrBackend interface {
	Plugin
	ProcessImage(ctx context.Context, image []byte, cfg *OcrConfig) (*ExtractionResult, error)
	ProcessFile(ctx context.Context, path string, cfg *OcrConfig) (*ExtractionResult, error)
	SupportsLanguage(language string) bool
	SupportedLanguages() []string
	SupportsTableDetection() bool
	// BackendType identifies the engine family ("tesseract", "easyocr", …)
	// and keys the OCR result cache.
	BackendType() string
}
