package kreuzberg

import (
	"errors"
	"sync"
)

// Registries bundles the four capability registries plus the shared batch
// processor that owns the buffer pools. One bundle per logical engine;
// every concurrent pipeline invocation reads the same bundle.
type Registries struct {
	Extractors     *ExtractorRegistry
	Validators     *ValidatorRegistry
	PostProcessors *PostProcessorRegistry
	OcrBackends    *OcrRegistry

	batch *BatchProcessor
}

// NewRegistries creates an empty bundle. Callers typically follow up with
// extractors.RegisterDefaults and RegisterBuiltinProcessors.
func NewRegistries() *Registries {
	return &Registries{
		Extractors:     NewExtractorRegistry(),
		Validators:     NewValidatorRegistry(),
		PostProcessors: NewPostProcessorRegistry(),
		OcrBackends:    NewOcrRegistry(),
		batch:          NewBatchProcessor(),
	}
}

// Shutdown shuts down every registry, attempting all of them and joining
// the errors.
func (r *Registries) Shutdown() error {
	return errors.Join(
		r.Extractors.ShutdownAll(),
		r.Validators.ShutdownAll(),
		r.PostProcessors.ShutdownAll(),
		r.OcrBackends.ShutdownAll(),
	)
}

// Registries are passed explicitly wherever testability matters; the
// process-wide default exists only for the outermost convenience entry
// points.
var (
	defaultRegistries     *Registries
	defaultRegistriesOnce sync.Once
)

// Default returns the lazily-initialized process-wide registry bundle.
func Default() *Registries {
	defaultRegistriesOnce.Do(func() {
		defaultRegistries = NewRegistries()
	})
	return defaultRegistries
}

// Mutation surface over the default bundle, for language bindings and CLIs
// that do not manage their own Registries.

func RegisterExtractor(e DocumentExtractor) error { return Default().Extractors.Register(e) }
func RegisterValidator(v Validator) error         { return Default().Validators.Register(v) }
func RegisterPostProcessor(p PostProcessor) error { return Default().PostProcessors.Register(p) }
func RegisterOcrBackend(b OcrBackend) error       { return Default().OcrBackends.Register(b) }

func UnregisterExtractor(name string) error     { return Default().Extractors.Remove(name) }
func UnregisterValidator(name string) error     { return Default().Validators.Remove(name) }
func UnregisterPostProcessor(name string) error { return Default().PostProcessors.Remove(name) }
func UnregisterOcrBackend(name string) error    { return Default().OcrBackends.Remove(name) }

func ListExtractors() []string     { return Default().Extractors.List() }
func ListValidators() []string     { return Default().Validators.List() }
func ListPostProcessors() []string { return Default().PostProcessors.List() }
func ListOcrBackends() []string    { return Default().OcrBackends.List() }

func ClearExtractors() error     { return Default().Extractors.ShutdownAll() }
func ClearValidators() error     { return Default().Validators.ShutdownAll() }
func ClearPostProcessors() error { return Default().PostProcessors.ShutdownAll() }
func ClearOcrBackends() error    { return Default().OcrBackends.ShutdownAll() }
