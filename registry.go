package kreuzberg

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

func validatePluginName(name string) error {
	if name == "" {
		return NewValidationError("plugin name cannot be empty")
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return NewValidationError("plugin name %q cannot contain whitespace", name)
	}
	if !utf8.ValidString(name) {
		return NewValidationError("plugin name is not valid UTF-8")
	}
	return nil
}

// store is the generic keyed plugin store behind every registry: a
// name-indexed map guarded by one RWMutex. Readers (lookups, listings)
// proceed concurrently; register/remove/shutdownAll take the write lock.
type store[P Plugin] struct {
	mu      sync.RWMutex
	entries map[string]P
	logger  *slog.Logger
}

func newStore[P Plugin]() store[P] {
	return store[P]{entries: make(map[string]P), logger: slog.Default()}
}

// register validates the name, initializes the plugin, and inserts it.
// Initialization failure rolls the registration back. A duplicate name
// replaces the old entry; the displaced plugin is shut down first and a
// shutdown failure is logged, not returned, since the new plugin has
// already initialized successfully.
func (s *store[P]) register(p P) error {
	name := p.Name()
	if err := validatePluginName(name); err != nil {
		return err
	}
	if err := p.Initialize(); err != nil {
		return NewPluginError(name, "initialize failed", err)
	}

	s.mu.Lock()
	old, existed := s.entries[name]
	s.entries[name] = p
	s.mu.Unlock()

	if existed {
		if err := old.Shutdown(); err != nil {
			s.logger.Warn("displaced plugin shutdown failed", "plugin", name, "error", err)
		}
	}
	return nil
}

// remove deletes the named plugin and shuts it down. Removing an absent
// name is a no-op. A shutdown error is surfaced to the caller; the entry
// is gone from the registry either way.
func (s *store[P]) remove(name string) error {
	s.mu.Lock()
	p, ok := s.entries[name]
	if ok {
		delete(s.entries, name)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := p.Shutdown(); err != nil {
		return NewPluginError(name, "shutdown failed", err)
	}
	return nil
}

func (s *store[P]) list() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

func (s *store[P]) get(name string) (P, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.entries[name]
	return p, ok
}

// all returns a snapshot of every entry, so callers can iterate without
// holding the lock.
func (s *store[P]) all() []P {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]P, 0, len(s.entries))
	for _, p := range s.entries {
		out = append(out, p)
	}
	return out
}

// shutdownAll shuts every entry down, clears the store, and aggregates
// whatever errors occurred. Every entry is attempted: one failing shutdown
// never prevents the others.
func (s *store[P]) shutdownAll() error {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]P)
	s.mu.Unlock()

	var errs []error
	for name, p := range entries {
		if err := p.Shutdown(); err != nil {
			errs = append(errs, NewPluginError(name, "shutdown failed", err))
		}
	}
	return errors.Join(errs...)
}

// ExtractorRegistry resolves DocumentExtractors by MIME type: exact match
// first, then "type/*" wildcards, highest priority winning within the tier.
type ExtractorRegistry struct {
	store[DocumentExtractor]
}

// NewExtractorRegistry returns an empty registry.
func NewExtractorRegistry() *ExtractorRegistry {
	return &ExtractorRegistry{store: newStore[DocumentExtractor]()}
}

// Register adds an extractor. See store.register for lifecycle semantics.
func (r *ExtractorRegistry) Register(e DocumentExtractor) error { return r.register(e) }

// Remove removes the named extractor; absent names are a no-op.
func (r *ExtractorRegistry) Remove(name string) error { return r.remove(name) }

// List returns all registered extractor names, unordered.
func (r *ExtractorRegistry) List() []string { return r.list() }

// ShutdownAll shuts down and clears every extractor.
func (r *ExtractorRegistry) ShutdownAll() error { return r.shutdownAll() }

// All returns a snapshot of every registered extractor, unordered.
func (r *ExtractorRegistry) All() []DocumentExtractor { return r.all() }

// Get resolves the extractor for a MIME type. Exact matches beat wildcard
// matches at any priority; within the winning tier the highest priority
// wins, ties broken by name so resolution is deterministic for a given
// registry state.
func (r *ExtractorRegistry) Get(mimeType string) (DocumentExtractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exact, wildcard DocumentExtractor
	for _, e := range r.entries {
		for _, mt := range e.SupportedMimeTypes() {
			switch {
			case mt == mimeType:
				if better(e, exact) {
					exact = e
				}
			case strings.HasSuffix(mt, "/*") && strings.HasPrefix(mimeType, mt[:len(mt)-1]):
				if better(e, wildcard) {
					wildcard = e
				}
			}
		}
	}
	if exact != nil {
		return exact, nil
	}
	if wildcard != nil {
		return wildcard, nil
	}
	return nil, NewUnsupportedFormat(mimeType)
}

func better(candidate, current DocumentExtractor) bool {
	if current == nil {
		return true
	}
	if candidate.Priority() != current.Priority() {
		return candidate.Priority() > current.Priority()
	}
	return candidate.Name() < current.Name()
}

// ValidatorRegistry holds Validators, served in descending priority order.
type ValidatorRegistry struct {
	store[Validator]
}

// NewValidatorRegistry returns an empty registry.
func NewValidatorRegistry() *ValidatorRegistry {
	return &ValidatorRegistry{store: newStore[Validator]()}
}

func (r *ValidatorRegistry) Register(v Validator) error { return r.register(v) }
func (r *ValidatorRegistry) Remove(name string) error   { return r.remove(name) }
func (r *ValidatorRegistry) List() []string             { return r.list() }
func (r *ValidatorRegistry) ShutdownAll() error         { return r.shutdownAll() }

// GetAll returns every validator, highest priority first. Tie order at
// equal priority is by name, deterministic but not contractual.
func (r *ValidatorRegistry) GetAll() []Validator {
	vs := r.all()
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Priority() != vs[j].Priority() {
			return vs[i].Priority() > vs[j].Priority()
		}
		return vs[i].Name() < vs[j].Name()
	})
	return vs
}

// PostProcessorRegistry holds PostProcessors grouped by processing stage.
type PostProcessorRegistry struct {
	store[PostProcessor]
}

// NewPostProcessorRegistry returns an empty registry.
func NewPostProcessorRegistry() *PostProcessorRegistry {
	return &PostProcessorRegistry{store: newStore[PostProcessor]()}
}

func (r *PostProcessorRegistry) Register(p PostProcessor) error { return r.register(p) }
func (r *PostProcessorRegistry) Remove(name string) error       { return r.remove(name) }
func (r *PostProcessorRegistry) List() []string                 { return r.list() }
func (r *PostProcessorRegistry) ShutdownAll() error             { return r.shutdownAll() }

// ForStage returns the processors of one stage, highest priority first.
func (r *PostProcessorRegistry) ForStage(stage ProcessingStage) []PostProcessor {
	var ps []PostProcessor
	for _, p := range r.all() {
		if p.ProcessingStage() == stage {
			ps = append(ps, p)
		}
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Priority() != ps[j].Priority() {
			return ps[i].Priority() > ps[j].Priority()
		}
		return ps[i].Name() < ps[j].Name()
	})
	return ps
}

// OcrRegistry holds OCR backends, keyed by name with language-based
// selection. OCR backends carry no MIME types, so MIME resolution does not
// apply here.
type OcrRegistry struct {
	store[OcrBackend]
}

// NewOcrRegistry returns an empty registry.
func NewOcrRegistry() *OcrRegistry {
	return &OcrRegistry{store: newStore[OcrBackend]()}
}

func (r *OcrRegistry) Register(b OcrBackend) error { return r.register(b) }
func (r *OcrRegistry) Remove(name string) error    { return r.remove(name) }
func (r *OcrRegistry) List() []string              { return r.list() }
func (r *OcrRegistry) ShutdownAll() error          { return r.shutdownAll() }

// Get returns the named backend.
func (r *OcrRegistry) Get(name string) (OcrBackend, error) {
	b, ok := r.get(name)
	if !ok {
		return nil, NewValidationError("ocr backend %q not registered", name)
	}
	return b, nil
}

// ForLanguage returns a backend supporting the given language, preferring
// name order for determinism.
func (r *OcrRegistry) ForLanguage(language string) (OcrBackend, error) {
	backends := r.all()
	sort.Slice(backends, func(i, j int) bool { return backends[i].Name() < backends[j].Name() })
	for _, b := range backends {
		if b.SupportsLanguage(language) {
			return b, nil
		}
	}
	return nil, NewOcrError(fmt.Sprintf("no ocr backend supports language %q", language), nil)
}
