package kreuzberg

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExtractionConfig is threaded, read-only, through every pipeline stage.
// The zero value is not useful; use DefaultConfig or LoadConfig. Entry
// points treat a nil config as DefaultConfig().
type ExtractionConfig struct {
	// MaxConcurrent caps simultaneous pipeline invocations during batch
	// extraction. 0 means 2 × the number of CPU cores.
	MaxConcurrent int `yaml:"max_concurrent"`

	// UseCache enables the on-disk OCR result cache.
	UseCache bool `yaml:"use_cache"`

	// CacheDir overrides the OCR cache directory (default .kreuzberg/ocr).
	CacheDir string `yaml:"cache_dir"`

	// ForceOCR runs OCR on PDFs even when the native text layer looks good.
	ForceOCR bool `yaml:"force_ocr"`

	OCR            *OcrConfig            `yaml:"ocr"`
	PostProcessing *PostProcessingConfig `yaml:"post_processing"`
	Chunking       *ChunkingConfig       `yaml:"chunking"`

	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the configuration used when a caller passes nil.
func DefaultConfig() *ExtractionConfig {
	cfg := &ExtractionConfig{UseCache: true}
	cfg.defaults()
	return cfg
}

func (c *ExtractionConfig) defaults() {
	if c.OCR == nil {
		c.OCR = &OcrConfig{}
	}
	c.OCR.defaults()
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// OcrConfig selects and tunes the OCR backend.
type OcrConfig struct {
	// Backend names the registered OCR backend plugin (default "tesseract").
	Backend string `yaml:"backend"`
	// Language is the recognition language code (default "eng").
	Language string `yaml:"language"`
	// PageSegMode is the Tesseract page segmentation mode (default 3,
	// fully automatic).
	PageSegMode int `yaml:"psm"`
	// EnableTableDetection asks the backend to reconstruct tables.
	EnableTableDetection bool `yaml:"enable_table_detection"`
}

func (o *OcrConfig) defaults() {
	if o.Backend == "" {
		o.Backend = "tesseract"
	}
	if o.Language == "" {
		o.Language = "eng"
	}
	if o.PageSegMode <= 0 {
		o.PageSegMode = 3
	}
}

// ConfigString is the canonical serialization used in cache keys. Any
// OCR-affecting field change produces a different string, which is the
// cache's sole invalidation mechanism.
func (o *OcrConfig) ConfigString() string {
	var b strings.Builder
	b.WriteString("language=")
	b.WriteString(o.Language)
	b.WriteString("&psm=")
	b.WriteString(strconv.Itoa(o.PageSegMode))
	b.WriteString("&tables=")
	b.WriteString(strconv.FormatBool(o.EnableTableDetection))
	return b.String()
}

// PostProcessingConfig filters which registered post-processors run.
// When EnabledProcessors is set it is an allow-list; otherwise
// DisabledProcessors is a deny-list.
type PostProcessingConfig struct {
	Disabled           bool     `yaml:"disabled"`
	EnabledProcessors  []string `yaml:"enabled_processors"`
	DisabledProcessors []string `yaml:"disabled_processors"`
}

// ProcessorEnabled reports whether the named post-processor should run.
func (p *PostProcessingConfig) ProcessorEnabled(name string) bool {
	if p == nil {
		return true
	}
	if p.Disabled {
		return false
	}
	if len(p.EnabledProcessors) > 0 {
		for _, n := range p.EnabledProcessors {
			if n == name {
				return true
			}
		}
		return false
	}
	for _, n := range p.DisabledProcessors {
		if n == name {
			return false
		}
	}
	return true
}

// ChunkingConfig splits result content into overlapping chunks.
type ChunkingConfig struct {
	Enabled       bool `yaml:"enabled"`
	MaxTokens     int  `yaml:"max_tokens"`
	OverlapTokens int  `yaml:"overlap_tokens"`
}

// LoadConfig reads an ExtractionConfig from a YAML file.
func LoadConfig(path string) (*ExtractionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewIoError(fmt.Sprintf("read config %s", path), err)
	}
	cfg := &ExtractionConfig{UseCache: true}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, NewValidationError("parse config %s: %v", path, err)
	}
	cfg.defaults()
	return cfg, nil
}
