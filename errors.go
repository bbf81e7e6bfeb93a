package kreuzberg

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an Error for propagation decisions. Io and Plugin
// errors always bubble up to the caller; most other kinds are recoverable
// at some layer (a post-processor failure is annotated, a cache miss is
// not an error at all).
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindValidation
	KindUnsupportedFormat
	KindParsing
	KindOcr
	KindPlugin
	KindCache
	KindIo
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindParsing:
		return "parsing"
	case KindOcr:
		return "ocr"
	case KindPlugin:
		return "plugin"
	case KindCache:
		return "cache"
	case KindIo:
		return "io"
	default:
		return "other"
	}
}

// Error is the error type returned by every fallible operation in this
// module. Plugin-kind errors carry the name of the offending plugin.
type Error struct {
	Kind    ErrorKind
	Plugin  string // plugin name, set for KindPlugin
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindPlugin && e.Plugin != "":
		return fmt.Sprintf("plugin %s: %s", e.Plugin, e.Message)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError reports bad input or configuration.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewUnsupportedFormat reports that no extractor matches a MIME type.
func NewUnsupportedFormat(mimeType string) *Error {
	return &Error{Kind: KindUnsupportedFormat, Message: fmt.Sprintf("unsupported format: %s", mimeType)}
}

// NewParsingError reports a format-specific decode failure.
func NewParsingError(message string, err error) *Error {
	return &Error{Kind: KindParsing, Message: message, Err: err}
}

// NewOcrError reports an OCR engine failure.
func NewOcrError(message string, err error) *Error {
	return &Error{Kind: KindOcr, Message: message, Err: err}
}

// NewPluginError reports that the plugin subsystem itself misbehaved:
// a failed initialization, or a post-processor signalling a structural
// fault. These errors are always fatal to the operation that sees them.
func NewPluginError(plugin, message string, err error) *Error {
	return &Error{Kind: KindPlugin, Plugin: plugin, Message: message, Err: err}
}

// NewCacheError reports a cache I/O or serialization failure. A cache miss
// is not an error.
func NewCacheError(message string, err error) *Error {
	return &Error{Kind: KindCache, Message: message, Err: err}
}

// NewIoError wraps a filesystem or system error.
func NewIoError(message string, err error) *Error {
	return &Error{Kind: KindIo, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindOther for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
