package kreuzberg

import (
	"bytes"
	"runtime"
	"strings"
	"sync"
)

// Buffer pooling is a throughput optimization for batch runs (reusing
// scratch allocations is worth roughly 5-10% on large batches). It has no
// correctness coupling: a fresh buffer and a reused, cleared one are
// indistinguishable to callers.

// PoolConfig sizes the buffer pools of a BatchProcessor.
type PoolConfig struct {
	StringPoolSize  int `yaml:"string_pool_size"`
	StringBufferCap int `yaml:"string_buffer_cap"`
	BytePoolSize    int `yaml:"byte_pool_size"`
	ByteBufferCap   int `yaml:"byte_buffer_cap"`

	// MaxConcurrent caps simultaneous extractions; 0 means 2 × CPU cores.
	MaxConcurrent int `yaml:"max_concurrent"`
}

func (c *PoolConfig) defaults() {
	if c.StringPoolSize <= 0 {
		c.StringPoolSize = 10
	}
	if c.StringBufferCap <= 0 {
		c.StringBufferCap = 8 * 1024
	}
	if c.BytePoolSize <= 0 {
		c.BytePoolSize = 10
	}
	if c.ByteBufferCap <= 0 {
		c.ByteBufferCap = 64 * 1024
	}
}

// StringPool is a bounded pool of string builders. Checked-out builders
// are exclusively owned by the caller until returned.
type StringPool struct {
	mu      sync.Mutex
	free    []*strings.Builder
	max     int
	capHint int
}

// NewStringPool creates a pool retaining at most max builders, each grown
// to capHint on allocation.
func NewStringPool(max, capHint int) *StringPool {
	return &StringPool{max: max, capHint: capHint}
}

// Get returns an empty builder, reusing a pooled one when available.
func (p *StringPool) Get() *strings.Builder {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return b
	}
	p.mu.Unlock()
	b := &strings.Builder{}
	b.Grow(p.capHint)
	return b
}

// Put clears the builder and returns it to the pool. Buffers beyond the
// pool's capacity are dropped, which is not an error.
func (p *StringPool) Put(b *strings.Builder) {
	if b == nil {
		return
	}
	b.Reset()
	p.mu.Lock()
	if len(p.free) < p.max {
		p.free = append(p.free, b)
	}
	p.mu.Unlock()
}

// Len reports how many buffers are currently pooled.
func (p *StringPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// BytePool is the byte-buffer counterpart of StringPool.
type BytePool struct {
	mu      sync.Mutex
	free    []*bytes.Buffer
	max     int
	capHint int
}

// NewBytePool creates a pool retaining at most max buffers.
func NewBytePool(max, capHint int) *BytePool {
	return &BytePool{max: max, capHint: capHint}
}

// Get returns an empty buffer, reusing a pooled one when available.
func (p *BytePool) Get() *bytes.Buffer {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return b
	}
	p.mu.Unlock()
	return bytes.NewBuffer(make([]byte, 0, p.capHint))
}

// Put clears the buffer and returns it to the pool if there is room.
func (p *BytePool) Put(b *bytes.Buffer) {
	if b == nil {
		return
	}
	b.Reset()
	p.mu.Lock()
	if len(p.free) < p.max {
		p.free = append(p.free, b)
	}
	p.mu.Unlock()
}

// Len reports how many buffers are currently pooled.
func (p *BytePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// BatchProcessor owns the buffer pools shared across the documents of one
// batch. Pools are created lazily on first use so processors that never
// run a batch pay nothing.
type BatchProcessor struct {
	cfg PoolConfig

	mu         sync.Mutex
	stringPool *StringPool
	bytePool   *BytePool
}

// NewBatchProcessor creates a processor with default pool sizing.
func NewBatchProcessor() *BatchProcessor {
	return NewBatchProcessorWith(PoolConfig{})
}

// NewBatchProcessorWith creates a processor with custom pool sizing.
// Pools are not allocated until first accessed.
func NewBatchProcessorWith(cfg PoolConfig) *BatchProcessor {
	cfg.defaults()
	return &BatchProcessor{cfg: cfg}
}

// StringPool returns the lazily-created string pool.
func (b *BatchProcessor) StringPool() *StringPool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stringPool == nil {
		b.stringPool = NewStringPool(b.cfg.StringPoolSize, b.cfg.StringBufferCap)
	}
	return b.stringPool
}

// BytePool returns the lazily-created byte pool.
func (b *BatchProcessor) BytePool() *BytePool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bytePool == nil {
		b.bytePool = NewBytePool(b.cfg.BytePoolSize, b.cfg.ByteBufferCap)
	}
	return b.bytePool
}

// maxConcurrent resolves the admission-gate width.
func (b *BatchProcessor) maxConcurrent(cfg *ExtractionConfig) int {
	if cfg != nil && cfg.MaxConcurrent > 0 {
		return cfg.MaxConcurrent
	}
	if b.cfg.MaxConcurrent > 0 {
		return b.cfg.MaxConcurrent
	}
	return runtime.NumCPU() * 2
}

// SizeHint suggests a buffer capacity for a document of the given MIME
// type and size, used to pre-grow pooled buffers for large formats.
func SizeHint(mimeType string, size int64) int {
	base := 8 * 1024
	switch {
	case strings.HasPrefix(mimeType, "application/pdf"):
		base = 64 * 1024
	case strings.HasSuffix(mimeType, "wordprocessingml.document"),
		strings.HasSuffix(mimeType, "opendocument.text"):
		base = 32 * 1024
	case strings.HasPrefix(mimeType, "text/html"):
		base = 16 * 1024
	}
	if size > 0 && size < int64(base) {
		return int(size)
	}
	return base
}
