package kreuzberg

import (
	"strings"
	"sync"
	"testing"
)

func TestStringPoolReuse(t *testing.T) {
	p := NewStringPool(2, 64)
	b := p.Get()
	b.WriteString("scratch")
	p.Put(b)
	if p.Len() != 1 {
		t.Fatalf("pooled = %d, want 1", p.Len())
	}
	b2 := p.Get()
	if b2 != b {
		t.Error("expected the pooled builder back")
	}
	if b2.Len() != 0 {
		t.Errorf("reused builder not reset: %q", b2.String())
	}
}

func TestStringPoolBounded(t *testing.T) {
	p := NewStringPool(2, 16)
	for i := 0; i < 5; i++ {
		p.Put(&strings.Builder{})
	}
	if p.Len() != 2 {
		t.Errorf("pooled = %d, want max 2", p.Len())
	}
}

func TestStringPoolNilPut(t *testing.T) {
	p := NewStringPool(1, 16)
	p.Put(nil)
	if p.Len() != 0 {
		t.Error("nil Put stored an entry")
	}
}

func TestBytePoolReuse(t *testing.T) {
	p := NewBytePool(2, 64)
	b := p.Get()
	b.WriteString("file bytes")
	p.Put(b)
	b2 := p.Get()
	if b2 != b {
		t.Error("expected the pooled buffer back")
	}
	if b2.Len() != 0 {
		t.Errorf("reused buffer not reset, len %d", b2.Len())
	}
}

func TestBytePoolConcurrent(t *testing.T) {
	p := NewBytePool(4, 128)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := p.Get()
				b.WriteString("data")
				p.Put(b)
			}
		}()
	}
	wg.Wait()
	if p.Len() > 4 {
		t.Errorf("pooled = %d, want max 4", p.Len())
	}
}

func TestBatchProcessorLazyPools(t *testing.T) {
	bp := NewBatchProcessor()
	sp := bp.StringPool()
	if sp == nil {
		t.Fatal("nil string pool")
	}
	if bp.StringPool() != sp {
		t.Error("StringPool not stable across calls")
	}
	if bp.BytePool() != bp.BytePool() {
		t.Error("BytePool not stable across calls")
	}
}

func TestMaxConcurrentResolution(t *testing.T) {
	bp := NewBatchProcessorWith(PoolConfig{MaxConcurrent: 7})
	if got := bp.maxConcurrent(nil); got != 7 {
		t.Errorf("pool-config cap = %d, want 7", got)
	}
	cfg := &ExtractionConfig{MaxConcurrent: 3}
	if got := bp.maxConcurrent(cfg); got != 3 {
		t.Errorf("extraction-config cap = %d, want 3", got)
	}
	def := NewBatchProcessor()
	if got := def.maxConcurrent(nil); got < 2 {
		t.Errorf("default cap = %d, want at least 2", got)
	}
}

func TestSizeHint(t *testing.T) {
	tests := []struct {
		mime string
		size int64
		want int
	}{
		{"application/pdf", 0, 64 * 1024},
		{"text/html", 0, 16 * 1024},
		{"text/plain", 0, 8 * 1024},
		{"application/pdf", 1000, 1000},
	}
	for _, tc := range tests {
		if got := SizeHint(tc.mime, tc.size); got != tc.want {
			t.Errorf("SizeHint(%q, %d) = %d, want %d", tc.mime, tc.size, got, tc.want)
		}
	}
}
