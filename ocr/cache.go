package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultCacheDir is where OCR results land when no directory is
// configured.
const DefaultCacheDir = ".kreuzberg/ocr"

const cacheExt = ".msgpack"

// Result is a cached OCR outcome for one image.
type Result struct {
	Content  string            `msgpack:"content"`
	MimeType string            `msgpack:"mime_type"`
	Metadata map[string]string `msgpack:"metadata,omitempty"`
	Tables   []Table           `msgpack:"tables,omitempty"`
}

// Table is a table recognized during OCR.
type Table struct {
	Rows       [][]string `msgpack:"rows"`
	PageNumber int        `msgpack:"page_number"`
	Markdown   string     `msgpack:"markdown,omitempty"`
}

// CacheStats counts cache activity since the Cache was created.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Writes uint64
}

// Cache stores OCR results on disk, keyed by image content hash, backend
// name, and backend configuration. Entries never expire; a changed
// backend or configuration simply produces a different key.
type Cache struct {
	dir string

	mu    sync.Mutex
	stats CacheStats
}

// NewCache returns a cache rooted at dir, or at DefaultCacheDir when dir
// is empty. The directory is created on first write, not here.
func NewCache(dir string) *Cache {
	if dir == "" {
		dir = DefaultCacheDir
	}
	return &Cache{dir: dir}
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string { return c.dir }

// HashImage returns the content hash of raw image bytes, as used in cache
// keys.
func HashImage(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

func cacheKey(imageHash, backend, config string) string {
	payload := "image_hash=" + imageHash + "&ocr_backend=" + backend + "&ocr_config=" + config
	return fmt.Sprintf("%016x", xxhash.Sum64String(payload))
}

func (c *Cache) path(imageHash, backend, config string) string {
	return filepath.Join(c.dir, cacheKey(imageHash, backend, config)+cacheExt)
}

// Get looks up a cached result. A miss returns (nil, nil); only actual
// read or decode failures return an error.
func (c *Cache) Get(imageHash, backend, config string) (*Result, error) {
	data, err := os.ReadFile(c.path(imageHash, backend, config))
	if err != nil {
		if os.IsNotExist(err) {
			c.count(func(s *CacheStats) { s.Misses++ })
			return nil, nil
		}
		return nil, fmt.Errorf("read ocr cache entry: %w", err)
	}
	var res Result
	if err := msgpack.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode ocr cache entry: %w", err)
	}
	c.count(func(s *CacheStats) { s.Hits++ })
	return &res, nil
}

// Set stores a result. The entry is written to a salted temp file and
// renamed into place so concurrent writers never observe partial
// entries; last rename wins.
func (c *Cache) Set(imageHash, backend, config string, res *Result) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create ocr cache dir: %w", err)
	}
	data, err := msgpack.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode ocr cache entry: %w", err)
	}
	final := c.path(imageHash, backend, config)
	salt := fmt.Sprintf("%d-%s-%d", os.Getpid(), uuid.NewString(), time.Now().UnixNano())
	tmp := final + "." + salt + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ocr cache entry: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish ocr cache entry: %w", err)
	}
	c.count(func(s *CacheStats) { s.Writes++ })
	return nil
}

// Clear deletes all cached entries. A missing cache directory is not an
// error.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read ocr cache dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != cacheExt {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove ocr cache entry: %w", err)
		}
	}
	return nil
}

// DirStats describes what the cache currently holds on disk.
type DirStats struct {
	Entries    int
	TotalBytes int64
}

// DirStats scans the cache directory and reports the number of stored
// entries and their combined size. A missing directory is an empty
// cache, not an error.
func (c *Cache) DirStats() (DirStats, error) {
	var st DirStats
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("read ocr cache dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != cacheExt {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			// Entry vanished between the scan and the stat; a concurrent
			// Clear is not a stats failure.
			if os.IsNotExist(err) {
				continue
			}
			return st, fmt.Errorf("stat ocr cache entry: %w", err)
		}
		st.Entries++
		st.TotalBytes += fi.Size()
	}
	return st, nil
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) count(f func(*CacheStats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}
