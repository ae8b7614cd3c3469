package store

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultCacheCapacity bounds the synthesis cache on disk.
	DefaultCacheCapacity = 256 << 20

	// compressMin is the smallest payload worth compressing.
	compressMin = 1024

	indexFile = "index.json"
)

// cacheEntry is one cached synthesis result on disk.
type cacheEntry struct {
	Key        string    `json:"key"`
	File       string    `json:"file"`
	Size       int64     `json:"size"`
	RawSize    int64     `json:"rawSize"`
	Format     string    `json:"format"`
	Compressed bool      `json:"compressed"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CacheStats summarizes the disk cache for reporting.
type CacheStats struct {
	Entries   int
	DiskSize  int64
	RawSize   int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// DiskCache persists synthesized audio across runs, zstd-compressed when
// that pays off. Entries are evicted oldest-first once the byte capacity
// is exceeded.
type DiskCache struct {
	dir      string
	capacity int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	index map[string]*cacheEntry
	size  int64
	stats CacheStats
}

// NewDiskCache opens (or creates) a disk cache rooted at dir. A capacity
// of zero means DefaultCacheCapacity.
func NewDiskCache(dir string, capacity int64) (*DiskCache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: capacity,
		encoder:  encoder,
		decoder:  decoder,
		index:    make(map[string]*cacheEntry),
	}
	dc.loadIndex()
	return dc, nil
}

// Get returns the cached audio and its format hint.
func (dc *DiskCache) Get(key string) ([]byte, string, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, "", false
	}

	data, err := os.ReadFile(filepath.Join(dc.dir, entry.File))
	if err != nil {
		dc.dropLocked(entry)
		dc.stats.Misses++
		return nil, "", false
	}

	if entry.Compressed {
		raw, derr := dc.decoder.DecodeAll(data, nil)
		if derr != nil {
			dc.dropLocked(entry)
			dc.stats.Misses++
			return nil, "", false
		}
		data = raw
	}

	dc.stats.Hits++
	return data, entry.Format, true
}

// Put stores audio under key, replacing any previous entry.
func (dc *DiskCache) Put(key string, data []byte, format string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	payload := data
	compressed := false
	if len(data) > compressMin {
		if c := dc.encoder.EncodeAll(data, nil); len(c) < len(data) {
			payload = c
			compressed = true
		}
	}

	if int64(len(payload)) > dc.capacity {
		return &StorageError{Op: "put", Path: key, Err: os.ErrInvalid}
	}

	if old, ok := dc.index[key]; ok {
		dc.dropLocked(old)
	}
	for dc.size+int64(len(payload)) > dc.capacity && len(dc.index) > 0 {
		dc.evictOldestLocked()
	}

	name := cacheFileName(key)
	path := filepath.Join(dc.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return &StorageError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &StorageError{Op: "rename", Path: path, Err: err}
	}

	dc.index[key] = &cacheEntry{
		Key:        key,
		File:       name,
		Size:       int64(len(payload)),
		RawSize:    int64(len(data)),
		Format:     format,
		Compressed: compressed,
		CreatedAt:  time.Now(),
	}
	dc.size += int64(len(payload))

	return dc.saveIndexLocked()
}

// Stats reports current cache totals.
func (dc *DiskCache) Stats() CacheStats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	s := dc.stats
	s.Entries = len(dc.index)
	s.DiskSize = dc.size
	s.RawSize = 0
	for _, e := range dc.index {
		s.RawSize += e.RawSize
	}
	return s
}

// Clear removes every entry and its file.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, entry := range dc.index {
		os.Remove(filepath.Join(dc.dir, entry.File))
	}
	dc.index = make(map[string]*cacheEntry)
	dc.size = 0
	return dc.saveIndexLocked()
}

// Close flushes the index.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.saveIndexLocked()
}

// dropLocked forgets an entry and deletes its file.
func (dc *DiskCache) dropLocked(entry *cacheEntry) {
	os.Remove(filepath.Join(dc.dir, entry.File))
	dc.size -= entry.Size
	delete(dc.index, entry.Key)
}

// evictOldestLocked removes the entry with the earliest creation time.
func (dc *DiskCache) evictOldestLocked() {
	var oldest *cacheEntry
	for _, entry := range dc.index {
		if oldest == nil || entry.CreatedAt.Before(oldest.CreatedAt) {
			oldest = entry
		}
	}
	if oldest != nil {
		dc.dropLocked(oldest)
		dc.stats.Evictions++
	}
}

func (dc *DiskCache) loadIndex() {
	data, err := os.ReadFile(filepath.Join(dc.dir, indexFile))
	if err != nil {
		return
	}
	var entries []*cacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}
	for _, e := range entries {
		if _, statErr := os.Stat(filepath.Join(dc.dir, e.File)); statErr != nil {
			continue
		}
		dc.index[e.Key] = e
		dc.size += e.Size
	}
}

func (dc *DiskCache) saveIndexLocked() error {
	entries := make([]*cacheEntry, 0, len(dc.index))
	for _, e := range dc.index {
		entries = append(entries, e)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return &StorageError{Op: "encode index", Path: indexFile, Err: err}
	}

	path := filepath.Join(dc.dir, indexFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &StorageError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &StorageError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// cacheFileName derives a stable filename from a cache key.
func cacheFileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16]) + ".audio"
}
