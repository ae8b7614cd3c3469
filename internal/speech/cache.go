package speech

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultMaxEntries is the audio cache capacity.
	DefaultMaxEntries = 20

	// evictFactor is the fraction of capacity the cache drains to when it
	// overflows.
	evictFactor = 0.8

	// keyRunes is the length of the text prefix used as a cache key.
	keyRunes = 50
)

// Key derives the cache key for spoken text: its first 50 runes. Distinct
// texts sharing a 50-rune prefix share a key and overwrite each other.
func Key(text string) string {
	r := []rune(text)
	if len(r) > keyRunes {
		r = r[:keyRunes]
	}
	return string(r)
}

// FileKey derives the cache key for file-backed audio.
func FileKey(path string) string {
	return "file:" + path
}

// Entry is a cached audio resolution. The cache owns the entry; an active
// playback session may reference it but never outlives its eviction
// guarantees.
type Entry struct {
	Bytes      []byte
	Ref        string
	InsertedAt time.Time

	seq uint64 // insertion order, breaks timestamp ties
}

// CacheStats describes cache occupancy and traffic.
type CacheStats struct {
	Entries   int
	Bytes     int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// Cache is a bounded in-memory audio cache. Entries are evicted strictly
// oldest-first by insertion time once the entry count exceeds the maximum;
// lookups never affect eviction order. This is deliberately not an LRU:
// only insertion time matters.
type Cache struct {
	maxEntries int
	release    func(ref string) error

	mu      sync.RWMutex
	items   map[string]*Entry
	nextSeq uint64
	stats   CacheStats
}

// NewCache creates an audio cache holding at most maxEntries entries.
// A maxEntries of zero or less falls back to the default. The optional
// release hook runs for each evicted entry's playable reference, so
// reference-backed resources (temporary audio files, object handles) can
// be reclaimed; release failures are logged and never abort eviction.
func NewCache(maxEntries int, release func(ref string) error) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		maxEntries: maxEntries,
		release:    release,
		items:      make(map[string]*Entry),
	}
}

// Put inserts or overwrites the entry for key with a fresh insertion
// timestamp, then synchronously evicts if the cache overflowed. Cache
// operations never fail.
func (c *Cache) Put(key string, data []byte, ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSeq++
	c.items[key] = &Entry{
		Bytes:      data,
		Ref:        ref,
		InsertedAt: time.Now(),
		seq:        c.nextSeq,
	}

	c.evictIfOverCapacity()
}

// Get returns the entry for key. It is a pure lookup: no insertion-order
// change, no recency effect.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return entry, true
}

// Contains reports whether key is cached.
func (c *Cache) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.items[key]
	return ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Keys returns all cached keys in unspecified order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.items))
	for key := range c.items {
		keys = append(keys, key)
	}
	return keys
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Entries = len(c.items)
	for _, entry := range c.items {
		stats.Bytes += int64(len(entry.Bytes))
	}
	return stats
}

// Clear drops every entry, releasing playable references best-effort.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.items {
		c.releaseRef(entry.Ref)
		delete(c.items, key)
	}
}

// evictIfOverCapacity drains the cache to 80% of capacity once the entry
// count exceeds the maximum, removing strictly the oldest entries by
// insertion time. Equal timestamps fall back to insertion order, so the
// eviction order is deterministic. Must be called with the lock held.
func (c *Cache) evictIfOverCapacity() {
	if len(c.items) <= c.maxEntries {
		return
	}

	target := int(float64(c.maxEntries) * evictFactor)

	type keyed struct {
		key   string
		entry *Entry
	}
	entries := make([]keyed, 0, len(c.items))
	for key, entry := range c.items {
		entries = append(entries, keyed{key, entry})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].entry.InsertedAt.Equal(entries[j].entry.InsertedAt) {
			return entries[i].entry.seq < entries[j].entry.seq
		}
		return entries[i].entry.InsertedAt.Before(entries[j].entry.InsertedAt)
	})

	for _, victim := range entries {
		if len(c.items) <= target {
			break
		}
		c.releaseRef(victim.entry.Ref)
		delete(c.items, victim.key)
		c.stats.Evictions++
	}
}

// releaseRef reclaims an evicted entry's playable-reference resource.
// Release is best-effort: failures are logged and eviction continues.
// Must be called with the lock held.
func (c *Cache) releaseRef(ref string) {
	if c.release == nil || ref == "" {
		return
	}
	if err := c.release(ref); err != nil {
		log.Debug("failed to release evicted audio reference", "ref", ref, "err", err)
	}
}
