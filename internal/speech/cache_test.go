package speech

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"
)

// TestKey tests cache key derivation from spoken text.
func TestKey(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "short text passes through",
			text: "hello world",
			want: "hello world",
		},
		{
			name: "long text truncates to fifty runes",
			text: strings.Repeat("a", 60),
			want: strings.Repeat("a", 50),
		},
		{
			name: "multibyte text truncates on rune boundaries",
			text: strings.Repeat("é", 60),
			want: strings.Repeat("é", 50),
		},
		{
			name: "empty text",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.text); got != tt.want {
				t.Errorf("Expected key %q, got %q", tt.want, got)
			}
		})
	}
}

// TestFileKey tests the file-backed key prefix.
func TestFileKey(t *testing.T) {
	if got := FileKey("/tmp/a.mp3"); got != "file:/tmp/a.mp3" {
		t.Errorf("Expected 'file:/tmp/a.mp3', got %q", got)
	}
}

// TestCache_PutGet tests basic storage and the pure-lookup contract.
func TestCache_PutGet(t *testing.T) {
	c := NewCache(5, nil)

	c.Put("hello", []byte("audio"), "ref-1")

	entry, ok := c.Get("hello")
	if !ok {
		t.Fatal("Expected cache hit")
	}
	if string(entry.Bytes) != "audio" {
		t.Errorf("Expected bytes 'audio', got %q", entry.Bytes)
	}
	if entry.Ref != "ref-1" {
		t.Errorf("Expected ref 'ref-1', got %q", entry.Ref)
	}

	if _, ok := c.Get("absent"); ok {
		t.Error("Expected miss for absent key")
	}
	if !c.Contains("hello") {
		t.Error("Expected Contains to report the stored key")
	}
	if c.Len() != 1 {
		t.Errorf("Expected length 1, got %d", c.Len())
	}
}

// TestCache_Overwrite tests that a repeated key replaces its entry and
// refreshes its insertion time.
func TestCache_Overwrite(t *testing.T) {
	c := NewCache(5, nil)

	c.Put("k", []byte("old"), "r1")
	first, _ := c.Get("k")
	firstSeq := first.seq

	c.Put("k", []byte("new"), "r2")
	second, _ := c.Get("k")

	if string(second.Bytes) != "new" || second.Ref != "r2" {
		t.Error("Overwrite should replace bytes and ref")
	}
	if second.seq <= firstSeq {
		t.Error("Overwrite should advance the insertion sequence")
	}
	if c.Len() != 1 {
		t.Errorf("Expected length 1 after overwrite, got %d", c.Len())
	}
}

// TestCache_EvictsToTargetOnOverflow tests that the twenty-first insert
// drains the cache to the sixteen most recent keys.
func TestCache_EvictsToTargetOnOverflow(t *testing.T) {
	c := NewCache(20, nil)

	for i := 1; i <= 20; i++ {
		c.Put(fmt.Sprintf("key-%02d", i), []byte("a"), "")
	}
	if c.Len() != 20 {
		t.Fatalf("Expected 20 entries at capacity, got %d", c.Len())
	}

	c.Put("key-21", []byte("a"), "")

	if c.Len() != 16 {
		t.Fatalf("Expected 16 entries after eviction, got %d", c.Len())
	}
	// Survivors are exactly the most recent sixteen: key-06 .. key-21.
	for i := 1; i <= 5; i++ {
		if c.Contains(fmt.Sprintf("key-%02d", i)) {
			t.Errorf("Expected key-%02d to be evicted", i)
		}
	}
	for i := 6; i <= 21; i++ {
		key := fmt.Sprintf("key-%02d", i)
		if !c.Contains(key) {
			t.Errorf("Expected %s to survive", key)
		}
	}
}

// TestCache_EvictionIsMonotonicByTime tests that across a long insert
// sequence no retained key is ever older than an evicted one.
func TestCache_EvictionIsMonotonicByTime(t *testing.T) {
	c := NewCache(20, nil)

	for i := 1; i <= 25; i++ {
		c.Put(fmt.Sprintf("key-%02d", i), []byte("a"), "")
	}

	keys := c.Keys()
	sort.Strings(keys)

	// One eviction fired at the 21st insert (dropping 01..05); the cache
	// then regrew to twenty. The survivors must be a contiguous suffix of
	// the insert order.
	if len(keys) != 20 {
		t.Fatalf("Expected 20 entries after 25 inserts, got %d", len(keys))
	}
	if keys[0] != "key-06" || keys[len(keys)-1] != "key-25" {
		t.Errorf("Expected survivors key-06..key-25, got %v", keys)
	}
}

// TestCache_GetDoesNotAffectEviction tests that lookups leave the
// eviction order untouched.
func TestCache_GetDoesNotAffectEviction(t *testing.T) {
	c := NewCache(20, nil)

	for i := 1; i <= 20; i++ {
		c.Put(fmt.Sprintf("key-%02d", i), []byte("a"), "")
	}
	// Touch the oldest entries heavily. A recency-aware cache would now
	// prefer them; this one must not.
	for i := 0; i < 50; i++ {
		c.Get("key-01")
		c.Get("key-02")
	}

	c.Put("key-21", []byte("a"), "")

	if c.Contains("key-01") || c.Contains("key-02") {
		t.Error("Reads must not protect old entries from eviction")
	}
	if !c.Contains("key-21") {
		t.Error("Expected newest entry to survive")
	}
}

// TestCache_TimestampTieBreak tests that entries sharing an insertion
// timestamp evict in original insertion order.
func TestCache_TimestampTieBreak(t *testing.T) {
	c := NewCache(4, nil)

	now := time.Now()
	for i := 1; i <= 5; i++ {
		c.nextSeq++
		c.items[fmt.Sprintf("key-%d", i)] = &Entry{
			Bytes:      []byte("a"),
			InsertedAt: now,
			seq:        c.nextSeq,
		}
	}
	c.evictIfOverCapacity()

	// Target is floor(4*0.8) = 3: the first two inserts go.
	if c.Contains("key-1") || c.Contains("key-2") {
		t.Error("Expected the earliest-sequence entries to be evicted")
	}
	for i := 3; i <= 5; i++ {
		if !c.Contains(fmt.Sprintf("key-%d", i)) {
			t.Errorf("Expected key-%d to survive", i)
		}
	}
}

// TestCache_ReleasesEvictedRefs tests the eviction release hook,
// including that a failing release never aborts the sweep.
func TestCache_ReleasesEvictedRefs(t *testing.T) {
	var released []string
	c := NewCache(3, func(ref string) error {
		released = append(released, ref)
		if ref == "ref-1" {
			return errors.New("release failed")
		}
		return nil
	})

	for i := 1; i <= 4; i++ {
		c.Put(fmt.Sprintf("key-%d", i), []byte("a"), fmt.Sprintf("ref-%d", i))
	}

	// Target floor(3*0.8) = 2: two entries evicted, both refs released
	// even though the first release errored.
	if len(released) != 2 {
		t.Fatalf("Expected 2 released refs, got %v", released)
	}
	if released[0] != "ref-1" || released[1] != "ref-2" {
		t.Errorf("Expected refs released oldest first, got %v", released)
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 entries after eviction, got %d", c.Len())
	}
}

// TestCache_Clear tests that clearing releases every reference.
func TestCache_Clear(t *testing.T) {
	var released []string
	c := NewCache(10, func(ref string) error {
		released = append(released, ref)
		return nil
	})

	c.Put("a", []byte("x"), "ref-a")
	c.Put("b", []byte("y"), "ref-b")
	c.Put("c", []byte("z"), "")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", c.Len())
	}
	// Empty refs have nothing to release.
	if len(released) != 2 {
		t.Errorf("Expected 2 released refs, got %v", released)
	}
}

// TestCache_Stats tests hit, miss and eviction accounting.
func TestCache_Stats(t *testing.T) {
	c := NewCache(3, nil)

	c.Put("a", []byte("12345"), "")
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.Entries != 1 {
		t.Errorf("Expected 1 entry, got %d", stats.Entries)
	}
	if stats.Bytes != 5 {
		t.Errorf("Expected 5 bytes, got %d", stats.Bytes)
	}

	for i := 0; i < 4; i++ {
		c.Put(fmt.Sprintf("k%d", i), []byte("a"), "")
	}
	if got := c.Stats().Evictions; got == 0 {
		t.Error("Expected evictions to be counted")
	}
}

// TestCache_DefaultCapacity tests the zero-value capacity fallback.
func TestCache_DefaultCapacity(t *testing.T) {
	c := NewCache(0, nil)
	if c.maxEntries != DefaultMaxEntries {
		t.Errorf("Expected default capacity %d, got %d", DefaultMaxEntries, c.maxEntries)
	}
}
