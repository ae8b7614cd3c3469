package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// memCache is an in-memory SynthesisCache for dispatcher tests.
type memCache struct {
	data    map[string][]byte
	formats map[string]string
	puts    int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), formats: make(map[string]string)}
}

func (m *memCache) Get(key string) ([]byte, string, bool) {
	d, ok := m.data[key]
	return d, m.formats[key], ok
}

func (m *memCache) Put(key string, data []byte, format string) error {
	m.data[key] = data
	m.formats[key] = format
	m.puts++
	return nil
}

// TestDispatcher_Resolve tests the resolve path and the cache fill.
func TestDispatcher_Resolve(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("audio-payload"))
	}))
	defer srv.Close()

	cache := newMemCache()
	d := NewDispatcher(DispatcherConfig{Client: srv.Client(), Cache: cache, RequestsPerMinute: 6000})
	cfg := Config{Kind: KindCustom, APIKey: "k", Endpoint: srv.URL}

	res, err := d.Resolve(context.Background(), "hello", cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(res.Audio) != "audio-payload" {
		t.Errorf("Expected audio payload, got %q", res.Audio)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 request, got %d", hits.Load())
	}
	if cache.puts != 1 {
		t.Errorf("Expected resolved audio in the synthesis cache, got %d puts", cache.puts)
	}

	// Second resolve is served from the cache without touching the network.
	res2, err := d.Resolve(context.Background(), "hello", cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(res2.Audio) != string(res.Audio) {
		t.Errorf("Expected cached audio, got %q", res2.Audio)
	}
	if res2.Format != FormatMP3 {
		t.Errorf("Expected cached format hint, got %q", res2.Format)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected cache to absorb the second request, got %d hits", hits.Load())
	}
}

// TestDispatcher_NoCache tests that a nil cache means every resolve goes
// out.
func TestDispatcher_NoCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	d := NewDispatcher(DispatcherConfig{Client: srv.Client(), RequestsPerMinute: 6000})
	cfg := Config{Kind: KindCustom, APIKey: "k", Endpoint: srv.URL}

	for i := 0; i < 2; i++ {
		if _, err := d.Resolve(context.Background(), "hello", cfg); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if hits.Load() != 2 {
		t.Errorf("Expected 2 requests, got %d", hits.Load())
	}
}

// TestDispatcher_InvalidConfig tests validation before any dispatch.
func TestDispatcher_InvalidConfig(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{})
	_, err := d.Resolve(context.Background(), "hello", Config{Kind: KindOpenAI})

	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected *ConfigError, got %T", err)
	}
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected missing key error, got %v", err)
	}
}

// TestDispatcher_LocalWorkerMissing tests routing of local configs to the
// worker.
func TestDispatcher_LocalWorkerMissing(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Worker: WorkerConfig{Command: "definitely-not-on-path-12345"}})
	_, err := d.Resolve(context.Background(), "hello", Config{Kind: KindKokoro, Local: true})

	var werr *WorkerError
	if !errors.As(err, &werr) {
		t.Fatalf("Expected *WorkerError, got %T", err)
	}
}

// TestDispatcher_CancelledContext tests that a dead context aborts the
// resolve.
func TestDispatcher_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	d := NewDispatcher(DispatcherConfig{Client: srv.Client()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Resolve(ctx, "hello", Config{Kind: KindCustom, APIKey: "k", Endpoint: srv.URL}); err == nil {
		t.Fatal("Expected error from cancelled context")
	}
}

// TestDispatcher_FailureNotCached tests that provider errors pass through
// without polluting the cache.
func TestDispatcher_FailureNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	cache := newMemCache()
	d := NewDispatcher(DispatcherConfig{Client: srv.Client(), Cache: cache, RequestsPerMinute: 6000})
	_, err := d.Resolve(context.Background(), "hello", Config{Kind: KindCustom, APIKey: "k", Endpoint: srv.URL})

	var rerr *RequestError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected *RequestError, got %T", err)
	}
	if cache.puts != 0 {
		t.Errorf("Failures must not be cached, got %d puts", cache.puts)
	}
}
