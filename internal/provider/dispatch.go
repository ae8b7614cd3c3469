package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// defaultRequestsPerMinute is a conservative per-provider ceiling.
const defaultRequestsPerMinute = 50

// SynthesisCache persists resolved audio across runs, keyed by the full
// synthesis parameters. A nil cache disables reuse.
type SynthesisCache interface {
	Get(key string) (data []byte, format string, ok bool)
	Put(key string, data []byte, format string) error
}

// Dispatcher maps a provider configuration to its resolver and executes
// the request: synthesis cache first, then the rate-limited provider call.
type Dispatcher struct {
	client *http.Client
	cache  SynthesisCache
	worker WorkerConfig
	rpm    int

	mu       sync.Mutex
	limiters map[Kind]*rate.Limiter
}

// DispatcherConfig parameterizes a Dispatcher.
type DispatcherConfig struct {
	// Client is the HTTP client shared by all remote providers.
	Client *http.Client

	// Cache is the persistent synthesis cache. Nil disables it.
	Cache SynthesisCache

	// Worker configures local inference.
	Worker WorkerConfig

	// RequestsPerMinute caps outbound calls per provider kind.
	RequestsPerMinute int
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}
	return &Dispatcher{
		client:   cfg.Client,
		cache:    cfg.Cache,
		worker:   cfg.Worker,
		rpm:      cfg.RequestsPerMinute,
		limiters: make(map[Kind]*rate.Limiter),
	}
}

// Resolve turns text plus a provider configuration into audio.
func (d *Dispatcher) Resolve(ctx context.Context, text string, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	cfg = cfg.withDefaults()

	key := CacheKey(cfg, text)
	if d.cache != nil {
		if data, format, ok := d.cache.Get(key); ok {
			log.Debug("synthesis cache hit", "key", key, "provider", cfg.Kind)
			return Result{Audio: data, Format: Format(format)}, nil
		}
	}

	synth := d.synthesizer(cfg)

	if !cfg.Local {
		if err := d.limiter(cfg.Kind).Wait(ctx); err != nil {
			return Result{}, newTransportError(cfg.Kind, err)
		}
	}

	rid := uuid.New().String()[:8]
	started := time.Now()
	log.Debug("dispatching synthesis", "rid", rid, "provider", cfg.Kind, "voice", cfg.Voice, "chars", len(text))

	res, err := synth.Synthesize(ctx, text)
	if err != nil {
		log.Debug("synthesis failed", "rid", rid, "provider", cfg.Kind, "err", err)
		return Result{}, err
	}

	log.Debug("synthesis complete", "rid", rid, "provider", cfg.Kind, "bytes", len(res.Audio), "took", time.Since(started))

	if d.cache != nil && len(res.Audio) > 0 {
		if cerr := d.cache.Put(key, res.Audio, string(res.Format)); cerr != nil {
			log.Debug("synthesis cache write failed", "key", key, "err", cerr)
		}
	}

	return res, nil
}

// synthesizer picks the resolver for a configuration. The switch is the
// closed dispatch point: adding a provider means adding a case here.
func (d *Dispatcher) synthesizer(cfg Config) Synthesizer {
	if cfg.Local {
		return newWorker(d.worker, cfg)
	}

	switch cfg.Kind {
	case KindOpenAI:
		return newOpenAIClient(d.client, cfg)
	case KindAzure:
		return newAzureClient(d.client, cfg)
	case KindKokoro:
		return newKokoroClient(d.client, cfg)
	case KindCustom:
		return newCustomClient(d.client, cfg)
	default:
		// Unreachable past Validate.
		return newCustomClient(d.client, cfg)
	}
}

// limiter returns the rate limiter for a provider kind, creating it on
// first use.
func (d *Dispatcher) limiter(kind Kind) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.limiters[kind]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(d.rpm)), 1)
		d.limiters[kind] = l
	}
	return l
}

// CacheKey derives the persistent cache key for a synthesis request from
// everything that shapes its audio.
func CacheKey(cfg Config, text string) string {
	cfg = cfg.withDefaults()
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s|%.2f|%s", cfg.Kind, cfg.Model, cfg.Voice, cfg.Language, cfg.Speed, text)))
	return hex.EncodeToString(h[:])[:16]
}
