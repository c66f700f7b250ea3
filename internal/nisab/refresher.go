package nisab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amanah/zakat-service/internal/metrics"
	"github.com/amanah/zakat-service/internal/zakat"
)

// Snapshot is a reference together with when and where it was obtained.
type Snapshot struct {
	Reference zakat.NisabReference `json:"reference"`
	UpdatedAt time.Time            `json:"updated_at"`
	Source    string               `json:"source"` // "upstream", "cache" or "fallback"
}

// Cache shares the latest snapshot between service instances.
type Cache interface {
	Load(ctx context.Context) (Snapshot, bool)
	Save(ctx context.Context, s Snapshot)
}

// Refresher serves the last good reference and refreshes it from an
// upstream provider on demand (typically from a cron job). Until the first
// successful refresh it serves the fallback.
type Refresher struct {
	upstream Provider
	fallback zakat.NisabReference
	cache    Cache // optional
	onChange func(Snapshot)

	mu      sync.RWMutex
	current Snapshot
}

// NewRefresher creates a refresher. cache and onChange may be nil.
func NewRefresher(upstream Provider, fallback zakat.NisabReference, cache Cache, onChange func(Snapshot)) *Refresher {
	return &Refresher{
		upstream: upstream,
		fallback: fallback,
		cache:    cache,
		onChange: onChange,
		current:  Snapshot{Reference: fallback, Source: "fallback"},
	}
}

// Current returns the latest reference. It never blocks on the upstream.
func (r *Refresher) Current(_ context.Context) (zakat.NisabReference, error) {
	return r.Snapshot().Reference, nil
}

// Snapshot returns the latest snapshot.
func (r *Refresher) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Refresh pulls a fresh reference. On upstream failure it tries the shared
// cache and otherwise keeps the current snapshot; the error is returned so
// the scheduler can log it.
func (r *Refresher) Refresh(ctx context.Context) error {
	ref, err := r.upstream.Current(ctx)
	if err != nil {
		metrics.NisabRefreshes.WithLabelValues("failure").Inc()
		if r.cache != nil {
			if snap, ok := r.cache.Load(ctx); ok && snap.Reference.Validate() == nil {
				snap.Source = "cache"
				r.set(snap)
			}
		}
		return err
	}

	snap := Snapshot{Reference: ref, UpdatedAt: time.Now().UTC(), Source: "upstream"}
	metrics.NisabRefreshes.WithLabelValues("success").Inc()
	if r.cache != nil {
		r.cache.Save(ctx, snap)
	}
	r.set(snap)
	return nil
}

func (r *Refresher) set(snap Snapshot) {
	r.mu.Lock()
	prev := r.current
	r.current = snap
	r.mu.Unlock()

	metrics.GoldPricePerGram.Set(snap.Reference.GoldPricePerGram.InexactFloat64())
	metrics.SilverPricePerGram.Set(snap.Reference.SilverPricePerGram.InexactFloat64())

	changed := !prev.Reference.GoldPricePerGram.Equal(snap.Reference.GoldPricePerGram) ||
		!prev.Reference.SilverPricePerGram.Equal(snap.Reference.SilverPricePerGram)
	if changed {
		slog.Info("nisab reference updated",
			"gold_price_per_gram", snap.Reference.GoldPricePerGram.String(),
			"silver_price_per_gram", snap.Reference.SilverPricePerGram.String(),
			"source", snap.Source,
		)
		if r.onChange != nil {
			r.onChange(snap)
		}
	}
}

// RedisCache stores the latest snapshot under a single key with a TTL.
type RedisCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisCache creates a Redis-backed snapshot cache.
func NewRedisCache(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

const snapshotKey = "nisab:current"

func (c *RedisCache) Load(ctx context.Context) (Snapshot, bool) {
	data, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return Snapshot{}, false
	}
	var s Snapshot
	if json.Unmarshal(data, &s) != nil {
		return Snapshot{}, false
	}
	return s, true
}

func (c *RedisCache) Save(ctx context.Context, s Snapshot) {
	if data, err := json.Marshal(s); err == nil {
		c.rdb.Set(ctx, snapshotKey, data, c.ttl)
	}
}
