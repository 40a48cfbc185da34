// Package cache implements the two-tier cache shared by the loader, the
// aggregation engine, and the alert service: a remote Redis tier fronted by a
// process-local fallback map. Remote outages are never surfaced to callers;
// the worst case is a recompute from source.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enrolytics_cache_hits_total",
		Help: "Cache hits by tier",
	}, []string{"tier"})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enrolytics_cache_misses_total",
		Help: "Cache lookups that missed both tiers",
	})
	remoteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enrolytics_cache_remote_failures_total",
		Help: "Remote cache operations that fell back to the local tier",
	})
)

// sweepEvery is the Set-call interval between local-tier eviction passes.
// A counter modulus keeps eviction deterministic without a background goroutine.
const sweepEvery = 100

type localEntry struct {
	payload   []byte
	expiresAt time.Time
}

// Manager is the two-tier cache. The remote tier is optional: with a nil
// client every operation runs against the local map only.
type Manager struct {
	remote *redis.Client
	logger *slog.Logger

	mu     sync.Mutex
	local  map[string]localEntry
	setOps uint64
}

// New constructs a cache manager. remote may be nil when Redis is not configured.
func New(remote *redis.Client, logger *slog.Logger) *Manager {
	return &Manager{
		remote: remote,
		logger: logger,
		local:  make(map[string]localEntry),
	}
}

// Get looks up key and unmarshals the stored payload into dest, reporting
// whether an unexpired entry was found. The remote tier is consulted first; a
// remote error (not a clean miss) falls back to the local tier.
func (m *Manager) Get(ctx context.Context, key string, dest any) bool {
	if m.remote != nil {
		payload, err := m.remote.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if m.unmarshal(key, payload, dest) {
				cacheHits.WithLabelValues("remote").Inc()
				return true
			}
			cacheMisses.Inc()
			return false
		case errors.Is(err, redis.Nil):
			cacheMisses.Inc()
			return false
		default:
			remoteFailures.Inc()
			m.logger.WarnContext(ctx, "remote cache get failed, using local tier",
				"key", key,
				"error", err,
			)
		}
	}

	m.mu.Lock()
	entry, ok := m.local[key]
	if ok && time.Now().After(entry.expiresAt) {
		delete(m.local, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok || !m.unmarshal(key, entry.payload, dest) {
		cacheMisses.Inc()
		return false
	}
	cacheHits.WithLabelValues("local").Inc()
	return true
}

// Set stores value under key in both tiers with the given TTL. The local tier
// is always refreshed so a later remote outage still serves recent data.
func (m *Manager) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		m.logger.ErrorContext(ctx, "cache value not serializable", "key", key, "error", err)
		return
	}

	if m.remote != nil {
		if err := m.remote.Set(ctx, key, payload, ttl).Err(); err != nil {
			remoteFailures.Inc()
			m.logger.WarnContext(ctx, "remote cache set failed, keeping local tier only",
				"key", key,
				"error", err,
			)
		}
	}

	m.mu.Lock()
	m.local[key] = localEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	m.setOps++
	if m.setOps%sweepEvery == 0 {
		m.sweepLocked(time.Now())
	}
	m.mu.Unlock()
}

// Delete removes key from both tiers.
func (m *Manager) Delete(ctx context.Context, key string) {
	if m.remote != nil {
		if err := m.remote.Del(ctx, key).Err(); err != nil {
			remoteFailures.Inc()
			m.logger.WarnContext(ctx, "remote cache delete failed", "key", key, "error", err)
		}
	}

	m.mu.Lock()
	delete(m.local, key)
	m.mu.Unlock()
}

// InvalidatePattern removes every key matching the glob pattern (for example
// "agg:*"). The remote tier is enumerated with SCAN; the local tier matches on
// the de-globbed substring so both tiers converge even when one is behind.
func (m *Manager) InvalidatePattern(ctx context.Context, pattern string) {
	if m.remote != nil {
		m.invalidateRemote(ctx, pattern)
	}

	needle := strings.ReplaceAll(pattern, "*", "")
	m.mu.Lock()
	for key := range m.local {
		if strings.Contains(key, needle) {
			delete(m.local, key)
		}
	}
	m.mu.Unlock()
}

func (m *Manager) invalidateRemote(ctx context.Context, pattern string) {
	var keys []string
	iter := m.remote.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		remoteFailures.Inc()
		m.logger.WarnContext(ctx, "remote cache scan failed", "pattern", pattern, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := m.remote.Del(ctx, keys...).Err(); err != nil {
		remoteFailures.Inc()
		m.logger.WarnContext(ctx, "remote cache pattern delete failed",
			"pattern", pattern,
			"keys", len(keys),
			"error", err,
		)
	}
}

// sweepLocked evicts expired local entries. Caller must hold mu.
func (m *Manager) sweepLocked(now time.Time) {
	for key, entry := range m.local {
		if now.After(entry.expiresAt) {
			delete(m.local, key)
		}
	}
}

func (m *Manager) unmarshal(key string, payload []byte, dest any) bool {
	if err := json.Unmarshal(payload, dest); err != nil {
		// A corrupt entry is a miss, not an error: the caller recomputes.
		m.logger.Warn("cache entry not decodable, treating as miss", "key", key, "error", err)
		return false
	}
	return true
}
