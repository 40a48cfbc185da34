package records

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"enrolytics/internal/cache"
)

// SnapshotKey is the fixed cache key for the full record snapshot.
const SnapshotKey = "records:snapshot:v1"

// loadGroupKey keys the singleflight group; there is only one corpus.
const loadGroupKey = "load-all"

// Loader owns the authoritative record snapshot. Retrieval is cache-first,
// then a short-lived in-process memo, then a single-flight read from source:
// concurrent callers share one in-flight load instead of re-reading files.
type Loader struct {
	source Source
	cache  *cache.Manager
	logger *slog.Logger

	snapshotTTL time.Duration
	memoTTL     time.Duration

	group singleflight.Group

	mu          sync.Mutex
	memo        []Record
	memoExpires time.Time
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSnapshotTTL overrides how long a loaded snapshot is served from cache.
func WithSnapshotTTL(ttl time.Duration) LoaderOption {
	return func(l *Loader) { l.snapshotTTL = ttl }
}

// WithMemoTTL overrides the in-process memo window.
func WithMemoTTL(ttl time.Duration) LoaderOption {
	return func(l *Loader) { l.memoTTL = ttl }
}

// NewLoader constructs a loader over the given source and cache.
func NewLoader(source Source, cacheManager *cache.Manager, logger *slog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		source:      source,
		cache:       cacheManager,
		logger:      logger,
		snapshotTTL: 10 * time.Minute,
		memoTTL:     time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll returns the full record snapshot.
func (l *Loader) LoadAll(ctx context.Context) ([]Record, error) {
	var cached []Record
	if l.cache.Get(ctx, SnapshotKey, &cached) {
		return cached, nil
	}

	l.mu.Lock()
	if time.Now().Before(l.memoExpires) {
		memo := l.memo
		l.mu.Unlock()
		return memo, nil
	}
	l.mu.Unlock()

	v, err, shared := l.group.Do(loadGroupKey, func() (any, error) {
		recs, err := l.source.Load(ctx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.memo = recs
		l.memoExpires = time.Now().Add(l.memoTTL)
		l.mu.Unlock()

		l.cache.Set(ctx, SnapshotKey, recs, l.snapshotTTL)
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.logger.DebugContext(ctx, "record load shared with in-flight caller")
	}
	return v.([]Record), nil
}

// Invalidate drops the snapshot from the memo and both cache tiers, plus any
// aggregation results derived from it. The next LoadAll reloads from source.
func (l *Loader) Invalidate(ctx context.Context) {
	l.mu.Lock()
	l.memo = nil
	l.memoExpires = time.Time{}
	l.mu.Unlock()

	l.cache.Delete(ctx, SnapshotKey)
	l.cache.InvalidatePattern(ctx, "agg:*")
}
