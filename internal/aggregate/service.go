// Package aggregate reduces the flat record corpus into grouped totals and
// the derived views (top states, daily series) the dashboard and the alert
// engine consume. Results are cached per canonical filter key.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"enrolytics/internal/cache"
	"enrolytics/internal/records"
)

var tracer = otel.Tracer("enrolytics/internal/aggregate")

// RecordLoader yields the full record snapshot.
type RecordLoader interface {
	LoadAll(ctx context.Context) ([]records.Record, error)
}

// Service is the aggregation engine.
type Service struct {
	loader    RecordLoader
	cache     *cache.Manager
	logger    *slog.Logger
	resultTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithResultTTL overrides how long aggregation results stay cached.
func WithResultTTL(ttl time.Duration) Option {
	return func(s *Service) { s.resultTTL = ttl }
}

// New constructs the aggregation service.
func New(loader RecordLoader, cacheManager *cache.Manager, logger *slog.Logger, opts ...Option) (*Service, error) {
	if loader == nil {
		return nil, fmt.Errorf("record loader is required")
	}
	if cacheManager == nil {
		return nil, fmt.Errorf("cache manager is required")
	}

	svc := &Service{
		loader:    loader,
		cache:     cacheManager,
		logger:    logger,
		resultTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Aggregate computes the grouped totals for the filtered record view.
// Repeated identical queries within the TTL window are served from cache and
// skip both the filtering and the reduction.
func (s *Service) Aggregate(ctx context.Context, f Filter) (*Metrics, error) {
	ctx, span := tracer.Start(ctx, "aggregate.Aggregate")
	defer span.End()

	key := f.CacheKey()
	var cached Metrics
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	recs, err := s.loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	m := reduce(recs, f)
	span.SetAttributes(
		attribute.Int("records.scanned", len(recs)),
		attribute.Int("records.matched", m.TotalCount),
	)

	s.cache.Set(ctx, key, m, s.resultTTL)
	return m, nil
}

// reduce performs the single linear accumulation pass.
func reduce(recs []records.Record, f Filter) *Metrics {
	m := &Metrics{
		ByState:    make(map[string]int),
		ByDistrict: make(map[string]int),
		ByDate:     make(map[string]int),
	}

	for _, r := range recs {
		if !f.Matches(r) {
			continue
		}
		m.TotalCount += r.Total
		m.ByState[r.State] += r.Total
		m.ByDistrict[r.State+"|"+r.District] += r.Total
		m.ByDate[records.FormatDate(r.Date)] += r.Total
		m.ByBracket.Age0to5 += r.Age0to5
		m.ByBracket.Age5to17 += r.Age5to17
		m.ByBracket.Age18Plus += r.Age18Plus
	}

	return m
}

// TopStates returns the n states with the highest totals, built by sorting
// the unfiltered base aggregation rather than re-scanning records.
func (s *Service) TopStates(ctx context.Context, n int) ([]StateCount, error) {
	ctx, span := tracer.Start(ctx, "aggregate.TopStates")
	defer span.End()

	key := fmt.Sprintf("agg:v1:top-states:%d", n)
	var cached []StateCount
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	base, err := s.Aggregate(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	top := make([]StateCount, 0, len(base.ByState))
	for state, count := range base.ByState {
		top = append(top, StateCount{State: state, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].State < top[j].State
	})
	if n > 0 && len(top) > n {
		top = top[:n]
	}

	s.cache.Set(ctx, key, top, s.resultTTL)
	return top, nil
}

// DailySeries returns the most recent days entries of the filtered daily
// totals, sorted by calendar date. Short histories return fewer points; the
// trim is positional, not a calendar cutoff.
func (s *Service) DailySeries(ctx context.Context, days int, f Filter) ([]DatePoint, error) {
	ctx, span := tracer.Start(ctx, "aggregate.DailySeries")
	defer span.End()

	key := fmt.Sprintf("agg:v1:daily:%d|%s", days, f.CacheKey())
	var cached []DatePoint
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	base, err := s.Aggregate(ctx, f)
	if err != nil {
		return nil, err
	}

	series := make([]DatePoint, 0, len(base.ByDate))
	dates := make(map[string]time.Time, len(base.ByDate))
	for day, count := range base.ByDate {
		date, err := records.ParseDate(day)
		if err != nil {
			continue
		}
		dates[day] = date
		series = append(series, DatePoint{Date: day, Count: count})
	}
	sort.Slice(series, func(i, j int) bool {
		return dates[series[i].Date].Before(dates[series[j].Date])
	})
	if days > 0 && len(series) > days {
		series = series[len(series)-days:]
	}

	s.cache.Set(ctx, key, series, s.resultTTL)
	return series, nil
}
