package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"enrolytics/internal/aggregate"
	"enrolytics/internal/stats"
	dErrors "enrolytics/pkg/domain-errors"
)

var tracer = otel.Tracer("enrolytics/internal/alerts")

var (
	evaluations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enrolytics_alert_evaluations_total",
		Help: "Alert evaluation passes",
	})
	alertsTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enrolytics_alerts_triggered_total",
		Help: "Triggered alerts by severity",
	}, []string{"severity"})
)

// Window is the daily-series lookback for an evaluation.
type Window int

const (
	Window7   Window = 7
	Window30  Window = 30
	Window90  Window = 90
	Window365 Window = 365
)

// ParseWindow maps the query form ("7d", "30d", ...) to a Window, defaulting
// to 30 days for an empty selector.
func ParseWindow(s string) (Window, error) {
	switch s {
	case "", "30d":
		return Window30, nil
	case "7d":
		return Window7, nil
	case "90d":
		return Window90, nil
	case "365d":
		return Window365, nil
	default:
		return 0, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown window %q", s))
	}
}

// Aggregator is the slice of the aggregation engine the alert service needs.
type Aggregator interface {
	Aggregate(ctx context.Context, f aggregate.Filter) (*aggregate.Metrics, error)
	DailySeries(ctx context.Context, days int, f aggregate.Filter) ([]aggregate.DatePoint, error)
}

// Publisher forwards triggered alerts to external collaborators. Emission is
// best-effort; failures must not fail the evaluation.
type Publisher interface {
	Publish(ctx context.Context, alert Alert) error
}

// Evaluation is the full result of one alert pass: the sorted alerts plus the
// raw statistics that produced them.
type Evaluation struct {
	Alerts      []Alert     `json:"alerts"`
	Stats       SeriesStats `json:"stats"`
	State       string      `json:"state,omitempty"`
	WindowDays  int         `json:"window_days"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}

// Service derives series statistics from the aggregation engine and runs the
// rule evaluator over them. It holds no alert state between calls.
type Service struct {
	agg       Aggregator
	engine    *Engine
	publisher Publisher
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher attaches an alert publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithEngine overrides the default rule engine. Used by tests.
func WithEngine(e *Engine) Option {
	return func(s *Service) { s.engine = e }
}

// NewService constructs the alert service.
func NewService(agg Aggregator, logger *slog.Logger, opts ...Option) (*Service, error) {
	if agg == nil {
		return nil, fmt.Errorf("aggregator is required")
	}

	svc := &Service{
		agg:    agg,
		engine: NewEngine(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Evaluate runs one alert pass over the recent daily series, optionally
// scoped to a state. An empty series degrades to zero statistics and no
// alerts rather than an error.
func (s *Service) Evaluate(ctx context.Context, state string, window Window) (*Evaluation, error) {
	ctx, span := tracer.Start(ctx, "alerts.Evaluate")
	defer span.End()
	evaluations.Inc()

	filter := aggregate.Filter{State: state}
	series, err := s.agg.DailySeries(ctx, int(window), filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build daily series")
	}
	base, err := s.agg.Aggregate(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate records")
	}

	derived := deriveStats(series, base.TotalCount)

	// An empty series means no data, not a firing condition: degrade to
	// zero statistics and no alerts rather than a failure-floor page.
	var triggered []Alert
	if len(series) > 0 {
		triggered = s.engine.Evaluate(derived, state, time.Now())
	}

	eval := &Evaluation{
		Alerts:      triggered,
		Stats:       derived,
		State:       state,
		WindowDays:  int(window),
		EvaluatedAt: time.Now(),
	}
	span.SetAttributes(
		attribute.Int("series.points", len(series)),
		attribute.Int("alerts.triggered", len(eval.Alerts)),
	)

	for _, alert := range eval.Alerts {
		alertsTriggered.WithLabelValues(string(alert.Severity)).Inc()
		s.publish(ctx, alert)
	}

	s.logger.InfoContext(ctx, "alert evaluation complete",
		"state", state,
		"window_days", int(window),
		"series_points", len(series),
		"alerts", len(eval.Alerts),
	)
	return eval, nil
}

func (s *Service) publish(ctx context.Context, alert Alert) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, alert); err != nil {
		s.logger.WarnContext(ctx, "alert publish failed",
			"rule_id", alert.RuleID,
			"error", err,
		)
	}
}

// deriveStats reduces the daily series into the statistics the rules consume.
// Mean, stddev, and percentiles are computed over the baseline (everything
// before the latest point) so a spike cannot inflate its own threshold.
// Degenerate inputs (empty series, zero variance, zero previous day) yield
// zero-valued fields instead of NaN or infinity.
func deriveStats(series []aggregate.DatePoint, totalCount int) SeriesStats {
	derived := SeriesStats{TotalCount: totalCount}
	if len(series) == 0 {
		return derived
	}

	xs := make([]float64, len(series))
	for i, p := range series {
		xs[i] = float64(p.Count)
	}
	derived.Latest = xs[len(xs)-1]

	baseline := xs
	if len(xs) >= 2 {
		baseline = xs[:len(xs)-1]
	}

	derived.Mean = stats.Mean(baseline)
	derived.StdDev = stats.StdDev(baseline)
	derived.P5 = stats.Percentile(baseline, 0.05)
	derived.P95 = stats.Percentile(baseline, 0.95)

	if derived.StdDev > 0 {
		derived.AnomalyScore = stats.ZScore(derived.Latest, derived.Mean, derived.StdDev)
	}
	previous := baseline[len(baseline)-1]
	if len(xs) >= 2 && previous != 0 {
		derived.GrowthRate = (derived.Latest - previous) / previous * 100
	}

	return derived
}
