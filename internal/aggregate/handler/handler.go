// Package handler exposes the aggregation query interface. It decodes filter
// parameters, delegates to the aggregation service, and renders JSON; no
// business logic lives here.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"enrolytics/internal/aggregate"
	"enrolytics/internal/records"
	dErrors "enrolytics/pkg/domain-errors"
	"enrolytics/pkg/httputil"
	"enrolytics/pkg/requestcontext"
)

// Service defines the aggregation operations the handler needs.
type Service interface {
	Aggregate(ctx context.Context, f aggregate.Filter) (*aggregate.Metrics, error)
	TopStates(ctx context.Context, n int) ([]aggregate.StateCount, error)
	DailySeries(ctx context.Context, days int, f aggregate.Filter) ([]aggregate.DatePoint, error)
}

// Handler wires aggregation endpoints to the aggregation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an aggregation handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts aggregation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/metrics/enrolments", h.HandleAggregate)
	r.Get("/metrics/top-states", h.HandleTopStates)
	r.Get("/metrics/daily", h.HandleDailySeries)
}

// HandleAggregate handles GET /metrics/enrolments requests.
func (h *Handler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	start := time.Now()
	metrics, err := h.service.Aggregate(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "aggregation failed",
			"request_id", requestcontext.RequestID(ctx),
			"state", filter.State,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "aggregation served",
		"request_id", requestcontext.RequestID(ctx),
		"state", filter.State,
		"total_count", metrics.TotalCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, metrics)
}

// HandleTopStates handles GET /metrics/top-states requests.
func (h *Handler) HandleTopStates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "n must be a positive integer"))
			return
		}
		n = parsed
	}

	top, err := h.service.TopStates(ctx, n)
	if err != nil {
		h.logger.ErrorContext(ctx, "top states failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"states": top})
}

// HandleDailySeries handles GET /metrics/daily requests.
func (h *Handler) HandleDailySeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "days must be a positive integer"))
			return
		}
		days = parsed
	}

	series, err := h.service.DailySeries(ctx, days, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "daily series failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"series": series})
}

// filterFromQuery builds the aggregation filter from query parameters.
// Dates use the external DD-MM-YYYY form.
func filterFromQuery(r *http.Request) (aggregate.Filter, error) {
	q := r.URL.Query()
	filter := aggregate.Filter{
		State:    q.Get("state"),
		District: q.Get("district"),
	}

	if raw := q.Get("from"); raw != "" {
		date, err := records.ParseDate(raw)
		if err != nil {
			return aggregate.Filter{}, dErrors.New(dErrors.CodeBadRequest, "from must be DD-MM-YYYY")
		}
		filter.From = date
	}
	if raw := q.Get("to"); raw != "" {
		date, err := records.ParseDate(raw)
		if err != nil {
			return aggregate.Filter{}, dErrors.New(dErrors.CodeBadRequest, "to must be DD-MM-YYYY")
		}
		filter.To = date
	}

	return filter, nil
}
