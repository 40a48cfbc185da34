// Package handler exposes the alert query interface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"enrolytics/internal/alerts"
	"enrolytics/pkg/httputil"
	"enrolytics/pkg/requestcontext"
)

// Service defines the alert operations the handler needs.
type Service interface {
	Evaluate(ctx context.Context, state string, window alerts.Window) (*alerts.Evaluation, error)
}

// Handler wires alert endpoints to the alert service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an alert handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts alert endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/alerts", h.HandleEvaluate)
}

// HandleEvaluate handles GET /alerts requests. The response carries both the
// sorted alerts and the derived statistics so the caller can render the
// metrics behind each threshold.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	window, err := alerts.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state := r.URL.Query().Get("state")

	eval, err := h.service.Evaluate(ctx, state, window)
	if err != nil {
		h.logger.ErrorContext(ctx, "alert evaluation failed",
			"request_id", requestcontext.RequestID(ctx),
			"state", state,
			"window_days", int(window),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "alerts served",
		"request_id", requestcontext.RequestID(ctx),
		"state", state,
		"alerts", len(eval.Alerts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, eval)
}
