// Package httpapi assembles the HTTP surface: middleware, health and
// telemetry endpoints, and the versioned API routes.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	aggregatehandler "enrolytics/internal/aggregate/handler"
	alerthandler "enrolytics/internal/alerts/handler"
	"enrolytics/internal/platform/metrics"
	"enrolytics/pkg/platform/middleware/requestid"
)

// NewRouter wires all public endpoints.
func NewRouter(agg *aggregatehandler.Handler, alerts *alerthandler.Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	if m != nil {
		r.Use(requestDuration(m))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		agg.Register(r)
		alerts.Register(r)
	})

	return r
}

// requestDuration records per-route latency with the status class as a label.
func requestDuration(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.HTTPRequestDuration.
				WithLabelValues(route, strconv.Itoa(ww.status/100*100)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
