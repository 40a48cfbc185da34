// Package requestid correlates every request with a unique ID for logging.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"enrolytics/pkg/requestcontext"
)

// Header carries the request ID back to the caller (and accepts one from
// upstream proxies that already assigned it).
const Header = "X-Request-Id"

// Middleware assigns a request ID to the context and response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(Header)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		w.Header().Set(Header, reqID)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), reqID)))
	})
}
