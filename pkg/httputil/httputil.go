// Package httputil centralizes JSON response writing so handlers stay thin
// and error envelopes remain consistent across endpoints.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "enrolytics/pkg/domain-errors"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the standard JSON error envelope.
// Internal errors omit the description so implementation detail never leaks.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	body := map[string]string{"error": string(code)}
	if msg := dErrors.MessageOf(err); msg != "" {
		body["error_description"] = msg
	}

	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
