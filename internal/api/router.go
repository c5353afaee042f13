// Package api exposes token validation over HTTP.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the handlers. metricsHandler may be nil, in which case
// /metrics is not served.
func NewRouter(h *Handlers, metricsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthHandler).Methods("GET")
	r.HandleFunc("/time", h.GetTimeHandler).Methods("GET")
	r.HandleFunc("/validate", h.ValidateHandler).Methods("POST")
	r.HandleFunc("/validate/batch", h.ValidateBatchHandler).Methods("POST")
	r.HandleFunc("/proximity", h.ProximityHandler).Methods("POST")
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods("GET")
	}
	r.Use(h.logRequests)
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := h.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", h.now().Sub(start))
	})
}
