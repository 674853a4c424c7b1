package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"recipeshare_backend/apierr"
	"recipeshare_backend/logger"
	"recipeshare_backend/metrics"
	"recipeshare_backend/response"
)

const RequestIDHeader = "X-Request-ID"

// Logging logs one line per request with its id, status and duration.
func Logging(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			wrapped := wrap(w)
			next.ServeHTTP(wrapped, r)

			kv := []interface{}{
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"route", routePath(r),
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case wrapped.statusCode >= 500:
				log.Error("request", kv...)
			case wrapped.statusCode >= 400:
				log.Warn("request", kv...)
			default:
				log.Info("request", kv...)
			}
		})
	}
}

// Metrics records request counts and latencies keyed by route template.
func Metrics(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.IncInFlight()
			defer m.DecInFlight()

			wrapped := wrap(w)
			next.ServeHTTP(wrapped, r)
			m.ObserveHTTP(r.Method, routePath(r), wrapped.statusCode, time.Since(start))
		})
	}
}

// Recover turns a handler panic into a 500 response.
func Recover(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic in handler", "path", r.URL.Path, "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
					response.Error(w, apierr.Internal(fmt.Errorf("internal error")))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
