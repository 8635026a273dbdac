package httpserver

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LoggerConfig configures the logging middleware.
type LoggerConfig struct {
	Logger zerolog.Logger

	// SkipPaths are paths that should not be logged.
	SkipPaths []string
}

// Logger returns middleware that logs HTTP requests.
//
// Each entry carries the request_id and route fields with the values
// written into the comments of the request's statements, so a slow query
// found in the database log leads back to its request.
//
// Example:
//
//	handler := httpserver.Chain(
//	    httpserver.RequestID(),
//	    httpserver.Logger(httpserver.LoggerConfig{Logger: logger}),
//	)(myHandler)
func Logger(cfg LoggerConfig) Middleware {
	skipPaths := make(map[string]bool)
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r)

			event := cfg.Logger.Info()
			if wrapped.Status() >= 400 {
				event = cfg.Logger.Warn()
			}
			if wrapped.Status() >= 500 {
				event = cfg.Logger.Error()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str(KeyRoute, routePattern(r.Context(), r.URL.Path)).
				Int("status", wrapped.Status()).
				Dur("duration", time.Since(start)).
				Int("bytes", wrapped.BytesWritten())

			if requestID := RequestIDFromContext(r.Context()); requestID != "" {
				event.Str(KeyRequestID, requestID)
			}

			event.Msg("request completed")
		})
	}
}
