package httpserver

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Middleware is a function that wraps an http.Handler.
//
// Middleware functions are composed together using Chain() to create
// a processing pipeline for HTTP requests.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware into a single middleware.
//
// Middleware are applied in the order provided. The first middleware
// is the outermost (runs first on request, last on response).
//
// Example:
//
//	handler := httpserver.Chain(
//	    httpserver.Tracing(httpserver.TracingConfig{TracerProvider: tp}),
//	    httpserver.RequestID(),
//	    httpserver.Route(),
//	)(myHandler)
//
// Request flow:
//
//	Tracing -> RequestID -> Route -> myHandler -> Route -> RequestID -> Tracing
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		// Apply in reverse order so first middleware is outermost
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// DefaultMiddleware returns the middleware stack that tags the statements
// issued while serving a request.
//
// The stack includes (in order):
//  1. Tracing - server span, so traceparent points into the request's trace
//  2. RequestID - X-Request-ID generation/forwarding, request_id tag
//  3. Route - route tag
//  4. Logger - request logging (if a logger is provided)
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(httpserver.DefaultMiddleware(httpserver.WithDefaultLogger(logger)))
func DefaultMiddleware(opts ...MiddlewareOption) Middleware {
	cfg := &middlewareConfig{tracing: DefaultTracingConfig()}
	for _, opt := range opts {
		opt(cfg)
	}

	middlewares := []Middleware{
		Tracing(cfg.tracing),
		RequestID(),
		Route(),
	}
	if cfg.logger != nil {
		middlewares = append(middlewares, Logger(LoggerConfig{Logger: *cfg.logger}))
	}

	return Chain(middlewares...)
}

// middlewareConfig holds options for DefaultMiddleware.
type middlewareConfig struct {
	tracing TracingConfig
	logger  *zerolog.Logger
}

// MiddlewareOption configures DefaultMiddleware.
type MiddlewareOption func(*middlewareConfig)

// WithDefaultLogger adds logging middleware to DefaultMiddleware.
func WithDefaultLogger(logger zerolog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.logger = &logger
	}
}

// WithTracingConfig replaces the tracing configuration of DefaultMiddleware.
func WithTracingConfig(cfg TracingConfig) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.tracing = cfg
	}
}
