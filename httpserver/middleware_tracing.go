package httpserver

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const scope = "github.com/kroma-labs/sqlcommenter-go/httpserver"

// TracingConfig configures the tracing middleware.
type TracingConfig struct {
	// TracerProvider is the OTel tracer provider.
	// If nil, uses otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// Propagator is the context propagator.
	// If nil, uses otel.GetTextMapPropagator().
	Propagator propagation.TextMapPropagator

	// SkipPaths are paths that should not be traced.
	SkipPaths []string
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerProvider: otel.GetTracerProvider(),
		Propagator:     otel.GetTextMapPropagator(),
	}
}

// Tracing returns middleware that starts a server span per request.
//
// The span becomes the parent of the client spans of the statements issued by
// the handler, so the traceparent tag of their comments joins the trace of
// the incoming request.
//
// Features:
//   - Extracts trace context from incoming requests
//   - Names the span after the chi route pattern once routing is done
//   - Records errors on 5xx responses
//
// Example:
//
//	handler := httpserver.Tracing(httpserver.TracingConfig{
//	    TracerProvider: tp,
//	})(myHandler)
func Tracing(cfg TracingConfig) Middleware {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}

	tracer := cfg.TracerProvider.Tracer(scope)

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

			ctx := cfg.Propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.ServerAddress(r.Host),
					semconv.UserAgentOriginal(r.UserAgent()),
					semconv.ClientAddress(r.RemoteAddr),
				),
			)
			defer span.End()

			wrapped := newStatusRecorder(w)
			r = r.WithContext(ctx)
			next.ServeHTTP(wrapped, r)

			route := routePattern(ctx, r.URL.Path)
			span.SetName("HTTP " + r.Method + " " + route)
			span.SetAttributes(semconv.HTTPRoute(route))

			if requestID := wrapped.Header().Get(RequestIDHeader); requestID != "" {
				span.SetAttributes(attribute.String("request.id", requestID))
			}

			status := wrapped.Status()
			span.SetAttributes(semconv.HTTPResponseStatusCode(status))
			if status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}
