// Package echo provides middleware adapters for Echo framework.
//
// # Quick Start
//
//	e := echo.New()
//	e.Use(echocomment.RequestID())
//	e.Use(echocomment.Route())
//
//	e.GET("/users/:id", func(c echo.Context) error {
//	    rows, err := db.QueryContext(c.Request().Context(), "SELECT ...")
//	    ...
//	})
//
// # Available Middleware
//
//   - RequestID: Generates/forwards X-Request-ID header, request_id tag
//   - Route: route tag from echo's matched path
//   - Logger: Structured request logging
//   - Tracing: OpenTelemetry server spans
package echo

import (
	"net/http"

	"github.com/kroma-labs/sqlcommenter-go/httpserver"
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
	echolib "github.com/labstack/echo/v4"
)

// WrapMiddleware adapts httpserver middleware to Echo middleware.
//
//	e.Use(echocomment.WrapMiddleware(myCustomMiddleware))
func WrapMiddleware(m httpserver.Middleware) echolib.MiddlewareFunc {
	return func(next echolib.HandlerFunc) echolib.HandlerFunc {
		return func(c echolib.Context) error {
			var err error
			handler := m(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				err = next(c)
			}))
			handler.ServeHTTP(c.Response(), c.Request())
			return err
		}
	}
}

// RequestID returns Echo middleware that generates/forwards X-Request-ID and
// tags statements with it.
//
//	e.Use(echocomment.RequestID())
func RequestID() echolib.MiddlewareFunc {
	return WrapMiddleware(httpserver.RequestID())
}

// Route returns Echo middleware that tags statements with the matched route,
// e.g. /users/:id. It must be registered with Use, not Pre, so that routing
// has happened.
//
//	e.Use(echocomment.Route())
func Route() echolib.MiddlewareFunc {
	return func(next echolib.HandlerFunc) echolib.HandlerFunc {
		return func(c echolib.Context) error {
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}

			r := c.Request()
			ctx := sqlcomment.ContextWithTags(r.Context(),
				sqlcomment.NewTags(httpserver.KeyRoute, route))
			c.SetRequest(r.WithContext(ctx))
			return next(c)
		}
	}
}

// Logger returns Echo middleware for structured request logging.
//
//	e.Use(echocomment.Logger(httpserver.LoggerConfig{Logger: logger}))
func Logger(cfg httpserver.LoggerConfig) echolib.MiddlewareFunc {
	return WrapMiddleware(httpserver.Logger(cfg))
}

// Tracing returns Echo middleware for OpenTelemetry tracing.
//
//	e.Use(echocomment.Tracing(httpserver.DefaultTracingConfig()))
func Tracing(cfg httpserver.TracingConfig) echolib.MiddlewareFunc {
	return WrapMiddleware(httpserver.Tracing(cfg))
}
