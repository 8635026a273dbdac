// Package gin provides middleware adapters for Gin framework.
//
// # Quick Start
//
//	r := gin.New()
//	r.Use(gincomment.Tracing(httpserver.DefaultTracingConfig()))
//	r.Use(gincomment.RequestID())
//	r.Use(gincomment.Route())
//
//	r.GET("/users/:id", func(c *gin.Context) {
//	    db.QueryContext(c.Request.Context(), "SELECT ...")
//	    // SELECT ... /*framework=sqlcommenter-go request_id=... route=%2Fusers%2F%3Aid file=users.go*/
//	})
//
// # Available Middleware
//
//   - RequestID: Generates/forwards X-Request-ID header, request_id tag
//   - Route: route tag from gin's matched path
//   - Logger: Structured request logging
//   - Tracing: OpenTelemetry server spans
package gin

import (
	"net/http"

	ginlib "github.com/gin-gonic/gin"
	"github.com/kroma-labs/sqlcommenter-go/httpserver"
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
)

// WrapMiddleware adapts httpserver middleware to Gin middleware.
//
//	r.Use(gincomment.WrapMiddleware(myCustomMiddleware))
func WrapMiddleware(m httpserver.Middleware) ginlib.HandlerFunc {
	return func(c *ginlib.Context) {
		var aborted bool
		handler := m(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
			aborted = c.IsAborted()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if aborted {
			c.Abort()
		}
	}
}

// RequestID returns Gin middleware that generates/forwards X-Request-ID and
// tags statements with it.
//
//	r.Use(gincomment.RequestID())
func RequestID() ginlib.HandlerFunc {
	return WrapMiddleware(httpserver.RequestID())
}

// Route returns Gin middleware that tags statements with the matched route,
// e.g. /users/:id. Unmatched requests are tagged with their path.
//
//	r.Use(gincomment.Route())
func Route() ginlib.HandlerFunc {
	return func(c *ginlib.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx := sqlcomment.ContextWithTags(c.Request.Context(),
			sqlcomment.NewTags(httpserver.KeyRoute, route))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Logger returns Gin middleware for structured request logging.
//
//	r.Use(gincomment.Logger(httpserver.LoggerConfig{Logger: logger}))
func Logger(cfg httpserver.LoggerConfig) ginlib.HandlerFunc {
	return WrapMiddleware(httpserver.Logger(cfg))
}

// Tracing returns Gin middleware for OpenTelemetry tracing.
//
//	r.Use(gincomment.Tracing(httpserver.DefaultTracingConfig()))
func Tracing(cfg httpserver.TracingConfig) ginlib.HandlerFunc {
	return WrapMiddleware(httpserver.Tracing(cfg))
}
