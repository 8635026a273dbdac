// Package httpserver provides net/http middleware that attaches request-scoped
// tags to the context, so the statements a handler issues through the sql and
// sqlx packages say which request caused them.
//
// # Quick Start
//
//	r := chi.NewRouter()
//	r.Use(httpserver.DefaultMiddleware(httpserver.WithDefaultLogger(logger)))
//	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
//	    db.QueryRowContext(r.Context(), "SELECT name FROM users WHERE id = $1", chi.URLParam(r, "id"))
//	})
//
// The database receives:
//
//	SELECT name FROM users WHERE id = $1 /*traceparent=00-...-01 framework=sqlcommenter-go request_id=6f1c... route=%2Fusers%2F%7Bid%7D file=users.go*/
//
// # Middleware
//
//   - Tracing: server span, parent of the statements' client spans
//   - RequestID: X-Request-ID generation/forwarding, request_id tag
//   - Route: route tag from the chi route pattern
//   - Logger: request log carrying the same request_id and route
//
// # Framework Adapters
//
// Use adapters for other frameworks; each tags the route the way its router
// names it:
//
//	import "github.com/kroma-labs/sqlcommenter-go/httpserver/adapters/gin"
//	import "github.com/kroma-labs/sqlcommenter-go/httpserver/adapters/echo"
//	import "github.com/kroma-labs/sqlcommenter-go/httpserver/adapters/fiber"
//	import "github.com/kroma-labs/sqlcommenter-go/httpserver/adapters/grpcgateway"
package httpserver
