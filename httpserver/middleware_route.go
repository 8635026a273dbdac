package httpserver

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
)

// KeyRoute is the tag carrying the route of the request.
const KeyRoute = "route"

// Route returns middleware that tags every statement issued while serving
// the request with its route.
//
// Under a chi router the tag is the matched route pattern, e.g.
// /users/{id}, which groups queries by endpoint rather than by URL. The
// pattern is read when the statement is annotated, so the middleware may be
// mounted before chi has finished routing. Without a pattern the request
// path is used.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(httpserver.Route())
//	r.Get("/users/{id}", getUser)
//	// SELECT ... /*framework=sqlcommenter-go route=%2Fusers%2F%7Bid%7D file=users.go*/
func Route() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			ctx := sqlcomment.ContextWithTagger(r.Context(),
				sqlcomment.TaggerFunc(func(ctx context.Context, tags *sqlcomment.Tags) {
					tags.Set(KeyRoute, routePattern(ctx, path))
				}),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// routePattern returns the chi route pattern of ctx, or fallback.
func routePattern(ctx context.Context, fallback string) string {
	if rctx := chi.RouteContext(ctx); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}
