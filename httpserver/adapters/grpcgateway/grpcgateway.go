// Package grpcgateway provides middleware adapters for grpc-gateway.
//
// # Quick Start
//
//	gwmux := runtime.NewServeMux()
//	// Register gRPC services with gwmux...
//
//	handler := grpcgateway.DefaultMiddleware(gwmux, &logger)
//	http.ListenAndServe(":8080", handler)
//
// Services registered in-process (Register*HandlerServer) receive the
// request context, so their statements are tagged with:
//
//	route       the HTTP path pattern of the binding, e.g. /v1/users/{id}
//	controller  the gRPC service, e.g. users.v1.UserService
//	action      the gRPC method, e.g. GetUser
package grpcgateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/kroma-labs/sqlcommenter-go/httpserver"
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
	"github.com/rs/zerolog"
)

// Tag keys set by Route besides httpserver.KeyRoute.
const (
	KeyController = "controller"
	KeyAction     = "action"
)

// WrapWithMiddleware wraps a grpc-gateway ServeMux with httpserver middleware.
//
// The middleware is applied in order (first to last).
//
//	handler := grpcgateway.WrapWithMiddleware(gwmux,
//	    httpserver.RequestID(),
//	    grpcgateway.Route(),
//	)
func WrapWithMiddleware(mux *runtime.ServeMux, middlewares ...httpserver.Middleware) http.Handler {
	return httpserver.Chain(middlewares...)(mux)
}

// DefaultMiddleware returns a grpc-gateway handler wrapped with Tracing,
// RequestID, Route and, when logger is not nil, Logger.
//
//	handler := grpcgateway.DefaultMiddleware(gwmux, &logger)
func DefaultMiddleware(mux *runtime.ServeMux, logger *zerolog.Logger) http.Handler {
	middlewares := []httpserver.Middleware{
		httpserver.Tracing(httpserver.DefaultTracingConfig()),
		httpserver.RequestID(),
		Route(),
	}

	if logger != nil {
		middlewares = append(middlewares, httpserver.Logger(httpserver.LoggerConfig{
			Logger: *logger,
		}))
	}

	return httpserver.Chain(middlewares...)(mux)
}

// Route returns middleware that tags statements with the gateway binding
// that served the request.
//
// The gateway annotates the context only once it has matched a binding, so
// the tags are read when a statement is annotated. Before that, and for
// handlers registered with HandlePath, the route falls back to the request
// path and the RPC tags are omitted.
func Route() httpserver.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			ctx := sqlcomment.ContextWithTagger(r.Context(),
				sqlcomment.TaggerFunc(func(ctx context.Context, tags *sqlcomment.Tags) {
					tag(ctx, tags, path)
				}),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tag(ctx context.Context, tags *sqlcomment.Tags, path string) {
	route, ok := runtime.HTTPPathPattern(ctx)
	if !ok || route == "" {
		route = path
	}
	tags.Set(httpserver.KeyRoute, route)

	method, ok := runtime.RPCMethod(ctx)
	if !ok {
		return
	}
	// "/users.v1.UserService/GetUser"
	service, action, found := strings.Cut(strings.TrimPrefix(method, "/"), "/")
	if !found {
		tags.Set(KeyAction, method)
		return
	}
	tags.Set(KeyController, service)
	tags.Set(KeyAction, action)
}
