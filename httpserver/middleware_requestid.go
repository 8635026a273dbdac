package httpserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
)

// RequestIDHeader is the header key for request IDs.
const RequestIDHeader = "X-Request-ID"

// KeyRequestID is the tag carrying the request ID.
const KeyRequestID = "request_id"

// requestIDKey is the context key for request ID.
type requestIDKey struct{}

// RequestID returns middleware that generates or forwards request IDs and
// tags every statement issued while serving the request with it.
//
// Behavior:
//   - If X-Request-ID header exists, use it
//   - Otherwise, generate a new UUID v4
//   - Add the ID to the response header
//   - Store the ID in the request context and as the request_id tag
//
// Example:
//
//	handler := httpserver.RequestID()(myHandler)
//
//	// In myHandler:
//	db.QueryContext(r.Context(), "SELECT 1")
//	// SELECT 1 /*framework=sqlcommenter-go request_id=6f1c... file=handler.go*/
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}

			w.Header().Set(RequestIDHeader, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			ctx = sqlcomment.ContextWithTags(ctx, sqlcomment.NewTags(KeyRequestID, id))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext extracts the request ID from the context.
//
// Returns an empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
