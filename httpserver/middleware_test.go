package httpserver_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/kroma-labs/sqlcommenter-go/httpserver"
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// commentHandler writes the comment a statement issued by the handler would carry.
func commentHandler(c *sqlcomment.Commenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(c.Comment(r.Context(), "SELECT 1")))
	}
}

func newCommenter() *sqlcomment.Commenter {
	return sqlcomment.New(sqlcomment.WithoutTraceContext(), sqlcomment.WithoutCaller())
}

func TestChainMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		middlewareCount int
		wantOrder       []string
	}{
		{
			name:            "given no middleware, when chained, then handler executes",
			middlewareCount: 0,
			wantOrder:       []string{"handler"},
		},
		{
			name:            "given multiple middleware, when chained, then executes in order",
			middlewareCount: 2,
			wantOrder:       []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			order := []string{}
			makeMiddleware := func(name string) httpserver.Middleware {
				return func(next http.Handler) http.Handler {
					return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						order = append(order, name+"-before")
						next.ServeHTTP(w, r)
						order = append(order, name+"-after")
					})
				}
			}

			var middlewares []httpserver.Middleware
			for i := 1; i <= tt.middlewareCount; i++ {
				middlewares = append(middlewares, makeMiddleware("m"+string(rune('0'+i))))
			}

			handler := httpserver.Chain(middlewares...)(
				http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					order = append(order, "handler")
					w.WriteHeader(http.StatusOK)
				}),
			)

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantOrder, order)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		header    string
		wantFixed bool
	}{
		{
			name:   "given no request ID, when RequestID applied, then generates ID and tags statements",
			header: "",
		},
		{
			name:      "given existing request ID, when RequestID applied, then forwards ID and tags statements",
			header:    "req-42",
			wantFixed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var fromCtx string
			c := newCommenter()
			handler := httpserver.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fromCtx = httpserver.RequestIDFromContext(r.Context())
				commentHandler(c)(w, r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(httpserver.RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			id := rec.Header().Get(httpserver.RequestIDHeader)
			require.NotEmpty(t, id)
			if tt.wantFixed {
				assert.Equal(t, tt.header, id)
			}
			assert.Equal(t, id, fromCtx)
			assert.Equal(t, "SELECT 1 /*framework=sqlcommenter-go request_id="+id+"*/", rec.Body.String())
		})
	}
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, httpserver.RequestIDFromContext(context.Background()))
}

func TestRouteMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("given chi router, when Route applied, then tags statements with route pattern", func(t *testing.T) {
		t.Parallel()

		r := chi.NewRouter()
		r.Use(httpserver.Route())
		r.Get("/users/{id}", commentHandler(newCommenter()))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))

		assert.Equal(t, "SELECT 1 /*framework=sqlcommenter-go route=%2Fusers%2F%7Bid%7D*/", rec.Body.String())
	})

	t.Run("given nested chi routers, when Route applied, then tags statements with full pattern", func(t *testing.T) {
		t.Parallel()

		r := chi.NewRouter()
		r.Use(httpserver.Route())
		r.Route("/orgs/{org}", func(sub chi.Router) {
			sub.Get("/members", commentHandler(newCommenter()))
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orgs/acme/members", nil))

		assert.Equal(t,
			"SELECT 1 /*framework=sqlcommenter-go route=%2Forgs%2F%7Borg%7D%2Fmembers*/",
			rec.Body.String())
	})

	t.Run("given plain handler, when Route applied, then tags statements with path", func(t *testing.T) {
		t.Parallel()

		handler := httpserver.Route()(commentHandler(newCommenter()))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain/path", nil))

		assert.Equal(t, "SELECT 1 /*framework=sqlcommenter-go route=%2Fplain%2Fpath*/", rec.Body.String())
	})
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	const incoming = "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"

	tests := []struct {
		name       string
		status     int
		wantStatus codes.Code
	}{
		{
			name:       "given successful request, then names span after route",
			status:     http.StatusOK,
			wantStatus: codes.Unset,
		},
		{
			name:       "given 5xx response, then marks span as error",
			status:     http.StatusBadGateway,
			wantStatus: codes.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sr := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
			defer tp.Shutdown(context.Background())

			c := sqlcomment.New(sqlcomment.WithoutCaller())
			var comment string

			r := chi.NewRouter()
			r.Use(
				httpserver.Tracing(httpserver.TracingConfig{
					TracerProvider: tp,
					Propagator:     propagation.TraceContext{},
				}),
				httpserver.RequestID(),
			)
			r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
				comment = c.Comment(r.Context(), "SELECT 1")
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/users/7", nil)
			req.Header.Set("traceparent", incoming)
			req.Header.Set(httpserver.RequestIDHeader, "req-1")
			r.ServeHTTP(httptest.NewRecorder(), req)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "HTTP GET /users/{id}", span.Name())
			assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", span.SpanContext().TraceID().String())
			assert.Equal(t, tt.wantStatus, span.Status().Code)

			attrs := map[string]string{}
			for _, kv := range span.Attributes() {
				attrs[string(kv.Key)] = kv.Value.Emit()
			}
			assert.Equal(t, "/users/{id}", attrs["http.route"])
			assert.Equal(t, "req-1", attrs["request.id"])

			wantParent := "traceparent=00-" + span.SpanContext().TraceID().String() +
				"-" + span.SpanContext().SpanID().String() + "-01"
			assert.True(t, strings.Contains(comment, wantParent), comment)
		})
	}
}

func TestTracingMiddleware_SkipPaths(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	handler := httpserver.Tracing(httpserver.TracingConfig{
		TracerProvider: tp,
		SkipPaths:      []string{"/livez"},
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Empty(t, sr.Ended())
}

func TestLoggerMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "given 200 response, then logs at info", status: http.StatusOK, wantLevel: "info"},
		{name: "given 404 response, then logs at warn", status: http.StatusNotFound, wantLevel: "warn"},
		{name: "given 500 response, then logs at error", status: http.StatusInternalServerError, wantLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			r := chi.NewRouter()
			r.Use(
				httpserver.RequestID(),
				httpserver.Logger(httpserver.LoggerConfig{Logger: zerolog.New(&buf)}),
			)
			r.Get("/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/users/9", nil)
			req.Header.Set(httpserver.RequestIDHeader, "req-9")
			r.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "/users/{id}", entry["route"])
			assert.Equal(t, "/users/9", entry["path"])
			assert.Equal(t, "req-9", entry["request_id"])
			assert.EqualValues(t, tt.status, entry["status"])
		})
	}
}

func TestLoggerMiddleware_SkipPaths(t *testing.T) {
	var buf bytes.Buffer
	handler := httpserver.Logger(httpserver.LoggerConfig{
		Logger:    zerolog.New(&buf),
		SkipPaths: []string{"/livez"},
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Zero(t, buf.Len())
}

func TestDefaultMiddleware(t *testing.T) {
	var buf bytes.Buffer
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	r := chi.NewRouter()
	r.Use(httpserver.DefaultMiddleware(
		httpserver.WithDefaultLogger(zerolog.New(&buf)),
		httpserver.WithTracingConfig(httpserver.TracingConfig{TracerProvider: tp}),
	))
	r.Get("/items/{id}", commentHandler(newCommenter()))

	req := httptest.NewRequest(http.MethodGet, "/items/1", nil)
	req.Header.Set(httpserver.RequestIDHeader, "req-d")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t,
		"SELECT 1 /*framework=sqlcommenter-go request_id=req-d route=%2Fitems%2F%7Bid%7D*/",
		rec.Body.String())
	assert.Len(t, sr.Ended(), 1)
	assert.Contains(t, buf.String(), `"request_id":"req-d"`)
}
