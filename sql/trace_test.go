package sql

import (
	"context"
	"testing"

	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestExtractOperation(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		wantOperation string
		wantSpanName  string
	}{
		{
			name:          "given SELECT statement, then returns SELECT",
			query:         "SELECT id FROM users",
			wantOperation: "SELECT",
			wantSpanName:  "SELECT",
		},
		{
			name:          "given lowercase statement, then returns uppercase operation",
			query:         "insert into users (id) values (1)",
			wantOperation: "INSERT",
			wantSpanName:  "INSERT",
		},
		{
			name:          "given leading whitespace, then returns operation",
			query:         "   DELETE FROM users",
			wantOperation: "DELETE",
			wantSpanName:  "DELETE",
		},
		{
			name:          "given newline after operation, then returns operation",
			query:         "UPDATE\nusers SET name = 'x'",
			wantOperation: "UPDATE",
			wantSpanName:  "UPDATE",
		},
		{
			name:          "given single word command, then returns that word",
			query:         "vacuum",
			wantOperation: "VACUUM",
			wantSpanName:  "VACUUM",
		},
		{
			name:          "given whitespace only, then span name defaults to SQL",
			query:         " \t ",
			wantOperation: "",
			wantSpanName:  "SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantOperation, extractOperation(tt.query))
			assert.Equal(t, tt.wantSpanName, spanName(tt.query))
		})
	}
}

func TestDefaultQuerySanitizer(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantQuery string
	}{
		{
			name:      "given string and numeric literals, then replaces both",
			query:     "SELECT * FROM users WHERE id = 1 AND name = 'test'",
			wantQuery: "SELECT * FROM users WHERE id = ? AND name = '?'",
		},
		{
			name:      "given escaped quote, then masks whole literal",
			query:     "SELECT * FROM users WHERE name = 'it\\'s'",
			wantQuery: "SELECT * FROM users WHERE name = '?'",
		},
		{
			name:      "given hex literal, then replaces it",
			query:     "SELECT * FROM blobs WHERE id = 0xCAFE",
			wantQuery: "SELECT * FROM blobs WHERE id = ?",
		},
		{
			name:      "given float literal, then replaces it",
			query:     "SELECT * FROM products WHERE price > 19.99",
			wantQuery: "SELECT * FROM products WHERE price > ?",
		},
		{
			name:      "given placeholders only, then returns unchanged",
			query:     "SELECT * FROM users WHERE id = $a",
			wantQuery: "SELECT * FROM users WHERE id = $a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantQuery, DefaultQuerySanitizer(tt.query))
		})
	}
}

func TestQueryAttributes(t *testing.T) {
	tests := []struct {
		name         string
		cfg          *config
		query        string
		wantContains map[string]string
		wantMissing  []string
	}{
		{
			name:  "given full config, then includes db attributes, statement and operation",
			cfg:   &config{DBSystem: "postgresql", DBName: "testdb", InstanceName: "primary"},
			query: "SELECT * FROM users",
			wantContains: map[string]string{
				"db.system":    "postgresql",
				"db.name":      "testdb",
				"db.instance":  "primary",
				"db.statement": "SELECT * FROM users",
				"db.operation": "SELECT",
			},
		},
		{
			name:  "given sanitizer, then sanitizes statement",
			cfg:   &config{QuerySanitizer: DefaultQuerySanitizer},
			query: "SELECT * FROM users WHERE id = 123",
			wantContains: map[string]string{
				"db.statement": "SELECT * FROM users WHERE id = ?",
			},
			wantMissing: []string{"db.system", "db.name"},
		},
		{
			name:         "given DisableQuery, then omits statement",
			cfg:          &config{DisableQuery: true},
			query:        "SELECT * FROM users",
			wantContains: map[string]string{"db.operation": "SELECT"},
			wantMissing:  []string{"db.statement"},
		},
		{
			name:        "given empty query, then omits statement and operation",
			cfg:         &config{},
			query:       "",
			wantMissing: []string{"db.statement", "db.operation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := map[string]string{}
			for _, kv := range tt.cfg.queryAttributes(tt.query) {
				attrs[string(kv.Key)] = kv.Value.AsString()
			}

			for key, want := range tt.wantContains {
				assert.Equal(t, want, attrs[key], "attribute %s", key)
			}
			for _, key := range tt.wantMissing {
				assert.NotContains(t, attrs, key)
			}
		})
	}
}

func TestObserveStatement(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		fnErr     error
		wantSpans int
		wantCode  codes.Code
	}{
		{
			name:      "given spans enabled, then ends one client span",
			wantSpans: 1,
			wantCode:  codes.Unset,
		},
		{
			name:      "given statement error, then marks span as error",
			fnErr:     assert.AnError,
			wantSpans: 1,
			wantCode:  codes.Error,
		},
		{
			name:      "given spans disabled, then records no span",
			opts:      []Option{WithoutSpans()},
			fnErr:     assert.AnError,
			wantSpans: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
			defer tp.Shutdown(context.Background())

			opts := append([]Option{WithTracerProvider(tp), commentOptions()}, tt.opts...)
			cfg := newConfig(opts...)

			var sent string
			err := cfg.observeStatement(context.Background(), "SELECT 1", func(_ context.Context, q string) error {
				sent = q
				return tt.fnErr
			})

			assert.ErrorIs(t, err, tt.fnErr)
			assert.Equal(t, "SELECT 1 "+testComment, sent)
			spans := sr.Ended()
			require.Len(t, spans, tt.wantSpans)
			if tt.wantSpans > 0 {
				assert.Equal(t, tt.wantCode, spans[0].Status().Code)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	commenter := sqlcomment.New(sqlcomment.WithFramework("billing"))

	tests := []struct {
		name       string
		opts       []Option
		wantAssert func(t *testing.T, cfg *config)
	}{
		{
			name: "given no options, then uses defaults",
			wantAssert: func(t *testing.T, cfg *config) {
				assert.NotNil(t, cfg.TracerProvider)
				assert.NotNil(t, cfg.MeterProvider)
				assert.NotNil(t, cfg.Metrics)
				require.NotNil(t, cfg.Commenter)
				assert.Equal(t, sqlcomment.DefaultFramework, cfg.Commenter.Framework())
			},
		},
		{
			name: "given WithCommenter, then uses it over comment options",
			opts: []Option{
				WithCommentOptions(sqlcomment.WithFramework("ignored")),
				WithCommenter(commenter),
			},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Same(t, commenter, cfg.Commenter)
			},
		},
		{
			name: "given WithCommentOptions, then builds commenter from them",
			opts: []Option{WithCommentOptions(sqlcomment.WithFramework("orders"))},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, "orders", cfg.Commenter.Framework())
			},
		},
		{
			name: "given database options, then sets them",
			opts: []Option{
				WithDBSystem("postgresql"),
				WithDBName("users"),
				WithInstanceName("replica"),
				WithDisableQuery(),
				WithoutSpans(),
				WithQuerySanitizer(DefaultQuerySanitizer),
			},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, "postgresql", cfg.DBSystem)
				assert.Equal(t, "users", cfg.DBName)
				assert.Equal(t, "replica", cfg.InstanceName)
				assert.True(t, cfg.DisableQuery)
				assert.True(t, cfg.DisableSpans)
				assert.NotNil(t, cfg.QuerySanitizer)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(tt.opts...)
			require.NotNil(t, cfg)
			tt.wantAssert(t, cfg)
		})
	}
}
