package sql

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Regex patterns for query sanitization.
var (
	// stringLiteralRegex matches single-quoted strings, handling escaped quotes.
	// Example matches: 'hello', 'it\'s', 'foo''bar'
	stringLiteralRegex = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)

	// numericLiteralRegex matches numeric literals (integers and floats).
	numericLiteralRegex = regexp.MustCompile(`\b\d+\.?\d*\b`)

	// hexLiteralRegex matches hex literals.
	hexLiteralRegex = regexp.MustCompile(`0[xX][0-9a-fA-F]+`)
)

// spanName returns the SQL operation of query, or "SQL" when it has none.
func spanName(query string) string {
	op := extractOperation(query)
	if op != "" {
		return op
	}
	return "SQL"
}

// extractOperation returns the first word of query, upper-cased.
//
//	extractOperation("select * from users") // "SELECT"
//	extractOperation("")                    // ""
func extractOperation(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	spaceIdx := strings.IndexAny(query, " \t\n\r")
	if spaceIdx == -1 {
		return strings.ToUpper(query)
	}

	return strings.ToUpper(query[:spaceIdx])
}

// DefaultQuerySanitizer replaces string, numeric and hex literals with "?"
// so that span attributes do not expose values.
//
//	DefaultQuerySanitizer("SELECT * FROM users WHERE name = 'john'")
//	// "SELECT * FROM users WHERE name = '?'"
//
// It is regex based and only meant for span attributes.
func DefaultQuerySanitizer(query string) string {
	query = stringLiteralRegex.ReplaceAllString(query, "'?'")
	query = numericLiteralRegex.ReplaceAllString(query, "?")
	query = hexLiteralRegex.ReplaceAllString(query, "?")
	return query
}

// baseAttributes returns the attributes shared by all spans and metrics.
func (cfg *config) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if cfg.DBSystem != "" {
		attrs = append(attrs, semconv.DBSystemKey.String(cfg.DBSystem))
	}
	if cfg.DBName != "" {
		attrs = append(attrs, semconv.DBName(cfg.DBName))
	}
	if cfg.InstanceName != "" {
		attrs = append(attrs, attribute.String("db.instance", cfg.InstanceName))
	}
	return attrs
}

// queryAttributes returns attributes for statement spans. The statement is
// recorded without its comment.
func (cfg *config) queryAttributes(query string) []attribute.KeyValue {
	attrs := cfg.baseAttributes()

	if !cfg.DisableQuery && query != "" {
		sanitized := query
		if cfg.QuerySanitizer != nil {
			sanitized = cfg.QuerySanitizer(query)
		}
		attrs = append(attrs, semconv.DBStatement(sanitized))
	}

	if op := extractOperation(query); op != "" {
		attrs = append(attrs, semconv.DBOperation(op))
	}

	return attrs
}

// startSpan starts a client span unless spans are disabled, in which case
// the returned span is the one already in ctx and must not be ended.
func (cfg *config) startSpan(
	ctx context.Context,
	name string,
	attrs []attribute.KeyValue,
) (context.Context, trace.Span, bool) {
	if cfg.DisableSpans {
		return ctx, trace.SpanFromContext(ctx), false
	}
	ctx, span := cfg.Tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, span, true
}

// observeStatement runs fn with the annotated query inside a client span and
// records the statement metrics. Errors from fn are returned unchanged.
func (cfg *config) observeStatement(
	ctx context.Context,
	query string,
	fn func(ctx context.Context, query string) error,
) error {
	start := time.Now()
	operation := extractOperation(query)

	ctx, span, owned := cfg.startSpan(ctx, spanName(query), cfg.queryAttributes(query))
	if owned {
		defer span.End()
	}

	err := fn(ctx, cfg.Commenter.Comment(ctx, query))

	cfg.Metrics.recordStatement(ctx, time.Since(start), operation, cfg.baseAttributes(), err)

	if err != nil && owned {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// observe wraps a statement-less operation (BEGIN, COMMIT, PING) in a span.
func (cfg *config) observe(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()

	ctx, span, owned := cfg.startSpan(ctx, name, cfg.baseAttributes())
	if owned {
		defer span.End()
	}

	err := fn(ctx)

	cfg.Metrics.recordQueryDuration(ctx, time.Since(start), name, cfg.baseAttributes(), err)

	if err != nil && owned {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
