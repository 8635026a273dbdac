package sqlx

import (
	"context"
	"strings"
	"time"

	commentsql "github.com/kroma-labs/sqlcommenter-go/sql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// extractOperation returns the first word of query, upper-cased.
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

// sqlxSpanName generates a span name for sqlx operations,
// e.g. "sqlx.Get: SELECT".
func sqlxSpanName(method, query string) string {
	op := extractOperation(query)
	if op == "" {
		return method
	}
	return method + ": " + op
}

// DefaultQuerySanitizer replaces literal values with placeholders.
// See the sql package for details.
func DefaultQuerySanitizer(query string) string {
	return commentsql.DefaultQuerySanitizer(query)
}

// baseAttributes returns the base attributes for all spans and metrics.
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

// queryAttributes returns attributes for query spans.
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

// statement runs fn with the annotated query inside a span named after
// method.
func (cfg *config) statement(
	ctx context.Context,
	method, query string,
	fn func(ctx context.Context, query string) error,
) error {
	start := time.Now()

	ctx, span := cfg.Tracer.Start(ctx, sqlxSpanName(method, query),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(cfg.queryAttributes(query)...),
	)
	defer span.End()

	err := fn(ctx, cfg.Commenter.Comment(ctx, query))

	cfg.Metrics.recordStatement(ctx, time.Since(start), extractOperation(query), cfg.baseAttributes(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// observe runs fn inside a span without annotating anything. It is used for
// prepared statements, which were annotated when prepared, and for
// transaction control.
func (cfg *config) observe(
	ctx context.Context,
	name, query, operation string,
	fn func(ctx context.Context) error,
) error {
	start := time.Now()

	ctx, span := cfg.Tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(cfg.queryAttributes(query)...),
	)
	defer span.End()

	err := fn(ctx)

	cfg.Metrics.recordQueryDuration(ctx, time.Since(start), operation, cfg.baseAttributes(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
