package sql

import (
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/sqlcommenter-go/sql"
)

// config holds the configuration for the wrapped driver.
type config struct {
	// TracerProvider is the tracer provider to use.
	// If not set, uses the global provider via otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// MeterProvider is the meter provider to use.
	// If not set, uses the global provider via otel.GetMeterProvider().
	MeterProvider metric.MeterProvider

	// Tracer is the tracer instance created from TracerProvider.
	Tracer trace.Tracer

	// Meter is the meter instance created from MeterProvider.
	Meter metric.Meter

	// Metrics holds the metric instruments.
	Metrics *metrics

	// Commenter annotates every statement sent to the driver.
	// The client span of a statement is active when its comment is built,
	// so traceparent identifies that span.
	Commenter *sqlcomment.Commenter

	// CommentOptions build Commenter when it is not set explicitly.
	CommentOptions []sqlcomment.Option

	// DBSystem identifies the database management system (DBMS) product.
	// Examples: "postgresql", "mysql", "sqlite"
	DBSystem string

	// DBName is the name of the database being accessed.
	DBName string

	// InstanceName identifies a specific database connection instance,
	// such as "primary" or "replica".
	InstanceName string

	// QuerySanitizer sanitizes SQL queries before adding them to spans.
	// It never affects the statement sent to the database.
	QuerySanitizer func(query string) string

	// DisableQuery disables recording of SQL queries in spans.
	DisableQuery bool

	// DisableSpans stops the wrapper from starting client spans. Comments
	// then carry the span context of the caller's context.
	DisableSpans bool
}

// newConfig creates a new config with defaults and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)

	// Metrics stay nil if the instruments cannot be created.
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	if cfg.Commenter == nil {
		cfg.Commenter = sqlcomment.New(cfg.CommentOptions...)
	}

	return cfg
}

// Option configures the wrapped driver and the Client.
type Option func(*config)

// WithTracerProvider sets a custom tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.MeterProvider = mp
	}
}

// WithCommenter sets the Commenter used to annotate statements.
// It takes precedence over WithCommentOptions.
//
// Example:
//
//	commenter := sqlcomment.New(sqlcomment.WithFramework("billing-api"))
//	db, _ := commentsql.Open("postgres", dsn,
//	    commentsql.WithCommenter(commenter),
//	)
func WithCommenter(c *sqlcomment.Commenter) Option {
	return func(cfg *config) {
		cfg.Commenter = c
	}
}

// WithCommentOptions configures the default Commenter.
//
// Example:
//
//	db, _ := commentsql.Open("postgres", dsn,
//	    commentsql.WithCommentOptions(
//	        sqlcomment.WithTags(sqlcomment.NewTags("db_driver", "lib/pq")),
//	    ),
//	)
func WithCommentOptions(opts ...sqlcomment.Option) Option {
	return func(cfg *config) {
		cfg.CommentOptions = append(cfg.CommentOptions, opts...)
	}
}

// WithDBSystem sets the database system identifier (DBMS product).
// This is added as the "db.system" attribute on all spans.
func WithDBSystem(system string) Option {
	return func(cfg *config) {
		cfg.DBSystem = system
	}
}

// WithDBName sets the database name being accessed.
// This is added as the "db.name" attribute on all spans.
func WithDBName(name string) Option {
	return func(cfg *config) {
		cfg.DBName = name
	}
}

// WithInstanceName sets an identifier for this specific database connection.
// This is added as the "db.instance" attribute on all spans.
//
// Example:
//
//	readerDB, _ := commentsql.Open("postgres", replicaDSN,
//	    commentsql.WithDBSystem("postgresql"),
//	    commentsql.WithInstanceName("replica"),
//	)
func WithInstanceName(name string) Option {
	return func(cfg *config) {
		cfg.InstanceName = name
	}
}

// WithQuerySanitizer sets a function that masks literals before a query is
// recorded on a span. See DefaultQuerySanitizer.
func WithQuerySanitizer(fn func(string) string) Option {
	return func(cfg *config) {
		cfg.QuerySanitizer = fn
	}
}

// WithDisableQuery disables recording of SQL queries in spans entirely.
// "db.operation" is still recorded.
func WithDisableQuery() Option {
	return func(cfg *config) {
		cfg.DisableQuery = true
	}
}

// WithoutSpans disables client spans. Statements are still annotated, with
// the trace context found in the caller's context.
func WithoutSpans() Option {
	return func(cfg *config) {
		cfg.DisableSpans = true
	}
}
