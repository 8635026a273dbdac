package sqlx

import (
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/sqlcommenter-go/sqlx"
)

// config holds the configuration for a wrapped database.
type config struct {
	// TracerProvider is the tracer provider to use.
	TracerProvider trace.TracerProvider

	// MeterProvider is the meter provider to use.
	MeterProvider metric.MeterProvider

	// Tracer is the tracer instance.
	Tracer trace.Tracer

	// Meter is the meter instance.
	Meter metric.Meter

	// Metrics holds the metric instruments.
	Metrics *metrics

	// Commenter annotates statements before sqlx binds them.
	Commenter *sqlcomment.Commenter

	// CommentOptions build Commenter when it is not set explicitly.
	CommentOptions []sqlcomment.Option

	// DBSystem identifies the database management system.
	DBSystem string

	// DBName is the name of the database.
	DBName string

	// InstanceName identifies a specific database instance.
	InstanceName string

	// QuerySanitizer sanitizes SQL queries before adding to spans.
	QuerySanitizer func(query string) string

	// DisableQuery disables recording of SQL queries in spans.
	DisableQuery bool
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
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	if cfg.Commenter == nil {
		cfg.Commenter = sqlcomment.New(cfg.CommentOptions...)
	}

	return cfg
}

// Option configures a wrapped database.
type Option func(*config)

// WithTracerProvider sets a custom tracer provider.
// If not called, the global provider from otel.GetTracerProvider() is used.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(...)
//	db, _ := commentsqlx.Open("postgres", dsn,
//	    commentsqlx.WithTracerProvider(tp),
//	)
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
// If not called, the global provider from otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.MeterProvider = mp
	}
}

// WithCommenter sets the Commenter used to annotate statements.
// It takes precedence over WithCommentOptions.
func WithCommenter(c *sqlcomment.Commenter) Option {
	return func(cfg *config) {
		cfg.Commenter = c
	}
}

// WithCommentOptions configures the default Commenter.
//
// Example:
//
//	db, _ := commentsqlx.Open("postgres", dsn,
//	    commentsqlx.WithCommentOptions(sqlcomment.WithFramework("billing-api")),
//	)
func WithCommentOptions(opts ...sqlcomment.Option) Option {
	return func(cfg *config) {
		cfg.CommentOptions = append(cfg.CommentOptions, opts...)
	}
}

// WithDBSystem sets the database system identifier.
// Common values: "postgresql", "mysql", "sqlite", "mssql".
func WithDBSystem(system string) Option {
	return func(cfg *config) {
		cfg.DBSystem = system
	}
}

// WithDBName sets the database name.
func WithDBName(name string) Option {
	return func(cfg *config) {
		cfg.DBName = name
	}
}

// WithInstanceName sets an identifier for this database connection,
// such as "primary" or "replica".
func WithInstanceName(name string) Option {
	return func(cfg *config) {
		cfg.InstanceName = name
	}
}

// WithQuerySanitizer sets a function that masks literals before a query is
// recorded on a span.
func WithQuerySanitizer(fn func(string) string) Option {
	return func(cfg *config) {
		cfg.QuerySanitizer = fn
	}
}

// WithDisableQuery disables recording of SQL queries in spans.
func WithDisableQuery() Option {
	return func(cfg *config) {
		cfg.DisableQuery = true
	}
}
