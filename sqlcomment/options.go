package sqlcomment

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/propagation"
)

// DefaultFramework is the framework tag value identifying this library.
const DefaultFramework = "sqlcommenter-go"

// config holds the Commenter configuration.
type config struct {
	// Framework is written as the framework tag.
	Framework string

	// Tags are static tags written after the framework tag.
	Tags Tags

	// Taggers run after the static tags, before request scoped tags.
	Taggers []Tagger

	// Propagator injects trace context. Nil disables trace tags.
	Propagator propagation.TextMapPropagator

	// Locator resolves the file tag. Nil omits the file tag.
	Locator Locator

	// Logger receives debug output about caller resolution.
	Logger zerolog.Logger
}

// newConfig creates a config with defaults and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{
		Framework:  DefaultFramework,
		Propagator: propagation.TraceContext{},
		Locator:    ContextLocator{Fallback: DefaultStackLocator()},
		Logger:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Option configures a Commenter.
type Option func(*config)

// WithFramework sets the framework tag value.
// An empty name omits the tag.
func WithFramework(name string) Option {
	return func(cfg *config) {
		cfg.Framework = name
	}
}

// WithTags adds static tags to every comment, e.g. application or db_driver.
//
// Example:
//
//	c := sqlcomment.New(
//	    sqlcomment.WithTags(sqlcomment.NewTags("application", "billing")),
//	)
func WithTags(tags Tags) Option {
	return func(cfg *config) {
		cfg.Tags.Merge(tags)
	}
}

// WithTagger adds a Tagger evaluated for every query.
func WithTagger(t Tagger) Option {
	return func(cfg *config) {
		cfg.Taggers = append(cfg.Taggers, t)
	}
}

// WithPropagator sets the propagator used for trace tags.
// By default the W3C trace context propagator is used, independently of the
// global propagator, so traceparent is written whenever a span is active.
// Pass otel.GetTextMapPropagator() to follow the global configuration.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(cfg *config) {
		cfg.Propagator = p
	}
}

// WithoutTraceContext disables the traceparent and tracestate tags.
func WithoutTraceContext() Option {
	return func(cfg *config) {
		cfg.Propagator = nil
	}
}

// WithLocator sets how the file tag is resolved.
func WithLocator(l Locator) Option {
	return func(cfg *config) {
		cfg.Locator = l
	}
}

// WithRoot resolves the file tag from the call stack relative to root.
// Extra packages are skipped like the library's own, which helps when the
// application funnels queries through a shared data access package.
func WithRoot(root string, packages ...string) Option {
	return func(cfg *config) {
		cfg.Locator = ContextLocator{Fallback: NewStackLocator(root, packages...)}
	}
}

// WithoutCaller omits the file tag.
func WithoutCaller() Option {
	return func(cfg *config) {
		cfg.Locator = nil
	}
}

// WithLogger sets the logger. Defaults to zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.Logger = l
	}
}
