package sqlcomment

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/propagation"
)

// Well-known tag keys.
const (
	KeyTraceparent = "traceparent"
	KeyTracestate  = "tracestate"
	KeyFramework   = "framework"
	KeyFile        = "file"
	KeyRoute       = "route"
	KeyRequestID   = "request_id"
	KeyApplication = "application"
	KeyDBDriver    = "db_driver"
)

// Tagger adds tags for a query issued with ctx.
type Tagger interface {
	Tag(ctx context.Context, tags *Tags)
}

// TaggerFunc adapts a function to Tagger.
type TaggerFunc func(ctx context.Context, tags *Tags)

// Tag implements Tagger.
func (f TaggerFunc) Tag(ctx context.Context, tags *Tags) {
	f(ctx, tags)
}

// TraceTagger injects the span context found in ctx through a propagator.
// The W3C trace context propagator yields traceparent and tracestate.
type TraceTagger struct {
	propagator propagation.TextMapPropagator
}

// NewTraceTagger creates a TraceTagger. A nil propagator defaults to
// propagation.TraceContext.
func NewTraceTagger(p propagation.TextMapPropagator) TraceTagger {
	if p == nil {
		p = propagation.TraceContext{}
	}
	return TraceTagger{propagator: p}
}

// Tag implements Tagger. traceparent and tracestate come first regardless of
// the order the propagator writes them in; other keys follow sorted.
func (tt TraceTagger) Tag(ctx context.Context, tags *Tags) {
	carrier := propagation.MapCarrier{}
	tt.propagator.Inject(ctx, carrier)
	if len(carrier) == 0 {
		return
	}

	for _, key := range []string{KeyTraceparent, KeyTracestate} {
		if v, ok := carrier[key]; ok {
			tags.Set(key, v)
			delete(carrier, key)
		}
	}

	rest := carrier.Keys()
	sort.Strings(rest)
	for _, key := range rest {
		tags.Set(key, carrier[key])
	}
}

type (
	contextTagsKey   struct{}
	contextTaggerKey struct{}
)

// ContextWithTags returns a context whose queries carry tags in addition to
// the Commenter's own. Tags already stored in ctx are kept; tags given here
// win on conflicting keys.
//
// Example:
//
//	ctx = sqlcomment.ContextWithTags(ctx, sqlcomment.NewTags("action", "checkout"))
//	db.QueryContext(ctx, "SELECT ...")
func ContextWithTags(ctx context.Context, tags Tags) context.Context {
	merged := TagsFromContext(ctx)
	merged.Merge(tags)
	return context.WithValue(ctx, contextTagsKey{}, merged)
}

// TagsFromContext returns a copy of the tags stored by ContextWithTags.
func TagsFromContext(ctx context.Context) Tags {
	tags, _ := ctx.Value(contextTagsKey{}).(Tags)
	return Tags{list: tags.All()}
}

// ContextWithTagger returns a context whose queries are also tagged by t.
// The tagger runs when a query is annotated, which suits values that are
// only known later, such as a route pattern resolved by a router.
func ContextWithTagger(ctx context.Context, t Tagger) context.Context {
	existing, _ := ctx.Value(contextTaggerKey{}).([]Tagger)
	taggers := make([]Tagger, 0, len(existing)+1)
	taggers = append(taggers, existing...)
	taggers = append(taggers, t)
	return context.WithValue(ctx, contextTaggerKey{}, taggers)
}

// contextTagger applies the tags and taggers attached to the context.
func contextTagger(ctx context.Context, tags *Tags) {
	if stored, ok := ctx.Value(contextTagsKey{}).(Tags); ok {
		tags.Merge(stored)
	}
	if taggers, ok := ctx.Value(contextTaggerKey{}).([]Tagger); ok {
		for _, t := range taggers {
			t.Tag(ctx, tags)
		}
	}
}
