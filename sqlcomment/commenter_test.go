package sqlcomment

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	testTraceparent = "00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01"
	testTracestate  = "congo=t61rcWkgMzE"
)

// fixedCaller reports the same file for every query.
func fixedCaller(file string) Locator {
	return LocatorFunc(func(context.Context) (string, error) {
		return file, nil
	})
}

// spanContext returns a context holding a sampled remote span context.
func spanContext(t *testing.T) context.Context {
	t.Helper()

	ts, err := trace.ParseTraceState(testTracestate)
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:     trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
		TraceFlags: trace.FlagsSampled,
		TraceState: ts,
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(context.Background(), sc)
}

func TestCommenter_Comment(t *testing.T) {
	type args struct {
		ctx   context.Context
		query string
	}

	tests := []struct {
		name string
		opts []Option
		args args
		want string
	}{
		{
			name: "given active span, then writes all default tags in order",
			opts: []Option{WithLocator(fixedCaller("app/handler.go"))},
			args: args{ctx: spanContext(t), query: "SELECT * FROM users;"},
			want: "SELECT * FROM users /*traceparent=" + testTraceparent +
				" tracestate=congo%3Dt61rcWkgMzE framework=sqlcommenter-go file=app%2Fhandler.go*/;",
		},
		{
			name: "given no span, then omits trace tags",
			opts: []Option{WithLocator(fixedCaller("app/handler.go"))},
			args: args{ctx: context.Background(), query: "SELECT 1"},
			want: "SELECT 1 /*framework=sqlcommenter-go file=app%2Fhandler.go*/",
		},
		{
			name: "given static and context tags, then writes them between framework and file",
			opts: []Option{
				WithFramework("billing"),
				WithTags(NewTags(KeyApplication, "billing-api", KeyDBDriver, "pgx")),
				WithLocator(fixedCaller("store.go")),
			},
			args: args{
				ctx:   ContextWithTags(context.Background(), NewTags(KeyRoute, "/invoices/{id}")),
				query: "SELECT 1",
			},
			want: "SELECT 1 /*framework=billing application=billing-api db_driver=pgx " +
				"route=%2Finvoices%2F%7Bid%7D file=store.go*/",
		},
		{
			name: "given locator error, then writes unknown file",
			opts: []Option{
				WithLocator(LocatorFunc(func(context.Context) (string, error) {
					return "", ErrCallerNotFound
				})),
			},
			args: args{ctx: spanContext(t), query: "SELECT 1"},
			want: "SELECT 1 /*traceparent=" + testTraceparent +
				" tracestate=congo%3Dt61rcWkgMzE framework=sqlcommenter-go file=unknown*/",
		},
		{
			name: "given panicking locator, then writes unknown file",
			opts: []Option{
				WithoutTraceContext(),
				WithLocator(LocatorFunc(func(context.Context) (string, error) {
					panic("stack unavailable")
				})),
			},
			args: args{ctx: context.Background(), query: "SELECT 1"},
			want: "SELECT 1 /*framework=sqlcommenter-go file=unknown*/",
		},
		{
			name: "given locator returning empty file, then writes unknown file",
			opts: []Option{WithLocator(fixedCaller(""))},
			args: args{ctx: context.Background(), query: "SELECT 1"},
			want: "SELECT 1 /*framework=sqlcommenter-go file=unknown*/",
		},
		{
			name: "given no caller, no framework and no trace, then writes empty comment",
			opts: []Option{WithoutCaller(), WithFramework(""), WithoutTraceContext()},
			args: args{ctx: spanContext(t), query: "SELECT 1;"},
			want: "SELECT 1 /**/;",
		},
		{
			name: "given blank query, then returns it unchanged",
			opts: nil,
			args: args{ctx: context.Background(), query: "  "},
			want: "  ",
		},
		{
			name: "given query annotated with same framework, then returns it unchanged",
			opts: []Option{WithLocator(fixedCaller("b.go"))},
			args: args{ctx: context.Background(), query: "SELECT 1 /*framework=sqlcommenter-go file=a.go*/;"},
			want: "SELECT 1 /*framework=sqlcommenter-go file=a.go*/;",
		},
		{
			name: "given query with foreign comment, then appends another one",
			opts: []Option{WithLocator(fixedCaller("b.go"))},
			args: args{ctx: context.Background(), query: "SELECT 1 /* hint */"},
			want: "SELECT 1 /* hint */ /*framework=sqlcommenter-go file=b.go*/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.opts...)

			got := c.Comment(tt.args.ctx, tt.args.query)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommenter_Tags(t *testing.T) {
	t.Run("given tagger and context tagger, then applies both after static tags", func(t *testing.T) {
		c := New(
			WithoutTraceContext(),
			WithoutCaller(),
			WithTags(NewTags("a", "1")),
			WithTagger(TaggerFunc(func(_ context.Context, tags *Tags) {
				tags.Set("b", "2")
			})),
		)
		ctx := ContextWithTagger(context.Background(), TaggerFunc(func(_ context.Context, tags *Tags) {
			tags.Set("c", "3")
		}))

		got := c.Tags(ctx)

		assert.Equal(t, "framework=sqlcommenter-go a=1 b=2 c=3", got.Encode())
	})

	t.Run("given caller in context, then prefers it over the stack", func(t *testing.T) {
		c := New(WithoutTraceContext())
		ctx := WithCaller(context.Background(), "jobs/reconcile.go")

		got := c.Tags(ctx)

		file, _ := got.Get(KeyFile)
		assert.Equal(t, "jobs/reconcile.go", file)
	})

	t.Run("given composite propagator with baggage, then sorts extra keys after trace tags", func(t *testing.T) {
		c := New(
			WithoutCaller(),
			WithFramework(""),
			WithPropagator(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			)),
		)

		member, err := baggage.NewMember("tenant", "acme")
		require.NoError(t, err)
		bag, err := baggage.New(member)
		require.NoError(t, err)
		ctx := baggage.ContextWithBaggage(spanContext(t), bag)

		got := c.Tags(ctx)

		keys := make([]string, 0, got.Len())
		for _, tag := range got.All() {
			keys = append(keys, tag.Key)
		}
		assert.Equal(t, []string{KeyTraceparent, KeyTracestate, "baggage"}, keys)
	})
}

func TestCommenter_LogsUnresolvedCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	c := New(
		WithLogger(logger),
		WithLocator(LocatorFunc(func(context.Context) (string, error) {
			return "", ErrCallerNotFound
		})),
	)

	c.Comment(context.Background(), "SELECT 1")

	assert.Contains(t, buf.String(), "caller not resolved")
}

func TestCommenter_ConcurrentCallsAreIndependent(t *testing.T) {
	c := New(WithoutTraceContext())

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		file := "worker" + string(rune('a'+i%26)) + ".go"
		g.Go(func() error {
			ctx := WithCaller(context.Background(), file)
			for j := 0; j < 50; j++ {
				got := c.Comment(ctx, "SELECT 1;")
				want := "SELECT 1 /*framework=sqlcommenter-go file=" + file + "*/;"
				if got != want {
					return assert.AnError
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
}
