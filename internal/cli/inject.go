package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/propagation"
)

// InjectOptions holds flags for the inject command.
type InjectOptions struct {
	Framework   string
	Tags        []string
	File        string
	TraceParent string
	TraceState  string
}

// NewInjectCommand creates the inject command.
func NewInjectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InjectOptions{}

	cmd := &cobra.Command{
		Use:   "inject [sql]",
		Short: "Append a tag comment to a SQL statement",
		Long: `Append a sqlcommenter tag comment to a SQL statement.

The statement is read from the argument, or from stdin when omitted.
Statements already annotated with the same framework are printed unchanged.`,
		Example: `  sqlcomment inject --tag route=/users/{id} "SELECT * FROM users;"
  echo "SELECT 1" | sqlcomment inject --traceparent 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInject(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Framework, "framework", sqlcomment.DefaultFramework,
		"framework tag value, empty to omit")
	cmd.Flags().StringArrayVarP(&opts.Tags, "tag", "t", nil, "static tag as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.File, "file", "", "file tag value")
	cmd.Flags().StringVar(&opts.TraceParent, "traceparent", "", "W3C traceparent to propagate")
	cmd.Flags().StringVar(&opts.TraceState, "tracestate", "", "W3C tracestate to propagate")

	return cmd
}

func runInject(cmd *cobra.Command, rootOpts *RootOptions, opts *InjectOptions, args []string) error {
	log := rootOpts.logger(cmd)

	query, err := readStatement(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	tags, err := parseTagFlags(opts.Tags)
	if err != nil {
		return err
	}

	commentOpts := []sqlcomment.Option{
		sqlcomment.WithFramework(opts.Framework),
		sqlcomment.WithTags(tags),
		sqlcomment.WithLogger(log),
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.File != "" {
		ctx = sqlcomment.WithCaller(ctx, opts.File)
	} else {
		commentOpts = append(commentOpts, sqlcomment.WithoutCaller())
	}

	if opts.TraceParent != "" {
		carrier := propagation.MapCarrier{"traceparent": opts.TraceParent}
		if opts.TraceState != "" {
			carrier["tracestate"] = opts.TraceState
		}
		ctx = propagation.TraceContext{}.Extract(ctx, carrier)
		log.Debug().Str("traceparent", opts.TraceParent).Msg("propagating trace context")
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), sqlcomment.New(commentOpts...).Comment(ctx, query))
	return err
}

func readStatement(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read statement: %w", err)
	}

	query := strings.TrimSpace(string(b))
	if query == "" {
		return "", fmt.Errorf("no statement given")
	}
	return query, nil
}

func parseTagFlags(flags []string) (sqlcomment.Tags, error) {
	var tags sqlcomment.Tags
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return tags, fmt.Errorf("invalid tag %q: expected key=value", f)
		}
		tags.Set(key, value)
	}
	return tags, nil
}
