package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// logger writes human readable diagnostics to the command's stderr.
func (o *RootOptions) logger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.WarnLevel
	if o.Verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewRootCommand creates the root command for the sqlcomment CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sqlcomment",
		Short: "Annotate and inspect SQL comments",
		Long: `Annotate SQL statements with sqlcommenter tags, or decode the tags
found in captured statements such as database logs.`,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewInjectCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
