package cli

import (
	"bufio"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
	"github.com/spf13/cobra"
)

// maxLineSize bounds a single statement read by parse.
const maxLineSize = 1 << 20

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	Strict bool
}

// ParseResult is written for every annotated statement.
type ParseResult struct {
	Line      int               `json:"line"`
	Statement string            `json:"statement"`
	Tags      map[string]string `json:"tags"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Decode tag comments from statements on stdin",
		Long: `Read one statement per line from stdin and print the decoded tags of
every annotated statement as a JSON line. Lines without a trailing
comment are skipped.`,
		Example:       `  grep sqlcommenter postgres.log | sqlcomment parse`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runParse(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on malformed comments instead of skipping them")

	return cmd
}

func runParse(cmd *cobra.Command, rootOpts *RootOptions, opts *ParseOptions) error {
	log := rootOpts.logger(cmd)
	enc := json.NewEncoder(cmd.OutOrStdout())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()

		tags, ok, err := sqlcomment.ParseComment(text)
		if !ok {
			log.Debug().Int("line", line).Msg("no comment")
			continue
		}
		if err != nil {
			if opts.Strict {
				return fmt.Errorf("line %d: %w", line, err)
			}
			log.Warn().Err(err).Int("line", line).Msg("skipping malformed comment")
			continue
		}

		if err := enc.Encode(ParseResult{
			Line:      line,
			Statement: sqlcomment.StripComment(text),
			Tags:      tags.Map(),
		}); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read statements: %w", err)
	}
	return nil
}
