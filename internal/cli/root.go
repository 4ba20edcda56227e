package cli

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string

	logger *logrus.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Logger returns the command logger. It writes to stderr so that log
// entries never mix with JSON output.
func (o *RootOptions) Logger() logrus.FieldLogger {
	if o.logger == nil {
		o.logger = logrus.New()
		o.logger.SetLevel(logrus.WarnLevel)
	}
	return o.logger.WithField("component", "cli")
}

// NewRootCommand creates the root command for the graphsql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "graphsql",
		Short: "graphsql - graph patterns to SQL",
		Long: `Translate Cypher-style graph patterns into SQL over a fixed
nodes/edges schema, check the result against SQLite, and run
conformance suites.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setupLogger(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (implies --log-level debug)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func (o *RootOptions) setupLogger(cmd *cobra.Command) error {
	level, err := logrus.ParseLevel(o.LogLevel)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid log level %q", o.LogLevel))
	}
	if o.Verbose {
		level = logrus.DebugLevel
	}

	o.logger = logrus.New()
	o.logger.SetOutput(cmd.ErrOrStderr())
	o.logger.SetLevel(level)
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
