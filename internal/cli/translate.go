package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/graphsql/internal/translate"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	File string // read a ';'-separated script from this file
}

// TranslateOutput is the SQL for one source, one list per statement.
type TranslateOutput struct {
	Source     string     `json:"source"`
	Statements [][]string `json:"statements"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate [query...]",
		Short: "Translate graph patterns to SQL",
		Long: `Translate each query argument, or the script given with -f, into SQL.
With no arguments the script is read from stdin. Statements in a script
are separated by ';'.

Exit codes:
  0 - Every query translated
  1 - A query was rejected
  2 - Command error (unreadable input, etc.)

Examples:
  graphsql translate "MATCH (b:Bug {name: 'Ant'}) RETURN b"
  graphsql translate -f queries.cypher --format json
  echo "CREATE (b:Bug)" | graphsql translate`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read queries from file")

	return cmd
}

func runTranslate(opts *TranslateOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	sources, err := readSources(args, opts.File, cmd.InOrStdin())
	if err != nil {
		return inputError(formatter, err)
	}

	log := opts.Logger().WithField("trace_id", formatter.TraceID)
	translator := translate.New(translate.WithLogger(log))

	outputs := make([]TranslateOutput, 0, len(sources))
	for _, src := range sources {
		formatter.VerboseLog("Translating %s", src.Name)
		stmts, err := translator.TranslateScript(src.Text)
		if err != nil {
			return translationError(formatter, src, err)
		}
		outputs = append(outputs, TranslateOutput{Source: src.Name, Statements: stmts})
	}

	if formatter.Format == "json" {
		return formatter.Success(outputs)
	}
	for _, out := range outputs {
		for _, stmt := range out.Statements {
			for _, sql := range stmt {
				fmt.Fprintln(formatter.Writer, sql)
			}
		}
	}
	return nil
}

// inputError reports unreadable or missing input (exit code 2).
func inputError(formatter *OutputFormatter, err error) error {
	code := ErrCodeReadFailed
	if errors.Is(err, errNoInput) {
		code = ErrCodeNoInput
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, code, err)
}

// translationError reports a rejected query (exit code 1).
func translationError(formatter *OutputFormatter, src Source, err error) error {
	code := errorCode(err)
	_ = formatter.Error(code, err.Error(), map[string]string{"source": src.Name})
	return WrapExitError(ExitFailure, fmt.Sprintf("%s: %s", code, src.Name), err)
}
