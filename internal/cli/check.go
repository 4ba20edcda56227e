package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/graphsql/internal/store"
	"github.com/roach88/graphsql/internal/translate"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	File string
	DB   string // database path; empty uses a scratch in-memory database
}

// CheckResult is the outcome of executing every translated statement.
type CheckResult struct {
	Statements []CheckedStatement `json:"statements"`
	Nodes      int                `json:"nodes"`
	Edges      int                `json:"edges"`
}

// CheckedStatement is one executed SQL statement.
type CheckedStatement struct {
	Source       string   `json:"source"`
	SQL          string   `json:"sql"`
	Columns      []string `json:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
	RowsAffected int64    `json:"rows_affected"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [query...]",
		Short: "Translate and execute against SQLite",
		Long: `Translate queries like the translate command, then run the SQL against
a SQLite database with the nodes/edges schema and foreign keys enforced.
Each graph statement runs in its own transaction.

Without --db a scratch in-memory database is used and discarded.

Exit codes:
  0 - Every statement translated and executed
  1 - A query was rejected or its SQL failed
  2 - Command error (unreadable input, database not opened, etc.)

Examples:
  graphsql check "CREATE (b:Bug)" "MATCH (b:Bug) RETURN b"
  graphsql check -f seed.cypher --db graph.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read queries from file")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database path (default: in-memory)")

	return cmd
}

func runCheck(opts *CheckOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	sources, err := readSources(args, opts.File, cmd.InOrStdin())
	if err != nil {
		return inputError(formatter, err)
	}

	log := opts.Logger().WithField("trace_id", formatter.TraceID)
	translator := translate.New(translate.WithLogger(log))

	path := opts.DB
	if path == "" {
		path = store.MemoryPath
	}
	st, err := store.Open(path, store.WithLogger(log))
	if err != nil {
		_ = formatter.Error(ErrCodeDBFailed, err.Error(), map[string]string{"db": path})
		return WrapExitError(ExitCommandError, ErrCodeDBFailed, err)
	}
	defer st.Close()

	result := CheckResult{Statements: []CheckedStatement{}}
	for _, src := range sources {
		stmts, err := translator.TranslateScript(src.Text)
		if err != nil {
			return translationError(formatter, src, err)
		}

		for _, sqls := range stmts {
			formatter.VerboseLog("Executing %d statement(s) from %s", len(sqls), src.Name)
			applied, err := st.Apply(ctx, sqls)
			if err != nil {
				return executionError(formatter, src, err, result)
			}
			for _, r := range applied {
				result.Statements = append(result.Statements, CheckedStatement{
					Source:       src.Name,
					SQL:          r.SQL,
					Columns:      r.Columns,
					Rows:         r.Rows,
					RowsAffected: r.RowsAffected,
				})
			}
		}
	}

	if result.Nodes, err = st.CountNodes(ctx); err != nil {
		return WrapExitError(ExitFailure, ErrCodeGeneric, err)
	}
	if result.Edges, err = st.CountEdges(ctx); err != nil {
		return WrapExitError(ExitFailure, ErrCodeGeneric, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeCheckText(formatter, result)
	return nil
}

// executionError reports SQL that SQLite rejected, with the statements
// that ran before it.
func executionError(formatter *OutputFormatter, src Source, err error, partial CheckResult) error {
	code := errorCode(err)
	if formatter.Format == "json" {
		_ = formatter.Failure(code, err.Error(), partial)
	} else {
		_ = formatter.Error(code, err.Error(), map[string]string{"source": src.Name})
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("%s: %s", code, src.Name), err)
}

func writeCheckText(formatter *OutputFormatter, result CheckResult) {
	w := formatter.Writer
	for _, s := range result.Statements {
		fmt.Fprintln(w, s.SQL)
		if s.Columns == nil {
			fmt.Fprintf(w, "  %d row(s) affected\n", s.RowsAffected)
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "  %s\n", strings.Join(s.Columns, "\t"))
		for _, row := range s.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = formatCell(v)
			}
			fmt.Fprintf(tw, "  %s\n", strings.Join(cells, "\t"))
		}
		tw.Flush()
		fmt.Fprintf(w, "  %d row(s)\n", len(s.Rows))
	}
	fmt.Fprintf(w, "\n✓ nodes: %d, edges: %d\n", result.Nodes, result.Edges)
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}
