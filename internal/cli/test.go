package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/graphsql/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // suite filter (glob pattern on the file name)
	Golden string // golden file directory
}

// SuiteResult holds the result of a single suite.
type SuiteResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Cases  int      `json:"cases"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Suites []SuiteResult `json:"suites"`
	Passed int           `json:"passed"`
	Failed int           `json:"failed"`
	Total  int           `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <suite-dir>",
		Short: "Run conformance suites",
		Long: `Run every YAML or CUE suite under a directory through the translator.

Each case checks the emitted SQL or the error code; suites marked
execute: true also run the SQL against a scratch SQLite database.
With --golden, each suite's snapshot is compared against
<golden>/<suite>.golden when that file exists.

Exit codes:
  0 - All suites passed
  1 - One or more suites failed
  2 - Command error (invalid paths, etc.)

Examples:
  graphsql test ./testdata/suites
  graphsql test ./testdata/suites --filter "bug*"
  graphsql test ./testdata/suites --golden ./testdata/golden --update
  graphsql test ./testdata/suites --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter suites by glob pattern")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "golden file directory")

	return cmd
}

func runTests(opts *TestOptions, suiteDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(suiteDir); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("suite directory not found: %s", suiteDir), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("suite directory not found: %s", suiteDir))
	}
	if opts.Update && opts.Golden == "" {
		_ = formatter.Error(ErrCodeGeneric, "--update requires --golden", nil)
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	files, err := findSuiteFiles(suiteDir, opts.Filter)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find suites", err)
	}

	result := TestResult{
		Suites: make([]SuiteResult, 0, len(files)),
		Total:  len(files),
	}
	if len(files) == 0 {
		if formatter.Format == "json" {
			return outputTestJSON(formatter, result)
		}
		fmt.Fprintln(formatter.Writer, "No suites found.")
		return nil
	}

	log := opts.Logger().WithField("trace_id", formatter.TraceID)
	h := harness.New(harness.WithLogger(log))

	for _, file := range files {
		sr := runSuite(cmd, h, file, opts)
		if formatter.Format != "json" {
			writeSuiteText(formatter, sr)
		}
		result.Suites = append(result.Suites, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// findSuiteFiles lists suite files whose base name matches filter.
func findSuiteFiles(dir, filter string) ([]string, error) {
	files, err := harness.FindSuiteFiles(dir)
	if err != nil || filter == "" {
		return files, err
	}

	var matched []string
	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		ok, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

// runSuite loads, runs and golden-checks one suite file.
func runSuite(cmd *cobra.Command, h *harness.Harness, file string, opts *TestOptions) SuiteResult {
	suite, err := harness.LoadSuite(file)
	if err != nil {
		return SuiteResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load suite: %v", err)},
		}
	}

	result, err := h.Run(cmd.Context(), suite)
	if err != nil {
		return SuiteResult{
			Name:   suite.Name,
			Cases:  len(suite.Cases),
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := SuiteResult{Name: suite.Name, Pass: result.Pass, Cases: len(result.Cases)}
	for _, c := range result.Failed() {
		for _, e := range c.Errors {
			sr.Errors = append(sr.Errors, fmt.Sprintf("%s: %s", c.Name, e))
		}
	}

	if opts.Golden == "" {
		return sr
	}
	goldenPath := harness.GoldenPath(opts.Golden, suite.Name)
	if opts.Update {
		if err := harness.WriteGolden(goldenPath, result); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, err.Error())
		}
		return sr
	}
	if _, err := os.Stat(goldenPath); os.IsNotExist(err) {
		return sr
	}
	if err := harness.CompareGolden(goldenPath, result); err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, "snapshot does not match golden file (run with --update to regenerate)")
	}
	return sr
}

func writeSuiteText(formatter *OutputFormatter, sr SuiteResult) {
	w := formatter.Writer
	if sr.Pass {
		fmt.Fprintf(w, "✓ %s (%d cases)\n", sr.Name, sr.Cases)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	if result.Failed > 0 {
		msg := fmt.Sprintf("%d suite(s) failed", result.Failed)
		if err := formatter.Failure(ErrCodeTestFailed, msg, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(result)
}

// outputTestText outputs the test summary as text.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d suite(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All suites passed")
	return nil
}
