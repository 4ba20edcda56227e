package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where golden snapshots live, relative to the package under test.
const GoldenDir = "testdata/golden"

// Snapshot renders a result in the golden text format:
//
//	suite <name>
//
//	case <name>
//	  query <query>
//	  sql <statement>
//	  error <CODE>
//
// One "sql" line per emitted statement; failed translations show their
// error code instead. Pass/fail is not part of the snapshot.
func Snapshot(result *Result) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "suite %s\n", result.Suite)
	for _, c := range result.Cases {
		fmt.Fprintf(&b, "\ncase %s\n", c.Name)
		fmt.Fprintf(&b, "  query %s\n", oneLine(c.Query))
		if c.Code != "" || c.Message != "" {
			fmt.Fprintf(&b, "  error %s\n", c.Code)
			continue
		}
		for _, s := range c.SQL {
			fmt.Fprintf(&b, "  sql %s\n", s)
		}
	}
	return b.Bytes()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RunWithGolden executes a suite and compares its snapshot against
// testdata/golden/{suite.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, suite *Suite) (*Result, error) {
	t.Helper()

	result, err := Run(suite)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, suite.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the suite.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}

// GoldenPath returns the golden file path for a suite under dir.
func GoldenPath(dir, suite string) string {
	return filepath.Join(dir, suite+".golden")
}

// CompareGolden checks a result against the golden file at path. A missing
// file is an error.
func CompareGolden(path string, result *Result) error {
	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	got := Snapshot(result)
	if !bytes.Equal(got, want) {
		return fmt.Errorf("snapshot differs from %s:\n--- got\n%s--- want\n%s", path, got, want)
	}
	return nil
}

// WriteGolden writes the result's snapshot to path, creating parent
// directories as needed.
func WriteGolden(path string, result *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden dir: %w", err)
	}
	if err := os.WriteFile(path, Snapshot(result), 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
