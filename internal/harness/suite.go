package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/graphsql/internal/ast"
)

// Suite is a named list of translation cases.
type Suite struct {
	// Name uniquely identifies this suite and names its golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what this suite covers.
	Description string `yaml:"description" json:"description"`

	// Execute runs each case's SQL against a fresh scratch database.
	Execute bool `yaml:"execute,omitempty" json:"execute,omitempty"`

	// Setup lists queries translated and applied before each executed case.
	// Setup queries are assumed to succeed.
	Setup []string `yaml:"setup,omitempty" json:"setup,omitempty"`

	// Cases are run in order.
	Cases []Case `yaml:"cases" json:"cases"`
}

// Case is one query with its expected translation.
type Case struct {
	Name  string `yaml:"name" json:"name"`
	Query string `yaml:"query" json:"query"`

	// Expect is the exact SQL expected, in order.
	Expect []string `yaml:"expect,omitempty" json:"expect,omitempty"`

	// Error is the expected error code, e.g. UNBOUND_VARIABLE.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`

	// Rows is the expected row count of the last SELECT (executed suites).
	Rows *int `yaml:"rows,omitempty" json:"rows,omitempty"`

	// Nodes and Edges are the expected table sizes afterwards (executed suites).
	Nodes *int `yaml:"nodes,omitempty" json:"nodes,omitempty"`
	Edges *int `yaml:"edges,omitempty" json:"edges,omitempty"`
}

var errorCodes = []ast.ErrorCode{
	ast.ErrCodeLex,
	ast.ErrCodeParse,
	ast.ErrCodeDuplicatePropertyKey,
	ast.ErrCodeUnboundVariable,
	ast.ErrCodeUnsupportedPattern,
}

// LoadSuite reads a suite from a YAML (.yaml, .yml) or CUE (.cue) file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var suite Suite
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true) // Reject unknown fields
		if err := decoder.Decode(&suite); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".cue":
		value := cuecontext.New().CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			return nil, fmt.Errorf("failed to compile CUE: %w", err)
		}
		if err := value.Validate(cue.Concrete(true)); err != nil {
			return nil, fmt.Errorf("suite is not concrete: %w", err)
		}
		if err := value.Decode(&suite); err != nil {
			return nil, fmt.Errorf("failed to decode CUE: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported suite format %q (want .yaml, .yml or .cue)", filepath.Ext(path))
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// FindSuiteFiles walks dir and returns every suite file path, sorted.
func FindSuiteFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml", ".cue":
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// LoadSuites loads every suite file under dir.
func LoadSuites(dir string) ([]*Suite, error) {
	files, err := FindSuiteFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no suite files found in %s", dir)
	}

	suites := make([]*Suite, 0, len(files))
	for _, f := range files {
		s, err := LoadSuite(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		suites = append(suites, s)
	}
	return suites, nil
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true

		if c.Query == "" {
			return fmt.Errorf("cases[%d]: query is required", i)
		}
		if c.Error != "" {
			if len(c.Expect) > 0 {
				return fmt.Errorf("cases[%d]: expect and error are mutually exclusive", i)
			}
			if !slices.Contains(errorCodes, ast.ErrorCode(c.Error)) {
				return fmt.Errorf("cases[%d]: unknown error code %q", i, c.Error)
			}
		}
		if c.Error == "" && len(c.Expect) == 0 && !s.Execute {
			return fmt.Errorf("cases[%d]: expect or error is required", i)
		}
		if !s.Execute && (c.Rows != nil || c.Nodes != nil || c.Edges != nil) {
			return fmt.Errorf("cases[%d]: rows, nodes and edges need execute: true", i)
		}
	}
	return nil
}
