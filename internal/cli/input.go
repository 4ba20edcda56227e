package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var errNoInput = errors.New("no query given")

// Source is one piece of query text and where it came from.
type Source struct {
	Name string
	Text string
}

// readSources collects the queries for translate and check: each argument
// is one source, -f adds a file, and with neither the script is read from
// stdin.
func readSources(args []string, file string, stdin io.Reader) ([]Source, error) {
	var sources []Source
	for i, arg := range args {
		sources = append(sources, Source{Name: fmt.Sprintf("arg %d", i+1), Text: arg})
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read query file: %w", err)
		}
		sources = append(sources, Source{Name: file, Text: string(data)})
	}

	if len(sources) == 0 && stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		sources = append(sources, Source{Name: "stdin", Text: string(data)})
	}

	for _, s := range sources {
		if strings.TrimSpace(s.Text) == "" {
			return nil, fmt.Errorf("%s: %w", s.Name, errNoInput)
		}
	}
	if len(sources) == 0 {
		return nil, errNoInput
	}
	return sources, nil
}
