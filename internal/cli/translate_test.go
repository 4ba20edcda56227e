package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	cmd.SetIn(stdin)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTranslate_Args(t *testing.T) {
	out, err := execute(t, nil, "translate",
		"CREATE (b:Bug)",
		"MATCH (b:Bug) DETACH DELETE b")
	require.NoError(t, err)

	want := "INSERT INTO nodes (label, properties) VALUES ('Bug', '{}');\n" +
		"DELETE FROM edges WHERE src_id IN (SELECT id FROM nodes WHERE label = 'Bug') OR dst_id IN (SELECT id FROM nodes WHERE label = 'Bug');\n" +
		"DELETE FROM nodes WHERE label = 'Bug';\n"
	assert.Equal(t, want, out)
}

func TestTranslate_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.cypher")
	script := "CREATE (a:Bug);\nCREATE (b:Food);\nMATCH (a:Bug), (b:Food) CREATE (a)-[:EATS]->(b);\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0644))

	out, err := execute(t, nil, "translate", "-f", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "INSERT INTO edges (src_id, dst_id, type) SELECT a.id, b.id, 'EATS' FROM nodes a, nodes b WHERE a.label = 'Bug' AND b.label = 'Food';", lines[2])
}

func TestTranslate_Stdin(t *testing.T) {
	out, err := execute(t, strings.NewReader("MATCH (b:Bug {name: 'Ant'}) RETURN b\n"), "translate")
	require.NoError(t, err)
	assert.Equal(t, "SELECT b.* FROM nodes b WHERE b.label = 'Bug' AND JSON_EXTRACT(b.properties,'$.name') = 'Ant';\n", out)
}

func TestTranslate_JSON(t *testing.T) {
	out, err := execute(t, nil, "--format", "json", "translate", "CREATE (b:Bug)")
	require.NoError(t, err)

	var resp struct {
		Status  string            `json:"status"`
		Data    []TranslateOutput `json:"data"`
		TraceID string            `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.TraceID)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "arg 1", resp.Data[0].Source)
	assert.Equal(t, [][]string{{"INSERT INTO nodes (label, properties) VALUES ('Bug', '{}');"}}, resp.Data[0].Statements)
}

func TestTranslate_Rejected(t *testing.T) {
	testCases := []struct {
		query string
		code  string
	}{
		{"MATCH (n) RETURN n$", ErrCodeLex},
		{"MATCH n RETURN n", ErrCodeParse},
		{"CREATE (n {a: 1, a: 2})", ErrCodeDuplicateKey},
		{"MATCH (a) RETURN b", ErrCodeUnbound},
		{"MATCH (a)<-[r]-(b) RETURN a", ErrCodeUnsupported},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			out, err := execute(t, nil, "--format", "json", "translate", tc.query)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestTranslate_RejectedText(t *testing.T) {
	out, err := execute(t, nil, "translate", "MATCH (a) RETURN b")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E013]")
	assert.Contains(t, out, "UNBOUND_VARIABLE")
}

func TestTranslate_NoInput(t *testing.T) {
	out, err := execute(t, strings.NewReader("  \n"), "translate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}

func TestTranslate_MissingFile(t *testing.T) {
	out, err := execute(t, nil, "translate", "-f", "/nonexistent/queries.cypher")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}
