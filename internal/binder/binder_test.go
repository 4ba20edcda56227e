package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphsql/internal/ast"
	"github.com/roach88/graphsql/internal/parser"
)

func bind(t *testing.T, src string) (*Scope, error) {
	t.Helper()
	stmt, err := parser.ParseString(src)
	require.NoError(t, err)
	return Bind(stmt)
}

func TestBind_MatchIntroducesVariables(t *testing.T) {
	scope, err := bind(t, "MATCH (a:Bug)-[r:EATS]->(b), (c) RETURN a, r, b, c")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "r", "b", "c"}, scope.Variables())

	a, ok := scope.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, KindNode, a.Kind)
	assert.Equal(t, "Bug", a.Node.Label)
	assert.Equal(t, ast.ClauseMatch, a.ClauseKind)
	assert.True(t, a.ViaRelationship())
	assert.Equal(t, 0, a.Clause)

	r, ok := scope.Lookup("r")
	require.True(t, ok)
	assert.Equal(t, KindRelationship, r.Kind)
	assert.Equal(t, "EATS", r.Rel.Type)
	assert.False(t, r.ViaRelationship())

	c, _ := scope.Lookup("c")
	assert.False(t, c.ViaRelationship())
}

func TestBind_CreateNamesStayLocal(t *testing.T) {
	scope, err := bind(t, "MATCH (a) CREATE (a)-[e:KNOWS]->(n:Person)")
	require.NoError(t, err)

	a, ok := scope.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, ast.ClauseMatch, a.ClauseKind)

	assert.False(t, scope.Has("e"))
	assert.False(t, scope.Has("n"))
	assert.Equal(t, []string{"a"}, scope.Variables())
}

func TestBind_ScopeDoesNotMutateStatement(t *testing.T) {
	stmt, err := parser.ParseString("MATCH (n:Bug) RETURN n")
	require.NoError(t, err)
	before := *stmt.Clauses[0].(*ast.MatchClause).Pattern[0].Node

	_, err = Bind(stmt)
	require.NoError(t, err)
	assert.Equal(t, before, *stmt.Clauses[0].(*ast.MatchClause).Pattern[0].Node)
}

func TestBind_Unbound(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		variable string
		clause   ast.ClauseKind
	}{
		{"return", "MATCH (a) RETURN b", "b", ast.ClauseReturn},
		{"delete", "MATCH (a) DELETE x", "x", ast.ClauseDelete},
		{"detach delete", "MATCH (a) DETACH DELETE a, y", "y", ast.ClauseDetachDelete},
		{"return without match", "RETURN n", "n", ast.ClauseReturn},
		{"return created", "CREATE (n:Bug) RETURN n", "n", ast.ClauseReturn},
		{"delete created", "CREATE (n:Bug) DELETE n", "n", ast.ClauseDelete},
		{"detach delete created relationship", "MATCH (a), (b) CREATE (a)-[r:T]->(b) DETACH DELETE r", "r", ast.ClauseDetachDelete},
		{"literal only", "RETURN 1", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bind(t, tc.src)
			if tc.variable == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)

			var unbound *ast.UnboundVariableError
			require.ErrorAs(t, err, &unbound)
			assert.Equal(t, tc.variable, unbound.Variable)
			assert.Equal(t, tc.clause, unbound.Clause)
		})
	}
}

func TestBind_Rebinding(t *testing.T) {
	testCases := []struct {
		name   string
		src    string
		offset int
	}{
		{"second match", "MATCH (a) MATCH (a:Bug) RETURN a", 16},
		{"same pattern", "MATCH (a), (a) RETURN a", 11},
		{"self loop", "MATCH (a)-[r]->(a) RETURN r", 15},
		{"relationship redeclared", "MATCH ()-[r]->() CREATE (x)-[r:T]->(y)", 27},
		{"kind mismatch", "MATCH ()-[r]->() CREATE (r)", 24},
		{"created twice in one clause", "CREATE (a:Bug), (a)", 16},
		{"created in a later clause", "CREATE (a:Bug) CREATE (a:Food)", 22},
		{"matched after create", "CREATE (a) MATCH (a) RETURN a", 17},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bind(t, tc.src)
			require.Error(t, err)

			var unsupported *ast.UnsupportedPatternError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, tc.offset, unsupported.Offset, err.Error())
		})
	}
}

func TestBind_LiteralReturnNeedsNoBinding(t *testing.T) {
	scope, err := bind(t, "RETURN 'hello' AS message")
	require.NoError(t, err)
	assert.Empty(t, scope.Variables())
}
