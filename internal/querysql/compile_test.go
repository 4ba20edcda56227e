package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphsql/internal/ast"
	"github.com/roach88/graphsql/internal/queryir"
)

func nodeLabel(alias, label string) *queryir.Equals {
	return &queryir.Equals{Left: queryir.Col(alias, queryir.ColLabel), Right: queryir.String(label)}
}

func TestCompile_SelectWithJSONFilter(t *testing.T) {
	compiler := NewSQLCompiler()

	stmt := &queryir.Select{
		Columns: []queryir.Expr{queryir.AllColumns{Qualifier: "n"}},
		From:    []queryir.Source{&queryir.Table{Name: queryir.TableNodes, Alias: "n"}},
		Where: queryir.Conjoin(
			nodeLabel("n", "Bug"),
			&queryir.Equals{
				Left:  queryir.JSONExtract{Column: queryir.Col("n", queryir.ColProperties), Key: "name"},
				Right: queryir.String("Ant"),
			},
		),
	}

	sql, err := compiler.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT n.* FROM nodes n WHERE n.label = 'Bug' AND JSON_EXTRACT(n.properties,'$.name') = 'Ant';`,
		sql)
}

func TestCompile_JoinChain(t *testing.T) {
	compiler := NewSQLCompiler()

	stmt := &queryir.Select{
		Columns: []queryir.Expr{
			queryir.AllColumns{Qualifier: "a"},
			queryir.AllColumns{Qualifier: "r"},
			queryir.AllColumns{Qualifier: "b"},
		},
		From: []queryir.Source{&queryir.Join{
			Left: &queryir.Join{
				Left:  &queryir.Table{Name: queryir.TableNodes, Alias: "a"},
				Right: queryir.Table{Name: queryir.TableEdges, Alias: "r"},
				On:    &queryir.Equals{Left: queryir.Col("a", queryir.ColID), Right: queryir.Col("r", queryir.ColSrcID)},
			},
			Right: queryir.Table{Name: queryir.TableNodes, Alias: "b"},
			On:    &queryir.Equals{Left: queryir.Col("r", queryir.ColDstID), Right: queryir.Col("b", queryir.ColID)},
		}},
		Where: &queryir.Equals{Left: queryir.Col("r", queryir.ColType), Right: queryir.String("EATS")},
	}

	sql, err := compiler.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT a.*, r.*, b.* FROM nodes a JOIN edges r ON a.id = r.src_id JOIN nodes b ON r.dst_id = b.id WHERE r.type = 'EATS';`,
		sql)
}

func TestCompile_InsertValues(t *testing.T) {
	compiler := NewSQLCompiler()

	stmt := &queryir.Insert{
		Table:   queryir.TableNodes,
		Columns: []string{queryir.ColLabel, queryir.ColProperties},
		Values:  []queryir.Expr{queryir.String("Bug"), queryir.String(`{"name":"O'Neil"}`)},
	}

	sql, err := compiler.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO nodes (label, properties) VALUES ('Bug', '{"name":"O''Neil"}');`, sql)
}

func TestCompile_InsertSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	stmt := &queryir.Insert{
		Table:   queryir.TableEdges,
		Columns: []string{queryir.ColSrcID, queryir.ColDstID, queryir.ColType},
		Query: &queryir.Select{
			Columns: []queryir.Expr{
				queryir.Col("a", queryir.ColID),
				queryir.Col("b", queryir.ColID),
				queryir.String("EATS"),
			},
			From: []queryir.Source{
				&queryir.Table{Name: queryir.TableNodes, Alias: "a"},
				&queryir.Table{Name: queryir.TableNodes, Alias: "b"},
			},
			Where: queryir.Conjoin(nodeLabel("a", "Bug"), nodeLabel("b", "Food")),
		},
	}

	sql, err := compiler.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO edges (src_id, dst_id, type) SELECT a.id, b.id, 'EATS' FROM nodes a, nodes b WHERE a.label = 'Bug' AND b.label = 'Food';`,
		sql)
}

func TestCompile_Delete(t *testing.T) {
	compiler := NewSQLCompiler()

	t.Run("unfiltered", func(t *testing.T) {
		sql, err := compiler.Compile(&queryir.Delete{Table: queryir.TableNodes})
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM nodes;", sql)
	})

	t.Run("or inside and is parenthesized", func(t *testing.T) {
		sub := func(label string) *queryir.Select {
			return &queryir.Select{
				Columns: []queryir.Expr{queryir.Column{Name: queryir.ColID}},
				From:    []queryir.Source{&queryir.Table{Name: queryir.TableNodes}},
				Where:   &queryir.Equals{Left: queryir.Column{Name: queryir.ColLabel}, Right: queryir.String(label)},
			}
		}
		stmt := &queryir.Delete{
			Table: queryir.TableEdges,
			Where: queryir.Conjoin(
				&queryir.Equals{Left: queryir.Column{Name: queryir.ColType}, Right: queryir.String("EATS")},
				&queryir.Or{Predicates: []queryir.Predicate{
					&queryir.In{Left: queryir.Column{Name: queryir.ColSrcID}, Query: sub("Bug")},
					&queryir.In{Left: queryir.Column{Name: queryir.ColDstID}, Query: sub("Bug")},
				}},
			),
		}

		sql, err := compiler.Compile(stmt)
		require.NoError(t, err)
		assert.Equal(t,
			`DELETE FROM edges WHERE type = 'EATS' AND (src_id IN (SELECT id FROM nodes WHERE label = 'Bug') OR dst_id IN (SELECT id FROM nodes WHERE label = 'Bug'));`,
			sql)
	})
}

func TestCompile_LiteralSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	stmt := &queryir.Select{Columns: []queryir.Expr{
		queryir.Aliased{Expr: queryir.String("hello"), Alias: "message"},
		queryir.Aliased{Expr: queryir.Literal{Value: ast.NumberLiteral("042")}, Alias: "answer"},
	}}

	sql, err := compiler.Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, `SELECT 'hello' AS message, 42 AS answer;`, sql)
}

func TestCompile_TempTable(t *testing.T) {
	compiler := NewSQLCompiler()

	stmts := []queryir.Statement{
		&queryir.TempTable{Name: "matched_a", Query: &queryir.Select{
			Columns: []queryir.Expr{queryir.Aliased{Expr: queryir.Col("a", queryir.ColID), Alias: queryir.ColID}},
			From:    []queryir.Source{&queryir.Table{Name: queryir.TableNodes, Alias: "a"}},
			Where:   &queryir.Equals{Left: queryir.Col("a", queryir.ColLabel), Right: queryir.String("Bug")},
		}},
		&queryir.Delete{Table: queryir.TableNodes, Where: &queryir.In{
			Left:  queryir.Column{Name: queryir.ColID},
			Query: &queryir.Select{
				Columns: []queryir.Expr{queryir.Column{Name: queryir.ColID}},
				From:    []queryir.Source{&queryir.Table{Name: "matched_a", Temp: true}},
			},
		}},
		&queryir.DropTable{Name: "matched_a"},
	}

	sqls, err := compiler.CompileAll(stmts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`CREATE TEMP TABLE matched_a AS SELECT a.id AS id FROM nodes a WHERE a.label = 'Bug';`,
		`DELETE FROM nodes WHERE id IN (SELECT id FROM temp.matched_a);`,
		`DROP TABLE temp.matched_a;`,
	}, sqls)
}

func TestCompile_QuotedAlias(t *testing.T) {
	compiler := NewSQLCompiler()

	testCases := []struct {
		alias string
		want  string
	}{
		{"select", `SELECT 1 AS "select";`},
		{"Order", `SELECT 1 AS "Order";`},
		{`a"b`, `SELECT 1 AS "a""b";`},
	}

	for _, tc := range testCases {
		t.Run(tc.alias, func(t *testing.T) {
			stmt := &queryir.Select{Columns: []queryir.Expr{
				queryir.Aliased{Expr: queryir.Literal{Value: ast.NumberLiteral("1")}, Alias: tc.alias, Quoted: true},
			}}
			sql, err := compiler.Compile(stmt)
			require.NoError(t, err)
			assert.Equal(t, tc.want, sql)
		})
	}
}

func TestCompile_RejectsInvalid(t *testing.T) {
	compiler := NewSQLCompiler()

	_, err := compiler.Compile(nil)
	require.Error(t, err)

	_, err = compiler.Compile(&queryir.Delete{Table: "vertices"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown table "vertices"`)
}

func TestCompileAll(t *testing.T) {
	compiler := NewSQLCompiler()

	sqls, err := compiler.CompileAll([]queryir.Statement{
		&queryir.Delete{Table: queryir.TableEdges},
		&queryir.Delete{Table: queryir.TableNodes},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"DELETE FROM edges;", "DELETE FROM nodes;"}, sqls)

	sqls, err = compiler.CompileAll([]queryir.Statement{
		&queryir.Delete{Table: queryir.TableEdges},
		&queryir.Select{},
	})
	require.Error(t, err)
	assert.Nil(t, sqls)
	assert.Contains(t, err.Error(), "statement 2")
}

func TestQuoteString(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"Ant", "'Ant'"},
		{"it's", "'it''s'"},
		{"", "''"},
		{"Café", "'Café'"},
		{`a\b`, `'a\b'`},
		{"Cafe\u0301", "'Cafe\u0301'"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, QuoteString(tc.in))
		})
	}
}
