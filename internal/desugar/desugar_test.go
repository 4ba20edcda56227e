package desugar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphsql/internal/ast"
	"github.com/roach88/graphsql/internal/binder"
	"github.com/roach88/graphsql/internal/parser"
	"github.com/roach88/graphsql/internal/queryir"
	"github.com/roach88/graphsql/internal/querysql"
)

func lower(t *testing.T, src string) ([]queryir.Statement, error) {
	t.Helper()
	stmt, err := parser.ParseString(src)
	require.NoError(t, err)
	scope, err := binder.Bind(stmt)
	require.NoError(t, err)
	return Desugar(stmt, scope)
}

func sqlOf(t *testing.T, src string) []string {
	t.Helper()
	stmts, err := lower(t, src)
	require.NoError(t, err)
	sqls, err := querysql.NewSQLCompiler().CompileAll(stmts)
	require.NoError(t, err)
	return sqls
}

func TestDesugar_Scenarios(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want []string
	}{
		{
			"create labeled node",
			"CREATE (b:Bug)",
			[]string{`INSERT INTO nodes (label, properties) VALUES ('Bug', '{}');`},
		},
		{
			"match with property",
			"MATCH (b:Bug {name: 'Ant'}) RETURN b",
			[]string{`SELECT b.* FROM nodes b WHERE b.label = 'Bug' AND JSON_EXTRACT(b.properties,'$.name') = 'Ant';`},
		},
		{
			"match relationship",
			"MATCH (a)-[r:EATS]->(b) RETURN a, r, b",
			[]string{`SELECT a.*, r.*, b.* FROM nodes a JOIN edges r ON a.id = r.src_id JOIN nodes b ON r.dst_id = b.id WHERE r.type = 'EATS';`},
		},
		{
			"detach delete",
			"MATCH (b:Bug) DETACH DELETE b",
			[]string{
				`DELETE FROM edges WHERE src_id IN (SELECT id FROM nodes WHERE label = 'Bug') OR dst_id IN (SELECT id FROM nodes WHERE label = 'Bug');`,
				`DELETE FROM nodes WHERE label = 'Bug';`,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sqlOf(t, tc.src))
		})
	}
}

func TestDesugar_Create(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want []string
	}{
		{
			"bare node",
			"CREATE (n)",
			[]string{`INSERT INTO nodes (label, properties) VALUES ('', '{}');`},
		},
		{
			"properties in insertion order",
			"CREATE (n:Bug {name: 'Butterfly', color: 'Orange', legs: 6})",
			[]string{`INSERT INTO nodes (label, properties) VALUES ('Bug', '{"name":"Butterfly","color":"Orange","legs":6}');`},
		},
		{
			"quote in property",
			`CREATE (n:Person {name: 'O\'Neil'})`,
			[]string{`INSERT INTO nodes (label, properties) VALUES ('Person', '{"name":"O''Neil"}');`},
		},
		{
			"several nodes",
			"CREATE (a:Bug), (b:Food)",
			[]string{
				`INSERT INTO nodes (label, properties) VALUES ('Bug', '{}');`,
				`INSERT INTO nodes (label, properties) VALUES ('Food', '{}');`,
			},
		},
		{
			"relationship between matched nodes",
			"MATCH (a:Bug), (b:Food) CREATE (a)-[:EATS]->(b)",
			[]string{`INSERT INTO edges (src_id, dst_id, type) SELECT a.id, b.id, 'EATS' FROM nodes a, nodes b WHERE a.label = 'Bug' AND b.label = 'Food';`},
		},
		{
			"relationship with properties",
			"MATCH (a {name: 'Ant'}), (b) CREATE (a)-[e:EATS {since: 2020}]->(b)",
			[]string{`INSERT INTO edges (src_id, dst_id, type, properties) SELECT a.id, b.id, 'EATS', '{"since":2020}' FROM nodes a, nodes b WHERE JSON_EXTRACT(a.properties,'$.name') = 'Ant';`},
		},
		{
			"node per matched row",
			"MATCH (a:Bug) CREATE (n:Shadow)",
			[]string{`INSERT INTO nodes (label, properties) SELECT 'Shadow', '{}' FROM nodes a WHERE a.label = 'Bug';`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sqlOf(t, tc.src))
		})
	}
}

func TestDesugar_Match(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{
			"unfiltered",
			"MATCH (n) RETURN n",
			`SELECT n.* FROM nodes n;`,
		},
		{
			"number property",
			"MATCH (n:Bug {legs: 6}) RETURN n",
			`SELECT n.* FROM nodes n WHERE n.label = 'Bug' AND JSON_EXTRACT(n.properties,'$.legs') = 6;`,
		},
		{
			"predicate order follows the pattern",
			"MATCH (a:Bug {name: 'Ant'})-[r:EATS {daily: 1}]->(b:Food) RETURN b",
			`SELECT b.* FROM nodes a JOIN edges r ON a.id = r.src_id JOIN nodes b ON r.dst_id = b.id ` +
				`WHERE a.label = 'Bug' AND JSON_EXTRACT(a.properties,'$.name') = 'Ant' AND r.type = 'EATS' ` +
				`AND JSON_EXTRACT(r.properties,'$.daily') = 1 AND b.label = 'Food';`,
		},
		{
			"anonymous elements",
			"MATCH ()-[r:EATS]->() RETURN r",
			`SELECT r.* FROM nodes anon_0 JOIN edges r ON anon_0.id = r.src_id JOIN nodes anon_1 ON r.dst_id = anon_1.id WHERE r.type = 'EATS';`,
		},
		{
			"generated alias avoids variables",
			"MATCH (anon_0)-[]->() RETURN anon_0",
			`SELECT anon_0.* FROM nodes anon_0 JOIN edges anon_1 ON anon_0.id = anon_1.src_id JOIN nodes anon_2 ON anon_1.dst_id = anon_2.id;`,
		},
		{
			"keyword variable",
			"MATCH (from:Bug) RETURN from",
			`SELECT anon_0.* FROM nodes anon_0 WHERE anon_0.label = 'Bug';`,
		},
		{
			"multiple match clauses share a frame",
			"MATCH (a:Bug) MATCH (b:Food) RETURN a, b",
			`SELECT a.*, b.* FROM nodes a, nodes b WHERE a.label = 'Bug' AND b.label = 'Food';`,
		},
		{
			"literal items",
			"RETURN 'hello' AS message, 42 AS answer",
			`SELECT 'hello' AS message, 42 AS answer;`,
		},
		{
			"literal mixed with variable",
			"MATCH (n:Bug) RETURN n, 'bug' AS kind",
			`SELECT n.*, 'bug' AS kind FROM nodes n WHERE n.label = 'Bug';`,
		},
		{
			"keyword alias is quoted",
			"RETURN 1 AS select, 'x' AS Order",
			`SELECT 1 AS "select", 'x' AS "Order";`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, []string{tc.want}, sqlOf(t, tc.src))
		})
	}
}

func TestDesugar_Delete(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want []string
	}{
		{
			"node",
			"MATCH (n:Bug {name: 'Ant'}) DELETE n",
			[]string{`DELETE FROM nodes WHERE label = 'Bug' AND JSON_EXTRACT(properties,'$.name') = 'Ant';`},
		},
		{
			"every node",
			"MATCH (n) DELETE n",
			[]string{`DELETE FROM nodes;`},
		},
		{
			"detach every node",
			"MATCH (n) DETACH DELETE n",
			[]string{`DELETE FROM edges;`, `DELETE FROM nodes;`},
		},
		{
			"relationship by type",
			"MATCH ()-[r:EATS]->() DELETE r",
			[]string{`DELETE FROM edges WHERE type = 'EATS';`},
		},
		{
			"relationship with filtered endpoints",
			"MATCH (a:Bug)-[r:EATS]->(b:Food) DELETE r",
			[]string{`DELETE FROM edges WHERE type = 'EATS' AND src_id IN (SELECT id FROM nodes WHERE label = 'Bug') AND dst_id IN (SELECT id FROM nodes WHERE label = 'Food');`},
		},
		{
			"several variables in order",
			"MATCH (a:Bug), (b:Food) DETACH DELETE a, b",
			[]string{
				`DELETE FROM edges WHERE src_id IN (SELECT id FROM nodes WHERE label = 'Bug') OR dst_id IN (SELECT id FROM nodes WHERE label = 'Bug');`,
				`DELETE FROM nodes WHERE label = 'Bug';`,
				`DELETE FROM edges WHERE src_id IN (SELECT id FROM nodes WHERE label = 'Food') OR dst_id IN (SELECT id FROM nodes WHERE label = 'Food');`,
				`DELETE FROM nodes WHERE label = 'Food';`,
			},
		},
		{
			"repeated variable once",
			"MATCH (n:Bug) DELETE n, n",
			[]string{`DELETE FROM nodes WHERE label = 'Bug';`},
		},
		{
			"detach node bound through relationship",
			"MATCH (a:Bug)-[r:EATS]->(b) DETACH DELETE a",
			[]string{
				`CREATE TEMP TABLE matched_a AS SELECT a.id AS id FROM nodes a JOIN edges r ON a.id = r.src_id JOIN nodes b ON r.dst_id = b.id WHERE a.label = 'Bug' AND r.type = 'EATS';`,
				`DELETE FROM edges WHERE src_id IN (SELECT id FROM temp.matched_a) OR dst_id IN (SELECT id FROM temp.matched_a);`,
				`DELETE FROM nodes WHERE id IN (SELECT id FROM temp.matched_a);`,
				`DROP TABLE temp.matched_a;`,
			},
		},
		{
			"relationship then its endpoint",
			"MATCH (a)-[r:EATS]->(b:Food) DELETE r, b",
			[]string{
				`CREATE TEMP TABLE matched_b AS SELECT b.id AS id FROM nodes a JOIN edges r ON a.id = r.src_id JOIN nodes b ON r.dst_id = b.id WHERE r.type = 'EATS' AND b.label = 'Food';`,
				`DELETE FROM edges WHERE type = 'EATS' AND dst_id IN (SELECT id FROM nodes WHERE label = 'Food');`,
				`DELETE FROM nodes WHERE id IN (SELECT id FROM temp.matched_b);`,
				`DROP TABLE temp.matched_b;`,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sqlOf(t, tc.src))
		})
	}
}

func TestDesugar_DetachOrdersEdgesFirst(t *testing.T) {
	stmts, err := lower(t, "MATCH (n:Bug) DETACH DELETE n")
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	first, ok := stmts[0].(*queryir.Delete)
	require.True(t, ok)
	assert.Equal(t, queryir.TableEdges, first.Table)

	second, ok := stmts[1].(*queryir.Delete)
	require.True(t, ok)
	assert.Equal(t, queryir.TableNodes, second.Table)
}

func TestDesugar_Unsupported(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"ends with match", "MATCH (n)"},
		{"match after create", "CREATE (n) MATCH (m)"},
		{"relationship without type", "MATCH (a), (b) CREATE (a)-[]->(b)"},
		{"unbound endpoint", "MATCH (a) CREATE (a)-[:T]->(b)"},
		{"anonymous endpoint", "MATCH (a) CREATE (a)-[:T]->()"},
		{"endpoint redeclared", "MATCH (a), (b) CREATE (a:Bug)-[:T]->(b)"},
		{"matched node created again", "MATCH (a) CREATE (a)"},
		{"created endpoints", "CREATE (a:Bug)-[:EATS]->(b:Food)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stmts, err := lower(t, tc.src)
			require.Error(t, err)
			assert.Nil(t, stmts)

			code, ok := ast.CodeOf(err)
			require.True(t, ok, err.Error())
			assert.Equal(t, ast.ErrCodeUnsupportedPattern, code, err.Error())
		})
	}
}

func TestDesugar_Deterministic(t *testing.T) {
	src := "MATCH (a:Bug {name: 'Ant', legs: 6})-[r:EATS]->(b), (c:Food) CREATE (a)-[:NEAR]->(c)"
	first := sqlOf(t, src)
	for range 20 {
		assert.Equal(t, first, sqlOf(t, src))
	}
}

func TestDesugar_DoesNotMutateAST(t *testing.T) {
	stmt, err := parser.ParseString("MATCH (a)-[r:EATS]->(b) RETURN a, r, b")
	require.NoError(t, err)
	scope, err := binder.Bind(stmt)
	require.NoError(t, err)

	rel := stmt.Clauses[0].(*ast.MatchClause).Pattern[0].Rel
	before := *rel

	_, err = Desugar(stmt, scope)
	require.NoError(t, err)
	assert.Equal(t, before, *rel)
}
