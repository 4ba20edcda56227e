package queryir

import "github.com/roach88/graphsql/internal/ast"

// Table names of the fixed schema.
const (
	TableNodes = "nodes"
	TableEdges = "edges"
)

// Column names of the fixed schema.
const (
	ColID         = "id"
	ColLabel      = "label"
	ColType       = "type"
	ColProperties = "properties"
	ColSrcID      = "src_id"
	ColDstID      = "dst_id"
)

// Statement is one complete SQL statement.
//
// This is a sealed interface - only types in this package implement it.
//
// Statement types:
//   - Select: SELECT columns FROM sources [WHERE filter]
//   - Insert: INSERT INTO table (columns) VALUES (...) | SELECT ...
//   - Delete: DELETE FROM table [WHERE filter]
//   - TempTable: CREATE TEMP TABLE name AS SELECT ...
//   - DropTable: DROP TABLE temp.name
type Statement interface {
	statementNode() // Marker method - seals interface to this package
}

// Source is an item of a FROM list.
//
// Source types:
//   - Table: a schema table with an alias
//   - Join: an inner join of a source and a table
type Source interface {
	sourceNode()
}

// Expr is a scalar or projection expression.
//
// Expr types:
//   - Column: alias.name or name
//   - AllColumns: alias.*
//   - JSONExtract: JSON_EXTRACT(column, '$.key')
//   - Literal: an inline string or number
//   - Aliased: expr AS alias
type Expr interface {
	exprNode()
}

// Predicate is a boolean filter condition.
//
// Predicate types:
//   - Equals: left = right
//   - And: all predicates must be true (empty = always true)
//   - Or: any predicate must be true
//   - In: expr IN (subquery)
type Predicate interface {
	predicateNode()
}

// Select is a projection over one or more sources.
//
// Semantics:
//
//	SELECT <columns> [FROM <from>, ...] [WHERE <where>]
//
// A Select with no From projects literals only (SELECT 'hello' AS message).
// Multiple From items are a cartesian product filtered by Where.
type Select struct {
	Columns []Expr
	From    []Source
	Where   Predicate // nil = no filter
}

func (Select) statementNode() {}

// Insert adds rows to a table, either from literal Values or from the rows
// of Query. Exactly one of Values and Query is set.
//
// Semantics:
//
//	INSERT INTO <table> (<columns>) VALUES (<values>)
//	INSERT INTO <table> (<columns>) <query>
type Insert struct {
	Table   string
	Columns []string
	Values  []Expr
	Query   *Select
}

func (Insert) statementNode() {}

// Delete removes the rows of Table matching Where.
//
// Semantics:
//
//	DELETE FROM <table> [WHERE <where>]
type Delete struct {
	Table string
	Where Predicate // nil = every row
}

func (Delete) statementNode() {}

// TempTable materializes the rows of Query into a connection-local table
// that later statements of the same transaction read through a Table with
// Temp set.
//
// Semantics:
//
//	CREATE TEMP TABLE <name> AS <query>
type TempTable struct {
	Name  string
	Query *Select
}

func (TempTable) statementNode() {}

// DropTable removes a table created by TempTable.
//
// Semantics:
//
//	DROP TABLE temp.<name>
type DropTable struct {
	Name string
}

func (DropTable) statementNode() {}

// Table is a schema table bound to an alias, or a TempTable when Temp is set.
type Table struct {
	Name  string
	Alias string // empty = unaliased
	Temp  bool
}

func (Table) sourceNode() {}

// Join is an inner join of Left with Right on a condition.
// Chains nest to the left: (a JOIN r ON ...) JOIN b ON ...
type Join struct {
	Left  Source
	Right Table
	On    Predicate
}

func (Join) sourceNode() {}

// Column references a column, optionally qualified by a table alias.
type Column struct {
	Qualifier string
	Name      string
}

func (Column) exprNode() {}

// AllColumns is the qualified wildcard alias.*.
type AllColumns struct {
	Qualifier string
}

func (AllColumns) exprNode() {}

// JSONExtract reads one top-level key of a JSON text column.
type JSONExtract struct {
	Column Column
	Key    string
}

func (JSONExtract) exprNode() {}

// Literal is an inline string or number value.
type Literal struct {
	Value ast.Value
}

func (Literal) exprNode() {}

// Aliased names a projected expression. A Quoted alias is written as a
// double-quoted identifier.
type Aliased struct {
	Expr   Expr
	Alias  string
	Quoted bool
}

func (Aliased) exprNode() {}

// Equals compares two expressions for equality.
type Equals struct {
	Left  Expr
	Right Expr
}

func (Equals) predicateNode() {}

// And is a conjunction of predicates.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction of predicates.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// In tests membership of Left in the single-column result of Query.
type In struct {
	Left  Expr
	Query *Select
}

func (In) predicateNode() {}

// Col returns a Column qualified by alias.
func Col(alias, name string) Column {
	return Column{Qualifier: alias, Name: name}
}

// String returns a string Literal.
func String(s string) Literal {
	return Literal{Value: ast.StringLiteral(s)}
}

// Conjoin combines predicates with AND, flattening nested Ands and
// dropping nils. It returns nil for no predicates and the predicate itself
// for exactly one.
func Conjoin(preds ...Predicate) Predicate {
	var flat []Predicate
	for _, p := range preds {
		switch pred := p.(type) {
		case nil:
		case *And:
			flat = append(flat, pred.Predicates...)
		default:
			flat = append(flat, p)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return &And{Predicates: flat}
	}
}
