// Package queryir provides the relational intermediate representation (IR)
// that graph patterns are desugared into.
//
// ARCHITECTURE:
//
// The IR sits between the desugarer and SQL text generation:
//
//	[pattern AST] → [desugar] → [Query IR] → [querysql] → SQL text
//
// It models exactly the statements the fixed two-table schema needs:
//
//	nodes(id, label, properties)
//	edges(id, src_id, dst_id, type, properties)
//
// STATEMENTS:
//
//   - Select: projection over comma-separated sources with an optional filter
//   - Insert: INSERT ... VALUES (Values) or INSERT ... SELECT (Query)
//   - Delete: DELETE FROM table with an optional filter
//
// Sources are either a Table with an alias or an inner Join chain. Joins are
// always inner joins; the IR has no outer join, aggregation, ordering or
// parameters.
//
// SEALED INTERFACES:
//
// Statement, Source, Expr and Predicate are sealed interfaces using the
// marker method pattern. Only types in this package implement them, so
// backends can switch over them exhaustively:
//
//	switch s := stmt.(type) {
//	case *Select:
//	case *Insert:
//	case *Delete:
//	}
//
// VALUES:
//
// Literal values are ast.Value (string or number text). Nothing in the IR is
// parameterized; the SQL backend renders literals inline with quoting.
//
// QUALIFICATION:
//
// Column.Qualifier names the table alias. DELETE statements have a single
// unaliased target, so the desugarer leaves their columns unqualified.
package queryir
