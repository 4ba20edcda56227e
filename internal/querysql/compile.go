// Package querysql renders queryir statements as SQLite SQL text.
//
// Every statement renders to exactly one string terminated by ";". Literal
// values are inlined: strings are single-quoted with embedded quotes
// doubled and their bytes kept verbatim, numbers are written as canonical
// source text. JSON keys in JSON_EXTRACT paths are NFC-normalized.
package querysql

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/graphsql/internal/ast"
	"github.com/roach88/graphsql/internal/queryir"
)

// SQLCompiler compiles queryir statements to SQL text.
type SQLCompiler struct {
	// SkipValidation disables the structural check run before rendering.
	SkipValidation bool
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile renders one statement, terminated by ";".
func (c *SQLCompiler) Compile(stmt queryir.Statement) (string, error) {
	if stmt == nil {
		return "", fmt.Errorf("cannot compile nil statement")
	}
	if !c.SkipValidation {
		if err := queryir.Validate(stmt).Err(); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	if err := c.writeStatement(&b, stmt); err != nil {
		return "", err
	}
	b.WriteByte(';')
	return b.String(), nil
}

// CompileAll renders stmts in order. It fails on the first statement that
// cannot be compiled and returns no partial output.
func (c *SQLCompiler) CompileAll(stmts []queryir.Statement) ([]string, error) {
	out := make([]string, 0, len(stmts))
	for i, stmt := range stmts {
		sql, err := c.Compile(stmt)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
		out = append(out, sql)
	}
	return out, nil
}

func (c *SQLCompiler) writeStatement(b *strings.Builder, stmt queryir.Statement) error {
	switch s := stmt.(type) {
	case *queryir.Select:
		return c.writeSelect(b, s)
	case *queryir.Insert:
		return c.writeInsert(b, s)
	case *queryir.Delete:
		return c.writeDelete(b, s)
	case *queryir.TempTable:
		fmt.Fprintf(b, "CREATE TEMP TABLE %s AS ", s.Name)
		return c.writeSelect(b, s.Query)
	case *queryir.DropTable:
		fmt.Fprintf(b, "DROP TABLE temp.%s", s.Name)
		return nil
	default:
		return fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

// writeSelect renders SELECT cols [FROM src, ...] [WHERE pred].
func (c *SQLCompiler) writeSelect(b *strings.Builder, sel *queryir.Select) error {
	b.WriteString("SELECT ")
	for i, col := range sel.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := c.writeExpr(b, col); err != nil {
			return err
		}
	}

	if len(sel.From) > 0 {
		b.WriteString(" FROM ")
		for i, src := range sel.From {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := c.writeSource(b, src); err != nil {
				return err
			}
		}
	}
	return c.writeWhere(b, sel.Where)
}

// writeInsert renders INSERT INTO t (cols) VALUES (...) or INSERT INTO t (cols) SELECT ....
func (c *SQLCompiler) writeInsert(b *strings.Builder, ins *queryir.Insert) error {
	fmt.Fprintf(b, "INSERT INTO %s (%s) ", ins.Table, strings.Join(ins.Columns, ", "))

	if ins.Query != nil {
		return c.writeSelect(b, ins.Query)
	}

	b.WriteString("VALUES (")
	for i, v := range ins.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := c.writeExpr(b, v); err != nil {
			return err
		}
	}
	b.WriteByte(')')
	return nil
}

// writeDelete renders DELETE FROM t [WHERE pred].
func (c *SQLCompiler) writeDelete(b *strings.Builder, del *queryir.Delete) error {
	b.WriteString("DELETE FROM ")
	b.WriteString(del.Table)
	return c.writeWhere(b, del.Where)
}

func (c *SQLCompiler) writeWhere(b *strings.Builder, p queryir.Predicate) error {
	if p == nil {
		return nil
	}
	b.WriteString(" WHERE ")
	return c.writePredicate(b, p, false)
}

func (c *SQLCompiler) writeSource(b *strings.Builder, src queryir.Source) error {
	switch s := src.(type) {
	case *queryir.Table:
		writeTable(b, *s)
		return nil
	case *queryir.Join:
		if err := c.writeSource(b, s.Left); err != nil {
			return err
		}
		b.WriteString(" JOIN ")
		writeTable(b, s.Right)
		b.WriteString(" ON ")
		return c.writePredicate(b, s.On, false)
	default:
		return fmt.Errorf("unsupported source type: %T", src)
	}
}

func writeTable(b *strings.Builder, t queryir.Table) {
	if t.Temp {
		b.WriteString("temp.")
	}
	b.WriteString(t.Name)
	if t.Alias != "" {
		b.WriteByte(' ')
		b.WriteString(t.Alias)
	}
}

func (c *SQLCompiler) writeExpr(b *strings.Builder, e queryir.Expr) error {
	switch expr := e.(type) {
	case queryir.Column:
		writeColumn(b, expr)
	case queryir.AllColumns:
		b.WriteString(expr.Qualifier)
		b.WriteString(".*")
	case queryir.JSONExtract:
		b.WriteString("JSON_EXTRACT(")
		writeColumn(b, expr.Column)
		b.WriteByte(',')
		b.WriteString(QuoteString("$." + norm.NFC.String(expr.Key)))
		b.WriteByte(')')
	case queryir.Literal:
		lit, err := Literal(expr.Value)
		if err != nil {
			return err
		}
		b.WriteString(lit)
	case queryir.Aliased:
		if err := c.writeExpr(b, expr.Expr); err != nil {
			return err
		}
		b.WriteString(" AS ")
		if expr.Quoted {
			b.WriteString(QuoteIdent(expr.Alias))
		} else {
			b.WriteString(expr.Alias)
		}
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

func writeColumn(b *strings.Builder, col queryir.Column) {
	if col.Qualifier != "" {
		b.WriteString(col.Qualifier)
		b.WriteByte('.')
	}
	b.WriteString(col.Name)
}

// writePredicate renders p. An Or nested inside an And is parenthesized.
func (c *SQLCompiler) writePredicate(b *strings.Builder, p queryir.Predicate, nested bool) error {
	switch pred := p.(type) {
	case *queryir.Equals:
		if err := c.writeExpr(b, pred.Left); err != nil {
			return err
		}
		b.WriteString(" = ")
		return c.writeExpr(b, pred.Right)
	case *queryir.And:
		return c.writeJunction(b, " AND ", pred.Predicates, true)
	case *queryir.Or:
		if nested {
			b.WriteByte('(')
		}
		if err := c.writeJunction(b, " OR ", pred.Predicates, false); err != nil {
			return err
		}
		if nested {
			b.WriteByte(')')
		}
		return nil
	case *queryir.In:
		if err := c.writeExpr(b, pred.Left); err != nil {
			return err
		}
		b.WriteString(" IN (")
		if err := c.writeSelect(b, pred.Query); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) writeJunction(b *strings.Builder, sep string, preds []queryir.Predicate, nested bool) error {
	for i, p := range preds {
		if i > 0 {
			b.WriteString(sep)
		}
		if err := c.writePredicate(b, p, nested); err != nil {
			return err
		}
	}
	return nil
}

// Literal renders a property value as a SQL literal.
func Literal(v ast.Value) (string, error) {
	switch val := v.(type) {
	case ast.StringLiteral:
		return QuoteString(string(val)), nil
	case ast.NumberLiteral:
		return val.Canonical(), nil
	default:
		return "", fmt.Errorf("unsupported literal type: %T", v)
	}
}

// QuoteString renders s as a single-quoted SQL string literal. The bytes of
// s are kept verbatim; embedded single quotes are doubled.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent renders s as a double-quoted SQL identifier.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
