package queryir

import (
	"fmt"
	"slices"
)

// ValidationResult lists the structural problems found in a statement.
type ValidationResult struct {
	// IsValid is true when Problems is empty.
	IsValid bool

	// Problems describes each violated rule, in traversal order.
	Problems []string
}

// Err returns the problems as a single error, or nil.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return fmt.Errorf("invalid statement: %s", r.Problems[0])
}

// Validate checks a statement against the structural rules of the IR:
//  1. Tables are nodes or edges, or named temp tables
//  2. Aliases are unique within a FROM list and qualifiers resolve to them
//  3. Insert sets exactly one of Values and Query, with matching arity
//  4. Join conditions are present and And/Or are non-empty
//  5. IN subqueries project exactly one column
//  6. Delete filters use unqualified columns
//
// Validate is a pure function with no side effects.
func Validate(stmt Statement) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateStatement(stmt)
	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// scope is the set of aliases visible to column references. A nil scope
// means only unqualified columns are allowed.
type scope map[string]bool

func (v *validator) validateStatement(s Statement) {
	switch stmt := s.(type) {
	case nil:
		v.addProblem("nil statement")
	case *Select:
		v.validateSelect(stmt)
	case *Insert:
		v.validateInsert(stmt)
	case *Delete:
		v.validateDelete(stmt)
	case *TempTable:
		v.validateTempName(stmt.Name)
		if stmt.Query == nil {
			v.addProblem("TEMP TABLE %s without query", stmt.Name)
			return
		}
		v.validateSelect(stmt.Query)
	case *DropTable:
		v.validateTempName(stmt.Name)
	default:
		v.addProblem("unknown statement type: %T", s)
	}
}

func (v *validator) validateSelect(sel *Select) {
	if len(sel.Columns) == 0 {
		v.addProblem("SELECT with no columns")
	}
	sc := scope{}
	for _, src := range sel.From {
		v.collectSource(src, sc)
	}
	for _, col := range sel.Columns {
		v.validateExpr(col, sc)
	}
	for _, src := range sel.From {
		v.validateJoinConditions(src, sc)
	}
	v.validatePredicate(sel.Where, sc)
}

func (v *validator) validateInsert(ins *Insert) {
	v.validateTable(ins.Table)
	if len(ins.Columns) == 0 {
		v.addProblem("INSERT INTO %s with no columns", ins.Table)
	}

	switch {
	case ins.Query != nil && ins.Values != nil:
		v.addProblem("INSERT INTO %s has both VALUES and SELECT", ins.Table)
	case ins.Query != nil:
		if len(ins.Query.Columns) != len(ins.Columns) {
			v.addProblem("INSERT INTO %s lists %d columns but SELECT projects %d",
				ins.Table, len(ins.Columns), len(ins.Query.Columns))
		}
		v.validateSelect(ins.Query)
	case ins.Values != nil:
		if len(ins.Values) != len(ins.Columns) {
			v.addProblem("INSERT INTO %s lists %d columns but %d values",
				ins.Table, len(ins.Columns), len(ins.Values))
		}
		for _, e := range ins.Values {
			v.validateExpr(e, nil)
		}
	default:
		v.addProblem("INSERT INTO %s has neither VALUES nor SELECT", ins.Table)
	}
}

func (v *validator) validateDelete(del *Delete) {
	v.validateTable(del.Table)
	v.validatePredicate(del.Where, nil)
}

func (v *validator) validateTable(name string) {
	if name != TableNodes && name != TableEdges {
		v.addProblem("unknown table %q", name)
	}
}

func (v *validator) validateTempName(name string) {
	if name == "" || name == TableNodes || name == TableEdges {
		v.addProblem("invalid temp table name %q", name)
	}
}

// collectSource registers the aliases a source introduces.
func (v *validator) collectSource(src Source, sc scope) {
	switch s := src.(type) {
	case *Table:
		v.collectTable(*s, sc)
	case *Join:
		v.collectSource(s.Left, sc)
		v.collectTable(s.Right, sc)
	default:
		v.addProblem("unknown source type: %T", src)
	}
}

func (v *validator) collectTable(t Table, sc scope) {
	if t.Temp {
		v.validateTempName(t.Name)
	} else {
		v.validateTable(t.Name)
	}
	name := t.Alias
	if name == "" {
		name = t.Name
	}
	if sc[name] {
		v.addProblem("alias %q used more than once", name)
	}
	sc[name] = true
}

func (v *validator) validateJoinConditions(src Source, sc scope) {
	j, ok := src.(*Join)
	if !ok {
		return
	}
	v.validateJoinConditions(j.Left, sc)
	if j.On == nil {
		v.addProblem("JOIN %s without ON condition", j.Right.Name)
		return
	}
	v.validatePredicate(j.On, sc)
}

func (v *validator) validateExpr(e Expr, sc scope) {
	switch expr := e.(type) {
	case Column:
		v.validateColumn(expr, sc)
	case AllColumns:
		if !sc[expr.Qualifier] {
			v.addProblem("%s.* does not name a FROM alias", expr.Qualifier)
		}
	case JSONExtract:
		v.validateColumn(expr.Column, sc)
		if expr.Key == "" {
			v.addProblem("JSON_EXTRACT with empty key")
		}
	case Literal:
		if expr.Value == nil {
			v.addProblem("literal with no value")
		}
	case Aliased:
		if expr.Alias == "" {
			v.addProblem("AS with empty alias")
		}
		v.validateExpr(expr.Expr, sc)
	default:
		v.addProblem("unknown expression type: %T", e)
	}
}

func (v *validator) validateColumn(c Column, sc scope) {
	if c.Qualifier == "" {
		return
	}
	if sc == nil {
		v.addProblem("column %s.%s must be unqualified here", c.Qualifier, c.Name)
		return
	}
	if !sc[c.Qualifier] {
		v.addProblem("qualifier %q of column %s does not name a FROM alias", c.Qualifier, c.Name)
	}
}

func (v *validator) validatePredicate(p Predicate, sc scope) {
	switch pred := p.(type) {
	case nil:
	case *Equals:
		v.validateExpr(pred.Left, sc)
		v.validateExpr(pred.Right, sc)
	case *And:
		v.validateJunction("AND", pred.Predicates, sc)
	case *Or:
		v.validateJunction("OR", pred.Predicates, sc)
	case *In:
		v.validateExpr(pred.Left, sc)
		if pred.Query == nil {
			v.addProblem("IN without subquery")
			return
		}
		if len(pred.Query.Columns) != 1 {
			v.addProblem("IN subquery projects %d columns, want 1", len(pred.Query.Columns))
		}
		v.validateSelect(pred.Query)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateJunction(op string, preds []Predicate, sc scope) {
	if len(preds) == 0 {
		v.addProblem("empty %s", op)
	}
	if slices.Contains(preds, nil) {
		v.addProblem("nil operand in %s", op)
	}
	for _, p := range preds {
		v.validatePredicate(p, sc)
	}
}
