// Package binder checks variable scoping across the clauses of a statement.
//
// Bind walks the clauses in order with the set of bound variables. Only
// MATCH introduces variables into the scope. A name CREATE introduces is
// local to that clause: later DELETE or RETURN references to it are
// unbound. The result is a read-only Scope that the desugarer uses to
// resolve each variable back to the MATCH pattern it names.
package binder

import (
	"slices"

	"github.com/roach88/graphsql/internal/ast"
)

// ElementKind distinguishes node and relationship bindings.
type ElementKind int

const (
	KindNode ElementKind = iota
	KindRelationship
)

func (k ElementKind) String() string {
	if k == KindRelationship {
		return "relationship"
	}
	return "node"
}

// Binding records where a variable was introduced.
type Binding struct {
	Variable   string
	Kind       ElementKind
	Clause     int            // index of the introducing clause
	ClauseKind ast.ClauseKind // MATCH or CREATE
	Part       *ast.PatternPart
	Node       *ast.NodePattern // set when Kind is KindNode
	Rel        *ast.RelPattern  // set when Kind is KindRelationship
}

// ViaRelationship reports whether a node binding is an endpoint of a
// relationship part rather than a standalone node part.
func (b *Binding) ViaRelationship() bool {
	return b.Kind == KindNode && b.Part.IsRelationship()
}

// Scope maps each MATCH-bound variable to its Binding.
type Scope struct {
	bindings map[string]*Binding
	order    []string
}

func newScope() *Scope {
	return &Scope{bindings: make(map[string]*Binding)}
}

// Lookup returns the binding for v.
func (s *Scope) Lookup(v string) (*Binding, bool) {
	b, ok := s.bindings[v]
	return b, ok
}

// Has reports whether v is bound.
func (s *Scope) Has(v string) bool {
	_, ok := s.bindings[v]
	return ok
}

// Variables returns the bound variables in introduction order.
func (s *Scope) Variables() []string {
	return slices.Clone(s.order)
}

func (s *Scope) add(b *Binding) {
	s.bindings[b.Variable] = b
	s.order = append(s.order, b.Variable)
}

// Bind checks stmt and returns its scope. The statement is not modified.
func Bind(stmt *ast.Statement) (*Scope, error) {
	scope := newScope()
	created := make(map[string]*Binding)
	for i, clause := range stmt.Clauses {
		var err error
		switch c := clause.(type) {
		case *ast.MatchClause:
			err = bindMatch(scope, created, i, c)
		case *ast.CreateClause:
			err = bindCreate(scope, created, i, c)
		case *ast.DeleteClause:
			err = checkBound(scope, c.Kind(), c.Variables)
		case *ast.ReturnClause:
			err = checkBound(scope, c.Kind(), returnVariables(c))
		}
		if err != nil {
			return nil, err
		}
	}
	return scope, nil
}

// bindMatch introduces every variable of a MATCH pattern. A name that is
// already bound or created, including earlier in the same pattern, is
// rejected.
func bindMatch(scope *Scope, created map[string]*Binding, index int, c *ast.MatchClause) error {
	for _, part := range c.Pattern {
		for _, b := range partBindings(part) {
			if prev, ok := scope.Lookup(b.Variable); ok {
				return rebound(b, prev)
			}
			if prev, ok := created[b.Variable]; ok {
				return rebound(b, prev)
			}
			b.Clause, b.ClauseKind = index, ast.ClauseMatch
			scope.add(b)
		}
	}
	return nil
}

// bindCreate records the names a CREATE pattern introduces in created,
// never in scope. References to MATCH-bound variables must keep their
// element kind; a created name cannot be introduced twice.
func bindCreate(scope *Scope, created map[string]*Binding, index int, c *ast.CreateClause) error {
	for _, part := range c.Pattern {
		for _, b := range partBindings(part) {
			if prev, ok := created[b.Variable]; ok {
				return rebound(b, prev)
			}
			prev, ok := scope.Lookup(b.Variable)
			if !ok {
				b.Clause, b.ClauseKind = index, ast.ClauseCreate
				created[b.Variable] = b
				continue
			}
			if prev.Kind != b.Kind {
				return ast.Unsupported(offsetOf(b), "variable %q is bound to a %s, not a %s", b.Variable, prev.Kind, b.Kind)
			}
			if b.Kind == KindRelationship {
				return ast.Unsupported(offsetOf(b), "relationship variable %q is already bound", b.Variable)
			}
		}
	}
	return nil
}

func rebound(b, prev *Binding) error {
	return ast.Unsupported(offsetOf(b), "variable %q is already bound by %s; re-binding is not supported", b.Variable, prev.ClauseKind)
}

func checkBound(scope *Scope, kind ast.ClauseKind, vars []string) error {
	for _, v := range vars {
		if !scope.Has(v) {
			return &ast.UnboundVariableError{Variable: v, Clause: kind}
		}
	}
	return nil
}

func returnVariables(c *ast.ReturnClause) []string {
	var vars []string
	for _, item := range c.Items {
		if item.Variable != "" {
			vars = append(vars, item.Variable)
		}
	}
	return vars
}

// partBindings lists the named elements of part in source order.
func partBindings(part *ast.PatternPart) []*Binding {
	var out []*Binding
	addNode := func(n *ast.NodePattern) {
		if n.Variable != "" {
			out = append(out, &Binding{Variable: n.Variable, Kind: KindNode, Part: part, Node: n})
		}
	}
	if part.Rel == nil {
		addNode(part.Node)
		return out
	}
	addNode(part.Rel.Start)
	if part.Rel.Variable != "" {
		out = append(out, &Binding{Variable: part.Rel.Variable, Kind: KindRelationship, Part: part, Rel: part.Rel})
	}
	addNode(part.Rel.End)
	return out
}

func offsetOf(b *Binding) int {
	if b.Rel != nil {
		return b.Rel.Offset
	}
	return b.Node.Offset
}
