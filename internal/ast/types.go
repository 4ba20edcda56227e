package ast

// NodePattern is a parenthesised node shape: (v:Label {k: 'v'}).
// Every part is optional; (n) and () are valid.
type NodePattern struct {
	Variable   string
	Label      string
	Properties *PropertyMap
	Offset     int // byte offset of "("
}

// RelPattern is a bracketed relationship shape: -[r:TYPE {k: 1}]->.
// Direction is always Start -> End.
type RelPattern struct {
	Variable   string
	Type       string
	Properties *PropertyMap
	Start      *NodePattern
	End        *NodePattern
	Offset     int // byte offset of "-"
}

// PatternPart is one comma-separated element of a pattern graph: either a
// lone node, or two nodes joined by exactly one relationship hop.
type PatternPart struct {
	Node *NodePattern // set for a lone node
	Rel  *RelPattern  // set for a relationship; Rel.Start/Rel.End are the endpoints
}

// IsRelationship reports whether the part is a one-hop relationship.
func (p *PatternPart) IsRelationship() bool {
	return p.Rel != nil
}

// Variables returns the variables named in the part in source order.
func (p *PatternPart) Variables() []string {
	var vars []string
	add := func(v string) {
		if v != "" {
			vars = append(vars, v)
		}
	}
	if p.Rel == nil {
		add(p.Node.Variable)
		return vars
	}
	add(p.Rel.Start.Variable)
	add(p.Rel.Variable)
	add(p.Rel.End.Variable)
	return vars
}

// ClauseKind names a clause for diagnostics.
type ClauseKind string

const (
	ClauseMatch        ClauseKind = "MATCH"
	ClauseCreate       ClauseKind = "CREATE"
	ClauseDelete       ClauseKind = "DELETE"
	ClauseDetachDelete ClauseKind = "DETACH DELETE"
	ClauseReturn       ClauseKind = "RETURN"
)

// Clause is a sealed interface over the four clause variants.
//
// Clause types:
//   - MatchClause: binds variables to a pattern graph
//   - CreateClause: creates nodes and relationships
//   - DeleteClause: deletes bound nodes or relationships
//   - ReturnClause: projects bound variables or literals
type Clause interface {
	clauseNode() // Marker method - seals interface to this package
	Kind() ClauseKind
}

// MatchClause is MATCH followed by a pattern graph.
type MatchClause struct {
	Pattern []*PatternPart
	Offset  int
}

func (MatchClause) clauseNode() {}

// Kind implements Clause.
func (MatchClause) Kind() ClauseKind { return ClauseMatch }

// CreateClause is CREATE followed by a pattern graph.
type CreateClause struct {
	Pattern []*PatternPart
	Offset  int
}

func (CreateClause) clauseNode() {}

// Kind implements Clause.
func (CreateClause) Kind() ClauseKind { return ClauseCreate }

// DeleteClause is [DETACH] DELETE v1, v2, ...
type DeleteClause struct {
	Variables []string
	Detach    bool
	Offset    int
}

func (DeleteClause) clauseNode() {}

// Kind implements Clause.
func (c DeleteClause) Kind() ClauseKind {
	if c.Detach {
		return ClauseDetachDelete
	}
	return ClauseDelete
}

// ReturnItem is one projection of a RETURN clause. Exactly one of Variable
// or Literal is set; Alias is only valid on a literal.
type ReturnItem struct {
	Variable string
	Literal  Value
	Alias    string
}

// ReturnClause is RETURN item1, item2, ...
type ReturnClause struct {
	Items  []ReturnItem
	Offset int
}

func (ReturnClause) clauseNode() {}

// Kind implements Clause.
func (ReturnClause) Kind() ClauseKind { return ClauseReturn }

// Statement is the ordered clause sequence of one query.
type Statement struct {
	Clauses []Clause
}
