// Package desugar lowers a bound pattern statement into relational
// statements over the nodes and edges tables.
//
// MATCH clauses emit nothing; they extend the statement's match frame, a
// FROM list with its filter. Every later clause that needs matched rows
// selects from that frame:
//
//	MATCH (a:Bug), (b:Food) CREATE (a)-[:EATS]->(b)
//	  → INSERT INTO edges (src_id, dst_id, type)
//	    SELECT a.id, b.id, 'EATS' FROM nodes a, nodes b
//	    WHERE a.label = 'Bug' AND b.label = 'Food'
//
// DELETE targets a single table and filters it with unqualified columns.
// Any shape outside the supported subset fails with an
// ast.UnsupportedPatternError and no statements.
package desugar

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/graphsql/internal/ast"
	"github.com/roach88/graphsql/internal/binder"
	"github.com/roach88/graphsql/internal/queryir"
)

// anonPrefix names aliases generated for elements without a variable.
const anonPrefix = "anon_"

// tempPrefix names the temp tables holding captured node ids.
const tempPrefix = "matched_"

// Desugarer holds the per-statement lowering state. It is not reusable;
// create one per statement with New.
type Desugarer struct {
	scope *binder.Scope

	// aliases maps MATCH variables to their FROM alias.
	aliases map[string]string
	used    map[string]bool // variable names, lowercased
	taken   map[string]bool // assigned aliases, lowercased
	anon    int

	frame frame
	out   []queryir.Statement
}

// frame is the FROM list and filter accumulated from MATCH clauses.
type frame struct {
	sources []queryir.Source
	where   []queryir.Predicate
}

func (f *frame) empty() bool {
	return len(f.sources) == 0
}

// selectOf projects cols over the frame.
func (f *frame) selectOf(cols []queryir.Expr) *queryir.Select {
	return &queryir.Select{
		Columns: cols,
		From:    slices.Clone(f.sources),
		Where:   queryir.Conjoin(f.where...),
	}
}

// New creates a Desugarer for one statement bound to scope.
func New(scope *binder.Scope) *Desugarer {
	d := &Desugarer{
		scope:   scope,
		aliases: make(map[string]string),
		used:    make(map[string]bool),
		taken:   make(map[string]bool),
	}
	for _, v := range scope.Variables() {
		d.used[strings.ToLower(v)] = true
	}
	return d
}

// Desugar lowers stmt into an ordered list of relational statements.
func Desugar(stmt *ast.Statement, scope *binder.Scope) ([]queryir.Statement, error) {
	return New(scope).Desugar(stmt)
}

// Desugar lowers stmt. Statements are emitted in clause order and, within a
// clause, in pattern order.
func (d *Desugarer) Desugar(stmt *ast.Statement) ([]queryir.Statement, error) {
	if len(stmt.Clauses) == 0 {
		return nil, ast.Unsupported(0, "empty statement")
	}
	for _, clause := range stmt.Clauses {
		var err error
		switch c := clause.(type) {
		case *ast.MatchClause:
			err = d.match(c)
		case *ast.CreateClause:
			err = d.create(c)
		case *ast.DeleteClause:
			err = d.delete(c)
		case *ast.ReturnClause:
			err = d.ret(c)
		default:
			err = fmt.Errorf("unknown clause type: %T", clause)
		}
		if err != nil {
			return nil, err
		}
	}

	if last, ok := stmt.Clauses[len(stmt.Clauses)-1].(*ast.MatchClause); ok {
		return nil, ast.Unsupported(last.Offset, "a statement cannot end with MATCH; add RETURN, CREATE or DELETE")
	}
	if len(d.out) == 0 {
		return nil, ast.Unsupported(0, "statement produces no SQL")
	}
	return d.out, nil
}

func (d *Desugarer) emit(stmts ...queryir.Statement) {
	d.out = append(d.out, stmts...)
}

// match adds each part of the pattern to the frame.
func (d *Desugarer) match(c *ast.MatchClause) error {
	for _, part := range c.Pattern {
		if !part.IsRelationship() {
			alias := d.bindAlias(part.Node.Variable)
			d.frame.sources = append(d.frame.sources, &queryir.Table{Name: queryir.TableNodes, Alias: alias})
			d.frame.where = append(d.frame.where, nodePredicates(alias, part.Node)...)
			continue
		}

		rel := part.Rel
		start := d.bindAlias(rel.Start.Variable)
		edge := d.bindAlias(rel.Variable)
		end := d.bindAlias(rel.End.Variable)

		d.frame.sources = append(d.frame.sources, &queryir.Join{
			Left: &queryir.Join{
				Left:  &queryir.Table{Name: queryir.TableNodes, Alias: start},
				Right: queryir.Table{Name: queryir.TableEdges, Alias: edge},
				On:    &queryir.Equals{Left: queryir.Col(start, queryir.ColID), Right: queryir.Col(edge, queryir.ColSrcID)},
			},
			Right: queryir.Table{Name: queryir.TableNodes, Alias: end},
			On:    &queryir.Equals{Left: queryir.Col(edge, queryir.ColDstID), Right: queryir.Col(end, queryir.ColID)},
		})
		d.frame.where = append(d.frame.where, nodePredicates(start, rel.Start)...)
		d.frame.where = append(d.frame.where, relPredicates(edge, rel)...)
		d.frame.where = append(d.frame.where, nodePredicates(end, rel.End)...)
	}
	return nil
}

// create emits one INSERT per pattern part. With an empty frame a node is
// inserted from literal VALUES; otherwise once per frame row.
func (d *Desugarer) create(c *ast.CreateClause) error {
	for _, part := range c.Pattern {
		var (
			stmt queryir.Statement
			err  error
		)
		if part.IsRelationship() {
			stmt, err = d.createRel(part.Rel)
		} else {
			stmt, err = d.createNode(part.Node)
		}
		if err != nil {
			return err
		}
		d.emit(stmt)
	}
	return nil
}

func (d *Desugarer) createNode(n *ast.NodePattern) (queryir.Statement, error) {
	if b, ok := d.scope.Lookup(n.Variable); ok {
		return nil, ast.Unsupported(n.Offset, "node %q is already bound by %s and cannot be created again", n.Variable, b.ClauseKind)
	}

	props, err := propertiesJSON(n.Properties)
	if err != nil {
		return nil, err
	}
	values := []queryir.Expr{queryir.String(n.Label), queryir.String(props)}
	columns := []string{queryir.ColLabel, queryir.ColProperties}

	if d.frame.empty() {
		return &queryir.Insert{Table: queryir.TableNodes, Columns: columns, Values: values}, nil
	}
	return &queryir.Insert{Table: queryir.TableNodes, Columns: columns, Query: d.frame.selectOf(values)}, nil
}

// createRel inserts an edge between two MATCH-bound nodes for every frame row.
func (d *Desugarer) createRel(rel *ast.RelPattern) (queryir.Statement, error) {
	if rel.Type == "" {
		return nil, ast.Unsupported(rel.Offset, "a created relationship must have a type")
	}
	src, err := d.endpoint(rel.Start)
	if err != nil {
		return nil, err
	}
	dst, err := d.endpoint(rel.End)
	if err != nil {
		return nil, err
	}

	columns := []string{queryir.ColSrcID, queryir.ColDstID, queryir.ColType}
	values := []queryir.Expr{
		queryir.Col(src, queryir.ColID),
		queryir.Col(dst, queryir.ColID),
		queryir.String(rel.Type),
	}
	if rel.Properties.Len() > 0 {
		props, err := propertiesJSON(rel.Properties)
		if err != nil {
			return nil, err
		}
		columns = append(columns, queryir.ColProperties)
		values = append(values, queryir.String(props))
	}

	return &queryir.Insert{Table: queryir.TableEdges, Columns: columns, Query: d.frame.selectOf(values)}, nil
}

// endpoint resolves a CREATE relationship endpoint to its MATCH alias.
func (d *Desugarer) endpoint(n *ast.NodePattern) (string, error) {
	if n.Variable == "" {
		return "", ast.Unsupported(n.Offset, "relationship endpoints in CREATE must be variables bound by a preceding MATCH")
	}
	if n.Label != "" || n.Properties.Len() > 0 {
		return "", ast.Unsupported(n.Offset, "endpoint %q cannot declare a label or properties in CREATE", n.Variable)
	}
	b, ok := d.scope.Lookup(n.Variable)
	if !ok || b.Kind != binder.KindNode {
		return "", ast.Unsupported(n.Offset, "endpoint %q must be a node bound by a preceding MATCH", n.Variable)
	}
	return d.aliases[n.Variable], nil
}

// delete emits one or two DELETE statements per variable. DETACH deletes a
// node's edges before the node.
//
// A node bound through a relationship part is selected by the whole match
// frame, which stops matching once its edges are gone. Its ids are captured
// into a temp table before any DELETE of the clause and the table is
// dropped after the last one.
func (d *Desugarer) delete(c *ast.DeleteClause) error {
	var vars []*binder.Binding
	var captured []string
	temps := make(map[string]string)
	seen := make(map[string]bool)
	for _, v := range c.Variables {
		if seen[v] {
			continue
		}
		seen[v] = true

		b, ok := d.scope.Lookup(v)
		if !ok {
			return &ast.UnboundVariableError{Variable: v, Clause: c.Kind()}
		}
		vars = append(vars, b)
		if b.ViaRelationship() {
			temps[v] = d.captureIDs(v)
			captured = append(captured, temps[v])
		}
	}

	for _, b := range vars {
		if b.Kind == binder.KindRelationship {
			d.emit(&queryir.Delete{Table: queryir.TableEdges, Where: edgeFilter(b.Rel)})
			continue
		}

		if name, ok := temps[b.Variable]; ok {
			if c.Detach {
				d.emit(&queryir.Delete{Table: queryir.TableEdges, Where: &queryir.Or{Predicates: []queryir.Predicate{
					&queryir.In{Left: queryir.Column{Name: queryir.ColSrcID}, Query: tempIDs(name)},
					&queryir.In{Left: queryir.Column{Name: queryir.ColDstID}, Query: tempIDs(name)},
				}}})
			}
			d.emit(&queryir.Delete{Table: queryir.TableNodes, Where: &queryir.In{
				Left:  queryir.Column{Name: queryir.ColID},
				Query: tempIDs(name),
			}})
			continue
		}

		where := queryir.Conjoin(nodePredicates("", b.Node)...)
		if c.Detach {
			d.emit(&queryir.Delete{Table: queryir.TableEdges, Where: incidentEdges(where)})
		}
		d.emit(&queryir.Delete{Table: queryir.TableNodes, Where: where})
	}

	for _, name := range captured {
		d.emit(&queryir.DropTable{Name: name})
	}
	return nil
}

// captureIDs emits a temp table holding the id of v for every frame row and
// returns its name.
func (d *Desugarer) captureIDs(v string) string {
	alias := d.aliases[v]
	name := tempPrefix + alias
	d.emit(&queryir.TempTable{
		Name: name,
		Query: d.frame.selectOf([]queryir.Expr{
			queryir.Aliased{Expr: queryir.Col(alias, queryir.ColID), Alias: queryir.ColID},
		}),
	})
	return name
}

// ret emits one SELECT projecting the items over the frame.
func (d *Desugarer) ret(c *ast.ReturnClause) error {
	cols := make([]queryir.Expr, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Variable == "" {
			var e queryir.Expr = queryir.Literal{Value: item.Literal}
			if item.Alias != "" {
				e = queryir.Aliased{Expr: e, Alias: item.Alias, Quoted: isReserved(item.Alias)}
			}
			cols = append(cols, e)
			continue
		}

		if !d.scope.Has(item.Variable) {
			return &ast.UnboundVariableError{Variable: item.Variable, Clause: c.Kind()}
		}
		cols = append(cols, queryir.AllColumns{Qualifier: d.aliases[item.Variable]})
	}
	d.emit(d.frame.selectOf(cols))
	return nil
}

// bindAlias returns the FROM alias for a MATCH element, generating one for
// anonymous elements, for SQL keywords and for variables that differ from an
// earlier alias only by case.
func (d *Desugarer) bindAlias(variable string) string {
	if variable != "" && !isReserved(variable) && !d.taken[strings.ToLower(variable)] {
		d.taken[strings.ToLower(variable)] = true
		d.aliases[variable] = variable
		return variable
	}
	alias := d.freshAlias()
	if variable != "" {
		d.aliases[variable] = alias
	}
	return alias
}

func (d *Desugarer) freshAlias() string {
	for {
		alias := fmt.Sprintf("%s%d", anonPrefix, d.anon)
		d.anon++
		if !d.used[alias] && !d.taken[alias] {
			d.taken[alias] = true
			return alias
		}
	}
}

// nodePredicates filters a node alias by label then properties. An empty
// alias yields unqualified columns.
func nodePredicates(alias string, n *ast.NodePattern) []queryir.Predicate {
	var preds []queryir.Predicate
	if n.Label != "" {
		preds = append(preds, &queryir.Equals{Left: queryir.Col(alias, queryir.ColLabel), Right: queryir.String(n.Label)})
	}
	return append(preds, propertyPredicates(alias, n.Properties)...)
}

// relPredicates filters an edge alias by type then properties.
func relPredicates(alias string, r *ast.RelPattern) []queryir.Predicate {
	var preds []queryir.Predicate
	if r.Type != "" {
		preds = append(preds, &queryir.Equals{Left: queryir.Col(alias, queryir.ColType), Right: queryir.String(r.Type)})
	}
	return append(preds, propertyPredicates(alias, r.Properties)...)
}

func propertyPredicates(alias string, props *ast.PropertyMap) []queryir.Predicate {
	var preds []queryir.Predicate
	for key, v := range props.All() {
		preds = append(preds, &queryir.Equals{
			Left:  queryir.JSONExtract{Column: queryir.Col(alias, queryir.ColProperties), Key: key},
			Right: queryir.Literal{Value: v},
		})
	}
	return preds
}

// edgeFilter is the unqualified filter for deleting the edges matched by r:
// type and properties, then each filtered endpoint as a subquery.
func edgeFilter(r *ast.RelPattern) queryir.Predicate {
	preds := relPredicates("", r)
	if p := queryir.Conjoin(nodePredicates("", r.Start)...); p != nil {
		preds = append(preds, &queryir.In{Left: queryir.Column{Name: queryir.ColSrcID}, Query: nodeIDs(p)})
	}
	if p := queryir.Conjoin(nodePredicates("", r.End)...); p != nil {
		preds = append(preds, &queryir.In{Left: queryir.Column{Name: queryir.ColDstID}, Query: nodeIDs(p)})
	}
	return queryir.Conjoin(preds...)
}

// incidentEdges filters the edges touching any node matching where. A nil
// where matches every edge.
func incidentEdges(where queryir.Predicate) queryir.Predicate {
	if where == nil {
		return nil
	}
	return &queryir.Or{Predicates: []queryir.Predicate{
		&queryir.In{Left: queryir.Column{Name: queryir.ColSrcID}, Query: nodeIDs(where)},
		&queryir.In{Left: queryir.Column{Name: queryir.ColDstID}, Query: nodeIDs(where)},
	}}
}

// tempIDs is SELECT id FROM temp.name.
func tempIDs(name string) *queryir.Select {
	return &queryir.Select{
		Columns: []queryir.Expr{queryir.Column{Name: queryir.ColID}},
		From:    []queryir.Source{&queryir.Table{Name: name, Temp: true}},
	}
}

// nodeIDs is SELECT id FROM nodes WHERE where.
func nodeIDs(where queryir.Predicate) *queryir.Select {
	return &queryir.Select{
		Columns: []queryir.Expr{queryir.Column{Name: queryir.ColID}},
		From:    []queryir.Source{&queryir.Table{Name: queryir.TableNodes}},
		Where:   where,
	}
}

func propertiesJSON(props *ast.PropertyMap) (string, error) {
	data, err := props.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode properties: %w", err)
	}
	return string(data), nil
}
