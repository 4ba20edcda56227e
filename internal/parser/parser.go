// Package parser builds a Statement tree from lexer tokens.
//
// The parser is recursive descent with one token of lookahead; each
// production reports its own ParseError naming the construct being parsed.
// Shapes that are syntactically recognisable but outside the supported
// subset (second hop, reverse or undirected arrows, multiple labels,
// unterminated brackets) are reported as UnsupportedPatternError.
package parser

import (
	"strings"

	"github.com/roach88/graphsql/internal/ast"
	"github.com/roach88/graphsql/internal/lexer"
)

// Clause keywords, matched case-insensitively.
const (
	kwMatch  = "MATCH"
	kwCreate = "CREATE"
	kwDelete = "DELETE"
	kwDetach = "DETACH"
	kwReturn = "RETURN"
	kwAs     = "AS"
)

var clauseKeywords = []string{kwMatch, kwCreate, kwDetach, kwDelete, kwReturn}

// Parser consumes the token sequence of one script.
type Parser struct {
	tokens []lexer.Token
	pos    int
	open   []lexer.Token // unclosed brackets, innermost last
}

// New creates a Parser over tokens. The slice must end with an EOF token,
// as produced by lexer.Lex.
func New(tokens []lexer.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOF {
		end := 0
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			end = last.Offset + len(last.Text)
		}
		tokens = append(tokens, lexer.Token{Kind: lexer.EOF, Offset: end})
	}
	return &Parser{tokens: tokens}
}

// Parse parses exactly one statement; a single trailing ';' is allowed.
func Parse(tokens []lexer.Token) (*ast.Statement, error) {
	p := New(tokens)
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	p.accept(lexer.Semicolon)
	if !p.at(lexer.EOF) {
		return nil, p.errorf("statement", "end of input")
	}
	return stmt, nil
}

// ParseString lexes and parses one statement.
func ParseString(src string) (*ast.Statement, error) {
	tokens, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// ParseScript lexes and parses one or more ';'-separated statements.
// The script is rejected as a whole if any statement fails.
func ParseScript(src string) ([]*ast.Statement, error) {
	tokens, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	p := New(tokens)

	var stmts []*ast.Statement
	for {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		if p.accept(lexer.Semicolon) {
			if p.at(lexer.EOF) {
				return stmts, nil
			}
			continue
		}
		if p.at(lexer.EOF) {
			return stmts, nil
		}
		return nil, p.errorf("script", "';'", "end of input")
	}
}

// parseStatement parses Clause+ up to ';' or end of input.
// RETURN must be the last clause of a statement.
func (p *Parser) parseStatement() (*ast.Statement, error) {
	stmt := &ast.Statement{}
	for {
		clause, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		stmt.Clauses = append(stmt.Clauses, clause)

		if p.at(lexer.EOF) || p.at(lexer.Semicolon) {
			return stmt, nil
		}
		if _, ok := clause.(*ast.ReturnClause); ok {
			return nil, p.errorf("statement after RETURN", "';'", "end of input")
		}
	}
}

// parseClause dispatches on the clause keyword.
func (p *Parser) parseClause() (ast.Clause, error) {
	switch {
	case p.atKeyword(kwMatch):
		return p.parseMatch()
	case p.atKeyword(kwCreate):
		return p.parseCreate()
	case p.atKeyword(kwDetach), p.atKeyword(kwDelete):
		return p.parseDelete()
	case p.atKeyword(kwReturn):
		return p.parseReturn()
	default:
		return nil, p.errorf("statement", clauseKeywords...)
	}
}

// parseMatch parses MATCH PatternGraph.
func (p *Parser) parseMatch() (*ast.MatchClause, error) {
	kw := p.advance()
	parts, err := p.parsePatternGraph("MATCH pattern")
	if err != nil {
		return nil, err
	}
	return &ast.MatchClause{Pattern: parts, Offset: kw.Offset}, nil
}

// parseCreate parses CREATE PatternGraph.
func (p *Parser) parseCreate() (*ast.CreateClause, error) {
	kw := p.advance()
	parts, err := p.parsePatternGraph("CREATE pattern")
	if err != nil {
		return nil, err
	}
	return &ast.CreateClause{Pattern: parts, Offset: kw.Offset}, nil
}

// parseDelete parses [DETACH] DELETE Identifier ("," Identifier)*.
func (p *Parser) parseDelete() (*ast.DeleteClause, error) {
	kw := p.current()
	clause := &ast.DeleteClause{Offset: kw.Offset}
	if p.atKeyword(kwDetach) {
		p.advance()
		clause.Detach = true
		if !p.atKeyword(kwDelete) {
			return nil, p.errorf("DETACH DELETE clause", "'"+kwDelete+"'")
		}
	}
	p.advance()

	for {
		v, err := p.expect(lexer.Ident, "DELETE clause")
		if err != nil {
			return nil, err
		}
		clause.Variables = append(clause.Variables, v.Text)
		if !p.accept(lexer.Comma) {
			return clause, nil
		}
	}
}

// parseReturn parses RETURN ReturnItem ("," ReturnItem)*.
func (p *Parser) parseReturn() (*ast.ReturnClause, error) {
	kw := p.advance()
	clause := &ast.ReturnClause{Offset: kw.Offset}
	for {
		item, err := p.parseReturnItem()
		if err != nil {
			return nil, err
		}
		clause.Items = append(clause.Items, item)
		if !p.accept(lexer.Comma) {
			return clause, nil
		}
	}
}

// parseReturnItem parses Identifier | Value ["AS" Identifier].
func (p *Parser) parseReturnItem() (ast.ReturnItem, error) {
	tok := p.current()
	switch tok.Kind {
	case lexer.Ident:
		p.advance()
		if p.atKeyword(kwAs) {
			return ast.ReturnItem{}, ast.Unsupported(p.current().Offset, "aliasing variable %q with AS is not supported", tok.Text)
		}
		return ast.ReturnItem{Variable: tok.Text}, nil
	case lexer.String, lexer.Number:
		item := ast.ReturnItem{Literal: p.parseValue()}
		if p.atKeyword(kwAs) {
			p.advance()
			alias, err := p.expect(lexer.Ident, "RETURN alias")
			if err != nil {
				return ast.ReturnItem{}, err
			}
			item.Alias = alias.Text
		}
		return item, nil
	default:
		return ast.ReturnItem{}, p.errorf("RETURN clause", "identifier", "string literal", "number literal")
	}
}

// parsePatternGraph parses PatternPart ("," PatternPart)*.
func (p *Parser) parsePatternGraph(context string) ([]*ast.PatternPart, error) {
	var parts []*ast.PatternPart
	for {
		part, err := p.parsePatternPart(context)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
		if !p.accept(lexer.Comma) {
			return parts, nil
		}
	}
}

// parsePatternPart parses NodePattern [ "-" "[" RelBody "]" "->" NodePattern ].
func (p *Parser) parsePatternPart(context string) (*ast.PatternPart, error) {
	start, err := p.parseNode(context)
	if err != nil {
		return nil, err
	}

	switch p.current().Kind {
	case lexer.ReverseArrow:
		return nil, ast.Unsupported(p.current().Offset, "reverse relationship arrows (<-) are not supported")
	case lexer.Arrow:
		return nil, p.errorf(context, "'-['")
	case lexer.Dash:
	default:
		return &ast.PatternPart{Node: start}, nil
	}

	rel, err := p.parseRel()
	if err != nil {
		return nil, err
	}
	end, err := p.parseNode(context)
	if err != nil {
		return nil, err
	}
	rel.Start, rel.End = start, end

	switch p.current().Kind {
	case lexer.Dash, lexer.ReverseArrow, lexer.Arrow:
		return nil, ast.Unsupported(p.current().Offset, "multi-hop patterns are not supported; a pattern may contain at most one relationship")
	}
	return &ast.PatternPart{Rel: rel}, nil
}

// parseNode parses "(" [Identifier] [":" Identifier] [PropertyMap] ")".
func (p *Parser) parseNode(context string) (*ast.NodePattern, error) {
	open, err := p.expect(lexer.LParen, context)
	if err != nil {
		return nil, err
	}
	p.open = append(p.open, open)
	node := &ast.NodePattern{Offset: open.Offset}

	if p.at(lexer.Ident) {
		node.Variable = p.advance().Text
	}
	if node.Label, err = p.parseLabel("node pattern", "label"); err != nil {
		return nil, err
	}
	if p.at(lexer.LBrace) {
		if node.Properties, err = p.parsePropertyMap(); err != nil {
			return nil, err
		}
	}
	if err := p.close(lexer.RParen, "node pattern", "identifier", "':'", "'{'", "')'"); err != nil {
		return nil, err
	}
	return node, nil
}

// parseRel parses "-" "[" RelBody "]" "->" where
// RelBody := [Identifier] [":" Identifier] [PropertyMap].
func (p *Parser) parseRel() (*ast.RelPattern, error) {
	dash := p.advance()
	rel := &ast.RelPattern{Offset: dash.Offset}

	open, err := p.expect(lexer.LBracket, "relationship pattern")
	if err != nil {
		return nil, err
	}
	p.open = append(p.open, open)
	if p.at(lexer.Ident) {
		rel.Variable = p.advance().Text
	}
	if rel.Type, err = p.parseLabel("relationship pattern", "relationship type"); err != nil {
		return nil, err
	}
	if p.at(lexer.LBrace) {
		if rel.Properties, err = p.parsePropertyMap(); err != nil {
			return nil, err
		}
	}
	if err := p.close(lexer.RBracket, "relationship pattern", "identifier", "':'", "'{'", "']'"); err != nil {
		return nil, err
	}

	switch p.current().Kind {
	case lexer.Arrow:
		p.advance()
		return rel, nil
	case lexer.Dash:
		return nil, ast.Unsupported(p.current().Offset, "undirected relationships are not supported; use ->")
	default:
		return nil, p.errorf("relationship pattern", "'->'")
	}
}

// parseLabel parses [":" Identifier]. A second ":" is rejected since only a
// single label or type is supported.
func (p *Parser) parseLabel(context, what string) (string, error) {
	if !p.accept(lexer.Colon) {
		return "", nil
	}
	name, err := p.expect(lexer.Ident, context)
	if err != nil {
		return "", err
	}
	if p.at(lexer.Colon) {
		return "", ast.Unsupported(p.current().Offset, "multiple labels are not supported; %s %q already given", what, name.Text)
	}
	return name.Text, nil
}

// parsePropertyMap parses "{" [Identifier ":" Value ("," Identifier ":" Value)*] "}".
func (p *Parser) parsePropertyMap() (*ast.PropertyMap, error) {
	p.open = append(p.open, p.advance())
	props := ast.NewPropertyMap()

	if p.at(lexer.RBrace) {
		return props, p.close(lexer.RBrace, "property map")
	}
	for {
		key, err := p.expect(lexer.Ident, "property map")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon, "property map"); err != nil {
			return nil, err
		}
		if !p.at(lexer.String) && !p.at(lexer.Number) {
			return nil, p.errorf("value of property "+quote(key.Text), "string literal", "number literal")
		}
		if !props.Set(key.Text, p.parseValue()) {
			return nil, &ast.DuplicatePropertyKeyError{Key: key.Text, Offset: key.Offset}
		}

		if p.accept(lexer.Comma) {
			continue
		}
		if err := p.close(lexer.RBrace, "property map", "','", "'}'"); err != nil {
			return nil, err
		}
		return props, nil
	}
}

// parseValue consumes a String or Number token.
func (p *Parser) parseValue() ast.Value {
	tok := p.advance()
	if tok.Kind == lexer.Number {
		return ast.NumberLiteral(tok.Text)
	}
	return ast.StringLiteral(tok.Unquote())
}

// close consumes the closing token of the innermost open bracket.
func (p *Parser) close(kind lexer.Kind, context string, expected ...string) error {
	if !p.accept(kind) {
		return p.errorf(context, expected...)
	}
	p.open = p.open[:len(p.open)-1]
	return nil
}

// current returns the lookahead token.
func (p *Parser) current() lexer.Token {
	return p.tokens[p.pos]
}

// advance consumes and returns the lookahead token. EOF is never consumed.
func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) at(kind lexer.Kind) bool {
	return p.current().Kind == kind
}

func (p *Parser) atKeyword(kw string) bool {
	tok := p.current()
	return tok.Kind == lexer.Ident && strings.EqualFold(tok.Text, kw)
}

// accept consumes the lookahead if it is of kind.
func (p *Parser) accept(kind lexer.Kind) bool {
	if p.at(kind) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of kind or reports a ParseError.
func (p *Parser) expect(kind lexer.Kind, context string) (lexer.Token, error) {
	if !p.at(kind) {
		return lexer.Token{}, p.errorf(context, kind.String())
	}
	return p.advance(), nil
}

// errorf builds a ParseError at the lookahead token. Reaching end of input
// inside a bracket is reported as an unterminated pattern instead.
func (p *Parser) errorf(context string, expected ...string) error {
	tok := p.current()
	if tok.Kind == lexer.EOF && len(p.open) > 0 {
		open := p.open[len(p.open)-1]
		return ast.Unsupported(open.Offset, "unterminated %s", open.Kind)
	}
	found := tok.Kind.String()
	if tok.Kind != lexer.EOF {
		found = quote(tok.Text)
	}
	return &ast.ParseError{
		Offset:   tok.Offset,
		Expected: expected,
		Found:    found,
		Context:  context,
	}
}

func quote(s string) string {
	return "'" + s + "'"
}
