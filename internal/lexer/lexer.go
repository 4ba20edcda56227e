// Package lexer turns query text into tokens for the pattern parser.
//
// Keywords (MATCH, CREATE, DELETE, DETACH, RETURN, AS) are lexed as ordinary
// identifiers; the parser recognises them case-insensitively. The lexer never
// skips or guesses: any character outside the token set is a LexError.
package lexer

import (
	"iter"
	"strings"
	"unicode/utf8"

	plexer "github.com/alecthomas/participle/v2/lexer"

	"github.com/roach88/graphsql/internal/ast"
)

// Kind identifies the lexical class of a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	String
	Number
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Colon
	Comma
	Semicolon
	Dash
	Arrow        // ->
	ReverseArrow // <-, lexed only so the parser can reject it by name
)

var kindNames = map[Kind]string{
	EOF:          "end of input",
	Ident:        "identifier",
	String:       "string literal",
	Number:       "number literal",
	LParen:       "'('",
	RParen:       "')'",
	LBracket:     "'['",
	RBracket:     "']'",
	LBrace:       "'{'",
	RBrace:       "'}'",
	Colon:        "':'",
	Comma:        "','",
	Semicolon:    "';'",
	Dash:         "'-'",
	Arrow:        "'->'",
	ReverseArrow: "'<-'",
}

// String returns the name used in parse error messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown token"
}

// Token is one lexeme with its exact source text and byte offset.
// String tokens keep their quotes; use Unquote for the value.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
}

// Unquote returns the value of a String token: quotes stripped and each
// backslash escape \x replaced by x.
func (t Token) Unquote() string {
	body := strings.TrimSuffix(strings.TrimPrefix(t.Text, "'"), "'")
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	escaped := false
	for _, r := range body {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// definition is the rule table. Rules are tried in order, so the two-character
// arrows come before the single-character punctuation.
var definition = plexer.MustSimple([]plexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `'(?:[^'\\\r\n]|\\[^\r\n])*'`},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "ReverseArrow", Pattern: `<-`},
	{Name: "Punct", Pattern: `[()\[\]{}:,;-]`},
})

var (
	symbols    = definition.Symbols()
	whitespace = symbols["Whitespace"]
	ruleKinds  = map[plexer.TokenType]Kind{
		symbols["String"]:       String,
		symbols["Number"]:       Number,
		symbols["Ident"]:        Ident,
		symbols["Arrow"]:        Arrow,
		symbols["ReverseArrow"]: ReverseArrow,
	}
	punctKinds = map[string]Kind{
		"(": LParen,
		")": RParen,
		"[": LBracket,
		"]": RBracket,
		"{": LBrace,
		"}": RBrace,
		":": Colon,
		",": Comma,
		";": Semicolon,
		"-": Dash,
	}
)

// Tokens returns a lazy token sequence for src. Each range over the sequence
// re-lexes from the start. Whitespace is skipped and a final EOF token is
// yielded. On unrecognised input a *ast.LexError is yielded and the sequence
// ends.
func Tokens(src string) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		lx, err := definition.LexString("", src)
		if err != nil {
			yield(Token{}, &ast.LexError{Offset: 0, Char: firstRune(src, 0)})
			return
		}

		// The rule table is contiguous (whitespace is a token too), so a
		// failure always happens where the previous token ended.
		end := 0
		for {
			tok, err := lx.Next()
			if err != nil {
				yield(Token{}, &ast.LexError{Offset: end, Char: firstRune(src, end)})
				return
			}
			if tok.EOF() {
				yield(Token{Kind: EOF, Offset: len(src)}, nil)
				return
			}
			end = tok.Pos.Offset + len(tok.Value)
			if tok.Type == whitespace {
				continue
			}
			if i := invalidUTF8(tok.Value); i >= 0 {
				yield(Token{}, &ast.LexError{Offset: tok.Pos.Offset + i, Char: utf8.RuneError})
				return
			}
			if !yield(convert(tok), nil) {
				return
			}
		}
	}
}

// Lex collects the full token sequence for src, ending with EOF.
func Lex(src string) ([]Token, error) {
	var tokens []Token
	for tok, err := range Tokens(src) {
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func convert(tok plexer.Token) Token {
	kind, ok := ruleKinds[tok.Type]
	if !ok {
		kind = punctKinds[tok.Value]
	}
	return Token{Kind: kind, Text: tok.Value, Offset: tok.Pos.Offset}
}

// invalidUTF8 returns the offset of the first invalid UTF-8 byte in s, or -1.
func invalidUTF8(s string) int {
	if utf8.ValidString(s) {
		return -1
	}
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return i
			}
		}
	}
	return -1
}

func firstRune(src string, offset int) rune {
	if offset >= len(src) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(src[offset:])
	return r
}
