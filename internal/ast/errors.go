package ast

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrorCode categorizes translation errors.
type ErrorCode string

const (
	// ErrCodeLex indicates input the lexer could not tokenize.
	ErrCodeLex ErrorCode = "LEX_ERROR"

	// ErrCodeParse indicates a token sequence outside the grammar.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeDuplicatePropertyKey indicates a property map repeating a key.
	ErrCodeDuplicatePropertyKey ErrorCode = "DUPLICATE_PROPERTY_KEY"

	// ErrCodeUnboundVariable indicates a reference to a variable no earlier
	// clause introduced.
	ErrCodeUnboundVariable ErrorCode = "UNBOUND_VARIABLE"

	// ErrCodeUnsupportedPattern indicates valid syntax outside the supported
	// subset (multi-hop, reverse arrow, multiple labels, ...).
	ErrCodeUnsupportedPattern ErrorCode = "UNSUPPORTED_PATTERN"
)

// TranslationError is implemented by every error the translator returns.
// All translation errors are terminal for the statement.
type TranslationError interface {
	error
	Code() ErrorCode
}

// CodeOf returns the code of the first TranslationError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var te TranslationError
	if errors.As(err, &te) {
		return te.Code(), true
	}
	return "", false
}

// LexError reports a character the lexer does not recognise.
type LexError struct {
	Offset int
	Char   rune
}

// Code implements TranslationError.
func (e *LexError) Code() ErrorCode { return ErrCodeLex }

func (e *LexError) Error() string {
	switch e.Char {
	case '\'':
		return fmt.Sprintf("%s: unterminated string literal at offset %d", ErrCodeLex, e.Offset)
	case utf8.RuneError:
		return fmt.Sprintf("%s: invalid UTF-8 at offset %d", ErrCodeLex, e.Offset)
	}
	return fmt.Sprintf("%s: unexpected character %q at offset %d", ErrCodeLex, e.Char, e.Offset)
}

// ParseError reports a token that does not fit the production being parsed.
type ParseError struct {
	Offset   int
	Expected []string // e.g. "')'", "identifier"
	Found    string   // source text of the offending token, or "end of input"
	Context  string   // construct being parsed, e.g. "node pattern"
}

// Code implements TranslationError.
func (e *ParseError) Code() ErrorCode { return ErrCodeParse }

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: expected %s in %s, found %s at offset %d",
		ErrCodeParse, joinAlternatives(e.Expected), e.Context, e.Found, e.Offset)
}

// DuplicatePropertyKeyError reports a key given twice in one property map.
type DuplicatePropertyKeyError struct {
	Key    string
	Offset int
}

// Code implements TranslationError.
func (e *DuplicatePropertyKeyError) Code() ErrorCode { return ErrCodeDuplicatePropertyKey }

func (e *DuplicatePropertyKeyError) Error() string {
	return fmt.Sprintf("%s: property %q given more than once at offset %d", ErrCodeDuplicatePropertyKey, e.Key, e.Offset)
}

// UnboundVariableError reports a clause referencing an unknown variable.
type UnboundVariableError struct {
	Variable string
	Clause   ClauseKind
}

// Code implements TranslationError.
func (e *UnboundVariableError) Code() ErrorCode { return ErrCodeUnboundVariable }

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("%s: variable %q referenced by %s is not bound by a preceding MATCH", ErrCodeUnboundVariable, e.Variable, e.Clause)
}

// UnsupportedPatternError reports a shape outside the translatable subset.
type UnsupportedPatternError struct {
	Reason string
	Offset int
}

// Code implements TranslationError.
func (e *UnsupportedPatternError) Code() ErrorCode { return ErrCodeUnsupportedPattern }

func (e *UnsupportedPatternError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d", ErrCodeUnsupportedPattern, e.Reason, e.Offset)
}

// Unsupported creates an UnsupportedPatternError with a formatted reason.
func Unsupported(offset int, format string, args ...any) *UnsupportedPatternError {
	return &UnsupportedPatternError{
		Reason: fmt.Sprintf(format, args...),
		Offset: offset,
	}
}

// joinAlternatives renders ["a", "b", "c"] as "a, b or c".
func joinAlternatives(alts []string) string {
	switch len(alts) {
	case 0:
		return "nothing"
	case 1:
		return alts[0]
	default:
		return strings.Join(alts[:len(alts)-1], ", ") + " or " + alts[len(alts)-1]
	}
}
