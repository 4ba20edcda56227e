package cli

import (
	"errors"

	"github.com/roach88/graphsql/internal/ast"
	"github.com/roach88/graphsql/internal/store"
)

// CLI error codes.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeReadFailed = "E002" // Input could not be read
	ErrCodeNoInput    = "E003" // No query given
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeDBFailed   = "E006" // Database could not be opened

	ErrCodeLex          = "E010" // LEX_ERROR
	ErrCodeParse        = "E011" // PARSE_ERROR
	ErrCodeDuplicateKey = "E012" // DUPLICATE_PROPERTY_KEY
	ErrCodeUnbound      = "E013" // UNBOUND_VARIABLE
	ErrCodeUnsupported  = "E014" // UNSUPPORTED_PATTERN
	ErrCodeExecFailed   = "E020" // SQL rejected by SQLite
	ErrCodeTestFailed   = "E030" // Suite case failed
)

var translationCodes = map[ast.ErrorCode]string{
	ast.ErrCodeLex:                  ErrCodeLex,
	ast.ErrCodeParse:                ErrCodeParse,
	ast.ErrCodeDuplicatePropertyKey: ErrCodeDuplicateKey,
	ast.ErrCodeUnboundVariable:      ErrCodeUnbound,
	ast.ErrCodeUnsupportedPattern:   ErrCodeUnsupported,
}

// errorCode maps an error to its CLI code.
func errorCode(err error) string {
	if code, ok := ast.CodeOf(err); ok {
		if c, ok := translationCodes[code]; ok {
			return c
		}
	}
	var execErr *store.ExecError
	if errors.As(err, &execErr) {
		return ErrCodeExecFailed
	}
	return ErrCodeGeneric
}
