// Package translate is the entry point of the pattern-to-SQL pipeline:
//
//	text → lexer → parser → binder → desugar → querysql → []string
//
// Each call is independent; a Translator holds no per-call state and is safe
// for concurrent use. Errors from any stage are returned unchanged, so
// callers can inspect them with errors.As or ast.CodeOf.
package translate

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/roach88/graphsql/internal/ast"
	"github.com/roach88/graphsql/internal/binder"
	"github.com/roach88/graphsql/internal/desugar"
	"github.com/roach88/graphsql/internal/lexer"
	"github.com/roach88/graphsql/internal/parser"
	"github.com/roach88/graphsql/internal/querysql"
)

// Translator runs the pipeline.
type Translator struct {
	log      logrus.FieldLogger
	compiler *querysql.SQLCompiler
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger for per-stage debug entries.
func WithLogger(log logrus.FieldLogger) Option {
	return func(t *Translator) {
		t.log = log
	}
}

// New creates a Translator. Without WithLogger, log output is discarded.
func New(opts ...Option) *Translator {
	t := &Translator{compiler: querysql.NewSQLCompiler()}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		t.log = silent
	}
	t.log = t.log.WithField("component", "translate")
	return t
}

var (
	defaultOnce       sync.Once
	defaultTranslator *Translator
)

// Translate translates one statement with a default Translator.
func Translate(text string) ([]string, error) {
	defaultOnce.Do(func() {
		defaultTranslator = New()
	})
	return defaultTranslator.Translate(text)
}

// Translate translates exactly one statement (a trailing ';' is allowed)
// into semicolon-terminated SQL statements, in execution order.
func (t *Translator) Translate(text string) ([]string, error) {
	log := t.log.WithField("query", text)

	tokens, err := lexer.Lex(text)
	if err != nil {
		return nil, t.fail(log, "lex", err)
	}
	log.WithField("tokens", len(tokens)).Debug("lexed")

	stmt, err := parser.Parse(tokens)
	if err != nil {
		return nil, t.fail(log, "parse", err)
	}
	return t.lower(log, stmt)
}

// TranslateScript translates ';'-separated statements. The result holds one
// SQL list per statement. The script is rejected as a whole on the first
// error.
func (t *Translator) TranslateScript(text string) ([][]string, error) {
	log := t.log.WithField("script", true)

	stmts, err := parser.ParseScript(text)
	if err != nil {
		return nil, t.fail(log, "parse", err)
	}
	log.WithField("statements", len(stmts)).Debug("parsed script")

	out := make([][]string, 0, len(stmts))
	for i, stmt := range stmts {
		sqls, err := t.lower(log.WithField("statement", i+1), stmt)
		if err != nil {
			return nil, err
		}
		out = append(out, sqls)
	}
	return out, nil
}

// Result is the outcome of translating one query with TranslateAll.
type Result struct {
	Query string
	SQL   []string
	Err   error
}

// TranslateAll translates independent queries in parallel. Results are in
// input order; a failing query does not affect the others.
func (t *Translator) TranslateAll(queries []string) []Result {
	results := make([]Result, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sqls, err := t.Translate(q)
			results[i] = Result{Query: q, SQL: sqls, Err: err}
		}()
	}
	wg.Wait()

	return results
}

// lower runs bind, desugar and codegen on a parsed statement.
func (t *Translator) lower(log logrus.FieldLogger, stmt *ast.Statement) ([]string, error) {
	log.WithField("clauses", len(stmt.Clauses)).Debug("parsed")

	scope, err := binder.Bind(stmt)
	if err != nil {
		return nil, t.fail(log, "bind", err)
	}
	log.WithField("variables", scope.Variables()).Debug("bound")

	ir, err := desugar.Desugar(stmt, scope)
	if err != nil {
		return nil, t.fail(log, "desugar", err)
	}

	sqls, err := t.compiler.CompileAll(ir)
	if err != nil {
		return nil, t.fail(log, "codegen", err)
	}
	log.WithField("statements", len(sqls)).Debug("translated")
	return sqls, nil
}

func (t *Translator) fail(log logrus.FieldLogger, stage string, err error) error {
	entry := log.WithField("stage", stage).WithError(err)
	if code, ok := ast.CodeOf(err); ok {
		entry = entry.WithField("code", code)
	}
	entry.Debug("translation failed")
	return err
}
