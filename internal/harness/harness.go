package harness

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/roach88/graphsql/internal/ast"
	"github.com/roach88/graphsql/internal/store"
	"github.com/roach88/graphsql/internal/translate"
)

// Harness runs suites through a Translator.
type Harness struct {
	translator *translate.Translator
	log        logrus.FieldLogger
	filter     string
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger for per-case entries.
func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Harness) {
		h.log = log
	}
}

// WithTranslator sets the Translator under test.
func WithTranslator(t *translate.Translator) Option {
	return func(h *Harness) {
		h.translator = t
	}
}

// WithFilter runs only cases whose name contains filter.
func WithFilter(filter string) Option {
	return func(h *Harness) {
		h.filter = filter
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		h.log = silent
	}
	h.log = h.log.WithField("component", "harness")
	if h.translator == nil {
		h.translator = translate.New(translate.WithLogger(h.log))
	}
	return h
}

// Run executes a suite with a default Harness.
func Run(suite *Suite) (*Result, error) {
	return New().Run(context.Background(), suite)
}

// Run executes every case of suite in order. Case mismatches are reported
// in the Result; an error is returned only when a case could not be run,
// e.g. a failing setup query.
func (h *Harness) Run(ctx context.Context, suite *Suite) (*Result, error) {
	log := h.log.WithField("suite", suite.Name)
	result := NewResult(suite.Name)

	for _, c := range suite.Cases {
		if h.filter != "" && !strings.Contains(c.Name, h.filter) {
			continue
		}

		cr, err := h.runCase(ctx, suite, c)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
		log.WithFields(logrus.Fields{"case": c.Name, "pass": cr.Pass}).Debug("case finished")
		result.Add(cr)
	}
	return result, nil
}

func (h *Harness) runCase(ctx context.Context, suite *Suite, c Case) (CaseResult, error) {
	cr := CaseResult{Name: c.Name, Query: c.Query, Pass: true}

	sqls, err := h.translator.Translate(c.Query)
	if err != nil {
		cr.Message = err.Error()
		if code, ok := ast.CodeOf(err); ok {
			cr.Code = string(code)
		}
		switch {
		case c.Error == "":
			cr.AddError(fmt.Sprintf("unexpected error: %v", err))
		case c.Error != cr.Code:
			cr.AddError(fmt.Sprintf("error code = %s, want %s", cr.Code, c.Error))
		}
		return cr, nil
	}
	cr.SQL = sqls

	if c.Error != "" {
		cr.AddError(fmt.Sprintf("expected %s, got %d statements", c.Error, len(sqls)))
		return cr, nil
	}
	if len(c.Expect) > 0 && !slices.Equal(sqls, c.Expect) {
		cr.AddError(fmt.Sprintf("sql mismatch:\n  got:  %s\n  want: %s",
			strings.Join(sqls, "\n        "), strings.Join(c.Expect, "\n        ")))
	}

	if suite.Execute {
		if err := h.execute(ctx, suite, c, &cr); err != nil {
			return cr, err
		}
	}
	return cr, nil
}

// execute applies the setup and the case SQL to a fresh scratch database
// and checks the row expectations.
func (h *Harness) execute(ctx context.Context, suite *Suite, c Case, cr *CaseResult) error {
	st, err := store.OpenMemory(store.WithLogger(h.log))
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	for _, q := range suite.Setup {
		sqls, err := h.translator.Translate(q)
		if err != nil {
			return fmt.Errorf("setup %q: %w", q, err)
		}
		if _, err := st.Apply(ctx, sqls); err != nil {
			return fmt.Errorf("setup %q: %w", q, err)
		}
	}

	results, err := st.Apply(ctx, cr.SQL)
	if err != nil {
		cr.AddError(fmt.Sprintf("execution failed: %v", err))
		return nil
	}

	if c.Rows != nil {
		rows := -1
		for _, r := range results {
			if r.Columns != nil {
				rows = len(r.Rows)
			}
		}
		if rows != *c.Rows {
			cr.AddError(fmt.Sprintf("rows = %d, want %d", rows, *c.Rows))
		}
	}
	if err := checkCount(ctx, cr, "nodes", c.Nodes, st.CountNodes); err != nil {
		return err
	}
	if err := checkCount(ctx, cr, "edges", c.Edges, st.CountEdges); err != nil {
		return err
	}

	orphans, err := st.OrphanEdges(ctx)
	if err != nil {
		return err
	}
	if orphans > 0 {
		cr.AddError(fmt.Sprintf("%d orphan edges left behind", orphans))
	}
	return nil
}

func checkCount(ctx context.Context, cr *CaseResult, table string, want *int, count func(context.Context) (int, error)) error {
	if want == nil {
		return nil
	}
	got, err := count(ctx)
	if err != nil {
		return err
	}
	if got != *want {
		cr.AddError(fmt.Sprintf("%s = %d, want %d", table, got, *want))
	}
	return nil
}
