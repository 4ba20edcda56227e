package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Result is the outcome of one statement run by Apply.
type Result struct {
	SQL string

	// Columns and Rows are set for SELECT statements.
	Columns []string
	Rows    [][]any

	// RowsAffected is set for INSERT and DELETE statements.
	RowsAffected int64
}

// ExecError reports the statement of a batch that failed.
type ExecError struct {
	Index int // zero-based position in the batch
	SQL   string
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("statement %d (%s): %v", e.Index+1, e.SQL, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Apply runs stmts in order inside one transaction. On the first failure
// the transaction is rolled back and an *ExecError is returned.
func (s *Store) Apply(ctx context.Context, stmts []string) ([]Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	results := make([]Result, 0, len(stmts))
	for i, stmt := range stmts {
		log := s.log.WithField("statement", i+1)

		res, err := run(ctx, tx, stmt)
		if err != nil {
			log.WithError(err).Debug("statement failed")
			return nil, &ExecError{Index: i, SQL: stmt, Err: err}
		}
		log.WithField("rows", res.RowsAffected+int64(len(res.Rows))).Debug("statement applied")
		results = append(results, res)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return results, nil
}

// run executes a single statement, reading rows for SELECT.
func run(ctx context.Context, tx *sql.Tx, stmt string) (Result, error) {
	if !isQuery(stmt) {
		res, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return Result{}, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Result{}, fmt.Errorf("rows affected: %w", err)
		}
		return Result{SQL: stmt, RowsAffected: n}, nil
	}

	rows, err := tx.QueryContext(ctx, stmt)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("columns: %w", err)
	}

	result := Result{SQL: stmt, Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

func isQuery(stmt string) bool {
	head := strings.TrimSpace(stmt)
	return len(head) >= 6 && strings.EqualFold(head[:6], "SELECT")
}

// CountNodes returns the number of rows in nodes.
func (s *Store) CountNodes(ctx context.Context) (int, error) {
	return s.count(ctx, "nodes")
}

// CountEdges returns the number of rows in edges.
func (s *Store) CountEdges(ctx context.Context) (int, error) {
	return s.count(ctx, "edges")
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// OrphanEdges returns the number of edges whose source or destination node
// no longer exists.
func (s *Store) OrphanEdges(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM edges
		WHERE src_id NOT IN (SELECT id FROM nodes)
		   OR dst_id NOT IN (SELECT id FROM nodes)
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count orphan edges: %w", err)
	}
	return n, nil
}
