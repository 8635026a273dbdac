package sqlx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Stmt wraps *sqlx.Stmt. The statement was annotated when it was prepared;
// executions are traced. query is the statement as written by the caller.
type Stmt struct {
	*sqlx.Stmt
	cfg   *config
	query string
}

func (s *Stmt) observe(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	return s.cfg.observe(ctx, sqlxSpanName(method, s.query), s.query, extractOperation(s.query), fn)
}

// GetContext executes the prepared statement for a single row.
func (s *Stmt) GetContext(ctx context.Context, dest interface{}, args ...interface{}) error {
	return s.observe(ctx, "sqlx.Stmt.Get", func(ctx context.Context) error {
		return s.Stmt.GetContext(ctx, dest, args...)
	})
}

// SelectContext executes the prepared statement for multiple rows.
func (s *Stmt) SelectContext(ctx context.Context, dest interface{}, args ...interface{}) error {
	return s.observe(ctx, "sqlx.Stmt.Select", func(ctx context.Context) error {
		return s.Stmt.SelectContext(ctx, dest, args...)
	})
}

// ExecContext executes the prepared statement.
func (s *Stmt) ExecContext(ctx context.Context, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	err := s.observe(ctx, "sqlx.Stmt.Exec", func(ctx context.Context) error {
		var err error
		result, err = s.Stmt.ExecContext(ctx, args...)
		return err
	})
	return result, err
}

// QueryContext executes the prepared statement and returns rows.
func (s *Stmt) QueryContext(ctx context.Context, args ...interface{}) (*sql.Rows, error) {
	var rows *sql.Rows
	err := s.observe(ctx, "sqlx.Stmt.Query", func(ctx context.Context) error {
		var err error
		rows, err = s.Stmt.QueryContext(ctx, args...)
		return err
	})
	return rows, err
}

// QueryxContext executes the prepared statement and returns sqlx.Rows.
func (s *Stmt) QueryxContext(ctx context.Context, args ...interface{}) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := s.observe(ctx, "sqlx.Stmt.Queryx", func(ctx context.Context) error {
		var err error
		rows, err = s.Stmt.QueryxContext(ctx, args...)
		return err
	})
	return rows, err
}

// QueryRowxContext executes the prepared statement for a single sqlx.Row.
func (s *Stmt) QueryRowxContext(ctx context.Context, args ...interface{}) *sqlx.Row {
	var row *sqlx.Row
	_ = s.observe(ctx, "sqlx.Stmt.QueryRowx", func(ctx context.Context) error {
		row = s.Stmt.QueryRowxContext(ctx, args...)
		return row.Err()
	})
	return row
}

// Unsafe returns a version of Stmt that silently ignores missing fields.
func (s *Stmt) Unsafe() *Stmt {
	return &Stmt{
		Stmt:  s.Stmt.Unsafe(),
		cfg:   s.cfg,
		query: s.query,
	}
}

// NamedStmt wraps *sqlx.NamedStmt. Like Stmt, it was annotated when
// prepared.
type NamedStmt struct {
	*sqlx.NamedStmt
	cfg   *config
	query string
}

func (ns *NamedStmt) observe(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	return ns.cfg.observe(ctx, sqlxSpanName(method, ns.query), ns.query, extractOperation(ns.query), fn)
}

// GetContext executes the named statement for a single row.
func (ns *NamedStmt) GetContext(ctx context.Context, dest interface{}, arg interface{}) error {
	return ns.observe(ctx, "sqlx.NamedStmt.Get", func(ctx context.Context) error {
		return ns.NamedStmt.GetContext(ctx, dest, arg)
	})
}

// SelectContext executes the named statement for multiple rows.
func (ns *NamedStmt) SelectContext(ctx context.Context, dest interface{}, arg interface{}) error {
	return ns.observe(ctx, "sqlx.NamedStmt.Select", func(ctx context.Context) error {
		return ns.NamedStmt.SelectContext(ctx, dest, arg)
	})
}

// ExecContext executes the named statement.
func (ns *NamedStmt) ExecContext(ctx context.Context, arg interface{}) (sql.Result, error) {
	var result sql.Result
	err := ns.observe(ctx, "sqlx.NamedStmt.Exec", func(ctx context.Context) error {
		var err error
		result, err = ns.NamedStmt.ExecContext(ctx, arg)
		return err
	})
	return result, err
}

// QueryxContext executes the named statement and returns sqlx.Rows.
func (ns *NamedStmt) QueryxContext(ctx context.Context, arg interface{}) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := ns.observe(ctx, "sqlx.NamedStmt.Queryx", func(ctx context.Context) error {
		var err error
		rows, err = ns.NamedStmt.QueryxContext(ctx, arg)
		return err
	})
	return rows, err
}

// QueryRowxContext executes the named statement for a single sqlx.Row.
func (ns *NamedStmt) QueryRowxContext(ctx context.Context, arg interface{}) *sqlx.Row {
	var row *sqlx.Row
	_ = ns.observe(ctx, "sqlx.NamedStmt.QueryRowx", func(ctx context.Context) error {
		row = ns.NamedStmt.QueryRowxContext(ctx, arg)
		return row.Err()
	})
	return row
}

// MustExecContext executes the named statement and panics on error.
func (ns *NamedStmt) MustExecContext(ctx context.Context, arg interface{}) sql.Result {
	result, err := ns.ExecContext(ctx, arg)
	if err != nil {
		panic(err)
	}
	return result
}

// Unsafe returns a version of NamedStmt that silently ignores missing fields.
func (ns *NamedStmt) Unsafe() *NamedStmt {
	return &NamedStmt{
		NamedStmt: ns.NamedStmt.Unsafe(),
		cfg:       ns.cfg,
		query:     ns.query,
	}
}
