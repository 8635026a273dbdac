package sqlx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Tx wraps *sqlx.Tx. Statements issued through its methods are annotated.
type Tx struct {
	*sqlx.Tx
	cfg *config
}

// GetContext executes a query that returns at most one row and scans into dest.
func (tx *Tx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return tx.cfg.statement(ctx, "sqlx.Tx.Get", query, func(ctx context.Context, query string) error {
		return tx.Tx.GetContext(ctx, dest, query, args...)
	})
}

// Get is GetContext with a background context.
func (tx *Tx) Get(dest interface{}, query string, args ...interface{}) error {
	return tx.GetContext(context.Background(), dest, query, args...)
}

// SelectContext executes a query and scans all rows into dest.
func (tx *Tx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return tx.cfg.statement(ctx, "sqlx.Tx.Select", query, func(ctx context.Context, query string) error {
		return tx.Tx.SelectContext(ctx, dest, query, args...)
	})
}

// Select is SelectContext with a background context.
func (tx *Tx) Select(dest interface{}, query string, args ...interface{}) error {
	return tx.SelectContext(context.Background(), dest, query, args...)
}

// NamedExecContext executes a named query within the transaction.
func (tx *Tx) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	var result sql.Result
	err := tx.cfg.statement(ctx, "sqlx.Tx.NamedExec", query, func(ctx context.Context, query string) error {
		var err error
		result, err = tx.Tx.NamedExecContext(ctx, query, arg)
		return err
	})
	return result, err
}

// NamedExec is NamedExecContext with a background context.
func (tx *Tx) NamedExec(query string, arg interface{}) (sql.Result, error) {
	return tx.NamedExecContext(context.Background(), query, arg)
}

// NamedQuery executes a named query within the transaction.
// sqlx.Tx has no context variant of NamedQuery.
func (tx *Tx) NamedQuery(query string, arg interface{}) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := tx.cfg.statement(context.Background(), "sqlx.Tx.NamedQuery", query,
		func(_ context.Context, query string) error {
			var err error
			rows, err = tx.Tx.NamedQuery(query, arg)
			return err
		})
	return rows, err
}

// QueryxContext executes a query and returns sqlx.Rows.
func (tx *Tx) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := tx.cfg.statement(ctx, "sqlx.Tx.Queryx", query, func(ctx context.Context, query string) error {
		var err error
		rows, err = tx.Tx.QueryxContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// Queryx is QueryxContext with a background context.
func (tx *Tx) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	return tx.QueryxContext(context.Background(), query, args...)
}

// QueryRowxContext executes a query and returns a single sqlx.Row.
func (tx *Tx) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	var row *sqlx.Row
	_ = tx.cfg.statement(ctx, "sqlx.Tx.QueryRowx", query, func(ctx context.Context, query string) error {
		row = tx.Tx.QueryRowxContext(ctx, query, args...)
		return row.Err()
	})
	return row
}

// QueryRowx is QueryRowxContext with a background context.
func (tx *Tx) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	return tx.QueryRowxContext(context.Background(), query, args...)
}

// ExecContext executes a query without returning rows.
func (tx *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	err := tx.cfg.statement(ctx, "sqlx.Tx.Exec", query, func(ctx context.Context, query string) error {
		var err error
		result, err = tx.Tx.ExecContext(ctx, query, args...)
		return err
	})
	return result, err
}

// Exec is ExecContext with a background context.
func (tx *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return tx.ExecContext(context.Background(), query, args...)
}

// MustExecContext is like ExecContext but panics on error.
func (tx *Tx) MustExecContext(ctx context.Context, query string, args ...interface{}) sql.Result {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		panic(err)
	}
	return result
}

// MustExec is MustExecContext with a background context.
func (tx *Tx) MustExec(query string, args ...interface{}) sql.Result {
	return tx.MustExecContext(context.Background(), query, args...)
}

// QueryContext executes a query and returns rows.
func (tx *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	var rows *sql.Rows
	err := tx.cfg.statement(ctx, "sqlx.Tx.Query", query, func(ctx context.Context, query string) error {
		var err error
		rows, err = tx.Tx.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// Query is QueryContext with a background context.
func (tx *Tx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return tx.QueryContext(context.Background(), query, args...)
}

// QueryRowContext executes a query and returns a single row.
func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	var row *sql.Row
	_ = tx.cfg.statement(ctx, "sqlx.Tx.QueryRow", query, func(ctx context.Context, query string) error {
		row = tx.Tx.QueryRowContext(ctx, query, args...)
		return row.Err()
	})
	return row
}

// QueryRow is QueryRowContext with a background context.
func (tx *Tx) QueryRow(query string, args ...interface{}) *sql.Row {
	return tx.QueryRowContext(context.Background(), query, args...)
}

// PrepareNamedContext prepares an annotated named statement within the
// transaction.
func (tx *Tx) PrepareNamedContext(ctx context.Context, query string) (*NamedStmt, error) {
	var stmt *sqlx.NamedStmt
	err := tx.cfg.statement(ctx, "sqlx.Tx.PrepareNamed", query, func(ctx context.Context, commented string) error {
		var err error
		stmt, err = tx.Tx.PrepareNamedContext(ctx, commented)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &NamedStmt{NamedStmt: stmt, cfg: tx.cfg, query: query}, nil
}

// PrepareNamed prepares a named statement without context.
func (tx *Tx) PrepareNamed(query string) (*NamedStmt, error) {
	return tx.PrepareNamedContext(context.Background(), query)
}

// PreparexContext prepares an annotated statement within the transaction.
func (tx *Tx) PreparexContext(ctx context.Context, query string) (*Stmt, error) {
	var stmt *sqlx.Stmt
	err := tx.cfg.statement(ctx, "sqlx.Tx.Preparex", query, func(ctx context.Context, commented string) error {
		var err error
		stmt, err = tx.Tx.PreparexContext(ctx, commented)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Stmt{Stmt: stmt, cfg: tx.cfg, query: query}, nil
}

// Preparex prepares a statement without context.
func (tx *Tx) Preparex(query string) (*Stmt, error) {
	return tx.PreparexContext(context.Background(), query)
}

// StmtxContext returns a transaction-specific version of a prepared statement.
func (tx *Tx) StmtxContext(ctx context.Context, stmt *Stmt) *Stmt {
	return &Stmt{
		Stmt:  tx.Tx.StmtxContext(ctx, stmt.Stmt),
		cfg:   tx.cfg,
		query: stmt.query,
	}
}

// NamedStmtContext returns a transaction-specific version of a named statement.
func (tx *Tx) NamedStmtContext(ctx context.Context, stmt *NamedStmt) *NamedStmt {
	return &NamedStmt{
		NamedStmt: tx.Tx.NamedStmtContext(ctx, stmt.NamedStmt),
		cfg:       tx.cfg,
		query:     stmt.query,
	}
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	return tx.cfg.observe(context.Background(), "COMMIT", "", "COMMIT", func(context.Context) error {
		return tx.Tx.Commit()
	})
}

// Rollback aborts the transaction.
func (tx *Tx) Rollback() error {
	return tx.cfg.observe(context.Background(), "ROLLBACK", "", "ROLLBACK", func(context.Context) error {
		return tx.Tx.Rollback()
	})
}

// Unsafe returns a version of Tx that silently ignores missing destination
// fields.
func (tx *Tx) Unsafe() *Tx {
	return &Tx{Tx: tx.Tx.Unsafe(), cfg: tx.cfg}
}
