package sqlx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
)

// DB wraps *sqlx.DB. Every statement issued through its methods is annotated
// with a SQL comment before sqlx binds it, and traced.
//
// The embedded *sqlx.DB is reachable for anything not wrapped here; calls made
// on it directly are not annotated.
type DB struct {
	*sqlx.DB
	cfg *config
}

// Open opens a database.
//
// Example:
//
//	db, err := commentsqlx.Open("postgres", dsn,
//	    commentsqlx.WithDBSystem("postgresql"),
//	    commentsqlx.WithDBName("mydb"),
//	)
func Open(driverName, dsn string, opts ...Option) (*DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	return &DB{DB: db, cfg: newConfig(opts...)}, nil
}

// Connect opens and verifies a database connection.
// It is equivalent to Open followed by Ping.
func Connect(ctx context.Context, driverName, dsn string, opts ...Option) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, err
	}

	return &DB{DB: db, cfg: newConfig(opts...)}, nil
}

// NewDB wraps an existing *sql.DB. driverName selects the bindvar style.
//
// Example:
//
//	sqlDB, _ := commentsql.Open("postgres", dsn)
//	db := commentsqlx.NewDB(sqlDB, "postgres")
func NewDB(db *sql.DB, driverName string, opts ...Option) *DB {
	return &DB{
		DB:  sqlx.NewDb(db, driverName),
		cfg: newConfig(opts...),
	}
}

// MustConnect is like Connect but panics on error.
func MustConnect(ctx context.Context, driverName, dsn string, opts ...Option) *DB {
	db, err := Connect(ctx, driverName, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

// MustOpen is like Open but panics on error.
func MustOpen(driverName, dsn string, opts ...Option) *DB {
	db, err := Open(driverName, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

// GetContext executes a query that is expected to return at most one row
// and scans the result into dest.
func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return db.cfg.statement(ctx, "sqlx.Get", query, func(ctx context.Context, query string) error {
		return db.DB.GetContext(ctx, dest, query, args...)
	})
}

// Get is GetContext with a background context.
func (db *DB) Get(dest interface{}, query string, args ...interface{}) error {
	return db.GetContext(context.Background(), dest, query, args...)
}

// SelectContext executes a query and scans all results into dest.
func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return db.cfg.statement(ctx, "sqlx.Select", query, func(ctx context.Context, query string) error {
		return db.DB.SelectContext(ctx, dest, query, args...)
	})
}

// Select is SelectContext with a background context.
func (db *DB) Select(dest interface{}, query string, args ...interface{}) error {
	return db.SelectContext(context.Background(), dest, query, args...)
}

// NamedExecContext executes a named query. The comment is added before the
// named parameters are bound.
func (db *DB) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	var result sql.Result
	err := db.cfg.statement(ctx, "sqlx.NamedExec", query, func(ctx context.Context, query string) error {
		var err error
		result, err = db.DB.NamedExecContext(ctx, query, arg)
		return err
	})
	return result, err
}

// NamedExec is NamedExecContext with a background context.
func (db *DB) NamedExec(query string, arg interface{}) (sql.Result, error) {
	return db.NamedExecContext(context.Background(), query, arg)
}

// NamedQueryContext executes a named query and returns rows.
func (db *DB) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := db.cfg.statement(ctx, "sqlx.NamedQuery", query, func(ctx context.Context, query string) error {
		var err error
		rows, err = db.DB.NamedQueryContext(ctx, query, arg)
		return err
	})
	return rows, err
}

// NamedQuery is NamedQueryContext with a background context.
func (db *DB) NamedQuery(query string, arg interface{}) (*sqlx.Rows, error) {
	return db.NamedQueryContext(context.Background(), query, arg)
}

// QueryxContext executes a query and returns sqlx.Rows.
func (db *DB) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := db.cfg.statement(ctx, "sqlx.Queryx", query, func(ctx context.Context, query string) error {
		var err error
		rows, err = db.DB.QueryxContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// Queryx is QueryxContext with a background context.
func (db *DB) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	return db.QueryxContext(context.Background(), query, args...)
}

// QueryRowxContext executes a query and returns a single sqlx.Row.
func (db *DB) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	var row *sqlx.Row
	_ = db.cfg.statement(ctx, "sqlx.QueryRowx", query, func(ctx context.Context, query string) error {
		row = db.DB.QueryRowxContext(ctx, query, args...)
		return row.Err()
	})
	return row
}

// QueryRowx is QueryRowxContext with a background context.
func (db *DB) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	return db.QueryRowxContext(context.Background(), query, args...)
}

// ExecContext executes a query without returning rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	err := db.cfg.statement(ctx, "sqlx.Exec", query, func(ctx context.Context, query string) error {
		var err error
		result, err = db.DB.ExecContext(ctx, query, args...)
		return err
	})
	return result, err
}

// Exec is ExecContext with a background context.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.ExecContext(context.Background(), query, args...)
}

// MustExecContext is like ExecContext but panics on error.
func (db *DB) MustExecContext(ctx context.Context, query string, args ...interface{}) sql.Result {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		panic(err)
	}
	return result
}

// MustExec is MustExecContext with a background context.
func (db *DB) MustExec(query string, args ...interface{}) sql.Result {
	return db.MustExecContext(context.Background(), query, args...)
}

// QueryContext executes a query and returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	var rows *sql.Rows
	err := db.cfg.statement(ctx, "sqlx.Query", query, func(ctx context.Context, query string) error {
		var err error
		rows, err = db.DB.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// Query is QueryContext with a background context.
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.QueryContext(context.Background(), query, args...)
}

// QueryRowContext executes a query and returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	var row *sql.Row
	_ = db.cfg.statement(ctx, "sqlx.QueryRow", query, func(ctx context.Context, query string) error {
		row = db.DB.QueryRowContext(ctx, query, args...)
		return row.Err()
	})
	return row
}

// QueryRow is QueryRowContext with a background context.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.QueryRowContext(context.Background(), query, args...)
}

// PingContext verifies the database connection.
func (db *DB) PingContext(ctx context.Context) error {
	return db.cfg.observe(ctx, "PING", "", "PING", db.DB.PingContext)
}

// Ping is PingContext with a background context.
func (db *DB) Ping() error {
	return db.PingContext(context.Background())
}

// BeginTxx starts a transaction whose statements are annotated.
func (db *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	var tx *sqlx.Tx
	err := db.cfg.observe(ctx, "BEGIN", "", "BEGIN", func(ctx context.Context) error {
		var err error
		tx, err = db.DB.BeginTxx(ctx, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Tx{Tx: tx, cfg: db.cfg}, nil
}

// Beginx starts a transaction with default options.
func (db *DB) Beginx() (*Tx, error) {
	return db.BeginTxx(context.Background(), nil)
}

// MustBeginTx starts a transaction and panics on error.
func (db *DB) MustBeginTx(ctx context.Context, opts *sql.TxOptions) *Tx {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		panic(err)
	}
	return tx
}

// MustBegin starts a transaction and panics on error.
func (db *DB) MustBegin() *Tx {
	return db.MustBeginTx(context.Background(), nil)
}

// PrepareNamedContext prepares a named statement. It is annotated once, with
// ctx, and every execution carries that comment.
func (db *DB) PrepareNamedContext(ctx context.Context, query string) (*NamedStmt, error) {
	var stmt *sqlx.NamedStmt
	err := db.cfg.statement(ctx, "sqlx.PrepareNamed", query, func(ctx context.Context, commented string) error {
		var err error
		stmt, err = db.DB.PrepareNamedContext(ctx, commented)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &NamedStmt{NamedStmt: stmt, cfg: db.cfg, query: query}, nil
}

// PrepareNamed prepares a named statement without context.
func (db *DB) PrepareNamed(query string) (*NamedStmt, error) {
	return db.PrepareNamedContext(context.Background(), query)
}

// PreparexContext prepares a statement. It is annotated once, with ctx.
func (db *DB) PreparexContext(ctx context.Context, query string) (*Stmt, error) {
	var stmt *sqlx.Stmt
	err := db.cfg.statement(ctx, "sqlx.Preparex", query, func(ctx context.Context, commented string) error {
		var err error
		stmt, err = db.DB.PreparexContext(ctx, commented)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Stmt{Stmt: stmt, cfg: db.cfg, query: query}, nil
}

// Preparex prepares a statement without context.
func (db *DB) Preparex(query string) (*Stmt, error) {
	return db.PreparexContext(context.Background(), query)
}

// Unsafe returns a version of DB that silently ignores missing destination
// fields.
func (db *DB) Unsafe() *DB {
	return &DB{DB: db.DB.Unsafe(), cfg: db.cfg}
}

// Commenter returns the Commenter annotating statements of db.
func (db *DB) Commenter() *sqlcomment.Commenter {
	return db.cfg.Commenter
}
