package sql

import (
	"context"
	"database/sql/driver"
)

// Compile-time interface checks.
var (
	_ driver.Stmt             = (*commentStmt)(nil)
	_ driver.StmtExecContext  = (*commentStmt)(nil)
	_ driver.StmtQueryContext = (*commentStmt)(nil)
)

// commentStmt traces a statement that was annotated when it was prepared.
// query is the statement as the caller wrote it, used for span attributes.
type commentStmt struct {
	stmt  driver.Stmt
	cfg   *config
	query string
}

func newCommentStmt(stmt driver.Stmt, cfg *config, query string) *commentStmt {
	return &commentStmt{
		stmt:  stmt,
		cfg:   cfg,
		query: query,
	}
}

// Close implements driver.Stmt.
func (s *commentStmt) Close() error {
	return s.stmt.Close()
}

// NumInput implements driver.Stmt.
func (s *commentStmt) NumInput() int {
	return s.stmt.NumInput()
}

// Exec implements driver.Stmt.
// Deprecated: Use ExecContext instead. This exists for driver.Stmt interface compatibility.
func (s *commentStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.stmt.Exec(args) //nolint:staticcheck // Required for driver.Stmt interface
}

// Query implements driver.Stmt.
// Deprecated: Use QueryContext instead. This exists for driver.Stmt interface compatibility.
func (s *commentStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.stmt.Query(args) //nolint:staticcheck // Required for driver.Stmt interface
}

// ExecContext implements driver.StmtExecContext.
func (s *commentStmt) ExecContext(
	ctx context.Context,
	args []driver.NamedValue,
) (driver.Result, error) {
	var result driver.Result

	err := s.cfg.observe(ctx, spanName(s.query), func(ctx context.Context) error {
		var err error
		if execer, ok := s.stmt.(driver.StmtExecContext); ok {
			result, err = execer.ExecContext(ctx, args)
		} else {
			result, err = s.stmt.Exec(namedValueToValue(args)) //nolint:staticcheck // Fallback for older drivers
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QueryContext implements driver.StmtQueryContext.
func (s *commentStmt) QueryContext(
	ctx context.Context,
	args []driver.NamedValue,
) (driver.Rows, error) {
	var rows driver.Rows

	err := s.cfg.observe(ctx, spanName(s.query), func(ctx context.Context) error {
		var err error
		if queryer, ok := s.stmt.(driver.StmtQueryContext); ok {
			rows, err = queryer.QueryContext(ctx, args)
		} else {
			rows, err = s.stmt.Query(namedValueToValue(args)) //nolint:staticcheck // Fallback for older drivers
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// namedValueToValue converts NamedValue slice to Value slice.
func namedValueToValue(named []driver.NamedValue) []driver.Value {
	values := make([]driver.Value, len(named))
	for i, nv := range named {
		values[i] = nv.Value
	}
	return values
}
