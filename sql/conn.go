package sql

import (
	"context"
	"database/sql/driver"
)

// Compile-time interface checks.
var (
	_ driver.Conn               = (*commentConn)(nil)
	_ driver.ConnPrepareContext = (*commentConn)(nil)
	_ driver.ConnBeginTx        = (*commentConn)(nil)
	_ driver.ExecerContext      = (*commentConn)(nil)
	_ driver.QueryerContext     = (*commentConn)(nil)
	_ driver.Pinger             = (*commentConn)(nil)
	_ driver.SessionResetter    = (*commentConn)(nil)
	_ driver.Validator          = (*commentConn)(nil)
	_ driver.NamedValueChecker  = (*commentConn)(nil)
)

// commentConn annotates and traces the statements of a driver.Conn.
type commentConn struct {
	conn driver.Conn
	cfg  *config
}

func newCommentConn(conn driver.Conn, cfg *config) *commentConn {
	return &commentConn{
		conn: conn,
		cfg:  cfg,
	}
}

// Prepare implements driver.Conn.
func (c *commentConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// Close implements driver.Conn.
func (c *commentConn) Close() error {
	return c.conn.Close()
}

// Begin implements driver.Conn.
// Deprecated: Use BeginTx instead. This exists for driver.Conn interface compatibility.
func (c *commentConn) Begin() (driver.Tx, error) {
	tx, err := c.conn.Begin() //nolint:staticcheck // Required for driver.Conn interface
	if err != nil {
		return nil, err
	}
	return newCommentTx(tx, c.cfg), nil
}

// PrepareContext implements driver.ConnPrepareContext. The statement is
// annotated once, with ctx, and every execution of it carries that comment.
func (c *commentConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	commented := c.cfg.Commenter.Comment(ctx, query)

	var stmt driver.Stmt
	var err error

	if preparer, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err = preparer.PrepareContext(ctx, commented)
	} else {
		stmt, err = c.conn.Prepare(commented)
	}

	if err != nil {
		return nil, err
	}
	return newCommentStmt(stmt, c.cfg, query), nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *commentConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	var tx driver.Tx

	err := c.cfg.observe(ctx, "BEGIN", func(ctx context.Context) error {
		var err error
		if beginner, ok := c.conn.(driver.ConnBeginTx); ok {
			tx, err = beginner.BeginTx(ctx, opts)
		} else {
			tx, err = c.conn.Begin() //nolint:staticcheck // Fallback for older drivers
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return newCommentTx(tx, c.cfg), nil
}

// ExecContext implements driver.ExecerContext.
func (c *commentConn) ExecContext(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Result, error) {
	execer, ok := c.conn.(driver.ExecerContext)
	if !ok {
		// database/sql falls back to PrepareContext.
		return nil, driver.ErrSkip
	}

	var result driver.Result
	err := c.cfg.observeStatement(ctx, query, func(ctx context.Context, commented string) error {
		var err error
		result, err = execer.ExecContext(ctx, commented, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QueryContext implements driver.QueryerContext.
func (c *commentConn) QueryContext(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Rows, error) {
	queryer, ok := c.conn.(driver.QueryerContext)
	if !ok {
		// database/sql falls back to PrepareContext.
		return nil, driver.ErrSkip
	}

	var rows driver.Rows
	err := c.cfg.observeStatement(ctx, query, func(ctx context.Context, commented string) error {
		var err error
		rows, err = queryer.QueryContext(ctx, commented, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Ping implements driver.Pinger.
func (c *commentConn) Ping(ctx context.Context) error {
	pinger, ok := c.conn.(driver.Pinger)
	if !ok {
		return nil
	}
	return c.cfg.observe(ctx, "PING", pinger.Ping)
}

// ResetSession implements driver.SessionResetter.
func (c *commentConn) ResetSession(ctx context.Context) error {
	if resetter, ok := c.conn.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}
	return nil
}

// IsValid implements driver.Validator.
func (c *commentConn) IsValid() bool {
	if validator, ok := c.conn.(driver.Validator); ok {
		return validator.IsValid()
	}
	return true
}

// CheckNamedValue implements driver.NamedValueChecker. ErrSkip hands the
// value to the default converter.
func (c *commentConn) CheckNamedValue(nv *driver.NamedValue) error {
	if checker, ok := c.conn.(driver.NamedValueChecker); ok {
		return checker.CheckNamedValue(nv)
	}
	return driver.ErrSkip
}
