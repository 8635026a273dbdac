package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
)

// ErrUnsupportedQuery is returned by Client for a query argument that is
// neither SQL text nor a QueryConfig.
var ErrUnsupportedQuery = errors.New("sqlcomment: unsupported query argument")

// Client annotates statements before handing them to a Querier. Each entry
// point accepts these calling conventions:
//
//	client.Query(ctx, "SELECT $1", id)
//	client.Query(ctx, "SELECT $1", id, func(rows *sql.Rows, err error) { ... })
//	client.Query(ctx, commentsql.QueryConfig{Text: "SELECT $1", Values: []any{id}})
//	client.Query(ctx, &commentsql.QueryConfig{Text: "SELECT 1"}, callback)
//
// A trailing func(R, error) argument is a callback. It is invoked
// synchronously with the outcome and the call itself returns the zero value
// and a nil error.
//
// Statements already annotated with the same framework, for instance by a
// *sql.DB opened with Open, are not annotated twice.
type Client struct {
	querier   Querier
	commenter *sqlcomment.Commenter

	query sqlcomment.QueryFunc[*sql.Rows]
	exec  sqlcomment.QueryFunc[sql.Result]
}

// Install builds a Client around q. It fails with an error wrapping
// sqlcomment.ErrConfiguration when q is nil.
//
// Example:
//
//	client, err := commentsql.Install(db,
//	    commentsql.WithCommentOptions(sqlcomment.WithFramework("billing-api")),
//	)
//	if err != nil {
//	    return err
//	}
//	rows, err := client.Query(ctx, "SELECT * FROM invoices WHERE id = $1", id)
func Install(q Querier, opts ...Option) (*Client, error) {
	if isNil(q) {
		return nil, fmt.Errorf("%w: nil querier", sqlcomment.ErrConfiguration)
	}

	cfg := newConfig(opts...)
	c := &Client{
		querier:   q,
		commenter: cfg.Commenter,
	}

	var err error
	if c.query, err = sqlcomment.Intercept[*sql.Rows](cfg.Commenter, c.originalQuery); err != nil {
		return nil, err
	}
	if c.exec, err = sqlcomment.Intercept[sql.Result](cfg.Commenter, c.originalExec); err != nil {
		return nil, err
	}
	return c, nil
}

// Query runs a statement that returns rows.
func (c *Client) Query(ctx context.Context, query any, args ...any) (*sql.Rows, error) {
	return c.query(ctx, query, args...)
}

// Exec runs a statement without returning rows.
func (c *Client) Exec(ctx context.Context, query any, args ...any) (sql.Result, error) {
	return c.exec(ctx, query, args...)
}

// Querier returns the wrapped Querier.
func (c *Client) Querier() Querier {
	return c.querier
}

// Commenter returns the Commenter used by c.
func (c *Client) Commenter() *sqlcomment.Commenter {
	return c.commenter
}

func (c *Client) originalQuery(ctx context.Context, query any, args ...any) (*sql.Rows, error) {
	return dispatch(ctx, query, args, c.querier.QueryContext)
}

func (c *Client) originalExec(ctx context.Context, query any, args ...any) (sql.Result, error) {
	return dispatch(ctx, query, args, c.querier.ExecContext)
}

// dispatch runs a call of any supported shape against run.
func dispatch[R any](
	ctx context.Context,
	query any,
	args []any,
	run func(ctx context.Context, query string, args ...any) (R, error),
) (R, error) {
	var zero R

	call, ok := sqlcomment.Normalize[R](query, args)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrUnsupportedQuery, query)
	}

	result, err := run(ctx, call.Text, call.Values...)
	if call.Callback != nil {
		call.Callback(result, err)
		return zero, nil
	}
	return result, err
}

func isNil(q Querier) bool {
	if q == nil {
		return true
	}
	v := reflect.ValueOf(q)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice:
		return v.IsNil()
	}
	return false
}
