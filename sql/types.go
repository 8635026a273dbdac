package sql

import (
	"context"
	"database/sql"

	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
)

// Querier is the query surface shared by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Compile-time interface checks.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Conn)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// QueryConfig is the statement object accepted by Client.
type QueryConfig = sqlcomment.QueryConfig
