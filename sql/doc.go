// Package sql wraps a database/sql driver so that every statement it receives
// carries a SQL comment describing where it came from, and is traced with
// OpenTelemetry.
//
// # Quick Start
//
//	import commentsql "github.com/kroma-labs/sqlcommenter-go/sql"
//
//	db, err := commentsql.Open("postgres", dsn,
//	    commentsql.WithDBSystem("postgresql"),
//	    commentsql.WithDBName("billing"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	rows, err := db.QueryContext(ctx, "SELECT * FROM invoices WHERE id = $1", id)
//	// The database receives:
//	// SELECT * FROM invoices WHERE id = $1 /*traceparent=00-...-01 framework=sqlcommenter-go file=internal%2Fstore%2Finvoices.go*/
//
// # Driver Registration
//
// For control over the driver name, register a wrapped driver:
//
//	commentsql.Register("postgres-commented", pq.Driver{},
//	    commentsql.WithDBSystem("postgresql"),
//	)
//	db, _ := sql.Open("postgres-commented", dsn)
//
// Connectors can be wrapped with WrapConnector or OpenDB.
//
// # Comments
//
// Statements are annotated by a sqlcomment.Commenter, configured with
// WithCommenter or WithCommentOptions. The client span is started first, so
// traceparent identifies the span of the statement itself. Prepared statements
// are annotated when they are prepared. BEGIN, COMMIT and ROLLBACK are traced
// but have no text to annotate.
//
// # Client
//
// Install builds a Client that accepts a statement object or trailing callback
// in addition to plain text:
//
//	client, _ := commentsql.Install(db)
//	client.Query(ctx, commentsql.QueryConfig{Text: "SELECT 1"}, func(rows *sql.Rows, err error) {
//	    // ...
//	})
//
// # Observability
//
// Traces:
//   - Span per statement named after its operation
//   - Attributes: db.system, db.name, db.instance, db.statement, db.operation
//   - db.statement is recorded without the comment
//
// Metrics:
//   - db.client.operation.duration (histogram by operation)
//   - db.client.sqlcomment.statements (counter of annotated statements)
//   - db.client.connections.* via RecordPoolMetrics
package sql
