// Package sqlx wraps jmoiron/sqlx so that every statement issued through it
// carries a SQL comment describing where it came from, and is traced with
// OpenTelemetry.
//
// # Quick Start
//
//	import commentsqlx "github.com/kroma-labs/sqlcommenter-go/sqlx"
//
//	db, err := commentsqlx.Open("postgres", dsn,
//	    commentsqlx.WithDBSystem("postgresql"),
//	    commentsqlx.WithDBName("mydb"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	var user User
//	err = db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", 1)
//
// # Named Parameters
//
// The comment is added before sqlx binds named parameters. Tag values are
// percent-encoded, so they never contain ':' or '?' and survive binding:
//
//	_, err := db.NamedExecContext(ctx,
//	    "INSERT INTO users (name, email) VALUES (:name, :email)",
//	    user,
//	)
//	// INSERT INTO users (name, email) VALUES ($1, $2) /*framework=sqlcommenter-go file=users.go*/
//
// # Prepared Statements
//
// Preparex and PrepareNamed annotate the statement once, when it is prepared.
// Executions of the statement are traced but carry the comment built at
// prepare time.
//
// # Transactions
//
//	tx, err := db.BeginTxx(ctx, nil)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_, err = tx.ExecContext(ctx, "UPDATE accounts SET balance = balance - $1", amount)
//	if err != nil {
//	    return err
//	}
//
//	return tx.Commit()
//
// # Combining with the sql package
//
// A *sql.DB opened with the sql package can be passed to NewDB. Statements
// annotated here are recognized by the driver wrapper and not annotated
// twice, as long as both use the same framework tag.
//
// # Observability
//
// Traces:
//   - Span per call: sqlx.Get, sqlx.Select, sqlx.NamedExec, etc.
//   - Attributes: db.system, db.name, db.statement, db.operation
//
// Metrics:
//   - db.client.operation.duration (histogram by operation)
//   - db.client.sqlcomment.statements (counter of annotated statements)
package sqlx
