// Package sqlcomment annotates SQL statements with a metadata comment so that
// database logs, slow query logs and APM tools can tie an executed statement
// back to the request trace and the source file that issued it.
//
// # Wire Format
//
// The comment is appended to the statement, before a trailing terminator:
//
//	SELECT * FROM users WHERE id = $1 /*traceparent=00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01 framework=sqlcommenter-go file=internal%2Fusers%2Fstore.go*/;
//
// Tags are space separated key=value pairs. Values are percent-encoded so
// that no value can close the comment or inject another pair.
//
// # Quick Start
//
// Most applications do not use this package directly but wrap their driver
// with the sql or sqlx packages of this module. The Commenter can also be used
// on its own:
//
//	c := sqlcomment.New(
//	    sqlcomment.WithTags(sqlcomment.NewTags("application", "billing")),
//	)
//	query := c.Comment(ctx, "SELECT 1;")
//
// # Tags
//
// Every comment carries, in order:
//
//   - traceparent, tracestate: the span context active in ctx (W3C format)
//   - framework: identifies the instrumentation (default "sqlcommenter-go")
//   - static tags from WithTags and tags from WithTagger
//   - request tags from ContextWithTags and ContextWithTagger
//   - file: the application file that issued the query, or "unknown"
//
// Trace tags are written only when ctx holds a valid span context, and
// tracestate only when that span context has a non-empty trace state. No
// placeholder values are generated.
//
// # Caller Resolution
//
// The file tag is found by walking the call stack and skipping frames of this
// library, of the standard library (database/sql) and of third-party modules.
// Standard library frames are recognized by their location under GOROOT, so
// applications whose module path has no dot, such as "myapp", are reported
// like any other.
// When the stack is not meaningful, for example when queries are issued from
// a worker pool, set the caller explicitly:
//
//	ctx = sqlcomment.WithCaller(ctx, "jobs/reconcile.go")
//
// # Limitations
//
// This is not a SQL parser. Only a terminator at the very end of the text is
// recognized; statements separated by ';' inside the text are left as they
// are and the comment is attached to the last one.
package sqlcomment
