package sqlx

import (
	"context"
	"time"

	commentsql "github.com/kroma-labs/sqlcommenter-go/sql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for sqlx operations.
type metrics struct {
	queryDuration metric.Float64Histogram
	statements    metric.Int64Counter
}

// newMetrics creates the metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.queryDuration, err = meter.Float64Histogram(
		"db.client.operation.duration",
		metric.WithDescription("Duration of database client operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	m.statements, err = meter.Int64Counter(
		"db.client.sqlcomment.statements",
		metric.WithDescription("Number of statements annotated with a SQL comment"),
		metric.WithUnit("{statement}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// recordQueryDuration records the duration of a database operation.
func (m *metrics) recordQueryDuration(
	ctx context.Context,
	duration time.Duration,
	operation string,
	attrs []attribute.KeyValue,
	err error,
) {
	if m == nil || m.queryDuration == nil {
		return
	}
	m.queryDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(operationAttributes(operation, attrs, err)...))
}

// recordStatement records the duration of an annotated statement and counts it.
func (m *metrics) recordStatement(
	ctx context.Context,
	duration time.Duration,
	operation string,
	attrs []attribute.KeyValue,
	err error,
) {
	if m == nil {
		return
	}
	m.recordQueryDuration(ctx, duration, operation, attrs, err)
	if m.statements != nil {
		m.statements.Add(ctx, 1,
			metric.WithAttributes(operationAttributes(operation, attrs, err)...))
	}
}

func operationAttributes(operation string, attrs []attribute.KeyValue, err error) []attribute.KeyValue {
	all := make([]attribute.KeyValue, 0, len(attrs)+2)
	all = append(all, attrs...)

	if operation != "" {
		all = append(all, attribute.String("db.operation", operation))
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	return append(all, attribute.String("status", status))
}

// RecordPoolMetrics registers connection pool metrics for a sqlx database.
// The database attributes of db are added to attrs.
//
// Example:
//
//	db, _ := commentsqlx.Open("postgres", dsn,
//	    commentsqlx.WithDBSystem("postgresql"),
//	)
//	err := commentsqlx.RecordPoolMetrics(db, otel.GetMeterProvider().Meter("myapp"))
func RecordPoolMetrics(db *DB, meter metric.Meter, attrs ...attribute.KeyValue) error {
	if db.cfg != nil {
		attrs = append(db.cfg.baseAttributes(), attrs...)
	}
	return commentsql.RecordPoolMetrics(db.DB.DB, meter, attrs...)
}
