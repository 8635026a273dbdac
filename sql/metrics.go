package sql

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// metrics holds the metric instruments for database operations.
type metrics struct {
	// Operation latency histogram
	queryDuration metric.Float64Histogram

	// Number of statements sent with a comment
	statements metric.Int64Counter
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

// recordQueryDuration records the duration of an operation.
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
		all = append(all, semconv.DBOperation(operation))
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	return append(all, attribute.String("status", status))
}

// RecordPoolMetrics registers connection pool gauges for db. They are read
// from db.Stats() when the meter is collected.
//
// Attributes configured on a wrapped driver (db.system, db.name,
// db.instance) are detected automatically and merged with attrs.
//
// Example:
//
//	db, _ := commentsql.Open("postgres", dsn, commentsql.WithDBSystem("postgresql"))
//	err := commentsql.RecordPoolMetrics(db, otel.GetMeterProvider().Meter("myapp"))
func RecordPoolMetrics(db *sql.DB, meter metric.Meter, attrs ...attribute.KeyValue) error {
	if drv, ok := db.Driver().(*commentDriver); ok && drv.cfg != nil {
		attrs = append(drv.cfg.baseAttributes(), attrs...)
	}

	open, err := meter.Int64ObservableGauge(
		"db.client.connections.open",
		metric.WithDescription("Number of open connections in the pool"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}
	idle, err := meter.Int64ObservableGauge(
		"db.client.connections.idle",
		metric.WithDescription("Number of idle connections in the pool"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}
	used, err := meter.Int64ObservableGauge(
		"db.client.connections.used",
		metric.WithDescription("Number of connections currently in use"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}
	maxOpen, err := meter.Int64ObservableGauge(
		"db.client.connections.max",
		metric.WithDescription("Maximum number of connections allowed in the pool"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}
	waitCount, err := meter.Int64ObservableCounter(
		"db.client.connections.wait_count",
		metric.WithDescription("Total number of times waited for a connection"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}
	waitDuration, err := meter.Float64ObservableCounter(
		"db.client.connections.wait_duration",
		metric.WithDescription("Total time waited for connections in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			stats := db.Stats()
			opt := metric.WithAttributes(attrs...)

			o.ObserveInt64(open, int64(stats.OpenConnections), opt)
			o.ObserveInt64(idle, int64(stats.Idle), opt)
			o.ObserveInt64(used, int64(stats.InUse), opt)
			o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections), opt)
			o.ObserveInt64(waitCount, stats.WaitCount, opt)
			o.ObserveFloat64(waitDuration, stats.WaitDuration.Seconds(), opt)
			return nil
		},
		open, idle, used, maxOpen, waitCount, waitDuration,
	)
	return err
}
