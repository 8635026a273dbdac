package database

import (
	"time"

	"github.com/kroma-labs/sqlcommenter-go/example/internal/config"
	commentsql "github.com/kroma-labs/sqlcommenter-go/sql"
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
	commentsqlx "github.com/kroma-labs/sqlcommenter-go/sqlx"
	_ "github.com/lib/pq" // Register postgres driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

// DB wraps the annotated sqlx connection.
type DB struct {
	*commentsqlx.DB
}

// New opens the database. Every statement carries the trace context, the
// application tag, the request tags set by the HTTP middleware and the file
// that issued it.
func New(logger zerolog.Logger) (*DB, error) {
	db, err := commentsqlx.Open("postgres", config.DefaultDSN,
		commentsqlx.WithDBSystem(config.DefaultDBSystem),
		commentsqlx.WithDBName(config.DefaultDBName),
		commentsqlx.WithInstanceName(config.DefaultInstance),
		commentsqlx.WithCommentOptions(
			sqlcomment.WithTags(sqlcomment.NewTags("application", config.ServiceName)),
			sqlcomment.WithLogger(logger),
		),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.DefaultMaxOpen)
	db.SetMaxIdleConns(config.DefaultMaxIdle)
	db.SetConnMaxLifetime(time.Duration(config.DefaultMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(config.DefaultMaxIdleTime) * time.Second)

	// Pool statistics are exported twice: through OpenTelemetry and as a
	// native Prometheus collector.
	if err := commentsqlx.RecordPoolMetrics(db, otel.GetMeterProvider().Meter(config.ServiceName)); err != nil {
		logger.Warn().Err(err).Msg("failed to register pool metrics")
	}
	prometheus.MustRegister(commentsql.NewPoolCollector(db.DB.DB, prometheus.Labels{
		"db_system": config.DefaultDBSystem,
		"db_name":   config.DefaultDBName,
	}))

	return &DB{DB: db}, nil
}
