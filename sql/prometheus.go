package sql

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

// poolCollector exports sql.DBStats as Prometheus metrics.
type poolCollector struct {
	db *sql.DB

	maxOpen      *prometheus.Desc
	open         *prometheus.Desc
	inUse        *prometheus.Desc
	idle         *prometheus.Desc
	waitCount    *prometheus.Desc
	waitDuration *prometheus.Desc
}

// NewPoolCollector returns a prometheus.Collector exporting the connection
// pool statistics of db, for applications scraped by Prometheus rather than
// exporting through OpenTelemetry.
//
// The db_system, db_name and db_instance labels are set from the options of
// a wrapped driver and merged with labels.
//
// Example:
//
//	db, _ := commentsql.Open("postgres", dsn, commentsql.WithDBName("billing"))
//	prometheus.MustRegister(commentsql.NewPoolCollector(db, nil))
func NewPoolCollector(db *sql.DB, labels prometheus.Labels) prometheus.Collector {
	constLabels := prometheus.Labels{}
	if drv, ok := db.Driver().(*commentDriver); ok && drv.cfg != nil {
		if drv.cfg.DBSystem != "" {
			constLabels["db_system"] = drv.cfg.DBSystem
		}
		if drv.cfg.DBName != "" {
			constLabels["db_name"] = drv.cfg.DBName
		}
		if drv.cfg.InstanceName != "" {
			constLabels["db_instance"] = drv.cfg.InstanceName
		}
	}
	for k, v := range labels {
		constLabels[k] = v
	}

	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("db_client_connections_"+name, help, nil, constLabels)
	}

	return &poolCollector{
		db:           db,
		maxOpen:      desc("max", "Maximum number of connections allowed in the pool."),
		open:         desc("open", "Number of open connections in the pool."),
		inUse:        desc("used", "Number of connections currently in use."),
		idle:         desc("idle", "Number of idle connections in the pool."),
		waitCount:    desc("wait_count_total", "Total number of times waited for a connection."),
		waitDuration: desc("wait_duration_seconds_total", "Total time waited for connections."),
	}
}

// Describe implements prometheus.Collector.
func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxOpen
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.waitCount
	ch <- c.waitDuration
}

// Collect implements prometheus.Collector.
func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.db.Stats()

	ch <- prometheus.MustNewConstMetric(c.maxOpen, prometheus.GaugeValue, float64(stats.MaxOpenConnections))
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(stats.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(stats.InUse))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(stats.Idle))
	ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, float64(stats.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.waitDuration, prometheus.CounterValue, stats.WaitDuration.Seconds())
}
