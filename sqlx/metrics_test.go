package sqlx

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestDB_RecordsStatementMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	db, mock := newMockDB(t, WithMeterProvider(mp), WithDBSystem("postgresql"), commentOptions())
	mock.ExpectExec("UPDATE t SET a = 1 " + testComment).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE t SET a = 2 " + testComment).WillReturnError(assert.AnError)

	_, err := db.Exec("UPDATE t SET a = 1")
	require.NoError(t, err)
	_, err = db.Exec("UPDATE t SET a = 2")
	require.Error(t, err)

	got := collect(t, reader)

	sum, ok := got["db.client.sqlcomment.statements"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	statuses := map[string]int64{}
	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value("status")
		system, _ := dp.Attributes.Value("db.system")
		assert.Equal(t, "postgresql", system.AsString())
		statuses[status.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"ok": 1, "error": 1}, statuses)

	hist, ok := got["db.client.operation.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)
}

func TestDB_Ping_NotCountedAsStatement(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer raw.Close()
	mock.ExpectPing()

	db := NewDB(raw, "postgres", WithMeterProvider(mp))
	require.NoError(t, db.Ping())

	got := collect(t, reader)
	assert.NotContains(t, got, "db.client.sqlcomment.statements")
	assert.Contains(t, got, "db.client.operation.duration")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPoolMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	db, _ := newMockDB(t, WithDBSystem("postgresql"), WithDBName("users"))
	db.SetMaxOpenConns(3)

	require.NoError(t, RecordPoolMetrics(db, mp.Meter("test"), attribute.String("pool", "replica")))

	got := collect(t, reader)
	gauge, ok := got["db.client.connections.max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	dp := gauge.DataPoints[0]
	assert.Equal(t, int64(3), dp.Value)

	for key, want := range map[attribute.Key]string{
		"db.system": "postgresql",
		"db.name":   "users",
		"pool":      "replica",
	} {
		v, ok := dp.Attributes.Value(key)
		require.True(t, ok, key)
		assert.Equal(t, want, v.AsString())
	}
}
