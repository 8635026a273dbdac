package sql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collect returns the metrics of reader keyed by instrument name.
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

func TestNewMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	m, err := newMetrics(mp.Meter("test"))

	require.NoError(t, err)
	assert.NotNil(t, m.queryDuration)
	assert.NotNil(t, m.statements)
}

func TestRecordStatement(t *testing.T) {
	type args struct {
		operation string
		err       error
	}

	tests := []struct {
		name       string
		args       args
		wantStatus string
		wantOp     bool
	}{
		{
			name:       "given successful statement, then counts it with ok status",
			args:       args{operation: "SELECT"},
			wantStatus: "ok",
			wantOp:     true,
		},
		{
			name:       "given failed statement, then counts it with error status",
			args:       args{operation: "INSERT", err: assert.AnError},
			wantStatus: "error",
			wantOp:     true,
		},
		{
			name:       "given empty operation, then omits operation attribute",
			args:       args{operation: ""},
			wantStatus: "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := sdkmetric.NewManualReader()
			mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
			defer mp.Shutdown(context.Background())

			m, err := newMetrics(mp.Meter("test"))
			require.NoError(t, err)

			m.recordStatement(context.Background(), 20*time.Millisecond, tt.args.operation,
				[]attribute.KeyValue{attribute.String("db.system", "postgresql")}, tt.args.err)

			got := collect(t, reader)
			require.Contains(t, got, "db.client.operation.duration")
			require.Contains(t, got, "db.client.sqlcomment.statements")

			sum, ok := got["db.client.sqlcomment.statements"].Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1)
			dp := sum.DataPoints[0]
			assert.Equal(t, int64(1), dp.Value)

			status, _ := dp.Attributes.Value("status")
			assert.Equal(t, tt.wantStatus, status.AsString())
			_, hasOp := dp.Attributes.Value("db.operation")
			assert.Equal(t, tt.wantOp, hasOp)
		})
	}
}

func TestRecordQueryDuration_NilSafe(t *testing.T) {
	tests := []struct {
		name string
		m    *metrics
	}{
		{name: "given nil metrics, then does not panic", m: nil},
		{name: "given nil instruments, then does not panic", m: &metrics{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				tt.m.recordQueryDuration(context.Background(), time.Second, "SELECT", nil, nil)
				tt.m.recordStatement(context.Background(), time.Second, "SELECT", nil, nil)
			})
		})
	}
}

func TestWrapDriver_RecordsStatementMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	db, mock := newMockDB(t, WithMeterProvider(mp), commentOptions())
	mock.ExpectExec("DELETE FROM t " + testComment).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM u " + testComment).WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	_, err := db.ExecContext(ctx, "DELETE FROM t")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "DELETE FROM u")
	require.NoError(t, err)

	got := collect(t, reader)
	sum, ok := got["db.client.sqlcomment.statements"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}

func TestRecordPoolMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	db, _ := newMockDB(t, WithDBSystem("postgresql"), commentOptions())
	db.SetMaxOpenConns(4)

	err := RecordPoolMetrics(db, mp.Meter("test"), attribute.String("pool", "main"))
	require.NoError(t, err)

	got := collect(t, reader)
	gauge, ok := got["db.client.connections.max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(4), gauge.DataPoints[0].Value)

	system, ok := gauge.DataPoints[0].Attributes.Value("db.system")
	require.True(t, ok)
	assert.Equal(t, "postgresql", system.AsString())
	pool, ok := gauge.DataPoints[0].Attributes.Value("pool")
	require.True(t, ok)
	assert.Equal(t, "main", pool.AsString())
}
