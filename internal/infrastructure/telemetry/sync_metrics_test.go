package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumByOutcome(t *testing.T, m metricdata.Metrics) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		outcome, _ := dp.Attributes.Value(telemetry.AttrOutcome)
		out[outcome.AsString()] += dp.Value
	}
	return out
}

func TestNewSyncMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewSyncMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Nil(t, m)
}

func TestSyncMetrics_RecordRun(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewSyncMetrics(provider.Meter("test"))
	require.NoError(t, err)

	start := time.Now()
	report := syncrun.Report{
		RunID:      uuid.New(),
		TenantID:   uuid.New(),
		Table:      syncrun.TableArticles,
		Status:     syncrun.StatusCompletedWithErrors,
		Counters:   syncrun.Counters{Read: 10, Created: 4, Updated: 3, Unchanged: 2, Errors: 1, Deleted: 1},
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
	}
	ctx := context.Background()
	m.RecordRun(ctx, syncrun.TriggerHTTP, report)
	m.RecordContention(ctx, syncrun.TableArticles)

	metrics := collect(t, reader)

	runs, ok := metrics["catalog_sync_runs_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, runs.DataPoints, 1)
	status, _ := runs.DataPoints[0].Attributes.Value(telemetry.AttrStatus)
	assert.Equal(t, "completed_with_errors", status.AsString())

	rows := sumByOutcome(t, metrics["catalog_sync_rows_total"])
	assert.Equal(t, map[string]int64{
		telemetry.OutcomeCreated:   4,
		telemetry.OutcomeUpdated:   3,
		telemetry.OutcomeUnchanged: 2,
		telemetry.OutcomeError:     1,
		telemetry.OutcomeDeleted:   1,
	}, rows)

	hist, ok := metrics["catalog_sync_run_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.InDelta(t, 2.0, hist.DataPoints[0].Sum, 0.001)

	contention, ok := metrics["catalog_sync_lock_contention_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), contention.DataPoints[0].Value)
}

func TestSyncMetrics_NilReceiver(t *testing.T) {
	var m *telemetry.SyncMetrics
	assert.NotPanics(t, func() {
		m.RecordRun(context.Background(), syncrun.TriggerCLI, syncrun.Report{})
		m.RecordContention(context.Background(), syncrun.TableClients)
	})
}
