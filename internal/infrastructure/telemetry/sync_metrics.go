package telemetry

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"go.opentelemetry.io/otel/metric"
)

// Row outcomes reported by catalog_sync_rows_total
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped"
	OutcomeError     = "error"
	OutcomeDeleted   = "deleted"
	OutcomeProtected = "protected"
	OutcomeDuplicate = "duplicate"
	OutcomeFlagged   = "flagged"
)

// SyncMetrics records catalog sync runs
type SyncMetrics struct {
	runs      *Counter
	rows      *Counter
	duration  *Histogram
	contended *Counter
}

// NewSyncMetrics creates the sync instruments on meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   SyncMetrics
		err error
	)
	if m.runs, err = NewCounter(meter, "catalog_sync_runs_total", "Sync runs by final status", "{runs}"); err != nil {
		return nil, err
	}
	if m.rows, err = NewCounter(meter, "catalog_sync_rows_total", "Rows and records by outcome", "{rows}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, "catalog_sync_run_duration_seconds", "Wall time of a sync run", "s", RunDurationBuckets...); err != nil {
		return nil, err
	}
	if m.contended, err = NewCounter(meter, "catalog_sync_lock_contention_total", "Runs refused because the tenant was already syncing", "{runs}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordRun records the counters and duration of a finished run
func (m *SyncMetrics) RecordRun(ctx context.Context, trigger syncrun.Trigger, r syncrun.Report) {
	if m == nil {
		return
	}
	table := AttrTable.String(r.Table.String())
	m.runs.Inc(ctx, table, AttrStatus.String(string(r.Status)), AttrTrigger.String(string(trigger)))
	m.duration.RecordDuration(ctx, r.Duration(), table, AttrStatus.String(string(r.Status)))

	for _, o := range []struct {
		name  string
		count int
	}{
		{OutcomeCreated, r.Created},
		{OutcomeUpdated, r.Updated},
		{OutcomeUnchanged, r.Unchanged},
		{OutcomeSkipped, r.Skipped},
		{OutcomeError, r.Errors},
		{OutcomeDeleted, r.Deleted},
		{OutcomeProtected, r.Protected},
		{OutcomeDuplicate, r.Duplicates},
		{OutcomeFlagged, r.Flagged},
	} {
		if o.count > 0 {
			m.rows.Add(ctx, int64(o.count), table, AttrOutcome.String(o.name))
		}
	}
}

// RecordContention counts a run refused by the tenant lock
func (m *SyncMetrics) RecordContention(ctx context.Context, table syncrun.LogicalTable) {
	if m == nil {
		return
	}
	m.contended.Inc(ctx, AttrTable.String(table.String()))
}
