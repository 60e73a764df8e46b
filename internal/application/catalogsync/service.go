package catalogsync

import (
	"context"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locker is a non-blocking per-key lock. ok=false means another holder has it.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(context.Context) error, ok bool, err error)
}

// SyncService is the entry point every trigger goes through. It enforces a
// single run per tenant, records metrics and writes the run audit row.
type SyncService struct {
	orchestrator *Orchestrator
	runs         syncrun.RunRepository
	locker       Locker
	metrics      *telemetry.SyncMetrics
	logger       *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(orchestrator *Orchestrator, runs syncrun.RunRepository, locker Locker, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		orchestrator: orchestrator,
		runs:         runs,
		locker:       locker,
		logger:       logger,
	}
}

// SetMetrics sets the sync metrics recorder
func (s *SyncService) SetMetrics(m *telemetry.SyncMetrics) {
	s.metrics = m
}

// Sync runs one pass over a logical table. The report is returned for every
// run that started, aborted ones included. The error is reserved for runs
// that never started: an unknown table, a tenant already syncing or a lock failure.
func (s *SyncService) Sync(ctx context.Context, tenantID uuid.UUID, table string, trigger syncrun.Trigger) (syncrun.Report, error) {
	lt, err := syncrun.ParseTable(table)
	if err != nil {
		return syncrun.Report{}, err
	}

	release, ok, err := s.locker.TryLock(ctx, tenantID.String())
	if err != nil {
		return syncrun.Report{}, fmt.Errorf("failed to acquire tenant lock: %w", err)
	}
	if !ok {
		s.metrics.RecordContention(ctx, lt)
		s.logger.Info("Sync refused, tenant already syncing",
			zap.String("tenant_id", tenantID.String()),
			zap.String("table", lt.String()),
			zap.String("trigger", string(trigger)),
		)
		return syncrun.Report{}, ErrSyncInProgress
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release tenant lock",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}()

	var report syncrun.Report
	labels := telemetry.SyncRunLabels(tenantID.String(), lt.String(), string(trigger))
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		report = s.orchestrator.Run(ctx, tenantID, lt)
	})

	s.metrics.RecordRun(ctx, trigger, report)
	s.audit(ctx, trigger, report)
	s.logReport(trigger, report)
	return report, nil
}

// ListRuns returns a tenant's recent runs, newest first
func (s *SyncService) ListRuns(ctx context.Context, tenantID uuid.UUID, filter syncrun.RunFilter) ([]syncrun.Run, error) {
	if filter.Table != "" {
		if _, err := syncrun.ParseTable(filter.Table.String()); err != nil {
			return nil, err
		}
	}
	return s.runs.ListForTenant(ctx, tenantID, filter)
}

// audit persists the run. Failures are logged and never change the outcome.
func (s *SyncService) audit(ctx context.Context, trigger syncrun.Trigger, report syncrun.Report) {
	run := &syncrun.Run{Trigger: trigger, Report: report}
	if err := s.runs.Save(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("Failed to persist sync run",
			zap.String("run_id", report.RunID.String()),
			zap.Error(err),
		)
	}
}

func (s *SyncService) logReport(trigger syncrun.Trigger, r syncrun.Report) {
	fields := []zap.Field{
		zap.String("run_id", r.RunID.String()),
		zap.String("tenant_id", r.TenantID.String()),
		zap.String("table", r.Table.String()),
		zap.String("trigger", string(trigger)),
		zap.String("status", string(r.Status)),
		zap.Int("read", r.Read),
		zap.Int("duplicates", r.Duplicates),
		zap.Int("created", r.Created),
		zap.Int("updated", r.Updated),
		zap.Int("unchanged", r.Unchanged),
		zap.Int("skipped", r.Skipped),
		zap.Int("errors", r.Errors),
		zap.Int("deleted", r.Deleted),
		zap.Int("protected", r.Protected),
		zap.Int("flagged", r.Flagged),
		zap.Duration("duration", r.Duration()),
	}

	switch r.Status {
	case syncrun.StatusAborted:
		fields = append(fields, zap.String("error_code", r.ErrorCode), zap.String("error", r.Error))
		s.logger.Error("Catalog sync aborted", fields...)
	case syncrun.StatusCompletedWithErrors:
		s.logger.Warn("Catalog sync completed with errors", fields...)
	default:
		s.logger.Info("Catalog sync completed", fields...)
	}
}
