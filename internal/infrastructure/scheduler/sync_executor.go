package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncRunner runs one sync pass; satisfied by the catalog sync service
type SyncRunner interface {
	Sync(ctx context.Context, tenantID uuid.UUID, table string, trigger syncrun.Trigger) (syncrun.Report, error)
}

// SyncExecutor runs scheduled jobs through the sync service
type SyncExecutor struct {
	runner SyncRunner
	logger *zap.Logger

	onCompleted func(ctx context.Context, job *Job, report syncrun.Report)
}

// NewSyncExecutor creates a new sync executor
func NewSyncExecutor(runner SyncRunner, logger *zap.Logger) *SyncExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncExecutor{runner: runner, logger: logger}
}

// SetOnCompletedCallback sets a callback invoked with every report, aborted ones included
func (e *SyncExecutor) SetOnCompletedCallback(cb func(ctx context.Context, job *Job, report syncrun.Report)) {
	e.onCompleted = cb
}

// Execute runs the job's table. Runs that complete, with or without row
// errors, succeed; aborted runs return ErrRunAborted so the job retries.
func (e *SyncExecutor) Execute(ctx context.Context, job *Job) error {
	report, err := e.runner.Sync(ctx, job.TenantID, job.Table.String(), syncrun.TriggerScheduler)
	if err != nil {
		if errors.Is(err, syncrun.ErrSyncInProgress) {
			return fmt.Errorf("%w: %v", ErrTenantBusy, err)
		}
		if errors.Is(err, syncrun.ErrUnknownTable) {
			// retrying cannot fix a bad table name
			job.MaxRetries = job.RetryCount
		}
		return err
	}

	if e.onCompleted != nil {
		e.onCompleted(ctx, job, report)
	}

	runID := report.RunID
	job.RunID = &runID
	if report.Aborted() {
		e.logger.Warn("Scheduled sync aborted",
			zap.String("job_id", job.ID.String()),
			zap.String("run_id", report.RunID.String()),
			zap.String("error_code", report.ErrorCode),
		)
		return fmt.Errorf("%w: %s: %s", ErrRunAborted, report.ErrorCode, report.Error)
	}

	job.Complete(report)
	return nil
}
