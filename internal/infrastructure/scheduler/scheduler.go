package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a sync job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusPartial JobStatus = "PARTIAL" // completed with row errors
	JobStatusFailed  JobStatus = "FAILED"
	JobStatusSkipped JobStatus = "SKIPPED" // tenant already syncing
)

// MaxRetryDelay caps the exponential retry backoff
const MaxRetryDelay = 30 * time.Minute

// Job is one scheduled sync of a tenant's logical table
type Job struct {
	ID          uuid.UUID            `json:"id"`
	TenantID    uuid.UUID            `json:"tenant_id"`
	Table       syncrun.LogicalTable `json:"table"`
	Status      JobStatus            `json:"status"`
	Error       string               `json:"error,omitempty"`
	RunID       *uuid.UUID           `json:"run_id,omitempty"`
	Counters    *syncrun.Counters    `json:"counters,omitempty"`
	SubmittedAt time.Time            `json:"submitted_at"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	RetryCount  int                  `json:"retry_count"`
	MaxRetries  int                  `json:"max_retries"`
	NextRetryAt *time.Time           `json:"next_retry_at,omitempty"`
}

// NewJob creates a new job instance
func NewJob(tenantID uuid.UUID, table syncrun.LogicalTable, maxRetries int) *Job {
	return &Job{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Table:       table,
		Status:      JobStatusPending,
		SubmittedAt: time.Now(),
		MaxRetries:  maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the report of a run that finished. Row errors make the job partial.
func (j *Job) Complete(report syncrun.Report) {
	now := time.Now()
	j.CompletedAt = &now
	runID := report.RunID
	counters := report.Counters
	j.RunID = &runID
	j.Counters = &counters
	if report.Errors > 0 {
		j.Status = JobStatusPartial
		return
	}
	j.Status = JobStatusSuccess
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// Skip marks a job that never ran because the tenant was busy
func (j *Job) Skip(reason string) {
	now := time.Now()
	j.Status = JobStatusSkipped
	j.CompletedAt = &now
	j.Error = reason
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
}

// Snapshot returns a copy safe to hand to readers
func (j *Job) Snapshot() Job {
	c := *j
	if j.Counters != nil {
		counters := *j.Counters
		c.Counters = &counters
	}
	return c
}

// RetryDelay doubles base for every retry already made, capped at MaxRetryDelay
func RetryDelay(base time.Duration, retryCount int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= MaxRetryDelay {
			return MaxRetryDelay
		}
	}
	return min(delay, MaxRetryDelay)
}

// JobExecutor is the interface for executing sync jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	HistorySize       int
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 3,
		QueueSize:         100,
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
		HistorySize:       200,
	}
}

type jobKey struct {
	tenantID uuid.UUID
	table    syncrun.LogicalTable
}

// Scheduler runs sync jobs on a bounded worker pool
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	history  *JobHistory
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inflight  map[jobKey]uuid.UUID
	retries   map[uuid.UUID]*time.Timer
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.MaxConcurrentJobs <= 0 {
		config.MaxConcurrentJobs = defaults.MaxConcurrentJobs
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if config.HistorySize <= 0 {
		config.HistorySize = defaults.HistorySize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		history:  NewJobHistory(config.HistorySize),
		logger:   logger,
		inflight: make(map[jobKey]uuid.UUID),
		retries:  make(map[uuid.UUID]*time.Timer),
	}
}

// History returns the finished job history
func (s *Scheduler) History() *JobHistory {
	return s.history
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.jobs = make(chan *Job, s.config.QueueSize)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler. Pending retries are dropped.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	for id, timer := range s.retries {
		timer.Stop()
		delete(s.retries, id)
	}
	clear(s.inflight)
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the worker pool accepts jobs
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Submit queues a sync of a tenant's table. A table already queued or
// running for the tenant is not queued twice.
func (s *Scheduler) Submit(tenantID uuid.UUID, table syncrun.LogicalTable) (*Job, error) {
	job := NewJob(tenantID, table, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// SubmitJob submits a job for execution
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	key := jobKey{tenantID: job.TenantID, table: job.Table}
	if owner, busy := s.inflight[key]; busy && owner != job.ID {
		return ErrJobAlreadyQueued
	}

	select {
	case s.jobs <- job:
		s.inflight[key] = job.ID
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("table", job.Table.String()),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("table", job.Table.String()),
	)
	log.Info("Processing sync job", zap.Int("retry_count", job.RetryCount))

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.executor.Execute(jobCtx, job)
	switch {
	case err == nil:
		log.Info("Sync job completed", zap.String("status", string(job.Status)))
		s.finish(job)

	case errors.Is(err, ErrTenantBusy):
		job.Skip(err.Error())
		log.Info("Sync job skipped, tenant already syncing")
		s.finish(job)

	default:
		job.Fail(err.Error())
		log.Error("Sync job failed", zap.Error(err))
		if job.ShouldRetry() && ctx.Err() == nil {
			s.history.Record(job.Snapshot())
			delay := RetryDelay(s.config.RetryDelay, job.RetryCount)
			job.ScheduleRetry(delay)
			log.Info("Sync job scheduled for retry",
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Duration("delay", delay),
			)
			s.retryAfter(job, delay)
			return
		}
		s.finish(job)
	}
}

// retryAfter resubmits the job once delay elapses, unless the scheduler stopped meanwhile
func (s *Scheduler) retryAfter(job *Job, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		s.release(job)
		return
	}
	s.retries[job.ID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.retries, job.ID)
		s.mu.Unlock()

		if err := s.SubmitJob(job); err != nil {
			s.logger.Warn("Failed to re-queue job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
			job.Fail(err.Error())
			s.finish(job)
		}
	})
}

func (s *Scheduler) finish(job *Job) {
	snapshot := job.Snapshot()
	s.mu.Lock()
	s.release(job)
	s.mu.Unlock()
	s.history.Record(snapshot)
}

// release frees the tenant/table slot; callers hold s.mu
func (s *Scheduler) release(job *Job) {
	key := jobKey{tenantID: job.TenantID, table: job.Table}
	if s.inflight[key] == job.ID {
		delete(s.inflight, key)
	}
}
