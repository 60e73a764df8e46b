package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Schedule syncs a tenant's tables every Interval
type Schedule struct {
	TenantID uuid.UUID
	Tables   []syncrun.LogicalTable
	Interval time.Duration
}

// SchedulesFromConfig converts validated config entries
func SchedulesFromConfig(entries []config.ScheduleConfig) ([]Schedule, error) {
	schedules := make([]Schedule, 0, len(entries))
	for i, entry := range entries {
		tenantID, err := uuid.Parse(entry.TenantID)
		if err != nil {
			return nil, fmt.Errorf("%w: schedule %d: tenant_id: %v", ErrInvalidSchedule, i, err)
		}
		if entry.Interval <= 0 {
			return nil, fmt.Errorf("%w: schedule %d: interval must be positive", ErrInvalidSchedule, i)
		}
		s := Schedule{TenantID: tenantID, Interval: entry.Interval}
		for _, name := range entry.Tables {
			table, err := syncrun.ParseTable(name)
			if err != nil {
				return nil, fmt.Errorf("%w: schedule %d: table %q", ErrInvalidSchedule, i, name)
			}
			s.Tables = append(s.Tables, table)
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

// TriggerConfig holds configuration for the schedule trigger
type TriggerConfig struct {
	// CheckInterval is how often due schedules are looked for
	CheckInterval time.Duration
}

// DefaultTriggerConfig returns default trigger configuration
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{CheckInterval: time.Minute}
}

// Trigger submits a job whenever a tenant's table is due. Every table is
// due on the first check after Start.
type Trigger struct {
	config    TriggerConfig
	scheduler *Scheduler
	schedules []Schedule
	logger    *zap.Logger
	now       func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	nextDue   map[jobKey]time.Time
}

// NewTrigger creates a new schedule trigger
func NewTrigger(cfg TriggerConfig, scheduler *Scheduler, schedules []Schedule, logger *zap.Logger) *Trigger {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultTriggerConfig().CheckInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{
		config:    cfg,
		scheduler: scheduler,
		schedules: schedules,
		logger:    logger,
		now:       time.Now,
		nextDue:   make(map[jobKey]time.Time),
	}
}

// Start starts the trigger loop
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Sync trigger started",
		zap.Int("schedules", len(t.schedules)),
		zap.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop stops the trigger loop
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Trigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	t.CheckDue()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.CheckDue()
		}
	}
}

// CheckDue submits every table whose next run time has passed. It returns
// the number of jobs submitted.
func (t *Trigger) CheckDue() int {
	now := t.now()
	submitted := 0

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.schedules {
		for _, table := range s.Tables {
			key := jobKey{tenantID: s.TenantID, table: table}
			if due, ok := t.nextDue[key]; ok && now.Before(due) {
				continue
			}

			_, err := t.scheduler.Submit(s.TenantID, table)
			switch {
			case err == nil:
				submitted++
			case errors.Is(err, ErrJobAlreadyQueued):
				t.logger.Debug("Scheduled sync still queued, skipping",
					zap.String("tenant_id", s.TenantID.String()),
					zap.String("table", table.String()),
				)
			default:
				// leave it due so the next check tries again
				t.logger.Warn("Failed to submit scheduled sync",
					zap.String("tenant_id", s.TenantID.String()),
					zap.String("table", table.String()),
					zap.Error(err),
				)
				continue
			}
			t.nextDue[key] = now.Add(s.Interval)
		}
	}
	return submitted
}
