package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobAlreadyQueued is returned when the tenant's table is already queued or running
	ErrJobAlreadyQueued = errors.New("sync job already queued for this tenant and table")

	// ErrTenantBusy is returned by executors when another run holds the tenant
	ErrTenantBusy = errors.New("tenant is already syncing")

	// ErrRunAborted is returned by executors for runs that ended aborted
	ErrRunAborted = errors.New("sync run aborted")

	// ErrInvalidSchedule is returned for schedules that cannot be used
	ErrInvalidSchedule = errors.New("invalid sync schedule")
)
