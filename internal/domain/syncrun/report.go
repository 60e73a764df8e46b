package syncrun

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of a sync run
type Status string

const (
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusAborted             Status = "aborted"
)

// Counters are the per-run tallies
type Counters struct {
	Read       int `json:"read"`
	Duplicates int `json:"duplicates"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Unchanged  int `json:"unchanged"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
	Deleted    int `json:"deleted"`
	Protected  int `json:"protected"`
	Flagged    int `json:"flagged"`
}

// Report is the summary of one sync run. It is built once when the run ends.
type Report struct {
	RunID    uuid.UUID    `json:"run_id"`
	TenantID uuid.UUID    `json:"tenant_id"`
	Table    LogicalTable `json:"table"`
	Status   Status       `json:"status"`
	Counters

	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	Issues          []Issue `json:"issues"`
	TotalIssues     int     `json:"total_issues"`
	IssuesTruncated bool    `json:"issues_truncated"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns the wall time of the run
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Aborted reports whether a fatal error ended the run
func (r Report) Aborted() bool {
	return r.Status == StatusAborted
}

// Builder accumulates counters and issues during a run
type Builder struct {
	Counters
	runID     uuid.UUID
	tenantID  uuid.UUID
	table     LogicalTable
	issues    *IssueLog
	startedAt time.Time
}

// NewBuilder starts a report for a run
func NewBuilder(tenantID uuid.UUID, table LogicalTable, maxIssues int) *Builder {
	return &Builder{
		runID:     uuid.New(),
		tenantID:  tenantID,
		table:     table,
		issues:    NewIssueLog(maxIssues),
		startedAt: time.Now(),
	}
}

// RunID returns the identifier of the run being built
func (b *Builder) RunID() uuid.UUID {
	return b.runID
}

// Issue records a row issue
func (b *Builder) Issue(line int, code, kind, format string, args ...any) {
	b.issues.Addf(line, code, kind, format, args...)
}

// Checkpoint is a saved builder state
type Checkpoint struct {
	counters Counters
	kept     int
	total    int
}

// Checkpoint saves the counters and issues recorded so far
func (b *Builder) Checkpoint() Checkpoint {
	kept, total := b.issues.mark()
	return Checkpoint{counters: b.Counters, kept: kept, total: total}
}

// Restore returns the builder to cp, dropping counters and issues of work that
// was rolled back
func (b *Builder) Restore(cp Checkpoint) {
	b.Counters = cp.counters
	b.issues.rewind(cp.kept, cp.total)
}

// Finish freezes the report. A non-nil fatal error marks the run aborted; errCode is its taxonomy code.
func (b *Builder) Finish(errCode string, fatal error) Report {
	r := Report{
		RunID:           b.runID,
		TenantID:        b.tenantID,
		Table:           b.table,
		Counters:        b.Counters,
		Issues:          b.issues.Issues(),
		TotalIssues:     b.issues.TotalCount(),
		IssuesTruncated: b.issues.IsTruncated(),
		StartedAt:       b.startedAt,
		FinishedAt:      time.Now(),
	}

	switch {
	case fatal != nil:
		r.Status = StatusAborted
		r.ErrorCode = errCode
		r.Error = fatal.Error()
	case r.Errors > 0:
		r.Status = StatusCompletedWithErrors
	default:
		r.Status = StatusCompleted
	}
	return r
}
