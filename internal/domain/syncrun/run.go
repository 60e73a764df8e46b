package syncrun

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrSyncInProgress is returned when the tenant already has a run in flight
var ErrSyncInProgress = shared.NewDomainError("SYNC_IN_PROGRESS", "A sync is already running for this tenant")

// Trigger names what started a run
type Trigger string

const (
	TriggerHTTP      Trigger = "http"
	TriggerScheduler Trigger = "scheduler"
	TriggerCLI       Trigger = "cli"
)

// Run is the audit record of a finished sync run
type Run struct {
	Trigger Trigger `json:"trigger"`
	Report
}

// RunFilter narrows a run listing
type RunFilter struct {
	Table LogicalTable
	Limit int
}

// RunRepository persists sync run audit records
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	ListForTenant(ctx context.Context, tenantID uuid.UUID, filter RunFilter) ([]Run, error)
}
