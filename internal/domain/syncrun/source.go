package syncrun

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Row is one record of a logical table. Fields are keyed by the raw header text.
type Row struct {
	Line   int
	Fields map[string]string
}

// SourceAdapter reads a tenant's logical table from the source of truth.
// A missing table yields an empty slice and a nil error.
type SourceAdapter interface {
	LoadRows(ctx context.Context, tenantID uuid.UUID, table LogicalTable) ([]Row, error)
}

// SourceAdapterFunc adapts a function to SourceAdapter
type SourceAdapterFunc func(ctx context.Context, tenantID uuid.UUID, table LogicalTable) ([]Row, error)

// LoadRows calls f
func (f SourceAdapterFunc) LoadRows(ctx context.Context, tenantID uuid.UUID, table LogicalTable) ([]Row, error) {
	return f(ctx, tenantID, table)
}

// ErrSourceNotConfigured is returned by adapters without a usable location
var ErrSourceNotConfigured = errors.New("source not configured")
