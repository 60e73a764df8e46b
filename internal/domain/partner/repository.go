package partner

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for partners
type Repository interface {
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, kind Kind) ([]Partner, error)
	Create(ctx context.Context, p *Partner) error
	Update(ctx context.Context, p *Partner) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// HistoryChecker reports whether orders reference a partner.
// Clients are checked against sales orders, providers against purchase orders.
type HistoryChecker interface {
	HasPartnerHistory(ctx context.Context, kind Kind, partnerID uuid.UUID) (bool, error)
}
