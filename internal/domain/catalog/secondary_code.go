package catalog

import (
	"strings"

	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
)

// SecondaryCode is an entry of the global barcode registry.
// A code with no owning item is an orphan and may be claimed by any tenant.
type SecondaryCode struct {
	shared.BaseEntity
	Code     string
	ItemID   *uuid.UUID
	TenantID *uuid.UUID
}

// NewSecondaryCode creates a registry entry bound to an item
func NewSecondaryCode(code string, itemID, tenantID uuid.UUID) (*SecondaryCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_BARCODE", "Barcode cannot be empty")
	}
	return &SecondaryCode{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		ItemID:     &itemID,
		TenantID:   &tenantID,
	}, nil
}

// IsOrphan reports whether no item owns the code
func (s *SecondaryCode) IsOrphan() bool {
	return s.ItemID == nil
}

// OwnedByTenant reports whether an item of the given tenant owns the code
func (s *SecondaryCode) OwnedByTenant(tenantID uuid.UUID) bool {
	return s.ItemID != nil && s.TenantID != nil && *s.TenantID == tenantID
}

// BindTo moves the code to the given item
func (s *SecondaryCode) BindTo(itemID, tenantID uuid.UUID) {
	s.ItemID = &itemID
	s.TenantID = &tenantID
	s.Touch()
}
