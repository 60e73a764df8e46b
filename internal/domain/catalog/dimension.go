package catalog

import (
	"strings"

	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
)

// DimensionKind distinguishes the lookup tables an item references
type DimensionKind string

const (
	DimensionCategory DimensionKind = "category"
	DimensionBrand    DimensionKind = "brand"
)

// IsValid reports whether the kind is known
func (k DimensionKind) IsValid() bool {
	return k == DimensionCategory || k == DimensionBrand
}

// Dimension is a named category or brand. Names match exactly, case included.
type Dimension struct {
	shared.BaseEntity
	TenantID uuid.UUID
	Kind     DimensionKind
	Name     string
}

// NewDimension creates a new dimension
func NewDimension(tenantID uuid.UUID, kind DimensionKind, name string) (*Dimension, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIMENSION_KIND", "Dimension kind must be category or brand")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_DIMENSION_NAME", "Dimension name cannot be empty")
	}
	return &Dimension{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Kind:       kind,
		Name:       name,
	}, nil
}
