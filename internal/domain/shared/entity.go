package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TenantEntity is a base entity scoped to a tenant and versioned on every change
type TenantEntity struct {
	BaseEntity
	TenantID uuid.UUID
	Version  int
}

// NewTenantEntity creates a tenant-scoped entity at version 1
func NewTenantEntity(tenantID uuid.UUID) TenantEntity {
	return TenantEntity{
		BaseEntity: NewBaseEntity(),
		TenantID:   tenantID,
		Version:    1,
	}
}

// GetVersion returns the entity version
func (e *TenantEntity) GetVersion() int {
	return e.Version
}

// IncrementVersion increments the version number and touches UpdatedAt
func (e *TenantEntity) IncrementVersion() {
	e.Version++
	e.Touch()
}
