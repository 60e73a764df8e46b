package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository defines persistence for catalog items
type ItemRepository interface {
	// FindAllForTenant loads every item of a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Item, error)

	// Create inserts a new item
	Create(ctx context.Context, item *Item) error

	// Update writes all tracked fields of an existing item
	Update(ctx context.Context, item *Item) error

	// DeleteForTenant hard deletes an item within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// DimensionRepository defines persistence for categories and brands
type DimensionRepository interface {
	// FindByName returns shared.ErrNotFound when no dimension has the exact name
	FindByName(ctx context.Context, tenantID uuid.UUID, kind DimensionKind, name string) (*Dimension, error)

	// Create inserts a new dimension
	Create(ctx context.Context, dimension *Dimension) error
}

// SecondaryCodeRepository is the only writer of the global barcode registry
type SecondaryCodeRepository interface {
	// FindAll loads the registry across all tenants
	FindAll(ctx context.Context) ([]SecondaryCode, error)

	// Insert registers a new code. Returns ErrBarcodeTaken when the code already exists.
	Insert(ctx context.Context, code *SecondaryCode) error

	// Claim moves a code to itemID provided its current owner is still expectedOwner
	// (nil means orphan). Returns ErrBarcodeTaken when the owner changed meanwhile.
	Claim(ctx context.Context, code string, itemID, tenantID uuid.UUID, expectedOwner *uuid.UUID) error

	// ReleaseItem removes whatever code the item owns
	ReleaseItem(ctx context.Context, itemID uuid.UUID) error
}

// HistoryChecker reports whether trade documents reference an item
type HistoryChecker interface {
	HasItemHistory(ctx context.Context, itemID uuid.UUID) (bool, error)
}
