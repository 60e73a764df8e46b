package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/shared"
	"github.com/google/uuid"
)

type dimensionKey struct {
	kind catalog.DimensionKind
	name string
}

// DimensionResolver is the get-or-create cache for categories and brands of
// one run. Dimensions created while a row is in flight stay pending until the
// row commits, so a rolled back row never leaves a stale cache entry.
type DimensionResolver struct {
	tenantID uuid.UUID
	cache    map[dimensionKey]*catalog.Dimension
	pending  map[dimensionKey]*catalog.Dimension
	created  int
}

// NewDimensionResolver creates a resolver owned by a single run
func NewDimensionResolver(tenantID uuid.UUID) *DimensionResolver {
	return &DimensionResolver{
		tenantID: tenantID,
		cache:    make(map[dimensionKey]*catalog.Dimension),
		pending:  make(map[dimensionKey]*catalog.Dimension),
	}
}

// Resolve returns the dimension named name, creating it when absent.
// A blank name resolves to nil without touching the store.
func (r *DimensionResolver) Resolve(ctx context.Context, repo catalog.DimensionRepository, kind catalog.DimensionKind, name string) (*catalog.Dimension, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	key := dimensionKey{kind: kind, name: name}
	if d, ok := r.cache[key]; ok {
		return d, nil
	}
	if d, ok := r.pending[key]; ok {
		return d, nil
	}

	d, err := repo.FindByName(ctx, r.tenantID, kind, name)
	switch {
	case err == nil:
		r.cache[key] = d
		return d, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, fmt.Errorf("failed to look up %s %q: %w", kind, name, err)
	}

	d, err = catalog.NewDimension(r.tenantID, kind, name)
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create %s %q: %w", kind, name, err)
	}
	r.pending[key] = d
	return d, nil
}

// ResolveID resolves a dimension and returns its id, nil for a blank name
func (r *DimensionResolver) ResolveID(ctx context.Context, repo catalog.DimensionRepository, kind catalog.DimensionKind, name string) (*uuid.UUID, error) {
	d, err := r.Resolve(ctx, repo, kind, name)
	if err != nil || d == nil {
		return nil, err
	}
	id := d.ID
	return &id, nil
}

// Commit promotes dimensions created by the current row
func (r *DimensionResolver) Commit() {
	for k, d := range r.pending {
		r.cache[k] = d
		r.created++
	}
	clear(r.pending)
}

// Rollback forgets dimensions created by the current row
func (r *DimensionResolver) Rollback() {
	clear(r.pending)
}

// Created returns how many dimensions this run created
func (r *DimensionResolver) Created() int {
	return r.created
}
