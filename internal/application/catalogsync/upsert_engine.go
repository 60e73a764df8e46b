package catalogsync

import (
	"context"
	"fmt"
	"sort"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/google/uuid"
)

// ItemChange is the result of upserting one item
type ItemChange struct {
	Item    *catalog.Item
	Created bool
	Changed []string
}

// UpsertEngine creates or updates catalog items against a snapshot of the
// tenant's catalog loaded once per run. Writes of the row in flight are staged
// and only reach the snapshot on Commit.
type UpsertEngine struct {
	tenantID uuid.UUID
	dims     *DimensionResolver
	items    map[string]*catalog.Item
	staged   map[string]*catalog.Item
}

// NewUpsertEngine creates an engine over the given snapshot
func NewUpsertEngine(tenantID uuid.UUID, snapshot []catalog.Item, dims *DimensionResolver) *UpsertEngine {
	items := make(map[string]*catalog.Item, len(snapshot))
	for i := range snapshot {
		items[snapshot[i].Code] = &snapshot[i]
	}
	return &UpsertEngine{
		tenantID: tenantID,
		dims:     dims,
		items:    items,
		staged:   make(map[string]*catalog.Item),
	}
}

// Upsert writes the desired state of the item identified by code.
// Amounts are fitted to the store first; catalog.ErrAmountOutOfRange leaves
// the store untouched. Category and brand names are resolved before any comparison.
func (e *UpsertEngine) Upsert(ctx context.Context, tx syncrun.Store, code string, fields catalog.ItemFields, category, brand string) (ItemChange, error) {
	fields, err := fields.Fit()
	if err != nil {
		return ItemChange{}, err
	}
	if fields.CategoryID, err = e.dims.ResolveID(ctx, tx.Dimensions(), catalog.DimensionCategory, category); err != nil {
		return ItemChange{}, err
	}
	if fields.BrandID, err = e.dims.ResolveID(ctx, tx.Dimensions(), catalog.DimensionBrand, brand); err != nil {
		return ItemChange{}, err
	}

	current := e.Lookup(code)
	if current == nil {
		item, err := catalog.NewItem(e.tenantID, code, fields)
		if err != nil {
			return ItemChange{}, err
		}
		if err := tx.Items().Create(ctx, item); err != nil {
			return ItemChange{}, fmt.Errorf("failed to create item: %w", err)
		}
		e.staged[item.Code] = item
		return ItemChange{Item: item, Created: true}, nil
	}

	next := current.Clone()
	changed, err := next.Apply(fields)
	if err != nil {
		return ItemChange{}, err
	}
	if len(changed) > 0 {
		if err := tx.Items().Update(ctx, next); err != nil {
			return ItemChange{}, fmt.Errorf("failed to update item: %w", err)
		}
	}
	e.staged[next.Code] = next
	return ItemChange{Item: next, Changed: changed}, nil
}

// Lookup returns the item with the given code, staged writes included
func (e *UpsertEngine) Lookup(code string) *catalog.Item {
	if item, ok := e.staged[code]; ok {
		return item
	}
	return e.items[code]
}

// Commit publishes the staged writes of the current row
func (e *UpsertEngine) Commit() {
	for code, item := range e.staged {
		e.items[code] = item
	}
	clear(e.staged)
	e.dims.Commit()
}

// Rollback discards the staged writes of the current row
func (e *UpsertEngine) Rollback() {
	clear(e.staged)
	e.dims.Rollback()
}

// Snapshot returns the committed items ordered by code
func (e *UpsertEngine) Snapshot() []*catalog.Item {
	out := make([]*catalog.Item, 0, len(e.items))
	for _, item := range e.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

