package catalogsync

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/catalogsync/internal/domain/catalog"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("creates then detects changed fields", func(t *testing.T) {
		store := newResolverStore(t)
		tenantID := uuid.New()
		e := NewUpsertEngine(tenantID, nil, NewDimensionResolver(tenantID))

		change, err := e.Upsert(ctx, store, "A-1", catalog.ItemFields{Description: "Hammer", SalePrice: decimal.NewFromInt(10)}, "Tools", "")
		require.NoError(t, err)
		assert.True(t, change.Created)
		require.NotNil(t, change.Item.CategoryID)
		assert.Nil(t, change.Item.BrandID)
		e.Commit()

		change, err = e.Upsert(ctx, store, "A-1", catalog.ItemFields{Description: "Hammer", SalePrice: decimal.NewFromInt(10)}, "Tools", "")
		require.NoError(t, err)
		assert.False(t, change.Created)
		assert.Empty(t, change.Changed)
		e.Commit()

		change, err = e.Upsert(ctx, store, "A-1", catalog.ItemFields{Description: "Hammer", SalePrice: decimal.NewFromInt(12)}, "Tools", "Acme")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{catalog.FieldSalePrice, catalog.FieldBrand}, change.Changed)
		e.Commit()

		items, err := store.Items().FindAllForTenant(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "12", items[0].SalePrice.String())
		assert.NotNil(t, items[0].BrandID)
	})

	t.Run("rollback discards the staged item and dimensions", func(t *testing.T) {
		store := newResolverStore(t)
		tenantID := uuid.New()
		dims := NewDimensionResolver(tenantID)
		e := NewUpsertEngine(tenantID, nil, dims)

		errAbort := errors.New("abort")
		err := store.Transaction(ctx, func(tx syncrun.Store) error {
			_, err := e.Upsert(ctx, tx, "A-1", catalog.ItemFields{Description: "x"}, "Tools", "")
			require.NoError(t, err)
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)
		e.Rollback()

		assert.Nil(t, e.Lookup("A-1"))
		assert.Empty(t, e.Snapshot())
		assert.Zero(t, dims.Created())

		// the category is created again instead of reusing a rolled back id
		change, err := e.Upsert(ctx, store, "A-1", catalog.ItemFields{Description: "x"}, "Tools", "")
		require.NoError(t, err)
		assert.True(t, change.Created)
		e.Commit()
		assert.Equal(t, 1, dims.Created())

		d, err := store.Dimensions().FindByName(ctx, tenantID, catalog.DimensionCategory, "Tools")
		require.NoError(t, err)
		assert.Equal(t, d.ID, *change.Item.CategoryID)
	})

	t.Run("snapshot is ordered by code", func(t *testing.T) {
		tenantID := uuid.New()
		snapshot := []catalog.Item{{Code: "C"}, {Code: "A"}, {Code: "B"}}
		e := NewUpsertEngine(tenantID, snapshot, NewDimensionResolver(tenantID))

		codes := make([]string, 0, 3)
		for _, item := range e.Snapshot() {
			codes = append(codes, item.Code)
		}
		assert.Equal(t, []string{"A", "B", "C"}, codes)
	})
}
