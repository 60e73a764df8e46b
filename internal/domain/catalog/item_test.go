package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestNewItem(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates item with defaults", func(t *testing.T) {
		item, err := NewItem(tenantID, "  A-001 ", ItemFields{
			Description: "Hammer",
			SalePrice:   decimal.RequireFromString("12.50"),
		})
		require.NoError(t, err)

		assert.Equal(t, tenantID, item.TenantID)
		assert.Equal(t, "A-001", item.Code)
		assert.Equal(t, "Hammer", item.Description)
		assert.True(t, item.Active)
		assert.True(t, item.CostPrice.IsZero())
		assert.Equal(t, "12.5", item.SalePrice.String())
		assert.Nil(t, item.CategoryID)
		assert.Equal(t, 1, item.GetVersion())
		assert.NotEqual(t, uuid.Nil, item.ID)
	})

	t.Run("respects explicit inactive flag", func(t *testing.T) {
		item, err := NewItem(tenantID, "A-002", ItemFields{Active: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, item.Active)
	})

	t.Run("rejects blank code", func(t *testing.T) {
		_, err := NewItem(tenantID, "   ", ItemFields{})
		assert.ErrorIs(t, err, ErrBlankCode)
	})

	t.Run("keeps code case", func(t *testing.T) {
		item, err := NewItem(tenantID, "abc", ItemFields{})
		require.NoError(t, err)
		assert.Equal(t, "abc", item.Code)
	})
}

func TestItem_Apply(t *testing.T) {
	tenantID := uuid.New()
	categoryID := uuid.New()

	base := func(t *testing.T) *Item {
		item, err := NewItem(tenantID, "A-001", ItemFields{
			Description: "Hammer",
			CostPrice:   decimal.RequireFromString("10"),
			SalePrice:   decimal.RequireFromString("15"),
			Stock:       decimal.RequireFromString("3"),
			Unit:        "u",
			CategoryID:  &categoryID,
		})
		require.NoError(t, err)
		return item
	}

	t.Run("no change when fields are equal", func(t *testing.T) {
		item := base(t)
		id := categoryID
		changed, err := item.Apply(ItemFields{
			Description: " Hammer ",
			CostPrice:   decimal.RequireFromString("10.00"),
			SalePrice:   decimal.RequireFromString("15.0"),
			Stock:       decimal.RequireFromString("3"),
			Unit:        "u",
			CategoryID:  &id,
		})
		require.NoError(t, err)
		assert.Empty(t, changed)
		assert.Equal(t, 1, item.GetVersion())
	})

	t.Run("applies only differing fields", func(t *testing.T) {
		item := base(t)
		changed, err := item.Apply(ItemFields{
			Description: "Hammer XL",
			CostPrice:   decimal.RequireFromString("10"),
			SalePrice:   decimal.RequireFromString("16"),
			Stock:       decimal.RequireFromString("3"),
			Unit:        "u",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{FieldDescription, FieldSalePrice, FieldCategory}, changed)
		assert.Equal(t, "Hammer XL", item.Description)
		assert.Nil(t, item.CategoryID)
		assert.Equal(t, 2, item.GetVersion())
	})

	t.Run("blank active flag keeps current value", func(t *testing.T) {
		item := base(t)
		item.Active = false
		id := categoryID
		changed, err := item.Apply(ItemFields{
			Description: "Hammer",
			CostPrice:   item.CostPrice,
			SalePrice:   item.SalePrice,
			Stock:       item.Stock,
			Unit:        "u",
			CategoryID:  &id,
		})
		require.NoError(t, err)
		assert.Empty(t, changed)
		assert.False(t, item.Active)
	})

	t.Run("amounts compare at stored scale", func(t *testing.T) {
		item := base(t)
		changed, err := item.Apply(ItemFields{
			Description: "Hammer",
			CostPrice:   decimal.RequireFromString("10.00004"),
			SalePrice:   decimal.RequireFromString("15.123456"),
			Stock:       decimal.RequireFromString("3"),
			Unit:        "u",
			CategoryID:  item.CategoryID,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{FieldSalePrice}, changed)
		assert.Equal(t, "15.1235", item.SalePrice.String())

		changed, err = item.Apply(ItemFields{
			Description: "Hammer",
			CostPrice:   decimal.RequireFromString("10"),
			SalePrice:   decimal.RequireFromString("15.123456"),
			Stock:       decimal.RequireFromString("3"),
			Unit:        "u",
			CategoryID:  item.CategoryID,
		})
		require.NoError(t, err)
		assert.Empty(t, changed)
	})

	t.Run("amount out of range leaves item untouched", func(t *testing.T) {
		item := base(t)
		changed, err := item.Apply(ItemFields{
			Description: "Hammer XL",
			Stock:       decimal.RequireFromString("123456789012345678.5"),
		})
		assert.ErrorIs(t, err, ErrAmountOutOfRange)
		assert.Contains(t, err.Error(), FieldStock)
		assert.Nil(t, changed)
		assert.Equal(t, "Hammer", item.Description)
		assert.Equal(t, 1, item.GetVersion())
	})

	t.Run("clone does not share references", func(t *testing.T) {
		item := base(t)
		clone := item.Clone()
		*clone.CategoryID = uuid.New()
		assert.Equal(t, categoryID, *item.CategoryID)
	})
}

func TestFitAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0.123456", want: "0.1235"},
		{in: "-0.00005", want: "-0.0001"},
		{in: "1234.56", want: "1234.56"},
		{in: "99999999999999.9999", want: "99999999999999.9999"},
		{in: "99999999999999.99995", wantErr: true},
		{in: "100000000000000", wantErr: true},
		{in: "-123456789012345678.5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FitAmount(decimal.RequireFromString(tt.in))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAmountOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := NewItem(uuid.New(), "BIG", ItemFields{CostPrice: decimal.New(1, 15)})
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestNewDimension(t *testing.T) {
	tenantID := uuid.New()

	d, err := NewDimension(tenantID, DimensionBrand, " Acme ")
	require.NoError(t, err)
	assert.Equal(t, "Acme", d.Name)
	assert.Equal(t, DimensionBrand, d.Kind)

	_, err = NewDimension(tenantID, DimensionKind("color"), "Red")
	assert.Error(t, err)

	_, err = NewDimension(tenantID, DimensionCategory, "")
	assert.Error(t, err)
}

func TestSecondaryCode(t *testing.T) {
	tenantA, tenantB := uuid.New(), uuid.New()
	itemA, itemB := uuid.New(), uuid.New()

	sc, err := NewSecondaryCode("7790001", itemA, tenantA)
	require.NoError(t, err)
	assert.False(t, sc.IsOrphan())
	assert.True(t, sc.OwnedByTenant(tenantA))
	assert.False(t, sc.OwnedByTenant(tenantB))

	sc.BindTo(itemB, tenantB)
	assert.Equal(t, itemB, *sc.ItemID)
	assert.True(t, sc.OwnedByTenant(tenantB))

	orphan := &SecondaryCode{Code: "X"}
	assert.True(t, orphan.IsOrphan())
	assert.False(t, orphan.OwnedByTenant(tenantA))

	_, err = NewSecondaryCode(" ", itemA, tenantA)
	assert.Error(t, err)
}
