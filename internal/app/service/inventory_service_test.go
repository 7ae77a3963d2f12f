package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/app/repository"
	"gorm.io/gorm"
)

func setupInventoryTest(t *testing.T) (InventoryService, *gorm.DB) {
	testDB := newTestDB(t)
	return NewInventoryService(repository.NewVariantRepository(testDB), testDB), testDB
}

func TestInventoryService_GetVariant(t *testing.T) {
	inventory, testDB := setupInventoryTest(t)
	variant := seedVariant(t, testDB, "Widget", 9.99, 5)

	found, err := inventory.GetVariant(variant.ID)
	require.NoError(t, err)
	assert.Equal(t, variant.ID, found.ID)
	assert.Equal(t, 5, found.StockQuantity)

	_, err = inventory.GetVariant(99999)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestInventoryService_ValidateStock(t *testing.T) {
	inventory, testDB := setupInventoryTest(t)
	variant := seedVariant(t, testDB, "Widget", 9.99, 5)

	assert.NoError(t, inventory.ValidateStock(variant, 1))
	assert.NoError(t, inventory.ValidateStock(variant, 5))
	assert.ErrorIs(t, inventory.ValidateStock(variant, 6), ErrInsufficientStock)
}

func TestInventoryService_ValidateStock_InactiveVariant(t *testing.T) {
	inventory, testDB := setupInventoryTest(t)
	variant := seedVariant(t, testDB, "Widget", 9.99, 5)

	variant.IsActive = false
	require.NoError(t, testDB.Save(variant).Error)

	loaded, err := inventory.GetVariant(variant.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, inventory.ValidateStock(loaded, 1), ErrVariantInactive)
}

func TestInventoryService_ValidateStock_InactiveProduct(t *testing.T) {
	inventory, testDB := setupInventoryTest(t)
	variant := seedVariant(t, testDB, "Widget", 9.99, 5)

	require.NoError(t, testDB.Model(&model.Product{}).
		Where("id = ?", variant.ProductID).
		Update("is_active", false).Error)

	// The variant itself is still active; the parent hides it.
	loaded, err := inventory.GetVariant(variant.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, inventory.ValidateStock(loaded, 1), ErrVariantInactive)
}

func TestInventoryService_LockVariants(t *testing.T) {
	inventory, testDB := setupInventoryTest(t)
	v1 := seedVariant(t, testDB, "Widget A", 10.00, 5)
	v2 := seedVariant(t, testDB, "Widget B", 20.00, 3)

	err := testDB.Transaction(func(tx *gorm.DB) error {
		// Duplicates and a missing id in the request.
		locked, err := inventory.LockVariants(tx, []uint{v2.ID, v1.ID, v1.ID, 99999})
		require.NoError(t, err)

		assert.Len(t, locked, 2)
		assert.Contains(t, locked, v1.ID)
		assert.Contains(t, locked, v2.ID)
		assert.NotContains(t, locked, uint(99999))
		return nil
	})
	require.NoError(t, err)
}

func TestInventoryService_DecreaseStock(t *testing.T) {
	inventory, testDB := setupInventoryTest(t)
	variant := seedVariant(t, testDB, "Widget", 9.99, 5)

	require.NoError(t, inventory.DecreaseStock(testDB, variant.ID, 3))
	assert.Equal(t, 2, variantStock(t, testDB, variant.ID))

	// Exactly drains the stock.
	require.NoError(t, inventory.DecreaseStock(testDB, variant.ID, 2))
	assert.Equal(t, 0, variantStock(t, testDB, variant.ID))
}

func TestInventoryService_DecreaseStock_GuardRejects(t *testing.T) {
	inventory, testDB := setupInventoryTest(t)
	variant := seedVariant(t, testDB, "Widget", 9.99, 2)

	err := inventory.DecreaseStock(testDB, variant.ID, 3)
	assert.ErrorIs(t, err, ErrStockDecrementFailed)

	// The rejected decrement must not touch the row.
	assert.Equal(t, 2, variantStock(t, testDB, variant.ID))
}

func TestInventoryService_IncreaseStock(t *testing.T) {
	inventory, testDB := setupInventoryTest(t)
	variant := seedVariant(t, testDB, "Widget", 9.99, 2)

	require.NoError(t, inventory.IncreaseStock(testDB, variant.ID, 7))
	assert.Equal(t, 9, variantStock(t, testDB, variant.ID))
}

func TestInventoryService_WithLockedVariants_RollsBackOnError(t *testing.T) {
	inventory, testDB := setupInventoryTest(t)
	variant := seedVariant(t, testDB, "Widget", 9.99, 5)

	err := inventory.WithLockedVariants([]uint{variant.ID}, func(tx *gorm.DB, variants map[uint]*model.ProductVariant) error {
		require.Contains(t, variants, variant.ID)
		if err := inventory.DecreaseStock(tx, variant.ID, 5); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	// The decrement inside the failed transaction must not stick.
	assert.Equal(t, 5, variantStock(t, testDB, variant.ID))
}
