package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/app/repository"
	"gorm.io/gorm"
)

func setupProductServiceTest(t *testing.T) (ProductService, *gorm.DB) {
	testDB := newTestDB(t)

	productRepo := repository.NewProductRepository(testDB)
	variantRepo := repository.NewVariantRepository(testDB)
	inventory := NewInventoryService(variantRepo, testDB)

	return NewProductService(productRepo, variantRepo, inventory, testDB), testDB
}

func TestProductService_CreateAndGetProduct(t *testing.T) {
	productService, _ := setupProductServiceTest(t)

	product := &model.Product{Name: "Classic Tee", Description: "Plain tee", IsActive: true}
	require.NoError(t, productService.CreateProduct(product))
	require.NotZero(t, product.ID)

	found, err := productService.GetProduct(product.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Classic Tee", found.Name)

	_, err = productService.GetProduct(99999, false)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_ListProducts_Search(t *testing.T) {
	productService, _ := setupProductServiceTest(t)

	require.NoError(t, productService.CreateProduct(&model.Product{Name: "Trail Runner", IsActive: true}))
	require.NoError(t, productService.CreateProduct(&model.Product{Name: "Water Bottle", IsActive: true}))

	products, err := productService.ListProducts(repository.ProductFilter{Search: "trail"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Trail Runner", products[0].Name)

	products, err = productService.ListProducts(repository.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestProductService_DeactivateProduct_HidesFromListing(t *testing.T) {
	productService, _ := setupProductServiceTest(t)

	product := &model.Product{Name: "Classic Tee", IsActive: true}
	require.NoError(t, productService.CreateProduct(product))
	require.NoError(t, productService.DeactivateProduct(product.ID))

	// Invisible to shoppers.
	products, err := productService.ListProducts(repository.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 0)

	_, err = productService.GetProduct(product.ID, false)
	assert.ErrorIs(t, err, ErrProductNotFound)

	// Still visible with admin eyes.
	products, err = productService.ListProducts(repository.ProductFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, products, 1)

	found, err := productService.GetProduct(product.ID, true)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

func TestProductService_CreateVariant(t *testing.T) {
	productService, _ := setupProductServiceTest(t)

	product := &model.Product{Name: "Classic Tee", IsActive: true}
	require.NoError(t, productService.CreateProduct(product))

	sku := "TEE-BLK-M"
	variant, err := productService.CreateVariant(product.ID, VariantInput{
		SKU:      &sku,
		Price:    decimal.RequireFromString("19.99"),
		Stock:    50,
		IsActive: true,
		Attributes: []model.VariantAttribute{
			{Key: "color", Value: "black"},
			{Key: "size", Value: "M"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, product.ID, variant.ProductID)
	assert.Equal(t, 50, variant.StockQuantity)
	assert.Len(t, variant.Attributes, 2)

	found, err := productService.GetProduct(product.ID, false)
	require.NoError(t, err)
	require.Len(t, found.Variants, 1)
}

func TestProductService_CreateVariant_Validation(t *testing.T) {
	productService, _ := setupProductServiceTest(t)

	product := &model.Product{Name: "Classic Tee", IsActive: true}
	require.NoError(t, productService.CreateProduct(product))

	_, err := productService.CreateVariant(product.ID, VariantInput{
		Price: decimal.RequireFromString("-1.00"), IsActive: true,
	})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = productService.CreateVariant(product.ID, VariantInput{
		Price: decimal.RequireFromString("1.00"), Stock: -5, IsActive: true,
	})
	assert.ErrorIs(t, err, ErrInvalidStock)

	_, err = productService.CreateVariant(99999, VariantInput{
		Price: decimal.RequireFromString("1.00"), IsActive: true,
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_UpdateVariant_ReplacesAttributes(t *testing.T) {
	productService, _ := setupProductServiceTest(t)

	product := &model.Product{Name: "Classic Tee", IsActive: true}
	require.NoError(t, productService.CreateProduct(product))

	variant, err := productService.CreateVariant(product.ID, VariantInput{
		Price: decimal.RequireFromString("19.99"), Stock: 10, IsActive: true,
		Attributes: []model.VariantAttribute{{Key: "color", Value: "black"}},
	})
	require.NoError(t, err)

	updated, err := productService.UpdateVariant(variant.ID, VariantInput{
		Price: decimal.RequireFromString("21.50"), IsActive: true,
		Attributes: []model.VariantAttribute{
			{Key: "color", Value: "white"},
			{Key: "size", Value: "L"},
		},
	})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("21.50")))
	require.Len(t, updated.Attributes, 2)

	_, err = productService.UpdateVariant(99999, VariantInput{
		Price: decimal.RequireFromString("1.00"), IsActive: true,
	})
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestProductService_AdjustStock(t *testing.T) {
	productService, testDB := setupProductServiceTest(t)
	variant := seedVariant(t, testDB, "Classic Tee", 19.99, 10)

	updated, err := productService.AdjustStock(variant.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 15, updated.StockQuantity)

	updated, err = productService.AdjustStock(variant.ID, -15)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.StockQuantity)
}

func TestProductService_AdjustStock_CannotGoNegative(t *testing.T) {
	productService, testDB := setupProductServiceTest(t)
	variant := seedVariant(t, testDB, "Classic Tee", 19.99, 3)

	_, err := productService.AdjustStock(variant.ID, -4)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, variantStock(t, testDB, variant.ID))

	_, err = productService.AdjustStock(99999, 1)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}
