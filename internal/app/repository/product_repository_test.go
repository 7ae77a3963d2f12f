package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velocommerce/velo-backend/internal/app/model"
)

func TestProductRepository_FindWithFilter_ActiveOnly(t *testing.T) {
	testDB := newTestDB(t)
	repo := NewProductRepository(testDB)

	require.NoError(t, repo.Create(&model.Product{Name: "Visible", IsActive: true}))
	require.NoError(t, repo.Create(&model.Product{Name: "Hidden", IsActive: false}))

	products, err := repo.FindWithFilter(ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Visible", products[0].Name)

	products, err = repo.FindWithFilter(ProductFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestProductRepository_FindWithFilter_Search(t *testing.T) {
	testDB := newTestDB(t)
	repo := NewProductRepository(testDB)

	require.NoError(t, repo.Create(&model.Product{Name: "Trail Runner", Description: "shoe", IsActive: true}))
	require.NoError(t, repo.Create(&model.Product{Name: "Water Bottle", Description: "for the trail", IsActive: true}))
	require.NoError(t, repo.Create(&model.Product{Name: "Classic Tee", IsActive: true}))

	// Matches name or description.
	products, err := repo.FindWithFilter(ProductFilter{Search: "trail"})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = repo.FindWithFilter(ProductFilter{Search: "nothing"})
	require.NoError(t, err)
	assert.Len(t, products, 0)
}

func TestProductRepository_FindWithFilter_Pagination(t *testing.T) {
	testDB := newTestDB(t)
	repo := NewProductRepository(testDB)

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, repo.Create(&model.Product{Name: name, IsActive: true}))
	}

	page, err := repo.FindWithFilter(ProductFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := repo.FindWithFilter(ProductFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestProductRepository_FindByID_PreloadsVariantsByPrice(t *testing.T) {
	testDB := newTestDB(t)
	repo := NewProductRepository(testDB)

	product := &model.Product{
		Name:     "Classic Tee",
		IsActive: true,
		Variants: []model.ProductVariant{
			{Price: decimal.RequireFromString("29.99"), StockQuantity: 1, IsActive: true},
			{Price: decimal.RequireFromString("19.99"), StockQuantity: 1, IsActive: true,
				Attributes: []model.VariantAttribute{
					{Key: "size", Value: "M"},
					{Key: "color", Value: "black"},
				}},
		},
	}
	require.NoError(t, testDB.Create(product).Error)

	found, err := repo.FindByID(product.ID, false)
	require.NoError(t, err)
	require.Len(t, found.Variants, 2)

	// Cheapest first; attributes sorted by key.
	assert.True(t, found.Variants[0].Price.Equal(decimal.RequireFromString("19.99")))
	require.Len(t, found.Variants[0].Attributes, 2)
	assert.Equal(t, "color", found.Variants[0].Attributes[0].Key)

	// An inactive product is invisible without the admin flag.
	require.NoError(t, testDB.Model(&model.Product{}).
		Where("id = ?", product.ID).
		Update("is_active", false).Error)

	_, err = repo.FindByID(product.ID, false)
	assert.Error(t, err)

	_, err = repo.FindByID(product.ID, true)
	assert.NoError(t, err)
}
