package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/db"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB
}

func seedUser(t *testing.T, gdb *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{
		Email:        email,
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

// seedVariant creates a product with a single active variant at the given
// price and stock.
func seedVariant(t *testing.T, gdb *gorm.DB, name string, price float64, stock int) *model.ProductVariant {
	t.Helper()

	product := &model.Product{
		Name:     name,
		IsActive: true,
		Variants: []model.ProductVariant{
			{
				Price:         decimal.NewFromFloat(price),
				StockQuantity: stock,
				IsActive:      true,
			},
		},
	}
	require.NoError(t, gdb.Create(product).Error)
	return &product.Variants[0]
}

func variantStock(t *testing.T, gdb *gorm.DB, variantID uint) int {
	t.Helper()

	var variant model.ProductVariant
	require.NoError(t, gdb.First(&variant, variantID).Error)
	return variant.StockQuantity
}
