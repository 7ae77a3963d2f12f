package main

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/velocommerce/velo-backend/config"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/db"
	"github.com/velocommerce/velo-backend/pkg/util"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	gdb := db.GetDB()

	if err := seedUsers(gdb); err != nil {
		log.Fatal("Failed to seed users:", err)
	}
	if err := seedCatalog(gdb); err != nil {
		log.Fatal("Failed to seed catalog:", err)
	}

	fmt.Println("Seed completed successfully!")
}

func seedUsers(gdb *gorm.DB) error {
	users := []struct {
		email    string
		password string
		name     string
		role     model.UserRole
	}{
		{"admin@velo.test", "admin1234", "Admin", model.RoleAdmin},
		{"alice@velo.test", "alice1234", "Alice", model.RoleUser},
		{"bob@velo.test", "bob1234", "Bob", model.RoleUser},
	}

	for _, u := range users {
		var existing model.User
		err := gdb.Where("email = ?", u.email).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		hash, err := util.HashPassword(u.password)
		if err != nil {
			return err
		}
		if err := gdb.Create(&model.User{
			Email:        u.email,
			PasswordHash: hash,
			Name:         u.name,
			Role:         u.role,
		}).Error; err != nil {
			return err
		}
		fmt.Printf("Created user %s (%s)\n", u.email, u.role)
	}

	return nil
}

func seedCatalog(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Println("Catalog already seeded, skipping")
		return nil
	}

	sku := func(s string) *string { return &s }

	products := []model.Product{
		{
			Name:        "Classic Tee",
			Description: "Plain cotton t-shirt",
			IsActive:    true,
			Variants: []model.ProductVariant{
				{
					SKU:           sku("TEE-BLK-S"),
					Price:         decimal.NewFromFloat(19.99),
					StockQuantity: 50,
					IsActive:      true,
					Attributes: []model.VariantAttribute{
						{Key: "color", Value: "black"},
						{Key: "size", Value: "S"},
					},
				},
				{
					SKU:           sku("TEE-BLK-M"),
					Price:         decimal.NewFromFloat(19.99),
					StockQuantity: 80,
					IsActive:      true,
					Attributes: []model.VariantAttribute{
						{Key: "color", Value: "black"},
						{Key: "size", Value: "M"},
					},
				},
				{
					SKU:           sku("TEE-WHT-M"),
					Price:         decimal.NewFromFloat(21.50),
					StockQuantity: 35,
					IsActive:      true,
					Attributes: []model.VariantAttribute{
						{Key: "color", Value: "white"},
						{Key: "size", Value: "M"},
					},
				},
			},
		},
		{
			Name:        "Trail Runner",
			Description: "Lightweight trail running shoe",
			IsActive:    true,
			Variants: []model.ProductVariant{
				{
					SKU:           sku("RUN-42"),
					Price:         decimal.NewFromFloat(100.00),
					StockQuantity: 10,
					IsActive:      true,
					Attributes: []model.VariantAttribute{
						{Key: "size", Value: "42"},
					},
				},
				{
					SKU:           sku("RUN-43"),
					Price:         decimal.NewFromFloat(100.00),
					StockQuantity: 4,
					IsActive:      true,
					Attributes: []model.VariantAttribute{
						{Key: "size", Value: "43"},
					},
				},
			},
		},
		{
			Name:        "Water Bottle",
			Description: "Insulated 750ml bottle",
			IsActive:    true,
			Variants: []model.ProductVariant{
				{
					SKU:           sku("BTL-750"),
					Price:         decimal.NewFromFloat(50.00),
					StockQuantity: 200,
					IsActive:      true,
				},
			},
		},
	}

	for i := range products {
		if err := gdb.Create(&products[i]).Error; err != nil {
			return err
		}
		fmt.Printf("Created product %q with %d variants\n", products[i].Name, len(products[i].Variants))
	}

	return nil
}
