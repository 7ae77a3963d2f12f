package service

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/app/repository"
	"github.com/velocommerce/velo-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidStock    = errors.New("stock quantity must not be negative")
)

// VariantInput is the admin-facing payload for creating or updating a
// variant. Attributes, when non-nil, replace the existing set.
type VariantInput struct {
	SKU        *string
	Price      decimal.Decimal
	Stock      int
	IsActive   bool
	Attributes []model.VariantAttribute
}

type ProductService interface {
	ListProducts(filter repository.ProductFilter) ([]model.Product, error)
	GetProduct(id uint, includeInactive bool) (*model.Product, error)
	CreateProduct(product *model.Product) error
	UpdateProduct(product *model.Product) error
	DeactivateProduct(id uint) error
	CreateVariant(productID uint, input VariantInput) (*model.ProductVariant, error)
	UpdateVariant(variantID uint, input VariantInput) (*model.ProductVariant, error)
	AdjustStock(variantID uint, delta int) (*model.ProductVariant, error)
}

type productService struct {
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
	inventory   InventoryService
	db          *gorm.DB
}

func NewProductService(
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	inventory InventoryService,
	db *gorm.DB,
) ProductService {
	return &productService{
		productRepo: productRepo,
		variantRepo: variantRepo,
		inventory:   inventory,
		db:          db,
	}
}

func (s *productService) ListProducts(filter repository.ProductFilter) ([]model.Product, error) {
	return s.productRepo.FindWithFilter(filter)
}

func (s *productService) GetProduct(id uint, includeInactive bool) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id, includeInactive)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) CreateProduct(product *model.Product) error {
	logger.Info("Creating product", map[string]interface{}{
		"name": product.Name,
	})
	return s.productRepo.Create(product)
}

func (s *productService) UpdateProduct(product *model.Product) error {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": product.ID,
	})
	return s.productRepo.Update(product)
}

// DeactivateProduct hides the product from listings. Variants already
// referenced by orders stay in place.
func (s *productService) DeactivateProduct(id uint) error {
	product, err := s.GetProduct(id, true)
	if err != nil {
		return err
	}

	product.IsActive = false
	if err := s.productRepo.Update(product); err != nil {
		return err
	}

	logger.Info("Product deactivated", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

func (s *productService) CreateVariant(productID uint, input VariantInput) (*model.ProductVariant, error) {
	logger.Info("Creating variant", map[string]interface{}{
		"product_id": productID,
		"sku":        input.SKU,
	})

	if input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if input.Stock < 0 {
		return nil, ErrInvalidStock
	}

	if _, err := s.GetProduct(productID, true); err != nil {
		return nil, err
	}

	variant := &model.ProductVariant{
		ProductID:     productID,
		SKU:           input.SKU,
		Price:         input.Price,
		StockQuantity: input.Stock,
		IsActive:      input.IsActive,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(variant).Error; err != nil {
			return err
		}
		if len(input.Attributes) > 0 {
			return s.variantRepo.ReplaceAttributes(tx, variant.ID, input.Attributes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.variantRepo.FindByID(variant.ID)
}

// UpdateVariant edits price/SKU/active flag and, when attributes are
// provided, replaces the attribute set atomically. Stock is not edited
// here; it moves only through AdjustStock.
func (s *productService) UpdateVariant(variantID uint, input VariantInput) (*model.ProductVariant, error) {
	logger.Info("Updating variant", map[string]interface{}{
		"variant_id": variantID,
	})

	if input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	variant, err := s.inventory.GetVariant(variantID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		variant.SKU = input.SKU
		variant.Price = input.Price
		variant.IsActive = input.IsActive
		if err := tx.Model(&model.ProductVariant{}).
			Where("id = ?", variant.ID).
			Updates(map[string]interface{}{
				"sku":       variant.SKU,
				"price":     variant.Price,
				"is_active": variant.IsActive,
			}).Error; err != nil {
			return err
		}

		if input.Attributes != nil {
			return s.variantRepo.ReplaceAttributes(tx, variant.ID, input.Attributes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.variantRepo.FindByID(variantID)
}

// AdjustStock applies a signed stock delta through the inventory ledger,
// under the variant's row lock. Negative deltas are guarded so stock can
// never go below zero.
func (s *productService) AdjustStock(variantID uint, delta int) (*model.ProductVariant, error) {
	logger.Info("Adjusting variant stock", map[string]interface{}{
		"variant_id": variantID,
		"delta":      delta,
	})

	err := s.inventory.WithLockedVariants([]uint{variantID}, func(tx *gorm.DB, variants map[uint]*model.ProductVariant) error {
		if _, ok := variants[variantID]; !ok {
			return ErrVariantNotFound
		}
		switch {
		case delta > 0:
			return s.inventory.IncreaseStock(tx, variantID, delta)
		case delta < 0:
			return s.inventory.DecreaseStock(tx, variantID, -delta)
		default:
			return nil
		}
	})
	if err != nil {
		if errors.Is(err, ErrStockDecrementFailed) {
			// Admin tried to remove more stock than exists; unlike the
			// checkout path this is a plain user error.
			return nil, ErrInsufficientStock
		}
		return nil, err
	}

	return s.variantRepo.FindByID(variantID)
}
