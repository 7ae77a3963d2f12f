package service

import (
	"errors"

	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/app/repository"
	"github.com/velocommerce/velo-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrVariantNotFound   = errors.New("variant not found")
	ErrVariantInactive   = errors.New("variant is no longer available")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStockDecrementFailed means the guarded decrement was rejected
	// even though the caller validated stock under a row lock. That is an
	// invariant violation pointing at a locking bug, not a user error.
	ErrStockDecrementFailed = errors.New("stock decrement failed")
)

// InventoryService owns all reads and writes of variant stock. No other
// service touches stock_quantity directly.
type InventoryService interface {
	GetVariant(id uint) (*model.ProductVariant, error)
	ValidateStock(variant *model.ProductVariant, requestedQty int) error
	LockVariants(tx *gorm.DB, ids []uint) (map[uint]*model.ProductVariant, error)
	DecreaseStock(tx *gorm.DB, id uint, quantity int) error
	IncreaseStock(tx *gorm.DB, id uint, quantity int) error
	WithLockedVariants(ids []uint, fn func(tx *gorm.DB, variants map[uint]*model.ProductVariant) error) error
}

type inventoryService struct {
	variantRepo repository.VariantRepository
	db          *gorm.DB
}

func NewInventoryService(variantRepo repository.VariantRepository, db *gorm.DB) InventoryService {
	return &inventoryService{
		variantRepo: variantRepo,
		db:          db,
	}
}

func (s *inventoryService) GetVariant(id uint) (*model.ProductVariant, error) {
	variant, err := s.variantRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Variant not found", map[string]interface{}{
				"variant_id": id,
			})
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	return variant, nil
}

// ValidateStock is a pure check; it never mutates. Callers that intend to
// act on the result must hold the variant's row lock.
func (s *inventoryService) ValidateStock(variant *model.ProductVariant, requestedQty int) error {
	inactive := !variant.IsActive
	// A deactivated product hides all of its variants, loaded or not.
	if variant.Product.ID != 0 && !variant.Product.IsActive {
		inactive = true
	}
	if inactive {
		logger.Warn("Stock validation failed: variant inactive", map[string]interface{}{
			"variant_id": variant.ID,
		})
		return ErrVariantInactive
	}

	if requestedQty > variant.StockQuantity {
		logger.Warn("Stock validation failed: insufficient stock", map[string]interface{}{
			"variant_id": variant.ID,
			"requested":  requestedQty,
			"available":  variant.StockQuantity,
		})
		return ErrInsufficientStock
	}
	return nil
}

// LockVariants acquires exclusive row locks on the given variants for the
// duration of tx and returns them keyed by id. Locks are taken in sorted
// id order; missing ids are simply absent from the map.
func (s *inventoryService) LockVariants(tx *gorm.DB, ids []uint) (map[uint]*model.ProductVariant, error) {
	variants, err := s.variantRepo.LockByIDs(tx, ids)
	if err != nil {
		return nil, err
	}

	locked := make(map[uint]*model.ProductVariant, len(variants))
	for i := range variants {
		locked[variants[i].ID] = &variants[i]
	}
	return locked, nil
}

// DecreaseStock performs the guarded atomic decrement. A rejected guard is
// escalated as ErrStockDecrementFailed.
func (s *inventoryService) DecreaseStock(tx *gorm.DB, id uint, quantity int) error {
	updated, err := s.variantRepo.DecreaseStock(tx, id, quantity)
	if err != nil {
		return err
	}
	if !updated {
		logger.Error("Stock decrement rejected despite prior validation", ErrStockDecrementFailed, map[string]interface{}{
			"variant_id": id,
			"quantity":   quantity,
		})
		return ErrStockDecrementFailed
	}
	return nil
}

func (s *inventoryService) IncreaseStock(tx *gorm.DB, id uint, quantity int) error {
	return s.variantRepo.IncreaseStock(tx, id, quantity)
}

// WithLockedVariants runs fn inside a transaction holding row locks on the
// given variants. The locks are released on commit or rollback.
func (s *inventoryService) WithLockedVariants(ids []uint, fn func(tx *gorm.DB, variants map[uint]*model.ProductVariant) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		variants, err := s.LockVariants(tx, ids)
		if err != nil {
			return err
		}
		return fn(tx, variants)
	})
}
