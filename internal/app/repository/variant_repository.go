package repository

import (
	"sort"

	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/pkg/logger"
	"gorm.io/gorm"
)

type VariantRepository interface {
	Create(variant *model.ProductVariant) error
	FindByID(id uint) (*model.ProductVariant, error)
	FindByProductID(productID uint) ([]model.ProductVariant, error)
	Update(variant *model.ProductVariant) error
	ReplaceAttributes(tx *gorm.DB, variantID uint, attributes []model.VariantAttribute) error
	LockByIDs(tx *gorm.DB, ids []uint) ([]model.ProductVariant, error)
	DecreaseStock(tx *gorm.DB, id uint, quantity int) (bool, error)
	IncreaseStock(tx *gorm.DB, id uint, quantity int) error
}

type variantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) Create(variant *model.ProductVariant) error {
	logger.Debug("Creating variant in database", map[string]interface{}{
		"product_id": variant.ProductID,
		"sku":        variant.SKU,
	})

	if err := r.db.Create(variant).Error; err != nil {
		logger.Error("Failed to create variant in database", err, map[string]interface{}{
			"product_id": variant.ProductID,
			"sku":        variant.SKU,
		})
		return err
	}

	logger.Debug("Variant created in database", map[string]interface{}{
		"variant_id": variant.ID,
		"product_id": variant.ProductID,
	})
	return nil
}

func (r *variantRepository) FindByID(id uint) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	err := r.db.
		Preload("Product").
		Preload("Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("variant_attributes.key ASC")
		}).
		First(&variant, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find variant by ID in database", err, map[string]interface{}{
				"variant_id": id,
			})
		}
		return nil, err
	}
	return &variant, nil
}

func (r *variantRepository) FindByProductID(productID uint) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := r.db.
		Where("product_id = ?", productID).
		Preload("Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("variant_attributes.key ASC")
		}).
		Order("price ASC").
		Find(&variants).Error
	if err != nil {
		logger.Error("Failed to find variants by product ID in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	return variants, nil
}

func (r *variantRepository) Update(variant *model.ProductVariant) error {
	logger.Debug("Updating variant in database", map[string]interface{}{
		"variant_id": variant.ID,
	})

	if err := r.db.Save(variant).Error; err != nil {
		logger.Error("Failed to update variant in database", err, map[string]interface{}{
			"variant_id": variant.ID,
		})
		return err
	}
	return nil
}

// ReplaceAttributes swaps the variant's attribute set wholesale inside the
// caller's transaction.
func (r *variantRepository) ReplaceAttributes(tx *gorm.DB, variantID uint, attributes []model.VariantAttribute) error {
	if err := tx.Where("variant_id = ?", variantID).Delete(&model.VariantAttribute{}).Error; err != nil {
		logger.Error("Failed to delete variant attributes", err, map[string]interface{}{
			"variant_id": variantID,
		})
		return err
	}

	if len(attributes) == 0 {
		return nil
	}

	for i := range attributes {
		attributes[i].ID = 0
		attributes[i].VariantID = variantID
	}

	if err := tx.Create(&attributes).Error; err != nil {
		logger.Error("Failed to create variant attributes", err, map[string]interface{}{
			"variant_id": variantID,
			"count":      len(attributes),
		})
		return err
	}
	return nil
}

// LockByIDs acquires SELECT ... FOR UPDATE row locks on the given variants
// within tx. IDs are deduplicated and locked in ascending order so that
// overlapping lock sets from concurrent transactions cannot deadlock.
// Soft-deleted variants are excluded; callers detect missing ids by
// comparing the result against their requested set.
func (r *variantRepository) LockByIDs(tx *gorm.DB, ids []uint) ([]model.ProductVariant, error) {
	unique := make(map[uint]struct{}, len(ids))
	sorted := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, seen := unique[id]; !seen {
			unique[id] = struct{}{}
			sorted = append(sorted, id)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	logger.Debug("Locking variants in database", map[string]interface{}{
		"variant_ids": sorted,
	})

	// Product is loaded alongside so availability checks can see a
	// deactivated parent; the row lock covers the variants only.
	var variants []model.ProductVariant
	err := tx.
		Clauses(lockForUpdate()).
		Preload("Product").
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&variants).Error
	if err != nil {
		logger.Error("Failed to lock variants in database", err, map[string]interface{}{
			"variant_ids": sorted,
		})
		return nil, err
	}
	return variants, nil
}

// DecreaseStock decrements stock atomically, guarded so the quantity can
// never go negative. Returns false when the guard rejected the update.
func (r *variantRepository) DecreaseStock(tx *gorm.DB, id uint, quantity int) (bool, error) {
	result := tx.Model(&model.ProductVariant{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		logger.Error("Failed to decrease variant stock in database", result.Error, map[string]interface{}{
			"variant_id": id,
			"quantity":   quantity,
		})
		return false, result.Error
	}

	logger.Debug("Variant stock decreased in database", map[string]interface{}{
		"variant_id": id,
		"quantity":   quantity,
		"updated":    result.RowsAffected,
	})
	return result.RowsAffected > 0, nil
}

// IncreaseStock increments stock atomically. Used for cancellations and
// admin restocks; always succeeds for an existing variant.
func (r *variantRepository) IncreaseStock(tx *gorm.DB, id uint, quantity int) error {
	if err := tx.Model(&model.ProductVariant{}).
		Where("id = ?", id).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error; err != nil {
		logger.Error("Failed to increase variant stock in database", err, map[string]interface{}{
			"variant_id": id,
			"quantity":   quantity,
		})
		return err
	}

	logger.Debug("Variant stock increased in database", map[string]interface{}{
		"variant_id": id,
		"quantity":   quantity,
	})
	return nil
}
