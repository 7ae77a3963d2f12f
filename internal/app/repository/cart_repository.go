package repository

import (
	"github.com/google/uuid"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	CreateCart(tx *gorm.DB, cart *model.Cart) error
	FindCartByUserID(userID uint) (*model.Cart, error)
	LockCartByUserID(tx *gorm.DB, userID uint) (*model.Cart, error)
	CreateItem(tx *gorm.DB, item *model.CartItem) error
	LockItemByID(tx *gorm.DB, cartID, itemID uuid.UUID) (*model.CartItem, error)
	LockItemByVariant(tx *gorm.DB, cartID uuid.UUID, variantID uint) (*model.CartItem, error)
	UpdateItem(tx *gorm.DB, item *model.CartItem) error
	DeleteItem(tx *gorm.DB, cartID, itemID uuid.UUID) (int64, error)
	DeleteItemsByCartID(tx *gorm.DB, cartID uuid.UUID) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) CreateCart(tx *gorm.DB, cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"user_id": cart.UserID,
	})

	if err := tx.Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"user_id": cart.UserID,
		})
		return err
	}

	logger.Debug("Cart created in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": cart.UserID,
	})
	return nil
}

func (r *cartRepository) preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(idb *gorm.DB) *gorm.DB {
		return idb.Order("cart_items.created_at DESC")
	}).
		Preload("Items.Variant.Product").
		Preload("Items.Variant.Attributes", func(adb *gorm.DB) *gorm.DB {
			return adb.Order("variant_attributes.key ASC")
		})
}

func (r *cartRepository) FindCartByUserID(userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.preloadItems(r.db).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}
	return &cart, nil
}

// LockCartByUserID reads the user's cart under a row lock so concurrent
// mutations of the same cart serialize.
func (r *cartRepository) LockCartByUserID(tx *gorm.DB, userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.preloadItems(tx.Clauses(lockForUpdate())).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to lock cart by user ID in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) CreateItem(tx *gorm.DB, item *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"variant_id": item.VariantID,
		"quantity":   item.Quantity,
	})

	if err := tx.Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"variant_id": item.VariantID,
		})
		return err
	}

	logger.Debug("Cart item created in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
		"variant_id":   item.VariantID,
	})
	return nil
}

func (r *cartRepository) LockItemByID(tx *gorm.DB, cartID, itemID uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	err := tx.Clauses(lockForUpdate()).
		Where("cart_id = ? AND id = ?", cartID, itemID).
		First(&item).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to lock cart item by ID in database", err, map[string]interface{}{
				"cart_id":      cartID,
				"cart_item_id": itemID,
			})
		}
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) LockItemByVariant(tx *gorm.DB, cartID uuid.UUID, variantID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := tx.Clauses(lockForUpdate()).
		Where("cart_id = ? AND variant_id = ?", cartID, variantID).
		First(&item).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to lock cart item by variant in database", err, map[string]interface{}{
				"cart_id":    cartID,
				"variant_id": variantID,
			})
		}
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) UpdateItem(tx *gorm.DB, item *model.CartItem) error {
	logger.Debug("Updating cart item in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})

	if err := tx.Save(item).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(tx *gorm.DB, cartID, itemID uuid.UUID) (int64, error) {
	result := tx.Where("cart_id = ? AND id = ?", cartID, itemID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart item from database", result.Error, map[string]interface{}{
			"cart_id":      cartID,
			"cart_item_id": itemID,
		})
		return 0, result.Error
	}

	logger.Debug("Cart item deleted from database", map[string]interface{}{
		"cart_id":      cartID,
		"cart_item_id": itemID,
		"deleted":      result.RowsAffected,
	})
	return result.RowsAffected, nil
}

func (r *cartRepository) DeleteItemsByCartID(tx *gorm.DB, cartID uuid.UUID) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to clear cart items from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}

	logger.Debug("Cart items cleared from database", map[string]interface{}{
		"cart_id": cartID,
	})
	return nil
}
