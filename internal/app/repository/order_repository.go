package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(tx *gorm.DB, order *model.Order) error
	FindByID(id uuid.UUID) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.OrderStatus) error
	FindStalePending(olderThan time.Time) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(idb *gorm.DB) *gorm.DB {
		return idb.Order("order_items.created_at ASC")
	}).
		Preload("Items.Variant.Product").
		Preload("Items.Variant.Attributes", func(adb *gorm.DB) *gorm.DB {
			return adb.Order("variant_attributes.key ASC")
		})
}

func (r *orderRepository) Create(tx *gorm.DB, order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id": order.UserID,
		"total":   order.Total,
	})

	if err := tx.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id": order.UserID,
			"total":   order.Total,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total,
	})
	return nil
}

func (r *orderRepository) FindByID(id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder(r.db).Where("id = ?", id).First(&order).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
				"order_id": id,
			})
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.preloadOrder(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

// LockByID reads an order with its items under a row lock; status
// transitions and cancellation restocks serialize on it.
func (r *orderRepository) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := tx.Clauses(lockForUpdate()).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to lock order by ID in database", err, map[string]interface{}{
				"order_id": id,
			})
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.OrderStatus) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	if err := tx.Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		logger.Error("Failed to update order status in database", err, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return err
	}
	return nil
}

func (r *orderRepository) FindStalePending(olderThan time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.
		Where("status = ? AND created_at < ?", model.OrderStatusPending, olderThan).
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find stale pending orders in database", err, map[string]interface{}{
			"older_than": olderThan,
		})
		return nil, err
	}
	return orders, nil
}
