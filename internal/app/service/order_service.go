package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/app/repository"
	"github.com/velocommerce/velo-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrOrderNotCancellable     = errors.New("order can no longer be cancelled")
)

type OrderService interface {
	Checkout(userID uint) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID uint, orderID uuid.UUID) (*model.Order, error)
	CancelOrder(userID uint, orderID uuid.UUID) (*model.Order, error)
	UpdateOrderStatus(orderID uuid.UUID, status model.OrderStatus) error
	CancelExpiredPending(olderThan time.Duration) (int, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	inventory InventoryService
	pricing   PricingPolicy
	db        *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	inventory InventoryService,
	pricing PricingPolicy,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		inventory: inventory,
		pricing:   pricing,
		db:        db,
	}
}

// Checkout converts the user's cart into an order, all-or-nothing:
//
//  1. Load the cart with items and variants.
//  2. Lock the affected variants in sorted id order.
//  3. Re-validate every item against the locked stock snapshot.
//  4. Compute subtotal, tax and total from the locked unit prices.
//  5. Persist the order with per-item price snapshots.
//  6. Decrement stock per variant, quantities aggregated across items.
//  7. Clear the cart.
//
// Any failure rolls the whole transaction back: no order, no order items,
// no stock decrement survives a failed checkout.
func (s *orderService) Checkout(userID uint) (*model.Order, error) {
	logger.Info("Starting checkout", map[string]interface{}{
		"user_id": userID,
	})

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during checkout, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
			panic(r)
		}
	}()

	cart, err := s.cartRepo.LockCartByUserID(tx, userID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Checkout failed: no cart for user", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrEmptyCart
		}
		return nil, err
	}

	if len(cart.Items) == 0 {
		tx.Rollback()
		logger.Warn("Checkout failed: cart is empty", map[string]interface{}{
			"user_id": userID,
			"cart_id": cart.ID,
		})
		return nil, ErrEmptyCart
	}

	variantIDs := make([]uint, 0, len(cart.Items))
	for _, item := range cart.Items {
		variantIDs = append(variantIDs, item.VariantID)
	}

	locked, err := s.inventory.LockVariants(tx, variantIDs)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, item := range cart.Items {
		variant, ok := locked[item.VariantID]
		if !ok {
			tx.Rollback()
			logger.Warn("Checkout failed: variant no longer exists", map[string]interface{}{
				"user_id":    userID,
				"variant_id": item.VariantID,
			})
			return nil, ErrVariantNotFound
		}
		if err := s.inventory.ValidateStock(variant, item.Quantity); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	subtotal := decimal.Zero
	orderItems := make([]model.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		unitPrice := locked[item.VariantID].Price
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		orderItems = append(orderItems, model.OrderItem{
			VariantID:       item.VariantID,
			Quantity:        item.Quantity,
			PriceAtPurchase: unitPrice,
			Note:            item.Note,
		})
	}

	tax := s.pricing.Tax(subtotal)
	total := s.pricing.Total(subtotal, tax)

	order := &model.Order{
		UserID:   userID,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    total,
		Status:   model.OrderStatusPending,
		Items:    orderItems,
	}

	if err := s.orderRepo.Create(tx, order); err != nil {
		tx.Rollback()
		return nil, err
	}

	// The uniqueness constraint on (cart, variant) makes duplicates
	// impossible, but the decrement does not rely on that: quantities are
	// aggregated per variant and applied once each, in sorted id order.
	for _, taken := range sortedAggregates(aggregateQuantities(cart.Items)) {
		if err := s.inventory.DecreaseStock(tx, taken.variantID, taken.quantity); err != nil {
			tx.Rollback()
			logger.Error("Checkout aborted: stock decrement failed", err, map[string]interface{}{
				"user_id":    userID,
				"variant_id": taken.variantID,
				"quantity":   taken.quantity,
			})
			return nil, err
		}
	}

	if err := s.cartRepo.DeleteItemsByCartID(tx, cart.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit checkout transaction", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": order.ID,
		})
		return nil, err
	}

	logger.Info("Checkout completed", map[string]interface{}{
		"user_id":    userID,
		"order_id":   order.ID,
		"subtotal":   subtotal,
		"tax":        tax,
		"total":      total,
		"item_count": len(orderItems),
	})

	return s.orderRepo.FindByID(order.ID)
}

type variantQuantity struct {
	variantID uint
	quantity  int
}

func aggregateQuantities(items []model.CartItem) map[uint]int {
	totals := make(map[uint]int, len(items))
	for _, item := range items {
		totals[item.VariantID] += item.Quantity
	}
	return totals
}

func sortedAggregates(totals map[uint]int) []variantQuantity {
	out := make([]variantQuantity, 0, len(totals))
	for id, qty := range totals {
		out = append(out, variantQuantity{variantID: id, quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].variantID < out[j].variantID })
	return out
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	logger.Debug("Fetching user orders", map[string]interface{}{
		"user_id": userID,
	})

	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	logger.Info("User orders fetched", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (s *orderService) GetOrderByID(userID uint, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// CancelOrder cancels a pending or confirmed order and returns its stock
// to the shelf, atomically.
func (s *orderService) CancelOrder(userID uint, orderID uuid.UUID) (*model.Order, error) {
	logger.Info("Cancelling order", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.LockByID(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.UserID != userID {
			logger.Warn("Order cancel denied: ownership mismatch", map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
				"owner_id": order.UserID,
			})
			return ErrOrderNotFound
		}

		if !order.Status.CanTransitionTo(model.OrderStatusCancelled) {
			logger.Warn("Order cancel denied: status not cancellable", map[string]interface{}{
				"order_id": orderID,
				"status":   order.Status,
			})
			return ErrOrderNotCancellable
		}

		return s.cancelLocked(tx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})
	return s.orderRepo.FindByID(orderID)
}

// cancelLocked flips the status and restocks every item. The caller holds
// the order's row lock.
func (s *orderService) cancelLocked(tx *gorm.DB, order *model.Order) error {
	totals := make(map[uint]int, len(order.Items))
	for _, item := range order.Items {
		totals[item.VariantID] += item.Quantity
	}
	for _, restock := range sortedAggregates(totals) {
		if err := s.inventory.IncreaseStock(tx, restock.variantID, restock.quantity); err != nil {
			return err
		}
	}

	return s.orderRepo.UpdateStatus(tx, order.ID, model.OrderStatusCancelled)
}

// UpdateOrderStatus applies an admin-driven status transition, enforcing
// the status machine. Transitions into cancelled restock the order.
func (s *orderService) UpdateOrderStatus(orderID uuid.UUID, status model.OrderStatus) error {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id":   orderID,
		"new_status": status,
	})

	return s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.LockByID(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !order.Status.CanTransitionTo(status) {
			logger.Warn("Rejected order status transition", map[string]interface{}{
				"order_id": orderID,
				"from":     order.Status,
				"to":       status,
			})
			return ErrInvalidStatusTransition
		}

		if status == model.OrderStatusCancelled {
			return s.cancelLocked(tx, order)
		}
		return s.orderRepo.UpdateStatus(tx, order.ID, status)
	})
}

// CancelExpiredPending cancels pending orders older than the given window
// and restocks them. Each order is handled in its own transaction so one
// failure does not block the sweep.
func (s *orderService) CancelExpiredPending(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	stale, err := s.orderRepo.FindStalePending(cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, candidate := range stale {
		didCancel := false
		err := s.db.Transaction(func(tx *gorm.DB) error {
			order, err := s.orderRepo.LockByID(tx, candidate.ID)
			if err != nil {
				return err
			}
			// Re-check under the lock; the order may have moved on.
			if order.Status != model.OrderStatusPending {
				return nil
			}
			if err := s.cancelLocked(tx, order); err != nil {
				return err
			}
			didCancel = true
			return nil
		})
		if err != nil {
			logger.Error("Failed to cancel expired order", err, map[string]interface{}{
				"order_id": candidate.ID,
			})
			continue
		}
		// Counted only once the transaction has committed.
		if didCancel {
			cancelled++
		}
	}

	if cancelled > 0 {
		logger.Info("Expired pending orders cancelled", map[string]interface{}{
			"count": cancelled,
		})
	}
	return cancelled, nil
}
