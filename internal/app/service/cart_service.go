package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/app/repository"
	"github.com/velocommerce/velo-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")

	// ErrCartConflict signals a lost race on a unique constraint (cart per
	// user, variant per cart). The caller should retry the read.
	ErrCartConflict = errors.New("cart changed concurrently")
)

// CartItemUpdate carries the optional fields of an item update. Nil means
// "leave unchanged".
type CartItemUpdate struct {
	Quantity *int
	Note     *string
}

type CartService interface {
	GetOrCreateCart(userID uint) (*model.Cart, error)
	AddItem(userID uint, variantID uint, quantity int, note string) (*model.CartItem, bool, error)
	UpdateItem(userID uint, itemID uuid.UUID, update CartItemUpdate) (*model.CartItem, error)
	RemoveItem(userID uint, itemID uuid.UUID) error
	ClearCart(userID uint) error
}

type cartService struct {
	cartRepo  repository.CartRepository
	inventory InventoryService
	db        *gorm.DB
}

func NewCartService(cartRepo repository.CartRepository, inventory InventoryService, db *gorm.DB) CartService {
	return &cartService{
		cartRepo:  cartRepo,
		inventory: inventory,
		db:        db,
	}
}

// GetOrCreateCart returns the user's cart, creating it on first access.
// Idempotent: the unique user_id constraint plus the locked read guarantee
// concurrent calls converge on a single cart.
func (s *cartService) GetOrCreateCart(userID uint) (*model.Cart, error) {
	logger.Debug("Fetching user cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindCartByUserID(userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = &model.Cart{UserID: userID}
	if err := s.cartRepo.CreateCart(s.db, cart); err != nil {
		if isUniqueViolation(err) {
			// Lost the creation race; the winner's cart is the cart.
			logger.Debug("Cart creation race lost, re-reading", map[string]interface{}{
				"user_id": userID,
			})
			return s.cartRepo.FindCartByUserID(userID)
		}
		return nil, err
	}

	logger.Info("Cart created for user", map[string]interface{}{
		"user_id": userID,
		"cart_id": cart.ID,
	})
	return cart, nil
}

// AddItem adds a variant to the user's cart. If the variant is already in
// the cart the quantity is incremented instead of creating a second row,
// and the summed quantity is re-validated against stock. A non-empty note
// overwrites the existing one; an empty note leaves it alone.
//
// Lock order: cart row, then variant rows, then item rows. Every cart
// mutation and checkout acquires locks in this hierarchy so two
// transactions can never wait on each other in a cycle.
func (s *cartService) AddItem(userID uint, variantID uint, quantity int, note string) (*model.CartItem, bool, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"variant_id": variantID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, false, ErrInvalidQuantity
	}

	if _, err := s.GetOrCreateCart(userID); err != nil {
		return nil, false, err
	}

	var (
		cart    *model.Cart
		item    *model.CartItem
		created bool
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = s.cartRepo.LockCartByUserID(tx, userID)
		if err != nil {
			return err
		}

		variants, err := s.inventory.LockVariants(tx, []uint{variantID})
		if err != nil {
			return err
		}
		variant, ok := variants[variantID]
		if !ok {
			logger.Warn("Cannot add to cart: variant not found", map[string]interface{}{
				"user_id":    userID,
				"variant_id": variantID,
			})
			return ErrVariantNotFound
		}

		existing, err := s.cartRepo.LockItemByVariant(tx, cart.ID, variantID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if existing != nil {
			newQty := existing.Quantity + quantity
			if err := s.inventory.ValidateStock(variant, newQty); err != nil {
				return err
			}

			logger.Debug("Incrementing existing cart item", map[string]interface{}{
				"cart_item_id": existing.ID,
				"old_qty":      existing.Quantity,
				"new_qty":      newQty,
			})

			existing.Quantity = newQty
			if note != "" {
				existing.Note = note
			}
			if err := s.cartRepo.UpdateItem(tx, existing); err != nil {
				return err
			}
			item = existing
			return nil
		}

		if err := s.inventory.ValidateStock(variant, quantity); err != nil {
			return err
		}

		newItem := &model.CartItem{
			CartID:    cart.ID,
			VariantID: variantID,
			Quantity:  quantity,
			Note:      note,
		}
		if err := s.cartRepo.CreateItem(tx, newItem); err != nil {
			if isUniqueViolation(err) {
				// A concurrent add for the same variant won the insert.
				return ErrCartConflict
			}
			return err
		}
		item = newItem
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	logger.Info("Cart item saved", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      cart.ID,
		"created":      created,
	})
	return item, created, nil
}

// UpdateItem changes the quantity and/or note of a cart item owned by the
// user. A quantity below 1 is rejected; a quantity above current stock
// fails and leaves the item unchanged.
func (s *cartService) UpdateItem(userID uint, itemID uuid.UUID, update CartItemUpdate) (*model.CartItem, error) {
	logger.Info("Updating cart item", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
	})

	if _, err := s.GetOrCreateCart(userID); err != nil {
		return nil, err
	}

	var item *model.CartItem

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Same lock hierarchy as AddItem and checkout: cart row first,
		// then variants, then the item row. The cart lock pins the item
		// set, so its preloaded rows are a stable read.
		cart, err := s.cartRepo.LockCartByUserID(tx, userID)
		if err != nil {
			return err
		}

		var target *model.CartItem
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				target = &cart.Items[i]
				break
			}
		}
		if target == nil {
			logger.Warn("Cart item not found for update", map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": itemID,
			})
			return ErrCartItemNotFound
		}

		if update.Quantity != nil {
			if *update.Quantity < 1 {
				return ErrInvalidQuantity
			}

			variants, err := s.inventory.LockVariants(tx, []uint{target.VariantID})
			if err != nil {
				return err
			}
			variant, ok := variants[target.VariantID]
			if !ok {
				return ErrVariantNotFound
			}
			if err := s.inventory.ValidateStock(variant, *update.Quantity); err != nil {
				return err
			}
		}

		locked, err := s.cartRepo.LockItemByID(tx, cart.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartItemNotFound
			}
			return err
		}

		if update.Quantity != nil {
			locked.Quantity = *update.Quantity
		}
		if update.Note != nil {
			locked.Note = *update.Note
		}

		if err := s.cartRepo.UpdateItem(tx, locked); err != nil {
			return err
		}
		item = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cart item updated", map[string]interface{}{
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})
	return item, nil
}

func (s *cartService) RemoveItem(userID uint, itemID uuid.UUID) error {
	logger.Info("Removing cart item", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
	})

	if _, err := s.GetOrCreateCart(userID); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := s.cartRepo.LockCartByUserID(tx, userID)
		if err != nil {
			return err
		}

		deleted, err := s.cartRepo.DeleteItem(tx, cart.ID, itemID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			logger.Warn("Cart item not found for removal", map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": itemID,
			})
			return ErrCartItemNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Cart item removed", map[string]interface{}{
		"cart_item_id": itemID,
	})
	return nil
}

// ClearCart deletes every item in the user's cart. No-op when the cart is
// already empty.
func (s *cartService) ClearCart(userID uint) error {
	logger.Info("Clearing user cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := s.cartRepo.LockCartByUserID(tx, userID)
		if err != nil {
			return err
		}
		return s.cartRepo.DeleteItemsByCartID(tx, locked.ID)
	})
	if err != nil {
		return err
	}

	logger.Info("User cart cleared", map[string]interface{}{
		"user_id": userID,
		"cart_id": cart.ID,
	})
	return nil
}

// isUniqueViolation detects unique-constraint failures from Postgres and
// the SQLite test driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(fmt.Sprint(err))
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
