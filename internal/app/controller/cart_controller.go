package controller

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/velocommerce/velo-backend/internal/app/model"
	"github.com/velocommerce/velo-backend/internal/app/service"
	"github.com/velocommerce/velo-backend/internal/errors"
	"github.com/velocommerce/velo-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddCartItemRequest struct {
	VariantID uint   `json:"variant_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Note      string `json:"note"`
}

type UpdateCartItemRequest struct {
	Quantity *int    `json:"quantity"`
	Note     *string `json:"note"`
}

// cartView shapes the cart response: stored rows plus the derived
// subtotal and item count, priced from the live variants.
func cartView(cart *model.Cart) gin.H {
	return gin.H{
		"id":         cart.ID,
		"items":      cart.Items,
		"subtotal":   cart.Subtotal(),
		"item_count": cart.ItemCount(),
	}
}

func parseItemID(c *gin.Context) (uuid.UUID, bool) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid item id")
		return uuid.Nil, false
	}
	return itemID, true
}

// respondCartError maps cart and stock sentinels onto HTTP responses.
func respondCartError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, service.ErrVariantNotFound):
		errors.NotFound(c, errors.VariantNotFound, "Variant not found")
	case stderrors.Is(err, service.ErrVariantInactive):
		errors.UnprocessableEntity(c, errors.VariantInactive, "This variant is no longer available")
	case stderrors.Is(err, service.ErrInsufficientStock):
		errors.UnprocessableEntity(c, errors.StockInsufficient, "Not enough stock for the requested quantity")
	case stderrors.Is(err, service.ErrInvalidQuantity):
		errors.BadRequest(c, errors.ValidationInvalidQuantity, "Quantity must be at least 1")
	case stderrors.Is(err, service.ErrCartItemNotFound):
		errors.NotFound(c, errors.CartItemNotFound, "Cart item not found")
	case stderrors.Is(err, service.ErrCartConflict):
		errors.Conflict(c, errors.CartConflict, "Cart was modified concurrently, please retry")
	default:
		errors.InternalError(c, "")
	}
}

// GetCart returns the caller's cart, creating it on first access
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	cart, err := ctrl.cartService.GetOrCreateCart(userID)
	if err != nil {
		log.Error("Failed to load cart", err, map[string]interface{}{
			"user_id": userID,
		})
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cartView(cart)})
}

// AddItem puts a variant in the cart; adding the same variant again
// merges quantities into the existing line
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	item, created, err := ctrl.cartService.AddItem(userID, req.VariantID, req.Quantity, req.Note)
	if err != nil {
		if stderrors.Is(err, service.ErrCartConflict) {
			log.Warn("Cart add retry exhausted", map[string]interface{}{
				"user_id":    userID,
				"variant_id": req.VariantID,
			})
		}
		respondCartError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"item": item})
}

// UpdateItem sets the quantity and/or note of a cart line
// PATCH /api/v1/cart/items/:id
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}
	if req.Quantity == nil && req.Note == nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Nothing to update")
		return
	}

	item, err := ctrl.cartService.UpdateItem(userID, itemID, service.CartItemUpdate{
		Quantity: req.Quantity,
		Note:     req.Note,
	})
	if err != nil {
		respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// RemoveItem deletes one cart line
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveItem(userID, itemID); err != nil {
		respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
}

// ClearCart empties the cart. Clearing an already-empty cart succeeds.
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	if err := ctrl.cartService.ClearCart(userID); err != nil {
		respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
