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

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid order id")
		return uuid.Nil, false
	}
	return orderID, true
}

// Checkout converts the caller's cart into an order. Stock is locked,
// re-validated and decremented inside a single transaction; any
// failure leaves cart and stock untouched.
// POST /api/v1/orders/checkout
func (ctrl *OrderController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	order, err := ctrl.orderService.Checkout(userID)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrEmptyCart):
			errors.BadRequest(c, errors.OrderEmptyCart, "Cart is empty")
		case stderrors.Is(err, service.ErrVariantNotFound):
			errors.UnprocessableEntity(c, errors.VariantNotFound, "A cart item is no longer sold")
		case stderrors.Is(err, service.ErrVariantInactive):
			errors.UnprocessableEntity(c, errors.VariantInactive, "A cart item is no longer available")
		case stderrors.Is(err, service.ErrInsufficientStock):
			errors.UnprocessableEntity(c, errors.StockInsufficient, "Not enough stock to fulfil the cart")
		default:
			log.Error("Checkout failed", err, map[string]interface{}{
				"user_id": userID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
		"total":    order.Total,
	})

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetMyOrders lists the caller's orders, newest first
// GET /api/v1/orders
func (ctrl *OrderController) GetMyOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID returns one of the caller's orders with its items
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, orderID)
	if err != nil {
		if stderrors.Is(err, service.ErrOrderNotFound) {
			errors.NotFound(c, errors.OrderNotFound, "Order not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder cancels a pending or confirmed order and restores stock
// POST /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := ctrl.orderService.CancelOrder(userID, orderID)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrOrderNotFound):
			errors.NotFound(c, errors.OrderNotFound, "Order not found")
		case stderrors.Is(err, service.ErrOrderNotCancellable):
			errors.Conflict(c, errors.OrderNotCancellable, "Order can no longer be cancelled")
		default:
			log.Error("Failed to cancel order", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus moves an order along the status machine. Moving to
// cancelled restores stock.
// PATCH /api/v1/orders/:id/status (admin)
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}
	if !req.Status.Valid() {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Unknown order status")
		return
	}

	if err := ctrl.orderService.UpdateOrderStatus(orderID, req.Status); err != nil {
		switch {
		case stderrors.Is(err, service.ErrOrderNotFound):
			errors.NotFound(c, errors.OrderNotFound, "Order not found")
		case stderrors.Is(err, service.ErrInvalidStatusTransition):
			errors.Conflict(c, errors.OrderInvalidTransition, "Status transition not allowed")
		default:
			log.Error("Failed to update order status", err, map[string]interface{}{
				"order_id": orderID,
				"status":   req.Status,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order status updated"})
}
