package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pharmacart/pharmacy-api/internal/orders"
	"github.com/pharmacart/pharmacy-api/internal/policy"
)

//
// --- Order Handlers ---
//

// CreateOrderInput defines the JSON for checkout. Methods and statuses are
// restricted to the known sets via oneof.
type CreateOrderInput struct {
	ShippingAddress string  `json:"shipping_address" binding:"required"`
	PhoneNumber     string  `json:"phone_number" binding:"required"`
	Notes           *string `json:"notes"`
	PaymentMethod   string  `json:"payment_method" binding:"required,oneof=credit_card cash_on_delivery wallet"`
	PaymentStatus   string  `json:"payment_status" binding:"required,oneof=pending paid failed"`
	ShippingMethod  string  `json:"shipping_method" binding:"required,oneof=standard express"`
	DiscountCode    *string `json:"discount_code"`
}

// ListOrders is the handler for GET /api/orders. Customers only ever see
// their own orders.
func (h *Handlers) ListOrders(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	list, err := h.Orders.ListUserOrders(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// CreateOrder is the handler for POST /api/orders. The current cart becomes
// the order; the cart is emptied only after the order commits.
func (h *Handlers) CreateOrder(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if !policy.Can(user, policy.ActionCreate, nil) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	cartID, cartItems, err := h.cartLineItems(c, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cart"})
		return
	}

	lines := make([]orders.LineItem, 0, len(cartItems))
	for _, item := range cartItems {
		lines = append(lines, orders.LineItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	details := orders.ShippingDetails{
		ShippingAddress: input.ShippingAddress,
		PhoneNumber:     input.PhoneNumber,
		Notes:           input.Notes,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   input.PaymentStatus,
		ShippingMethod:  input.ShippingMethod,
		DiscountCode:    input.DiscountCode,
	}

	order, err := h.Orders.PlaceOrder(c, user.ID, details, lines)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrEmptyOrder):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		case errors.Is(err, orders.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item quantity"})
		case errors.Is(err, orders.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, orders.ErrInsufficientStock):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		}
		return
	}

	// The order is already committed, so a cart clear failure is logged
	// rather than surfaced to the customer.
	if err := h.clearCart(c, cartID); err != nil {
		h.Log.Warn("cart clear after checkout failed",
			zap.Int64("cartID", cartID),
			zap.Int64("orderID", order.ID),
			zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetOrder is the handler for GET /api/orders/:id.
func (h *Handlers) GetOrder(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.Orders.GetOrder(c, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query order"})
		return
	}

	// Hide other customers' orders rather than admitting they exist.
	if !policy.Can(user, policy.ActionView, order) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder is the handler for POST /api/orders/:id/cancel. Cancellation
// puts the reserved stock back on the shelf.
func (h *Handlers) CancelOrder(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.Orders.GetOrder(c, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query order"})
		return
	}

	if !policy.Can(user, policy.ActionCancel, order) {
		if !policy.Can(user, policy.ActionView, order) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Order cannot be cancelled"})
		return
	}

	cancelled, err := h.Orders.CancelOrder(c, orderID)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, orders.ErrNotCancellable):
			c.JSON(http.StatusConflict, gin.H{"error": "Only pending orders can be cancelled"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel order"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled",
		"order":   cancelled,
	})
}

// UpdateOrderStatusInput defines the JSON for the admin status update.
type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus is the handler for PUT /api/orders/:id. Admin-only via
// routing; the policy check is kept as a second line of defence.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if !policy.Can(user, policy.ActionUpdate, nil) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	order, err := h.Orders.UpdateStatus(c, orderID, input.Status)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}
