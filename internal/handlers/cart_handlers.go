package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmacart/pharmacy-api/internal/models"
)

//
// --- Cart Handlers ---
//

// getOrCreateCartID finds a user's cart or lazily creates one.
// Helper meant to be used within a transaction.
func getOrCreateCartID(c *gin.Context, tx *sql.Tx, userID int64) (int64, error) {
	var cartID int64
	err := tx.QueryRowContext(c, "SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		now := time.Now()
		result, err := tx.ExecContext(c,
			"INSERT INTO carts (user_id, total_amount, created_at, updated_at) VALUES (?, 0, ?, ?)",
			userID, now, now)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	return 0, err
}

// updateCartTotals recomputes the cart's total_amount from its line subtotals.
// Called after every cart mutation, inside the same transaction.
func updateCartTotals(c *gin.Context, tx *sql.Tx, cartID int64) error {
	_, err := tx.ExecContext(c, `
		UPDATE carts
		SET total_amount = COALESCE((SELECT SUM(subtotal) FROM cart_items WHERE cart_id = ?), 0),
			updated_at = ?
		WHERE id = ?`,
		cartID, time.Now(), cartID)
	return err
}

// CartItemResponse is the per-line shape returned by GetCart.
type CartItemResponse struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
	Stock     int     `json:"stock"`
}

// GetCart is the handler for GET /api/cart. The cart is created lazily, so a
// user without one just gets an empty cart back.
func (h *Handlers) GetCart(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var cartID int64
	var totalAmount float64
	err := h.DB.QueryRowContext(c,
		"SELECT id, total_amount FROM carts WHERE user_id = ?", userID).Scan(&cartID, &totalAmount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusOK, gin.H{
				"items":       []CartItemResponse{},
				"totalAmount": 0.0,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find cart"})
		return
	}

	rows, err := h.DB.QueryContext(c, `
		SELECT ci.id, ci.product_id, p.name, ci.quantity, ci.unit_price, ci.subtotal, p.stock
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = ?`, cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query cart items"})
		return
	}
	defer rows.Close()

	items := []CartItemResponse{}
	for rows.Next() {
		var item CartItemResponse
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Quantity,
			&item.UnitPrice, &item.Subtotal, &item.Stock); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan cart item"})
			return
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating cart items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          cartID,
		"items":       items,
		"totalAmount": totalAmount,
	})
}

// AddToCartInput defines the JSON for adding an item to the cart.
type AddToCartInput struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// AddToCart is the handler for POST /api/cart/items.
// The product price is captured into the line at add-time; later price
// changes do not touch existing cart lines.
func (h *Handlers) AddToCart(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed"})
		return
	}
	defer tx.Rollback()

	cartID, err := getOrCreateCartID(c, tx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cart initialization failed"})
		return
	}

	var price float64
	var stock int
	err = tx.QueryRowContext(c,
		"SELECT price, stock FROM products WHERE id = ?", input.ProductID).Scan(&price, &stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Stock check covers the quantity already in the cart plus the new one.
	var existingQty int
	err = tx.QueryRowContext(c,
		"SELECT quantity FROM cart_items WHERE cart_id = ? AND product_id = ?",
		cartID, input.ProductID).Scan(&existingQty)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	newQty := existingQty + input.Quantity
	if stock < newQty {
		c.JSON(http.StatusConflict, gin.H{"error": "Not enough stock available"})
		return
	}

	now := time.Now()
	if existingQty > 0 {
		// Subtotal keeps using the unit price captured when the line was
		// first added.
		_, err = tx.ExecContext(c, `
			UPDATE cart_items
			SET quantity = ?, subtotal = ? * unit_price, updated_at = ?
			WHERE cart_id = ? AND product_id = ?`,
			newQty, newQty, now, cartID, input.ProductID)
	} else {
		_, err = tx.ExecContext(c, `
			INSERT INTO cart_items (cart_id, product_id, quantity, unit_price, subtotal, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			cartID, input.ProductID, input.Quantity, price, price*float64(input.Quantity), now, now)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	if err := updateCartTotals(c, tx, cartID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart totals"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart"})
}

// UpdateCartItemInput defines the JSON for updating an item's quantity.
// gte=0 allows 0, treated as a remove.
type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// UpdateCartItem is the handler for PUT /api/cart/items/:product_id.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	productIDStr := c.Param("product_id")

	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	quantity := *input.Quantity

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed"})
		return
	}
	defer tx.Rollback()

	var cartID int64
	err = tx.QueryRowContext(c, "SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find cart"})
		return
	}

	if quantity == 0 {
		if !h.deleteCartItemTx(c, tx, cartID, productIDStr) {
			return
		}
		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item removed"})
		return
	}

	var stock int
	err = tx.QueryRowContext(c, "SELECT stock FROM products WHERE id = ?", productIDStr).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check product stock"})
		return
	}
	if stock < quantity {
		c.JSON(http.StatusConflict, gin.H{"error": "Not enough stock available"})
		return
	}

	result, err := tx.ExecContext(c, `
		UPDATE cart_items
		SET quantity = ?, subtotal = ? * unit_price, updated_at = ?
		WHERE cart_id = ? AND product_id = ?`,
		quantity, quantity, time.Now(), cartID, productIDStr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return
	}

	if err := updateCartTotals(c, tx, cartID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart totals"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart item quantity updated"})
}

// DeleteCartItem is the handler for DELETE /api/cart/items/:product_id.
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	productIDStr := c.Param("product_id")

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed"})
		return
	}
	defer tx.Rollback()

	var cartID int64
	err = tx.QueryRowContext(c, "SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find cart"})
		return
	}

	if !h.deleteCartItemTx(c, tx, cartID, productIDStr) {
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart item removed"})
}

// ClearCart is the handler for DELETE /api/cart. Items are removed and the
// total reset, but the cart row itself stays.
func (h *Handlers) ClearCart(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var cartID int64
	err := h.DB.QueryRowContext(c, "SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find cart"})
		return
	}

	if err := h.clearCart(c, cartID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// clearCart removes all items and resets the total. Also used after checkout.
func (h *Handlers) clearCart(c *gin.Context, cartID int64) error {
	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(c, "DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		return err
	}
	if err := updateCartTotals(c, tx, cartID); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteCartItemTx deletes one line and refreshes totals. Writes the error
// response itself and reports success via its return value.
func (h *Handlers) deleteCartItemTx(c *gin.Context, tx *sql.Tx, cartID int64, productIDStr string) bool {
	result, err := tx.ExecContext(c,
		"DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?", cartID, productIDStr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return false
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return false
	}

	if err := updateCartTotals(c, tx, cartID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart totals"})
		return false
	}
	return true
}

// cartLineItems snapshots the cart's lines for checkout.
func (h *Handlers) cartLineItems(c *gin.Context, userID int64) (int64, []models.CartItem, error) {
	var cartID int64
	err := h.DB.QueryRowContext(c, "SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	rows, err := h.DB.QueryContext(c,
		"SELECT id, cart_id, product_id, quantity FROM cart_items WHERE cart_id = ?", cartID)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity); err != nil {
			return 0, nil, err
		}
		items = append(items, item)
	}
	return cartID, items, rows.Err()
}
