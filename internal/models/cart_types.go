package models

import "time"

// Cart defines the struct for the 'carts' table. One cart per user, created
// lazily on first access and cleared (not deleted) on checkout.
type Cart struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"userId" db:"user_id"`
	TotalAmount float64   `json:"totalAmount" db:"total_amount"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	Items []CartItem `json:"items,omitempty" db:"-"`
}

// CartItem defines the struct for the 'cart_items' table. UnitPrice is a
// snapshot of the product price at add-time; Subtotal = Quantity * UnitPrice.
type CartItem struct {
	ID        int64     `json:"id" db:"id"`
	CartID    int64     `json:"cartId" db:"cart_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unitPrice" db:"unit_price"`
	Subtotal  float64   `json:"subtotal" db:"subtotal"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
