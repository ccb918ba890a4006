package orders

import "errors"

var (
	// Validation errors: surfaced before any mutation is committed.
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// State errors: the operation is rejected and the order is unchanged.
	ErrOrderNotFound  = errors.New("order not found")
	ErrNotCancellable = errors.New("only pending orders can be cancelled")
	ErrInvalidStatus  = errors.New("invalid order status")
)
