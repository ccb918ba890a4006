package orders

import (
	"context"

	"github.com/pharmacart/pharmacy-api/internal/models"
)

// Store is the persistence contract the order workflow runs against. InTx
// executes fn inside a single transaction: if fn returns an error every write
// made through the Tx is rolled back.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	OrderByID(ctx context.Context, id int64) (*models.Order, error)
	OrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
}

// Tx is the set of writes and locking reads available inside a transaction.
type Tx interface {
	// ProductForUpdate fetches a product and locks its row until commit.
	ProductForUpdate(ctx context.Context, id int64) (*models.Product, error)

	// DecrementStock subtracts qty from the product's stock only if enough
	// stock remains; it returns ErrInsufficientStock otherwise. This is the
	// storage-level guard that keeps stock from going negative under
	// concurrent checkouts.
	DecrementStock(ctx context.Context, productID int64, qty int) error

	// IncrementStock adds qty back to the product's stock (cancellation).
	IncrementStock(ctx context.Context, productID int64, qty int) error

	InsertOrder(ctx context.Context, order *models.Order) (int64, error)
	InsertOrderItem(ctx context.Context, item *models.OrderItem) (int64, error)

	// OrderForUpdate fetches an order and locks its row until commit, so a
	// concurrent cancel cannot pass the pending-status check twice.
	OrderForUpdate(ctx context.Context, id int64) (*models.Order, error)

	OrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	SetOrderStatus(ctx context.Context, orderID int64, status string) error
}
