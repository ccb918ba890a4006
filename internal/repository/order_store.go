// Package repository holds the MySQL-backed stores. All order mutations go
// through OrderStore.InTx so the order row, its items, and the stock updates
// commit or roll back together.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pharmacart/pharmacy-api/internal/models"
	"github.com/pharmacart/pharmacy-api/internal/orders"
)

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// InTx runs fn inside a transaction. The deferred Rollback is a safety net; it
// is a no-op once Commit has succeeded.
func (s *OrderStore) InTx(ctx context.Context, fn func(tx orders.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&orderTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *OrderStore) OrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx, selectOrder+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", orders.ErrOrderNotFound, id)
		}
		return nil, err
	}

	items, err := queryOrderItems(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *OrderStore) OrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, selectOrder+" WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

// orderTx implements orders.Tx on top of *sql.Tx.
type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) ProductForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, slug, description, price, stock, created_at, updated_at
		FROM products
		WHERE id = ?
		FOR UPDATE`, id).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", orders.ErrProductNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

// DecrementStock is a conditional decrement: the WHERE guard plus the
// affected-row check is what keeps stock from ever going negative, even if
// two checkouts race past the application-level stock read.
func (t *orderTx) DecrementStock(ctx context.Context, productID int64, qty int) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND stock >= ?`,
		qty, time.Now(), productID, qty)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: product %d", orders.ErrInsufficientStock, productID)
	}
	return nil
}

func (t *orderTx) IncrementStock(ctx context.Context, productID int64, qty int) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?, updated_at = ?
		WHERE id = ?`,
		qty, time.Now(), productID)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

func (t *orderTx) InsertOrder(ctx context.Context, o *models.Order) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (
			order_number, user_id, status,
			payment_method, payment_status, shipping_method,
			subtotal, shipping_cost, tax_amount, discount_amount, total_amount,
			shipping_address, phone_number, notes, discount_code,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderNumber, o.UserID, o.Status,
		o.PaymentMethod, o.PaymentStatus, o.ShippingMethod,
		o.Subtotal, o.ShippingCost, o.TaxAmount, o.DiscountAmount, o.TotalAmount,
		o.ShippingAddress, o.PhoneNumber, o.Notes, o.DiscountCode,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (t *orderTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal, item.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (t *orderTx) OrderForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	order, err := scanOrder(t.tx.QueryRowContext(ctx, selectOrder+" WHERE id = ? FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", orders.ErrOrderNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

func (t *orderTx) OrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return queryOrderItems(ctx, t.tx, orderID)
}

func (t *orderTx) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now(), orderID)
	return err
}

const selectOrder = `
	SELECT id, order_number, user_id, status,
		payment_method, payment_status, shipping_method,
		subtotal, shipping_cost, tax_amount, discount_amount, total_amount,
		shipping_address, phone_number, notes, discount_code,
		created_at, updated_at
	FROM orders`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var notes, discountCode sql.NullString

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status,
		&o.PaymentMethod, &o.PaymentStatus, &o.ShippingMethod,
		&o.Subtotal, &o.ShippingCost, &o.TaxAmount, &o.DiscountAmount, &o.TotalAmount,
		&o.ShippingAddress, &o.PhoneNumber, &notes, &discountCode,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if notes.Valid {
		o.Notes = &notes.String
	}
	if discountCode.Valid {
		o.DiscountCode = &discountCode.String
	}
	return &o, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryOrderItems(ctx context.Context, q querier, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal, created_at
		FROM order_items
		WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.Subtotal, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
