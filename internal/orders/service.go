// Package orders implements the order placement and cancellation workflow:
// total calculation, transactional persistence of order plus line items, and
// the matching stock decrements and restorations.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacart/pharmacy-api/internal/config"
	"github.com/pharmacart/pharmacy-api/internal/models"
	"go.uber.org/zap"
)

// LineItem is one product+quantity entry of a checkout request.
type LineItem struct {
	ProductID int64
	Quantity  int
}

// ShippingDetails is the validated, sanitized checkout input the controller
// layer hands to PlaceOrder.
type ShippingDetails struct {
	ShippingAddress string
	PhoneNumber     string
	Notes           *string
	PaymentMethod   string
	PaymentStatus   string
	ShippingMethod  string
	DiscountCode    *string
}

type Service struct {
	store   Store
	pricing config.OrdersConfig
	log     *zap.Logger
}

func NewService(store Store, pricing config.OrdersConfig, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		pricing: pricing,
		log:     log,
	}
}

// PlaceOrder converts the line items into a persisted pending order with
// correct monetary totals and decremented inventory, all within one
// transaction. On any failure nothing is persisted and no stock changes.
func (s *Service) PlaceOrder(ctx context.Context, customerID int64, details ShippingDetails, lines []LineItem) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, line.ProductID)
		}
	}

	var order *models.Order

	err := s.store.InTx(ctx, func(tx Tx) error {
		// Lock every product row first, snapshot prices, and verify stock
		// before anything is written.
		var itemsSubtotal float64
		staged := make([]models.OrderItem, 0, len(lines))

		for _, line := range lines {
			product, err := tx.ProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < line.Quantity {
				return fmt.Errorf("%w: product %d has %d left", ErrInsufficientStock, product.ID, product.Stock)
			}

			subtotal := product.Price * float64(line.Quantity)
			itemsSubtotal += subtotal
			staged = append(staged, models.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				Subtotal:  subtotal,
			})
		}

		shippingCost := s.shippingCost(details.ShippingMethod)
		taxAmount := s.taxAmount(itemsSubtotal)
		discountAmount := s.discountAmount(itemsSubtotal, details.DiscountCode)
		totalAmount := itemsSubtotal + shippingCost + taxAmount - discountAmount

		now := time.Now()
		o := &models.Order{
			OrderNumber:     newOrderNumber(),
			UserID:          customerID,
			Status:          models.OrderStatusPending,
			PaymentMethod:   details.PaymentMethod,
			PaymentStatus:   details.PaymentStatus,
			ShippingMethod:  details.ShippingMethod,
			Subtotal:        itemsSubtotal,
			ShippingCost:    shippingCost,
			TaxAmount:       taxAmount,
			DiscountAmount:  discountAmount,
			TotalAmount:     totalAmount,
			ShippingAddress: details.ShippingAddress,
			PhoneNumber:     details.PhoneNumber,
			Notes:           details.Notes,
			DiscountCode:    details.DiscountCode,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		orderID, err := tx.InsertOrder(ctx, o)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		o.ID = orderID

		for i := range staged {
			staged[i].OrderID = orderID
			staged[i].CreatedAt = now
			itemID, err := tx.InsertOrderItem(ctx, &staged[i])
			if err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			staged[i].ID = itemID
		}

		for _, item := range staged {
			if err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		o.Items = staged
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("user_id", customerID),
		zap.Float64("total_amount", order.TotalAmount),
		zap.Int("items", len(order.Items)))

	return order, nil
}

// CancelOrder restores each line item's quantity to the referenced product's
// stock and flips the order to cancelled, in one transaction. Only pending
// orders can be cancelled; anything else returns ErrNotCancellable and leaves
// the order untouched, so a second cancel of the same order always fails.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order *models.Order

	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != models.OrderStatusPending {
			return fmt.Errorf("%w: order is %s", ErrNotCancellable, o.Status)
		}

		items, err := tx.OrderItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}

		for _, item := range items {
			if err := tx.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("failed to restore stock for product %d: %w", item.ProductID, err)
			}
		}

		if err := tx.SetOrderStatus(ctx, orderID, models.OrderStatusCancelled); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		o.Status = models.OrderStatusCancelled
		o.Items = items
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order cancelled",
		zap.Int64("order_id", order.ID),
		zap.Int("items_restored", len(order.Items)))

	return order, nil
}

// UpdateStatus writes one of the four defined statuses unconditionally. No
// transition graph is enforced here; only the cancel path carries a
// precondition. Use CancelOrder for cancellation so stock is restored.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var order *models.Order

	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := tx.SetOrderStatus(ctx, orderID, status); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		o.Status = status
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", status))

	return order, nil
}

// GetOrder returns the order with its line items attached.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.store.OrderByID(ctx, orderID)
}

// ListUserOrders returns all orders belonging to the user, newest first.
func (s *Service) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.OrdersByUserID(ctx, userID)
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
