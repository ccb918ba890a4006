package orders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmacart/pharmacy-api/internal/config"
	"github.com/pharmacart/pharmacy-api/internal/models"
	"github.com/pharmacart/pharmacy-api/internal/orders"
	"github.com/pharmacart/pharmacy-api/internal/repository/memory"
)

func testPricing() config.OrdersConfig {
	return config.OrdersConfig{
		TaxRate:         0.05,
		DiscountRate:    0.10,
		DefaultShipping: 10.00,
		ShippingRates: map[string]float64{
			"standard": 10.00,
			"express":  20.00,
		},
	}
}

func newTestService(t *testing.T) (*orders.Service, *memory.OrderStore) {
	t.Helper()
	store := memory.NewOrderStore()
	return orders.NewService(store, testPricing(), zap.NewNop()), store
}

func standardDetails() orders.ShippingDetails {
	return orders.ShippingDetails{
		ShippingAddress: "12 Harbour Lane",
		PhoneNumber:     "0123456789",
		PaymentMethod:   models.PaymentMethodCreditCard,
		PaymentStatus:   models.PaymentStatusPending,
		ShippingMethod:  models.ShippingMethodStandard,
	}
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Name: "Paracetamol 500mg", Price: 25.00, Stock: 10})

	order, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: 2},
	})
	require.NoError(t, err)

	// 50 subtotal + 10 shipping + 2.50 tax, no discount.
	assert.InDelta(t, 50.00, order.Subtotal, 1e-9)
	assert.InDelta(t, 10.00, order.ShippingCost, 1e-9)
	assert.InDelta(t, 2.50, order.TaxAmount, 1e-9)
	assert.InDelta(t, 0.00, order.DiscountAmount, 1e-9)
	assert.InDelta(t, 62.50, order.TotalAmount, 1e-9)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(7), order.UserID)
	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, order.OrderNumber)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, 25.00, order.Items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 50.00, order.Items[0].Subtotal, 1e-9)

	p, ok := store.Product(1)
	require.True(t, ok)
	assert.Equal(t, 8, p.Stock)
}

func TestPlaceOrderExpressShippingAndDiscount(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Name: "Vitamin C", Price: 10.00, Stock: 20})

	code := "WELCOME10"
	details := standardDetails()
	details.ShippingMethod = models.ShippingMethodExpress
	details.DiscountCode = &code

	order, err := svc.PlaceOrder(context.Background(), 7, details, []orders.LineItem{
		{ProductID: 1, Quantity: 5},
	})
	require.NoError(t, err)

	// 50 subtotal + 20 express shipping + 2.50 tax - 5 discount.
	assert.InDelta(t, 20.00, order.ShippingCost, 1e-9)
	assert.InDelta(t, 5.00, order.DiscountAmount, 1e-9)
	assert.InDelta(t, 67.50, order.TotalAmount, 1e-9)
	require.NotNil(t, order.DiscountCode)
	assert.Equal(t, code, *order.DiscountCode)
}

func TestPlaceOrderUnknownShippingMethodUsesDefault(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Price: 10.00, Stock: 5})

	details := standardDetails()
	details.ShippingMethod = "carrier-pigeon"

	order, err := svc.PlaceOrder(context.Background(), 7, details, []orders.LineItem{
		{ProductID: 1, Quantity: 1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.00, order.ShippingCost, 1e-9)
}

func TestPlaceOrderInsufficientStockRollsBackEverything(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Price: 5.00, Stock: 10})
	store.AddProduct(models.Product{ID: 2, Price: 8.00, Stock: 1})

	_, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 2},
	})
	require.ErrorIs(t, err, orders.ErrInsufficientStock)

	// The first product's stock must be untouched and no order persisted.
	p1, _ := store.Product(1)
	assert.Equal(t, 10, p1.Stock)
	p2, _ := store.Product(2)
	assert.Equal(t, 1, p2.Stock)

	list, err := svc.ListUserOrders(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 99, Quantity: 1},
	})
	assert.ErrorIs(t, err, orders.ErrProductNotFound)
}

func TestPlaceOrderEmptyAndInvalidLines(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Price: 5.00, Stock: 10})

	_, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), nil)
	assert.ErrorIs(t, err, orders.ErrEmptyOrder)

	_, err = svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: 0},
	})
	assert.ErrorIs(t, err, orders.ErrInvalidQuantity)

	_, err = svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: -2},
	})
	assert.ErrorIs(t, err, orders.ErrInvalidQuantity)
}

func TestPlaceOrderExactStockBoundary(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Price: 5.00, Stock: 3})

	_, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: 3},
	})
	require.NoError(t, err)

	p, _ := store.Product(1)
	assert.Equal(t, 0, p.Stock)

	// Nothing left for the next customer.
	_, err = svc.PlaceOrder(context.Background(), 8, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: 1},
	})
	assert.ErrorIs(t, err, orders.ErrInsufficientStock)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Price: 5.00, Stock: 10})
	store.AddProduct(models.Product{ID: 2, Price: 8.00, Stock: 10})

	order, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 3},
	})
	require.NoError(t, err)

	p1, _ := store.Product(1)
	p2, _ := store.Product(2)
	require.Equal(t, 8, p1.Stock)
	require.Equal(t, 7, p2.Stock)

	cancelled, err := svc.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	p1, _ = store.Product(1)
	p2, _ = store.Product(2)
	assert.Equal(t, 10, p1.Stock)
	assert.Equal(t, 10, p2.Stock)
}

func TestCancelOrderRejectsNonPending(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Price: 5.00, Stock: 10})

	order, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: 2},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, orders.ErrNotCancellable)

	// Stock stays where checkout left it.
	p, _ := store.Product(1)
	assert.Equal(t, 8, p.Stock)

	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
}

func TestCancelOrderTwiceFailsSecondTime(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Price: 5.00, Stock: 10})

	order, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: 4},
	})
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, orders.ErrNotCancellable)

	// Stock must not be restored twice.
	p, _ := store.Product(1)
	assert.Equal(t, 10, p.Stock)
}

func TestCancelOrderUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CancelOrder(context.Background(), 404)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestUpdateStatus(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Price: 5.00, Stock: 10})

	order, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: 1},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), order.ID, "shipped")
	assert.ErrorIs(t, err, orders.ErrInvalidStatus)

	_, err = svc.UpdateStatus(context.Background(), 404, models.OrderStatusCompleted)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestUpdateStatusDoesNotTouchStock(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Price: 5.00, Stock: 10})

	order, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{
		{ProductID: 1, Quantity: 5},
	})
	require.NoError(t, err)

	// Flipping the status straight to cancelled bypasses stock restoration;
	// that path is reserved for CancelOrder.
	_, err = svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	p, _ := store.Product(1)
	assert.Equal(t, 5, p.Stock)
}

func TestListUserOrdersScopedToUser(t *testing.T) {
	svc, store := newTestService(t)
	store.AddProduct(models.Product{ID: 1, Price: 5.00, Stock: 100})

	_, err := svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{{ProductID: 1, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(context.Background(), 7, standardDetails(), []orders.LineItem{{ProductID: 1, Quantity: 2}})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(context.Background(), 8, standardDetails(), []orders.LineItem{{ProductID: 1, Quantity: 3}})
	require.NoError(t, err)

	mine, err := svc.ListUserOrders(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	// Newest first.
	assert.Greater(t, mine[0].ID, mine[1].ID)

	theirs, err := svc.ListUserOrders(context.Background(), 8)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
