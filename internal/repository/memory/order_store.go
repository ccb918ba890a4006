// Package memory is an in-memory implementation of the order store. It backs
// the workflow tests and mirrors the transactional contract of the MySQL
// store: InTx snapshots all state up front and restores it if fn fails, so
// all-or-nothing behavior can be asserted without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pharmacart/pharmacy-api/internal/models"
	"github.com/pharmacart/pharmacy-api/internal/orders"
)

type OrderStore struct {
	mu         sync.Mutex
	products   map[int64]*models.Product
	orders     map[int64]*models.Order
	orderItems map[int64][]models.OrderItem
	nextOrder  int64
	nextItem   int64
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		products:   make(map[int64]*models.Product),
		orders:     make(map[int64]*models.Order),
		orderItems: make(map[int64][]models.OrderItem),
	}
}

// AddProduct seeds a product. Test setup helper.
func (s *OrderStore) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

// Product returns a copy of the stored product.
func (s *OrderStore) Product(id int64) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, false
	}
	return *p, true
}

func (s *OrderStore) InTx(ctx context.Context, fn func(tx orders.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *OrderStore) OrderByID(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", orders.ErrOrderNotFound, id)
	}
	cp := *o
	cp.Items = append([]models.OrderItem(nil), s.orderItems[id]...)
	return &cp, nil
}

func (s *OrderStore) OrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			result = append(result, *o)
		}
	}
	// Newest first, matching the MySQL store's created_at DESC. IDs are
	// assigned in creation order, so they give a stable equivalent.
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

type state struct {
	products   map[int64]*models.Product
	orders     map[int64]*models.Order
	orderItems map[int64][]models.OrderItem
	nextOrder  int64
	nextItem   int64
}

func (s *OrderStore) snapshot() state {
	st := state{
		products:   make(map[int64]*models.Product, len(s.products)),
		orders:     make(map[int64]*models.Order, len(s.orders)),
		orderItems: make(map[int64][]models.OrderItem, len(s.orderItems)),
		nextOrder:  s.nextOrder,
		nextItem:   s.nextItem,
	}
	for id, p := range s.products {
		cp := *p
		st.products[id] = &cp
	}
	for id, o := range s.orders {
		cp := *o
		st.orders[id] = &cp
	}
	for id, items := range s.orderItems {
		st.orderItems[id] = append([]models.OrderItem(nil), items...)
	}
	return st
}

func (s *OrderStore) restore(st state) {
	s.products = st.products
	s.orders = st.orders
	s.orderItems = st.orderItems
	s.nextOrder = st.nextOrder
	s.nextItem = st.nextItem
}

// memTx operates on the live maps while the store mutex is held; rollback is
// the snapshot/restore in InTx.
type memTx struct {
	store *OrderStore
}

func (t *memTx) ProductForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := t.store.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", orders.ErrProductNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID int64, qty int) error {
	p, ok := t.store.products[productID]
	if !ok || p.Stock < qty {
		return fmt.Errorf("%w: product %d", orders.ErrInsufficientStock, productID)
	}
	p.Stock -= qty
	return nil
}

func (t *memTx) IncrementStock(ctx context.Context, productID int64, qty int) error {
	p, ok := t.store.products[productID]
	if !ok {
		return fmt.Errorf("%w: %d", orders.ErrProductNotFound, productID)
	}
	p.Stock += qty
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *models.Order) (int64, error) {
	t.store.nextOrder++
	cp := *o
	cp.ID = t.store.nextOrder
	cp.Items = nil
	t.store.orders[cp.ID] = &cp
	return cp.ID, nil
}

func (t *memTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) (int64, error) {
	if _, ok := t.store.orders[item.OrderID]; !ok {
		return 0, fmt.Errorf("%w: %d", orders.ErrOrderNotFound, item.OrderID)
	}
	t.store.nextItem++
	cp := *item
	cp.ID = t.store.nextItem
	t.store.orderItems[item.OrderID] = append(t.store.orderItems[item.OrderID], cp)
	return cp.ID, nil
}

func (t *memTx) OrderForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := t.store.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", orders.ErrOrderNotFound, id)
	}
	cp := *o
	return &cp, nil
}

func (t *memTx) OrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), t.store.orderItems[orderID]...), nil
}

func (t *memTx) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	o, ok := t.store.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %d", orders.ErrOrderNotFound, orderID)
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}
