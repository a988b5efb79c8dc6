package feed

import (
	"sort"
	"sync"

	"github.com/comandas-pos/pos/internal/catalog"
	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/order"
)

// Board is the locally known state of orders and products. Messages are
// applied in arrival order with no sequencing; Replace resets it from a
// full fetch.
type Board struct {
	mu       sync.RWMutex
	orders   map[int64]order.Order
	products map[int64]catalog.Product
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{
		orders:   make(map[int64]order.Order),
		products: make(map[int64]catalog.Product),
	}
}

// Apply upserts on create/update and removes on delete.
func (b *Board) Apply(m Message) {
	id, ok := m.EntityID()
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch m.Source {
	case enum.FeedSourceOrders:
		if m.Action == enum.FeedActionDelete {
			delete(b.orders, id)
		} else if m.Order != nil {
			b.orders[id] = *m.Order
		}
	case enum.FeedSourceProducts:
		if m.Action == enum.FeedActionDelete {
			delete(b.products, id)
		} else if m.Product != nil {
			b.products[id] = *m.Product
		}
	}
}

// Replace discards the current state. A nil slice leaves that half untouched.
func (b *Board) Replace(orders []order.Order, products []catalog.Product) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if orders != nil {
		b.orders = make(map[int64]order.Order, len(orders))
		for _, o := range orders {
			b.orders[o.ID] = o
		}
	}
	if products != nil {
		b.products = make(map[int64]catalog.Product, len(products))
		for _, p := range products {
			b.products[p.ID] = p
		}
	}
}

// Orders returns the known orders sorted by date then number.
func (b *Board) Orders() []order.Order {
	b.mu.RLock()
	out := make([]order.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, o)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// Order looks an order up by id.
func (b *Board) Order(id int64) (order.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.orders[id]
	return o, ok
}

// Products returns the known products sorted by name.
func (b *Board) Products() []catalog.Product {
	b.mu.RLock()
	out := make([]catalog.Product, 0, len(b.products))
	for _, p := range b.products {
		out = append(out, p)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
