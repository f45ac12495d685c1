package order

import (
	"sync"

	"github.com/vileopratama/vitech/pkg/types"
)

// Registry tracks the orders open at the register and which one the
// cashier is working on. A registry always holds at least one order: when
// the last one is removed the factory supplies a fresh one.
type Registry struct {
	mu       sync.Mutex
	factory  func() *Order
	orders   []*Order
	selected string
}

// NewRegistry creates a registry. The factory builds replacement orders
// and must never return nil; it is called once immediately so the
// registry starts non-empty.
func NewRegistry(factory func() *Order) *Registry {
	r := &Registry{factory: factory}
	first := factory()
	r.orders = []*Order{first}
	r.selected = first.UID()
	return r
}

// Add opens an order at the register and selects it.
func (r *Registry) Add(o *Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, o)
	r.selected = o.UID()
}

// Get returns the open order with the given uid.
func (r *Registry) Get(uid string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.UID() == uid {
			return o, nil
		}
	}
	return nil, types.ErrNotFound
}

// Selected returns the order the cashier is working on.
func (r *Registry) Selected() *Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectedLocked()
}

func (r *Registry) selectedLocked() *Order {
	for _, o := range r.orders {
		if o.UID() == r.selected {
			return o
		}
	}
	return r.orders[0]
}

// Select makes the order with the given uid current.
func (r *Registry) Select(uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.UID() == uid {
			r.selected = uid
			return nil
		}
	}
	return types.ErrNotFound
}

// Remove closes the order with the given uid. If it was selected, the
// neighboring order becomes current; removing the last order replaces it
// with a fresh one from the factory.
func (r *Registry) Remove(uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := -1
	for i, o := range r.orders {
		if o.UID() == uid {
			at = i
			break
		}
	}
	if at < 0 {
		return types.ErrNotFound
	}
	r.orders = append(r.orders[:at], r.orders[at+1:]...)

	if len(r.orders) == 0 {
		fresh := r.factory()
		r.orders = []*Order{fresh}
		r.selected = fresh.UID()
		return nil
	}
	if r.selected == uid {
		if at >= len(r.orders) {
			at = len(r.orders) - 1
		}
		r.selected = r.orders[at].UID()
	}
	return nil
}

// All returns the open orders in opening order.
func (r *Registry) All() []*Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Order(nil), r.orders...)
}

// Len reports how many orders are open.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}
