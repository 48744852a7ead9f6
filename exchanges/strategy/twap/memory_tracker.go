package twap

import (
	"context"
	"fmt"
	"sort"
	"sync"

	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/gofrs/uuid"
)

// MemoryTracker is an in process Store holding copies of every order
type MemoryTracker struct {
	mu     sync.RWMutex
	orders map[string]*Order
	fills  map[string][]exchange.Fill
}

// NewMemoryTracker returns an empty MemoryTracker
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		orders: make(map[string]*Order),
		fills:  make(map[string][]exchange.Fill),
	}
}

// Create stores a new order and returns its identifier, one is generated when
// the order has none
func (m *MemoryTracker) Create(_ context.Context, o *Order) (string, error) {
	if o == nil {
		return "", errOrderIsNil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return "", err
		}
		o.ID = id.String()
	}
	if _, ok := m.orders[o.ID]; ok {
		return "", fmt.Errorf("%w: %s", errDuplicateOrder, o.ID)
	}
	m.orders[o.ID] = o.Clone()
	return o.ID, nil
}

// Save overwrites the stored copy of the order
func (m *MemoryTracker) Save(_ context.Context, o *Order) error {
	if o == nil {
		return errOrderIsNil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o.Clone()
	return nil
}

// Get returns a copy of the stored order
func (m *MemoryTracker) Get(_ context.Context, id string) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	return o.Clone(), nil
}

// List returns copies of every order, newest first
func (m *MemoryTracker) List(_ context.Context) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := make([]*Order, 0, len(m.orders))
	for _, o := range m.orders {
		resp = append(resp, o.Clone())
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i].CreatedAt.After(resp[j].CreatedAt) })
	return resp, nil
}

// Delete removes an order and its fills
func (m *MemoryTracker) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	delete(m.orders, id)
	delete(m.fills, id)
	return nil
}

// SaveFills replaces the fills stored for an order
func (m *MemoryTracker) SaveFills(_ context.Context, id string, fills []exchange.Fill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	cpy := make([]exchange.Fill, len(fills))
	copy(cpy, fills)
	m.fills[id] = cpy
	return nil
}

// GetFills returns the stored fills for an order
func (m *MemoryTracker) GetFills(_ context.Context, id string) ([]exchange.Fill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.orders[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	cpy := make([]exchange.Fill, len(m.fills[id]))
	copy(cpy, m.fills[id])
	return cpy, nil
}
