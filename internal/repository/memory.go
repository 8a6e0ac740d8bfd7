package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/belanjain/internal/models"
)

// MemoryOrderRepository keeps orders in process memory.
type MemoryOrderRepository struct {
	mu       sync.RWMutex
	orders   map[string]models.Order
	items    map[string][]models.OrderItem
	tracking map[string][]models.OrderTracking
}

// NewMemoryOrderRepository constructs an empty MemoryOrderRepository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:   make(map[string]models.Order),
		items:    make(map[string][]models.OrderItem),
		tracking: make(map[string][]models.OrderTracking),
	}
}

func (r *MemoryOrderRepository) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem, tracking *models.OrderTracking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *order
	stored.Items = nil
	stored.Tracking = nil
	r.orders[order.ID] = stored
	r.items[order.ID] = append([]models.OrderItem(nil), items...)

	tracking.Sequence = 1
	r.tracking[order.ID] = []models.OrderTracking{*tracking}
	return nil
}

func (r *MemoryOrderRepository) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &order, nil
}

func (r *MemoryOrderRepository) ListOrders(ctx context.Context, customerEmail string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if customerEmail != "" && o.CustomerEmail != customerEmail {
			continue
		}
		orders = append(orders, o)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *MemoryOrderRepository) ListItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := append([]models.OrderItem(nil), r.items[orderID]...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].LineNo < items[j].LineNo })
	return items, nil
}

func (r *MemoryOrderRepository) ListTracking(ctx context.Context, orderID string) ([]models.OrderTracking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]models.OrderTracking(nil), r.tracking[orderID]...), nil
}

func (r *MemoryOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, updatedAt time.Time, tracking *models.OrderTracking) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	r.orders[id] = order

	tracking.Sequence = len(r.tracking[id]) + 1
	r.tracking[id] = append(r.tracking[id], *tracking)
	return &order, nil
}

// MemoryKV is a mutex-guarded map implementation of KV.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKV constructs an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
