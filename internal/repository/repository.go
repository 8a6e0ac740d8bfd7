// Package repository holds the persistence ports used by the services and
// their implementations. Implementations are chosen at process start, so the
// services never know whether orders live in Postgres, MongoDB or memory.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/belanjain/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// OrderRepository persists orders together with their items and tracking log.
type OrderRepository interface {
	// CreateOrder writes the order, its items and its first tracking entry as
	// one unit.
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem, tracking *models.OrderTracking) error

	// FindOrder returns the bare order row, without items or tracking.
	FindOrder(ctx context.Context, id string) (*models.Order, error)

	// ListOrders returns orders sorted by created_at ascending. An empty
	// customerEmail lists every order.
	ListOrders(ctx context.Context, customerEmail string) ([]models.Order, error)

	// ListItems returns the order's items sorted by line number.
	ListItems(ctx context.Context, orderID string) ([]models.OrderItem, error)

	// ListTracking returns the order's tracking entries sorted by sequence.
	ListTracking(ctx context.Context, orderID string) ([]models.OrderTracking, error)

	// UpdateStatus sets the order status and updated_at, then appends tracking
	// with the next sequence number, as one unit. tracking.Sequence is filled
	// in and the committed order row is returned.
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus, updatedAt time.Time, tracking *models.OrderTracking) (*models.Order, error)
}

// KV is a small key/value store holding serialized session collections.
type KV interface {
	// Get returns the stored value and false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
