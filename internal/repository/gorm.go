package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/belanjain/internal/models"
)

// GormOrderRepository stores orders in a relational database through gorm.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository constructs GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem, tracking *models.OrderTracking) error {
	tracking.Sequence = 1

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return tx.Create(tracking).Error
	})
}

func (r *GormOrderRepository) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) ListOrders(ctx context.Context, customerEmail string) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if customerEmail != "" {
		query = query.Where("customer_email = ?", customerEmail)
	}

	var orders []models.Order
	if err := query.Order("created_at asc").Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) ListItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("line_no asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormOrderRepository) ListTracking(ctx context.Context, orderID string) ([]models.OrderTracking, error) {
	var tracking []models.OrderTracking
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("sequence asc").
		Find(&tracking).Error; err != nil {
		return nil, err
	}
	return tracking, nil
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, updatedAt time.Time, tracking *models.OrderTracking) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]any{
			"status":     status,
			"updated_at": updatedAt,
		}).Error; err != nil {
			return err
		}

		var last int
		if err := tx.Model(&models.OrderTracking{}).
			Where("order_id = ?", id).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		tracking.Sequence = last + 1
		if err := tx.Create(tracking).Error; err != nil {
			return err
		}

		order.Status = status
		order.UpdatedAt = updatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
