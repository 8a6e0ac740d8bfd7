package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/repository"
)

// totalTolerance is how far a submitted total may drift from the computed one.
var totalTolerance = decimal.RequireFromString("0.005")

// OrderItemInput is one line of a new order.
type OrderItemInput struct {
	ProductID    string
	ProductName  string
	ProductPrice float64
	Quantity     int
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	TotalAmount     float64
	DiscountAmount  float64
	PromoCode       string
	PaymentMethod   string
	Items           []OrderItemInput
}

// OrderStats aggregates orders for the admin dashboard.
type OrderStats struct {
	TotalOrders    int                          `json:"total_orders"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	TotalRevenue   float64                      `json:"total_revenue"`
	TodayRevenue   float64                      `json:"today_revenue"`
}

// OrderService owns orders, their items and their tracking history.
type OrderService struct {
	repo     repository.OrderRepository
	notifier OrderNotifier
	tracer   trace.Tracer
	now      func() time.Time
}

// NewOrderService constructs OrderService. A nil notifier disables events.
func NewOrderService(repo repository.OrderRepository, notifier OrderNotifier) *OrderService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &OrderService{
		repo:     repo,
		notifier: notifier,
		tracer:   otel.Tracer("github.com/example/belanjain/internal/services"),
		now:      time.Now,
	}
}

// Create validates the input and persists the order with its items and the
// initial pending tracking entry.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	const op = "orders.Create"

	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	subtotal, err := validateCreateOrder(op, in)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:              models.NewID("order"),
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		TotalAmount:     in.TotalAmount,
		DiscountAmount:  in.DiscountAmount,
		PaymentMethod:   in.PaymentMethod,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if code := strings.TrimSpace(in.PromoCode); code != "" {
		order.PromoCode = &code
	}

	items := make([]models.OrderItem, len(in.Items))
	for i, item := range in.Items {
		items[i] = models.OrderItem{
			ID:           models.NewID("item"),
			OrderID:      order.ID,
			LineNo:       i + 1,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
			Subtotal:     lineSubtotal(item.ProductPrice, item.Quantity).InexactFloat64(),
			CreatedAt:    now,
		}
	}

	tracking := models.OrderTracking{
		ID:          models.NewID("tracking"),
		OrderID:     order.ID,
		Status:      models.StatusPending,
		Description: models.StatusPending.DefaultDescription(),
		CreatedAt:   now,
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int("order.items", len(items)),
		attribute.String("order.subtotal", subtotal.String()),
	)

	if err := s.repo.CreateOrder(ctx, order, items, &tracking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order failed")
		slog.ErrorContext(ctx, "failed to persist order", "order_id", order.ID, "error", err)
		return nil, persistenceError(op, order.ID, err)
	}

	order.Items = items
	order.Tracking = []models.OrderTracking{tracking}

	slog.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"items", len(items),
		"total_amount", order.TotalAmount,
		"payment_method", order.PaymentMethod,
	)

	created := *order
	s.publish(ctx, func(ctx context.Context) error {
		return s.notifier.NotifyOrderCreated(ctx, &created)
	})

	return order, nil
}

// Get returns the order with its items and tracking history.
func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	const op = "orders.Get"

	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		return nil, s.lookupError(op, id, err)
	}

	if err := s.attachDetails(ctx, order); err != nil {
		return nil, persistenceError(op, id, err)
	}
	return order, nil
}

func (s *OrderService) attachDetails(ctx context.Context, order *models.Order) error {
	items, err := s.repo.ListItems(ctx, order.ID)
	if err != nil {
		return err
	}
	tracking, err := s.repo.ListTracking(ctx, order.ID)
	if err != nil {
		return err
	}

	order.Items = items
	order.Tracking = tracking
	return nil
}

// List returns every order, or only those whose email matches exactly,
// oldest first.
func (s *OrderService) List(ctx context.Context, customerEmail string) ([]models.Order, error) {
	orders, err := s.repo.ListOrders(ctx, customerEmail)
	if err != nil {
		return nil, persistenceError("orders.List", "", err)
	}
	return orders, nil
}

// UpdateStatus moves the order to status and appends a tracking entry. Any
// status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, description string) (*models.Order, error) {
	const op = "orders.UpdateStatus"

	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	if !status.Valid() {
		err := validationError(op, "status", "is not a known order status")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = status.DefaultDescription()
	}

	now := s.now().UTC()
	tracking := models.OrderTracking{
		ID:          models.NewID("tracking"),
		OrderID:     id,
		Status:      status,
		Description: description,
		CreatedAt:   now,
	}

	order, err := s.repo.UpdateStatus(ctx, id, status, now, &tracking)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, s.lookupError(op, id, err)
	}

	slog.InfoContext(ctx, "order status updated", "order_id", id, "status", status, "sequence", tracking.Sequence)

	// The change is committed; a failed re-read must not invite a retry.
	if err := s.attachDetails(ctx, order); err != nil {
		slog.WarnContext(ctx, "order details unavailable after status update", "order_id", id, "error", err)
		order.Tracking = []models.OrderTracking{tracking}
	}

	snapshot := *order
	s.publish(ctx, func(ctx context.Context) error {
		return s.notifier.NotifyStatusChanged(ctx, &snapshot, tracking)
	})

	return order, nil
}

// Stats summarises order counts and revenue. Cancelled orders earn nothing.
func (s *OrderService) Stats(ctx context.Context) (*OrderStats, error) {
	orders, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{
		TotalOrders:    len(orders),
		OrdersByStatus: make(map[models.OrderStatus]int64),
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	total, todayTotal := decimal.Zero, decimal.Zero
	for _, o := range orders {
		stats.OrdersByStatus[o.Status]++
		if o.Status == models.StatusCancelled {
			continue
		}
		amount := decimal.NewFromFloat(o.TotalAmount)
		total = total.Add(amount)
		if !o.CreatedAt.UTC().Before(today) {
			todayTotal = todayTotal.Add(amount)
		}
	}

	stats.TotalRevenue = total.InexactFloat64()
	stats.TodayRevenue = todayTotal.InexactFloat64()
	return stats, nil
}

func (s *OrderService) lookupError(op, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{Op: op, Kind: ErrNotFound, ID: id}
	}
	return persistenceError(op, id, err)
}

// publish runs fn in the background, detached from request cancellation.
func (s *OrderService) publish(ctx context.Context, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := fn(ctx); err != nil {
			slog.WarnContext(ctx, "order event not published", "error", err)
		}
	}()
}

func lineSubtotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// validateCreateOrder checks the input and returns the sum of line subtotals.
func validateCreateOrder(op string, in CreateOrderInput) (decimal.Decimal, error) {
	required := []struct{ field, value string }{
		{"customer_name", in.CustomerName},
		{"customer_email", in.CustomerEmail},
		{"customer_phone", in.CustomerPhone},
		{"customer_address", in.CustomerAddress},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return decimal.Zero, validationError(op, r.field, "is required")
		}
	}

	if in.PaymentMethod == "" {
		return decimal.Zero, validationError(op, "payment_method", "is required")
	}
	if !models.IsPaymentMethod(in.PaymentMethod) {
		return decimal.Zero, validationError(op, "payment_method", "must be one of credit_card, e_wallet, bank_transfer")
	}
	if in.TotalAmount < 0 {
		return decimal.Zero, validationError(op, "total_amount", "must not be negative")
	}
	if in.DiscountAmount < 0 {
		return decimal.Zero, validationError(op, "discount_amount", "must not be negative")
	}
	if len(in.Items) == 0 {
		return decimal.Zero, validationError(op, "items", "must not be empty")
	}

	subtotal := decimal.Zero
	for _, item := range in.Items {
		switch {
		case strings.TrimSpace(item.ProductID) == "":
			return decimal.Zero, validationError(op, "items.product_id", "is required")
		case strings.TrimSpace(item.ProductName) == "":
			return decimal.Zero, validationError(op, "items.product_name", "is required")
		case item.ProductPrice < 0:
			return decimal.Zero, validationError(op, "items.product_price", "must not be negative")
		case item.Quantity < 1:
			return decimal.Zero, validationError(op, "items.quantity", "must be at least 1")
		}
		subtotal = subtotal.Add(lineSubtotal(item.ProductPrice, item.Quantity))
	}

	expected := subtotal.Sub(decimal.NewFromFloat(in.DiscountAmount))
	if expected.Sub(decimal.NewFromFloat(in.TotalAmount)).Abs().GreaterThan(totalTolerance) {
		return decimal.Zero, validationError(op, "total_amount", "must equal the item subtotals minus the discount")
	}

	return subtotal, nil
}
