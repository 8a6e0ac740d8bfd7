package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/belanjain/internal/models"
)

// Kafka topics carrying order events.
const (
	TopicOrderCreated       = "order-created"
	TopicOrderStatusUpdated = "order-status-updated"
)

// OrderEvent is the payload published whenever an order is created or moves
// to another status.
type OrderEvent struct {
	Type          string             `json:"type"`
	OrderID       string             `json:"order_id"`
	CustomerEmail string             `json:"customer_email"`
	Status        models.OrderStatus `json:"status"`
	Description   string             `json:"description"`
	TotalAmount   float64            `json:"total_amount"`
	Summary       string             `json:"summary"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// OrderNotifier publishes order events. Implementations must not block the
// caller for long; failures are reported but never undo the order change.
type OrderNotifier interface {
	NotifyOrderCreated(ctx context.Context, order *models.Order) error
	NotifyStatusChanged(ctx context.Context, order *models.Order, tracking models.OrderTracking) error
}

// NoopNotifier drops every event.
type NoopNotifier struct{}

func (NoopNotifier) NotifyOrderCreated(context.Context, *models.Order) error { return nil }

func (NoopNotifier) NotifyStatusChanged(context.Context, *models.Order, models.OrderTracking) error {
	return nil
}

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaNotifier writes order events to Kafka, keyed by order id so every event
// of one order lands on the same partition.
type KafkaNotifier struct {
	created messageWriter
	updated messageWriter
}

// NewKafkaWriter creates a kafka writer with leader-only acknowledgements.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaNotifier constructs a KafkaNotifier writing to the order topics.
func NewKafkaNotifier(brokers []string) *KafkaNotifier {
	return &KafkaNotifier{
		created: NewKafkaWriter(brokers, TopicOrderCreated),
		updated: NewKafkaWriter(brokers, TopicOrderStatusUpdated),
	}
}

// Close flushes and closes both writers.
func (n *KafkaNotifier) Close() error {
	var firstErr error
	for _, w := range []messageWriter{n.created, n.updated} {
		if c, ok := w.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (n *KafkaNotifier) NotifyOrderCreated(ctx context.Context, order *models.Order) error {
	event := OrderEvent{
		Type:          TopicOrderCreated,
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		Status:        order.Status,
		Description:   order.Status.DefaultDescription(),
		TotalAmount:   order.TotalAmount,
		Summary:       SummarizeOrder(order),
		OccurredAt:    order.CreatedAt,
	}
	return writeEvent(ctx, n.created, event)
}

func (n *KafkaNotifier) NotifyStatusChanged(ctx context.Context, order *models.Order, tracking models.OrderTracking) error {
	event := OrderEvent{
		Type:          TopicOrderStatusUpdated,
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		Status:        tracking.Status,
		Description:   tracking.Description,
		TotalAmount:   order.TotalAmount,
		OccurredAt:    tracking.CreatedAt,
	}
	return writeEvent(ctx, n.updated, event)
}

func writeEvent(ctx context.Context, w messageWriter, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
		Time:  event.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to write order event", "topic", event.Type, "order_id", event.OrderID, "error", err)
		return err
	}
	return nil
}

// SummarizeOrder renders a short human-readable description of the order.
func SummarizeOrder(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s for %s", order.ID, order.CustomerName)
	for i, item := range order.Items {
		fmt.Fprintf(&b, "\n%d. %s %d x %s = %s",
			i+1,
			item.ProductName,
			item.Quantity,
			FormatPrice(item.ProductPrice),
			FormatPrice(item.Subtotal),
		)
	}
	if order.DiscountAmount > 0 {
		fmt.Fprintf(&b, "\nDiscount: -%s", FormatPrice(order.DiscountAmount))
	}
	fmt.Fprintf(&b, "\nTotal: %s", FormatPrice(order.TotalAmount))
	return b.String()
}

// FormatPrice formats an amount in rupiah with dot thousand separators,
// e.g. 299000 → "Rp 299.000". Fractions are rounded to whole rupiah.
func FormatPrice(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	str := fmt.Sprintf("%.0f", amount)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(".")
		}
		result.WriteRune(digit)
	}

	if negative {
		return "-Rp " + result.String()
	}
	return "Rp " + result.String()
}
