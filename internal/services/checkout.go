package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/belanjain/internal/models"
)

// CustomerInfo is the contact and delivery data collected at checkout.
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CheckoutInput struct {
	SessionID     string
	Customer      CustomerInfo
	PaymentMethod string
	// PromoCode overrides the session's active promo when set.
	PromoCode string
}

// PaymentFunc charges amount using method. It must return promptly once ctx
// is done.
type PaymentFunc func(ctx context.Context, amount decimal.Decimal, method string) error

// SimulatedPayment approves every charge after delay.
func SimulatedPayment(delay time.Duration) PaymentFunc {
	return func(ctx context.Context, amount decimal.Decimal, method string) error {
		if delay <= 0 {
			return ctx.Err()
		}
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// CheckoutService turns a session cart into an order.
type CheckoutService struct {
	orders *OrderService
	ledger *Ledger
	pay    PaymentFunc
	tracer trace.Tracer
}

func NewCheckoutService(orders *OrderService, ledger *Ledger, pay PaymentFunc) *CheckoutService {
	if pay == nil {
		pay = SimulatedPayment(0)
	}
	return &CheckoutService{
		orders: orders,
		ledger: ledger,
		pay:    pay,
		tracer: otel.Tracer("github.com/example/belanjain/internal/services"),
	}
}

// Checkout validates the session cart and customer data, takes payment and
// creates the order. The cart is only cleared once the order exists.
func (c *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*models.Order, error) {
	const op = "checkout.Checkout"

	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("session.id", in.SessionID),
		attribute.String("payment.method", in.PaymentMethod),
	))
	defer span.End()

	order, err := c.checkout(ctx, op, in)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID))
	return order, nil
}

func (c *CheckoutService) checkout(ctx context.Context, op string, in CheckoutInput) (*models.Order, error) {
	cart, err := c.ledger.Cart(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, &Error{Op: op, Kind: ErrEmptyCart, ID: in.SessionID}
	}

	if err := validateCustomer(op, in.Customer); err != nil {
		return nil, err
	}
	if !models.IsPaymentMethod(in.PaymentMethod) {
		return nil, validationError(op, "payment_method", "must be one of credit_card, e_wallet, bank_transfer")
	}

	promo, err := c.resolvePromo(ctx, op, in)
	if err != nil {
		return nil, err
	}
	totals := ApplyPromo(cartSubtotal(cart.Items), promo)

	if err := c.pay(ctx, totals.Total, in.PaymentMethod); err != nil {
		slog.WarnContext(ctx, "payment failed", "session_id", in.SessionID, "error", err)
		return nil, fmt.Errorf("%s: payment: %w", op, err)
	}

	items := make([]OrderItemInput, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = OrderItemInput{
			ProductID:    item.ID,
			ProductName:  item.Name,
			ProductPrice: item.Price,
			Quantity:     item.Quantity,
		}
	}

	input := CreateOrderInput{
		CustomerName:    in.Customer.Name,
		CustomerEmail:   in.Customer.Email,
		CustomerPhone:   in.Customer.Phone,
		CustomerAddress: in.Customer.Address,
		TotalAmount:     totals.Total.InexactFloat64(),
		DiscountAmount:  totals.Discount.InexactFloat64(),
		PaymentMethod:   in.PaymentMethod,
		Items:           items,
	}
	if promo != nil {
		input.PromoCode = promo.Code
	}

	order, err := c.orders.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	c.finish(ctx, in.SessionID, order)
	return order, nil
}

// finish resets the session after a successful order. The order already
// exists, so failures here are only logged.
func (c *CheckoutService) finish(ctx context.Context, session string, order *models.Order) {
	if _, err := c.ledger.ClearCart(ctx, session); err != nil {
		slog.ErrorContext(ctx, "failed to clear cart after checkout", "order_id", order.ID, "error", err)
	}
	if _, err := c.ledger.RemovePromo(ctx, session); err != nil {
		slog.ErrorContext(ctx, "failed to clear promo after checkout", "order_id", order.ID, "error", err)
	}
	if err := c.ledger.RememberCustomerEmail(ctx, session, order.CustomerEmail); err != nil {
		slog.ErrorContext(ctx, "failed to remember customer email", "order_id", order.ID, "error", err)
	}
}

func (c *CheckoutService) resolvePromo(ctx context.Context, op string, in CheckoutInput) (*Promo, error) {
	if strings.TrimSpace(in.PromoCode) == "" {
		return c.ledger.ActivePromo(ctx, in.SessionID)
	}
	promo, err := LookupPromo(in.PromoCode)
	if err != nil {
		return nil, validationError(op, "promo_code", "is not a valid promo code")
	}
	return &promo, nil
}

func validateCustomer(op string, customer CustomerInfo) error {
	fields := []struct{ name, value string }{
		{"name", customer.Name},
		{"email", customer.Email},
		{"phone", customer.Phone},
		{"address", customer.Address},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return validationError(op, "customer."+f.name, "is required")
		}
	}
	if !strings.Contains(customer.Email, "@") {
		return validationError(op, "customer.email", "must be a valid email address")
	}
	return nil
}
