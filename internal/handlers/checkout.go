package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/belanjain/internal/middleware"
	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/services"
)

// CheckoutHandler turns the session cart into an order.
type CheckoutHandler struct {
	checkout *services.CheckoutService
	orders   *services.OrderService
	ledger   *services.Ledger
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(checkout *services.CheckoutService, orders *services.OrderService, ledger *services.Ledger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, orders: orders, ledger: ledger}
}

type checkoutRequest struct {
	Customer      services.CustomerInfo `json:"customer"`
	PaymentMethod string                `json:"payment_method"`
	PromoCode     string                `json:"promo_code"`
}

// Checkout places the order for the session cart.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.checkout.Checkout(c.UserContext(), services.CheckoutInput{
		SessionID:     middleware.GetSessionID(c),
		Customer:      req.Customer,
		PaymentMethod: req.PaymentMethod,
		PromoCode:     req.PromoCode,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// SessionOrders lists the orders placed with the email this session last
// checked out with.
func (h *CheckoutHandler) SessionOrders(c *fiber.Ctx) error {
	email, err := h.ledger.CustomerEmail(c.UserContext(), middleware.GetSessionID(c))
	if err != nil {
		return err
	}
	if email == "" {
		return c.JSON(fiber.Map{"success": true, "data": []models.Order{}})
	}

	orders, err := h.orders.List(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"customer_email": email,
		"data":           orders,
	})
}
