package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/belanjain/internal/middleware"
	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/services"
)

// CartHandler serves the session cart and its promo code.
type CartHandler struct {
	ledger *services.Ledger
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(ledger *services.Ledger) *CartHandler {
	return &CartHandler{ledger: ledger}
}

// GetCart returns the cart with totals.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.ledger.Cart(c.UserContext(), middleware.GetSessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": cart})
}

type addCartItemRequest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
	Quantity int     `json:"quantity"`
}

// AddItem puts a product in the cart, merging with an existing entry.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req addCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item := models.CartItem{ID: req.ID, Name: req.Name, Price: req.Price, ImageURL: req.ImageURL}
	outcome, err := h.ledger.AddToCart(c.UserContext(), middleware.GetSessionID(c), item, req.Quantity)
	if err != nil {
		return err
	}
	return h.respond(c, outcome)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets the quantity of a cart entry; zero removes it.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	outcome, err := h.ledger.UpdateQuantity(c.UserContext(), middleware.GetSessionID(c), c.Params("id"), req.Quantity)
	if err != nil {
		return err
	}
	return h.respond(c, outcome)
}

// RemoveItem drops a product from the cart.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	outcome, err := h.ledger.RemoveFromCart(c.UserContext(), middleware.GetSessionID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return h.respond(c, outcome)
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	outcome, err := h.ledger.ClearCart(c.UserContext(), middleware.GetSessionID(c))
	if err != nil {
		return err
	}
	return h.respond(c, outcome)
}

type applyPromoRequest struct {
	Code string `json:"code"`
}

// ApplyPromo activates a promo code for the session.
func (h *CartHandler) ApplyPromo(c *fiber.Ctx) error {
	var req applyPromoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if _, err := h.ledger.ApplyPromo(c.UserContext(), middleware.GetSessionID(c), req.Code); err != nil {
		return err
	}
	return h.respond(c, services.OutcomeUpdated)
}

// RemovePromo deactivates the session's promo code.
func (h *CartHandler) RemovePromo(c *fiber.Ctx) error {
	outcome, err := h.ledger.RemovePromo(c.UserContext(), middleware.GetSessionID(c))
	if err != nil {
		return err
	}
	return h.respond(c, outcome)
}

// respond returns the cart as it stands after a mutation.
func (h *CartHandler) respond(c *fiber.Ctx, outcome services.Outcome) error {
	cart, err := h.ledger.Cart(c.UserContext(), middleware.GetSessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"outcome": outcome,
		"data":    cart,
	})
}
