package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/belanjain/internal/middleware"
	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/services"
)

// WishlistHandler serves the session wishlist.
type WishlistHandler struct {
	ledger *services.Ledger
}

// NewWishlistHandler constructs WishlistHandler.
func NewWishlistHandler(ledger *services.Ledger) *WishlistHandler {
	return &WishlistHandler{ledger: ledger}
}

func (h *WishlistHandler) GetWishlist(c *fiber.Ctx) error {
	items, err := h.ledger.Wishlist(c.UserContext(), middleware.GetSessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// Contains reports whether a product is wishlisted.
func (h *WishlistHandler) Contains(c *fiber.Ctx) error {
	in, err := h.ledger.IsInWishlist(c.UserContext(), middleware.GetSessionID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"in_wishlist": in}})
}

func (h *WishlistHandler) AddItem(c *fiber.Ctx) error {
	var item models.WishlistItem
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	outcome, err := h.ledger.AddToWishlist(c.UserContext(), middleware.GetSessionID(c), item)
	if err != nil {
		return err
	}
	return h.respond(c, outcome)
}

func (h *WishlistHandler) RemoveItem(c *fiber.Ctx) error {
	outcome, err := h.ledger.RemoveFromWishlist(c.UserContext(), middleware.GetSessionID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return h.respond(c, outcome)
}

func (h *WishlistHandler) ClearWishlist(c *fiber.Ctx) error {
	outcome, err := h.ledger.ClearWishlist(c.UserContext(), middleware.GetSessionID(c))
	if err != nil {
		return err
	}
	return h.respond(c, outcome)
}

func (h *WishlistHandler) respond(c *fiber.Ctx, outcome services.Outcome) error {
	items, err := h.ledger.Wishlist(c.UserContext(), middleware.GetSessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"outcome": outcome,
		"data":    items,
	})
}
