package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/services"
)

// OrderHandler exposes the order store over HTTP.
type OrderHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders}
}

type orderItemRequest struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
	Quantity     int     `json:"quantity"`
}

type createOrderRequest struct {
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	CustomerPhone   string             `json:"customer_phone"`
	CustomerAddress string             `json:"customer_address"`
	TotalAmount     float64            `json:"total_amount"`
	DiscountAmount  float64            `json:"discount_amount"`
	PromoCode       string             `json:"promo_code"`
	PaymentMethod   string             `json:"payment_method"`
	Items           []orderItemRequest `json:"items"`
}

// CreateOrder stores an order assembled by the client.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	items := make([]services.OrderItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = services.OrderItemInput{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
		}
	}

	order, err := h.orders.Create(c.UserContext(), services.CreateOrderInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		TotalAmount:     req.TotalAmount,
		DiscountAmount:  req.DiscountAmount,
		PromoCode:       req.PromoCode,
		PaymentMethod:   req.PaymentMethod,
		Items:           items,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// ListOrders returns the orders placed with ?customerEmail=.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("customerEmail"))
	if email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "customerEmail is required")
	}

	orders, err := h.orders.List(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// AllOrders returns every order, optionally narrowed by ?customerEmail=.
func (h *OrderHandler) AllOrders(c *fiber.Ctx) error {
	orders, err := h.orders.List(c.UserContext(), strings.TrimSpace(c.Query("customerEmail")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// GetOrder returns the order with items and tracking history.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orders.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

// MyOrders lists the orders placed with the authenticated user's email.
func (h *OrderHandler) MyOrders(c *fiber.Ctx) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}

	orders, err := h.orders.List(c.UserContext(), user.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": orders})
}

type updateStatusRequest struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

// UpdateStatus moves an order to a new status.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	status := models.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	order, err := h.orders.UpdateStatus(c.UserContext(), c.Params("id"), status, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}
