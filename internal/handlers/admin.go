package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/services"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{db: db, orders: orders}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.WithContext(c.UserContext()).Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalProducts int64
	if err := h.db.WithContext(c.UserContext()).Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}

	// Orders may live outside the SQL database, so they come from the store.
	stats, err := h.orders.Stats(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      totalUsers,
			"total_products":   totalProducts,
			"total_orders":     stats.TotalOrders,
			"total_revenue":    stats.TotalRevenue,
			"today_revenue":    stats.TodayRevenue,
			"orders_by_status": stats.OrdersByStatus,
		},
	})
}
