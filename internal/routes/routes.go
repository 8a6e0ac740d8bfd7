package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/belanjain/internal/config"
	"github.com/example/belanjain/internal/handlers"
	"github.com/example/belanjain/internal/middleware"
	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/services"
)

// Services are the domain services the HTTP layer depends on.
type Services struct {
	Orders   *services.OrderService
	Ledger   *services.Ledger
	Checkout *services.CheckoutService
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, svc Services) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	productHandler := handlers.NewProductHandler(db)
	orderHandler := handlers.NewOrderHandler(db, svc.Orders)
	adminHandler := handlers.NewAdminHandler(db, svc.Orders)
	cartHandler := handlers.NewCartHandler(svc.Ledger)
	wishlistHandler := handlers.NewWishlistHandler(svc.Ledger)
	checkoutHandler := handlers.NewCheckoutHandler(svc.Checkout, svc.Orders, svc.Ledger)

	requireAuth := middleware.AuthMiddleware(cfg)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)
	requireSession := middleware.RequireSession()

	api := app.Group("/api")
	api.Get("/health", handlers.Health)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", requireAuth, authHandler.Me)

	// Products
	products := api.Group("/products")
	productHandler.RegisterProductRoutes(products, requireAuth, requireAdmin)

	// Orders; /me must be registered before /:id
	orders := api.Group("/orders")
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/me", requireAuth, orderHandler.MyOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Patch("/:id/status", requireAuth, requireAdmin, orderHandler.UpdateStatus)

	// Session scoped routes
	cart := api.Group("/cart", requireSession)
	cart.Get("/", cartHandler.GetCart)
	cart.Delete("/", cartHandler.ClearCart)
	cart.Post("/items", cartHandler.AddItem)
	cart.Patch("/items/:id", cartHandler.UpdateItem)
	cart.Delete("/items/:id", cartHandler.RemoveItem)
	cart.Post("/promo", cartHandler.ApplyPromo)
	cart.Delete("/promo", cartHandler.RemovePromo)

	wishlist := api.Group("/wishlist", requireSession)
	wishlist.Get("/", wishlistHandler.GetWishlist)
	wishlist.Delete("/", wishlistHandler.ClearWishlist)
	wishlist.Post("/", wishlistHandler.AddItem)
	wishlist.Get("/:id", wishlistHandler.Contains)
	wishlist.Delete("/:id", wishlistHandler.RemoveItem)

	api.Post("/checkout", requireSession, checkoutHandler.Checkout)
	api.Get("/session/orders", requireSession, checkoutHandler.SessionOrders)

	// Admin
	admin := api.Group("/admin", requireAuth, requireAdmin)
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/orders", orderHandler.AllOrders)
}
