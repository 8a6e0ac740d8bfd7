package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/belanjain/internal/config"
	"github.com/example/belanjain/internal/database"
	"github.com/example/belanjain/internal/middleware"
	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/repository"
	"github.com/example/belanjain/internal/services"
	"github.com/example/belanjain/internal/utils"
)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{JWTSecret: "test-secret", TokenExpires: time.Hour}

	orders := services.NewOrderService(repository.NewMemoryOrderRepository(), nil)
	ledger := services.NewLedger(repository.NewMemoryKV())
	checkout := services.NewCheckoutService(orders, ledger, nil)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	Register(app, db, cfg, Services{Orders: orders, Ledger: ledger, Checkout: checkout})

	return &testServer{app: app, db: db, cfg: cfg}
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	session string
}

func (s *testServer) do(t *testing.T, r request) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(r.method, r.path, body)
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.session != "" {
		req.Header.Set(middleware.SessionHeader, r.session)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	admin := models.User{Name: "Admin", Email: "admin@belanjain.id", Role: models.RoleAdmin}
	require.NoError(t, s.db.Create(&admin).Error)

	token, err := utils.GenerateToken(s.cfg.JWTSecret, admin.ID, admin.Role, time.Hour)
	require.NoError(t, err)
	return token
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "data is not an object: %v", body)
	return d
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, request{method: http.MethodGet, path: "/api/health"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"name": "Siti", "email": "Siti@Example.com", "password": "rahasia123",
	}})
	require.Equal(t, http.StatusCreated, status, body)
	user := data(t, body)["user"].(map[string]any)
	assert.Equal(t, "siti@example.com", user["email"])
	assert.Equal(t, models.RoleCustomer, user["role"])
	assert.NotContains(t, user, "PasswordHash")

	status, _ = s.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"name": "Siti", "email": "siti@example.com", "password": "rahasia123",
	}})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": "siti@example.com", "password": "salah",
	}})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": "siti@example.com", "password": "rahasia123",
	}})
	require.Equal(t, http.StatusOK, status)
	token := data(t, body)["token"].(string)

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/auth/me", token: token})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Siti", data(t, body)["name"])

	status, _ = s.do(t, request{method: http.MethodGet, path: "/api/auth/me"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProducts(t *testing.T) {
	s := newTestServer(t)
	_, err := database.SeedProducts(s.db)
	require.NoError(t, err)

	status, body := s.do(t, request{method: http.MethodGet, path: "/api/products?category=Sports&sort=price_asc"})
	require.Equal(t, http.StatusOK, status)
	products := body["data"].([]any)
	require.Len(t, products, 2)
	assert.Equal(t, "Stainless Steel Water Bottle", products[0].(map[string]any)["name"])

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/products?search=LEATHER"})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 1)

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/products?featured=true&limit=2"})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 2)
	assert.Equal(t, float64(5), body["pagination"].(map[string]any)["total_items"])

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/products/categories"})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), len(models.ProductCategories))

	product := map[string]any{
		"name": "Sepatu Lari", "description": "Ringan", "price": 350000,
		"category": "Sports", "image_url": "/img/sepatu.jpg", "stock": 10,
	}
	status, _ = s.do(t, request{method: http.MethodPost, path: "/api/products", body: product})
	assert.Equal(t, http.StatusUnauthorized, status)

	admin := s.adminToken(t)
	status, body = s.do(t, request{method: http.MethodPost, path: "/api/products", body: product, token: admin})
	require.Equal(t, http.StatusCreated, status, body)
	id := data(t, body)["id"].(string)

	status, _ = s.do(t, request{method: http.MethodPut, path: "/api/products/" + id, body: map[string]any{"rating": 7}, token: admin})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, request{method: http.MethodPut, path: "/api/products/" + id, body: map[string]any{"price": 300000}, token: admin})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(300000), data(t, body)["price"])

	// Name limits count characters, not bytes.
	accented := strings.Repeat("é", 150)
	status, body = s.do(t, request{method: http.MethodPut, path: "/api/products/" + id, body: map[string]any{"name": accented}, token: admin})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, accented, data(t, body)["name"])

	status, body = s.do(t, request{method: http.MethodPut, path: "/api/products/" + id, body: map[string]any{"name": strings.Repeat("é", 201)}, token: admin})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name cannot exceed 200 characters", body["message"])

	status, _ = s.do(t, request{method: http.MethodDelete, path: "/api/products/" + id, token: admin})
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, request{method: http.MethodGet, path: "/api/products/" + id})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCartWishlistAndCheckout(t *testing.T) {
	s := newTestServer(t)
	const session = "sess-42"

	status, _ := s.do(t, request{method: http.MethodGet, path: "/api/cart"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := s.do(t, request{method: http.MethodPost, path: "/api/cart/items", session: session,
		body: map[string]any{"id": "p1", "name": "Kaos", "price": 10, "quantity": 2}})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "added", body["outcome"])

	status, body = s.do(t, request{method: http.MethodPost, path: "/api/cart/items", session: session,
		body: map[string]any{"id": "p2", "name": "Topi", "price": 5}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), data(t, body)["item_count"])
	assert.Equal(t, float64(25), data(t, body)["total"])

	status, body = s.do(t, request{method: http.MethodPost, path: "/api/cart/promo", session: session,
		body: map[string]string{"code": "bogus"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid promo code", body["message"])

	status, body = s.do(t, request{method: http.MethodPost, path: "/api/cart/promo", session: session,
		body: map[string]string{"code": "save10"}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "SAVE10", data(t, body)["promo_code"])
	assert.Equal(t, 22.5, data(t, body)["grand_total"])

	status, body = s.do(t, request{method: http.MethodPost, path: "/api/wishlist", session: session,
		body: map[string]any{"id": "p9", "name": "Lampu", "price": 179000}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "added", body["outcome"])

	status, body = s.do(t, request{method: http.MethodPost, path: "/api/wishlist", session: session,
		body: map[string]any{"id": "p9", "name": "Lampu", "price": 179000}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "already_present", body["outcome"])

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/wishlist/p9", session: session})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, data(t, body)["in_wishlist"])

	status, body = s.do(t, request{method: http.MethodPost, path: "/api/checkout", session: session, body: map[string]any{
		"customer": map[string]string{
			"name": "Budi", "email": "budi@example.com", "phone": "0812", "address": "Jakarta",
		},
		"payment_method": "e_wallet",
	}})
	require.Equal(t, http.StatusCreated, status, body)
	order := data(t, body)
	assert.Equal(t, 22.5, order["total_amount"])
	assert.Equal(t, 2.5, order["discount_amount"])
	assert.Equal(t, "SAVE10", order["promo_code"])
	assert.Equal(t, "pending", order["status"])
	orderID := order["id"].(string)

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/cart", session: session})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, data(t, body)["items"])

	status, body = s.do(t, request{method: http.MethodPost, path: "/api/checkout", session: session, body: map[string]any{
		"customer":       map[string]string{"name": "Budi", "email": "budi@example.com", "phone": "0812", "address": "Jakarta"},
		"payment_method": "e_wallet",
	}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "cart is empty", body["message"])

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/session/orders", session: session})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "budi@example.com", body["customer_email"])
	assert.Len(t, body["data"].([]any), 1)

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/orders/" + orderID})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(t, body)["items"].([]any), 2)
	assert.Len(t, data(t, body)["tracking"].([]any), 1)
}

func TestOrderEndpoints(t *testing.T) {
	s := newTestServer(t)

	newOrder := map[string]any{
		"customer_name": "Budi", "customer_email": "budi@example.com",
		"customer_phone": "0812", "customer_address": "Jakarta",
		"total_amount": 25, "payment_method": "bank_transfer",
		"items": []map[string]any{
			{"product_id": "p1", "product_name": "Kaos", "product_price": 10, "quantity": 2},
			{"product_id": "p2", "product_name": "Topi", "product_price": 5, "quantity": 1},
		},
	}
	status, body := s.do(t, request{method: http.MethodPost, path: "/api/orders", body: newOrder})
	require.Equal(t, http.StatusCreated, status, body)
	id := data(t, body)["id"].(string)

	newOrder["items"] = []map[string]any{}
	status, body = s.do(t, request{method: http.MethodPost, path: "/api/orders", body: newOrder})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "items must not be empty", body["message"])

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/orders?customerEmail=budi@example.com"})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 1)

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/orders/order_missing"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "order not found", body["message"])

	statusUpdate := map[string]string{"status": "shipped"}
	status, _ = s.do(t, request{method: http.MethodPatch, path: "/api/orders/" + id + "/status", body: statusUpdate})
	assert.Equal(t, http.StatusUnauthorized, status)

	admin := s.adminToken(t)
	status, body = s.do(t, request{method: http.MethodPatch, path: "/api/orders/" + id + "/status", body: statusUpdate, token: admin})
	require.Equal(t, http.StatusOK, status, body)
	tracking := data(t, body)["tracking"].([]any)
	require.Len(t, tracking, 2)
	assert.Equal(t, "shipped", tracking[1].(map[string]any)["status"])
	assert.Equal(t, "Pesanan telah dikirim", tracking[1].(map[string]any)["description"])

	status, _ = s.do(t, request{method: http.MethodPatch, path: "/api/orders/" + id + "/status", body: map[string]string{"status": "lost"}, token: admin})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, request{method: http.MethodPatch, path: "/api/orders/order_missing/status", body: statusUpdate, token: admin})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/admin/stats", token: admin})
	require.Equal(t, http.StatusOK, status)
	stats := data(t, body)
	assert.Equal(t, float64(1), stats["total_orders"])
	assert.Equal(t, float64(25), stats["total_revenue"])
	assert.Equal(t, float64(1), stats["total_users"])
}

func TestOrderListingIsScoped(t *testing.T) {
	s := newTestServer(t)

	for _, email := range []string{"budi@example.com", "sari@example.com"} {
		status, body := s.do(t, request{method: http.MethodPost, path: "/api/orders", body: map[string]any{
			"customer_name": "Pelanggan", "customer_email": email,
			"customer_phone": "0812", "customer_address": "Jl. Rahasia 1",
			"total_amount": 10, "payment_method": "e_wallet",
			"items": []map[string]any{
				{"product_id": "p1", "product_name": "Kaos", "product_price": 10, "quantity": 1},
			},
		}})
		require.Equal(t, http.StatusCreated, status, body)
	}

	status, body := s.do(t, request{method: http.MethodGet, path: "/api/orders"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Nil(t, body["data"])

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/orders?customerEmail=sari@example.com"})
	require.Equal(t, http.StatusOK, status)
	mine := body["data"].([]any)
	require.Len(t, mine, 1)
	assert.Equal(t, "sari@example.com", mine[0].(map[string]any)["customer_email"])

	status, _ = s.do(t, request{method: http.MethodGet, path: "/api/admin/orders"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/admin/orders", token: s.adminToken(t)})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 2)
}

func TestMyOrders(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"name": "Budi", "email": "budi@example.com", "password": "rahasia123",
	}})
	require.Equal(t, http.StatusCreated, status)
	token := data(t, body)["token"].(string)

	const session = "sess-me"
	s.do(t, request{method: http.MethodPost, path: "/api/cart/items", session: session,
		body: map[string]any{"id": "p1", "name": "Kaos", "price": 10}})
	status, _ = s.do(t, request{method: http.MethodPost, path: "/api/checkout", session: session, body: map[string]any{
		"customer":       map[string]string{"name": "Budi", "email": "budi@example.com", "phone": "0812", "address": "Jakarta"},
		"payment_method": "credit_card",
	}})
	require.Equal(t, http.StatusCreated, status)

	status, body = s.do(t, request{method: http.MethodGet, path: "/api/orders/me", token: token})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 1)
}
