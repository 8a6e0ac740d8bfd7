package handlers

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/utils"
)

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

var productSorts = map[string]string{
	"price_asc":  "price asc",
	"price_desc": "price desc",
	"rating":     "rating desc",
	"newest":     "created_at desc",
}

// ListProducts returns paginated products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.WithContext(c.UserContext()).Model(&models.Product{})

	if category := c.Query("category"); category != "" && category != "all" {
		query = query.Where("category = ?", category)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", q, q)
	}

	if minPrice := c.Query("minPrice"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", val)
		}
	}

	if maxPrice := c.Query("maxPrice"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", val)
		}
	}

	if featured := c.Query("featured"); featured != "" {
		if val, err := strconv.ParseBool(featured); err == nil {
			query = query.Where("is_featured = ?", val)
		}
	}

	order, ok := productSorts[c.Query("sort")]
	if !ok {
		order = productSorts["newest"]
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Order(order).Order("id").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
			"total_pages":    pg.TotalPages(total),
		},
	})
}

// ListCategories returns the fixed product categories.
func (h *ProductHandler) ListCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": models.ProductCategories})
}

// GetProduct loads a single product.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.findProduct(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        *float64 `json:"price"`
	Category     string   `json:"category"`
	ImageURL     string   `json:"image_url"`
	Stock        *int     `json:"stock"`
	Rating       *float64 `json:"rating"`
	ReviewsCount *int     `json:"reviews_count"`
	IsFeatured   *bool    `json:"is_featured"`
	Tags         []string `json:"tags"`
}

// CreateProduct handles product creation.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Description) == "" ||
		req.Price == nil || req.Category == "" || strings.TrimSpace(req.ImageURL) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, description, price, category and image_url are required")
	}

	var product models.Product
	applyProductRequest(&product, req)
	if err := validateProduct(&product); err != nil {
		return err
	}

	if err := h.db.WithContext(c.UserContext()).Create(&product).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct applies the supplied fields to an existing product.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	product, err := h.findProduct(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	applyProductRequest(product, req)
	if err := validateProduct(product); err != nil {
		return err
	}

	if err := h.db.WithContext(c.UserContext()).Save(product).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product. Orders keep their snapshot of it.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	product, err := h.findProduct(c)
	if err != nil {
		return err
	}

	if err := h.db.WithContext(c.UserContext()).Delete(product).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "product deleted"})
}

func (h *ProductHandler) findProduct(c *fiber.Ctx) (*models.Product, error) {
	id := c.Params("id")
	if id == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.WithContext(c.UserContext()).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

func applyProductRequest(product *models.Product, req productRequest) {
	if v := strings.TrimSpace(req.Name); v != "" {
		product.Name = v
	}
	if v := strings.TrimSpace(req.Description); v != "" {
		product.Description = v
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if v := strings.TrimSpace(req.ImageURL); v != "" {
		product.ImageURL = v
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Rating != nil {
		product.Rating = *req.Rating
	}
	if req.ReviewsCount != nil {
		product.ReviewsCount = *req.ReviewsCount
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if req.Tags != nil {
		tags := make(models.Tags, 0, len(req.Tags))
		for _, tag := range req.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		product.Tags = tags
	}
}

func validateProduct(p *models.Product) error {
	switch {
	case utf8.RuneCountInString(p.Name) > 200:
		return fiber.NewError(fiber.StatusBadRequest, "name cannot exceed 200 characters")
	case utf8.RuneCountInString(p.Description) > 2000:
		return fiber.NewError(fiber.StatusBadRequest, "description cannot exceed 2000 characters")
	case p.Price < 0:
		return fiber.NewError(fiber.StatusBadRequest, "price must be positive")
	case !models.IsProductCategory(p.Category):
		return fiber.NewError(fiber.StatusBadRequest, "invalid category")
	case p.Stock < 0:
		return fiber.NewError(fiber.StatusBadRequest, "stock cannot be negative")
	case p.Rating < 0 || p.Rating > 5:
		return fiber.NewError(fiber.StatusBadRequest, "rating must be between 0 and 5")
	case p.ReviewsCount < 0:
		return fiber.NewError(fiber.StatusBadRequest, "reviews_count cannot be negative")
	}
	return nil
}

// RegisterProductRoutes attaches product routes to a router. Writes are
// guarded by the supplied middleware.
func (h *ProductHandler) RegisterProductRoutes(router fiber.Router, guard ...fiber.Handler) {
	router.Get("/", h.ListProducts)
	router.Get("/categories", h.ListCategories)
	router.Get("/:id", h.GetProduct)

	write := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guard...), handler)
	}
	router.Post("/", write(h.CreateProduct)...)
	router.Put("/:id", write(h.UpdateProduct)...)
	router.Delete("/:id", write(h.DeleteProduct)...)
}
