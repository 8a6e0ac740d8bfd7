package database

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/example/belanjain/internal/models"
)

var seedProducts = []models.Product{
	{
		Name:         "Wireless Bluetooth Headphones",
		Description:  "Premium wireless headphones with active noise cancellation, 30-hour battery life, and superior sound quality.",
		Price:        299000,
		Category:     "Electronics",
		ImageURL:     "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500",
		Stock:        50,
		Rating:       4.5,
		ReviewsCount: 128,
		IsFeatured:   true,
		Tags:         []string{"wireless", "audio", "bluetooth", "noise-cancelling"},
	},
	{
		Name:         "Smart Watch Series 7",
		Description:  "Advanced fitness tracking, heart rate monitoring, GPS, and water resistance.",
		Price:        499000,
		Category:     "Electronics",
		ImageURL:     "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=500",
		Stock:        30,
		Rating:       4.7,
		ReviewsCount: 256,
		IsFeatured:   true,
		Tags:         []string{"smartwatch", "fitness", "wearable"},
	},
	{
		Name:         "Premium Cotton T-Shirt",
		Description:  "Comfortable 100% organic cotton t-shirt with modern fit.",
		Price:        149000,
		Category:     "Clothing",
		ImageURL:     "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=500",
		Stock:        100,
		Rating:       4.3,
		ReviewsCount: 89,
		Tags:         []string{"cotton", "casual", "comfortable"},
	},
	{
		Name:         "Yoga Mat Pro",
		Description:  "Non-slip, eco-friendly yoga mat with extra cushioning and a carrying strap.",
		Price:        199000,
		Category:     "Sports",
		ImageURL:     "https://images.unsplash.com/photo-1601925260368-ae2f83cf8b7f?w=500",
		Stock:        75,
		Rating:       4.6,
		ReviewsCount: 145,
		IsFeatured:   true,
		Tags:         []string{"yoga", "fitness", "eco-friendly"},
	},
	{
		Name:         "Stainless Steel Water Bottle",
		Description:  "Insulated water bottle keeps drinks cold for 24 hours or hot for 12 hours.",
		Price:        129000,
		Category:     "Sports",
		ImageURL:     "https://images.unsplash.com/photo-1602143407151-7111542de6e8?w=500",
		Stock:        120,
		Rating:       4.4,
		ReviewsCount: 203,
		Tags:         []string{"water-bottle", "insulated", "eco-friendly"},
	},
	{
		Name:         "Modern Desk Lamp",
		Description:  "LED desk lamp with adjustable brightness and color temperature.",
		Price:        179000,
		Category:     "Home & Garden",
		ImageURL:     "https://images.unsplash.com/photo-1507473885765-e6ed057f782c?w=500",
		Stock:        45,
		Rating:       4.5,
		ReviewsCount: 67,
		Tags:         []string{"lamp", "led", "office"},
	},
	{
		Name:         "Bestseller Novel Collection",
		Description:  "Set of 3 bestselling novels from award-winning authors.",
		Price:        249000,
		Category:     "Books",
		ImageURL:     "https://images.unsplash.com/photo-1544947950-fa07a98d237f?w=500",
		Stock:        60,
		Rating:       4.8,
		ReviewsCount: 312,
		IsFeatured:   true,
		Tags:         []string{"books", "fiction", "bestseller"},
	},
	{
		Name:         "Leather Backpack",
		Description:  "Genuine leather backpack with laptop compartment.",
		Price:        599000,
		Category:     "Other",
		ImageURL:     "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=500",
		Stock:        25,
		Rating:       4.6,
		ReviewsCount: 94,
		IsFeatured:   true,
		Tags:         []string{"backpack", "leather", "travel"},
	},
}

// SeedProducts fills an empty product table with the starter catalogue.
// It returns the number of inserted products.
func SeedProducts(conn *gorm.DB) (int, error) {
	var count int64
	if err := conn.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	products := make([]models.Product, len(seedProducts))
	copy(products, seedProducts)
	if err := conn.Create(&products).Error; err != nil {
		return 0, err
	}

	slog.Info("seeded products", "count", len(products))
	return len(products), nil
}
