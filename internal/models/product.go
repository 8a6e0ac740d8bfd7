package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ProductCategories lists the categories a product may belong to.
var ProductCategories = []string{
	"Electronics",
	"Clothing",
	"Home & Garden",
	"Sports",
	"Books",
	"Other",
}

// IsProductCategory reports whether name is one of ProductCategories.
func IsProductCategory(name string) bool {
	for _, c := range ProductCategories {
		if c == name {
			return true
		}
	}
	return false
}

type Product struct {
	BaseModel
	Name         string  `gorm:"size:200;index" json:"name"`
	Description  string  `gorm:"size:2000" json:"description"`
	Price        float64 `gorm:"index" json:"price"`
	Category     string  `gorm:"index" json:"category"`
	ImageURL     string  `json:"image_url"`
	Stock        int     `json:"stock"`
	Rating       float64 `json:"rating"`
	ReviewsCount int     `json:"reviews_count"`
	IsFeatured   bool    `gorm:"index" json:"is_featured"`
	Tags         Tags    `json:"tags"`
}

// Tags is stored as a text[] column on Postgres and as its array literal
// elsewhere.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	return pq.StringArray(t).Value()
}

func (t *Tags) Scan(src any) error {
	return (*pq.StringArray)(t).Scan(src)
}

func (Tags) GormDataType() string {
	return "text"
}

func (Tags) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
