package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a piece of jewelry in the catalog
type Product struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	Name          string              `json:"name" db:"name"`
	NameTH        string              `json:"name_th" db:"name_th"`
	Description   string              `json:"description" db:"description"`
	DescriptionTH string              `json:"description_th" db:"description_th"`
	Price         decimal.Decimal     `json:"price" db:"price"`
	ComparePrice  decimal.NullDecimal `json:"compare_price" db:"compare_price"`
	Category      string              `json:"category" db:"category"`
	ImageURL      string              `json:"image_url" db:"image_url"`
	Stock         int                 `json:"stock" db:"stock"`
	IsActive      bool                `json:"is_active" db:"is_active"`
	IsFeatured    bool                `json:"is_featured" db:"is_featured"`
	Material      string              `json:"material" db:"material"`
	Weight        string              `json:"weight" db:"weight"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

// Category groups products; the slug doubles as the product's category value
type Category struct {
	Slug      string    `json:"slug" db:"slug"`
	Name      string    `json:"name" db:"name"`
	NameTH    string    `json:"name_th" db:"name_th"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
