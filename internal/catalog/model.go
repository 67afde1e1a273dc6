package catalog

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
)

// Product is a catalog listing. Price is in base currency units, before conversion.
type Product struct {
	ID             string            `gorm:"column:id;primaryKey"`
	Name           string            `gorm:"column:name;not null"`
	Price          float64           `gorm:"column:price;not null"`
	Description    string            `gorm:"column:description;not null;default:''"`
	Category       string            `gorm:"column:category;not null;index"`
	ImageURL       string            `gorm:"column:image_url;not null;default:''"`
	Stock          int               `gorm:"column:stock;not null;default:0"`
	Rating         float64           `gorm:"column:rating;not null;default:0"`
	Specifications map[string]string `gorm:"column:specifications;serializer:json"`
	Featured       bool              `gorm:"column:featured;not null;default:false"`
	Discount       *float64          `gorm:"column:discount"`
	Brand          *string           `gorm:"column:brand"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// PricingInput hands the normalizer the fields it prices from.
func (p Product) PricingInput() pricing.Input {
	return pricing.Input{BasePrice: p.Price, DiscountPercent: p.Discount}
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}
