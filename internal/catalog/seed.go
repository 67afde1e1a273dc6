package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"gorm.io/gorm"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

// DemoProducts is the starter catalog loaded when seeding is enabled.
func DemoProducts() []Product {
	return []Product{
		{
			ID: "p-1001", Name: "Aurora Wireless Headphones", Price: 89.99, Category: "Electronics",
			Description: "Over-ear headphones with active noise cancelling.",
			ImageURL:    "/images/products/aurora-headphones.jpg", Stock: 25, Rating: 4.6, Featured: true,
			Discount: floatPtr(10), Brand: strPtr("Aurora"),
			Specifications: map[string]string{"battery": "30h", "connectivity": "Bluetooth 5.3"},
		},
		{
			ID: "p-1002", Name: "Trailblazer Backpack", Price: 54.5, Category: "Outdoors",
			Description: "Weatherproof 28L daypack.",
			ImageURL:    "/images/products/trailblazer-backpack.jpg", Stock: 40, Rating: 4.3,
			Brand:          strPtr("Northline"),
			Specifications: map[string]string{"capacity": "28L"},
		},
		{
			ID: "p-1003", Name: "Ceramic Pour-Over Set", Price: 32, Category: "Kitchen",
			Description: "Hand-glazed dripper with carafe.",
			ImageURL:    "/images/products/pour-over.jpg", Stock: 0, Rating: 4.8,
			Discount: floatPtr(25),
		},
		{
			ID: "p-1004", Name: "Lumen Desk Lamp", Price: 41.25, Category: "Home",
			Description: "Dimmable LED lamp with USB-C charging port.",
			ImageURL:    "/images/products/lumen-lamp.jpg", Stock: 12, Rating: 4.1, Featured: true,
			Brand: strPtr("Lumen"),
		},
	}
}

// Seed upserts products inside a transaction.
func Seed(ctx context.Context, client *db.Client, products []Product) error {
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return NewRepository(tx).Upsert(ctx, products)
	})
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}
