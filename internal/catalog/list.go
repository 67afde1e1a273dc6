package catalog

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// SortOrder names a supported ordering for the browse endpoint.
type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortRating    SortOrder = "rating"
	SortName      SortOrder = "name"
	SortNewest    SortOrder = "newest"
)

var orderClauses = map[SortOrder]string{
	SortFeatured:  "featured DESC, rating DESC, id ASC",
	SortPriceAsc:  "price ASC, id ASC",
	SortPriceDesc: "price DESC, id ASC",
	SortRating:    "rating DESC, id ASC",
	SortName:      "name ASC, id ASC",
	SortNewest:    "created_at DESC, id ASC",
}

// ParseSortOrder maps a query value to a SortOrder; empty means featured.
func ParseSortOrder(raw string) (SortOrder, bool) {
	value := SortOrder(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return SortFeatured, true
	}
	_, ok := orderClauses[value]
	return value, ok
}

// Filters describe the supported filter knobs for the browse endpoint.
type Filters struct {
	Category string
	Brand    string
	Query    string
	MinPrice *float64
	MaxPrice *float64
	Featured *bool
	InStock  bool
}

// ListQuery is a filtered, sorted, paginated product listing request.
type ListQuery struct {
	Filters    Filters
	Sort       SortOrder
	Pagination pagination.Params
}

// ListResult is one page of products.
type ListResult struct {
	Products []Product
	Page     pagination.Page
}
