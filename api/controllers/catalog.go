package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const maxFilterLen = 64

type productResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	Brand          *string           `json:"brand,omitempty"`
	ImageURL       string            `json:"image_url"`
	Price          float64           `json:"price"`
	Discount       *float64          `json:"discount,omitempty"`
	DisplayPrice   pricing.Display   `json:"display_price"`
	Stock          int               `json:"stock"`
	InStock        bool              `json:"in_stock"`
	Rating         float64           `json:"rating"`
	Featured       bool              `json:"featured"`
	Specifications map[string]string `json:"specifications,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

type productListResponse struct {
	Products   []productResponse `json:"products"`
	Pagination pagination.Page   `json:"pagination"`
}

func toProductResponse(p catalog.Product, normalizer *pricing.Normalizer) productResponse {
	return productResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Category:       p.Category,
		Brand:          p.Brand,
		ImageURL:       p.ImageURL,
		Price:          p.Price,
		Discount:       p.Discount,
		DisplayPrice:   normalizer.ForDisplay(p.PricingInput()),
		Stock:          p.Stock,
		InStock:        p.InStock(),
		Rating:         p.Rating,
		Featured:       p.Featured,
		Specifications: p.Specifications,
		CreatedAt:      p.CreatedAt,
	}
}

// ListProducts serves the filtered, sorted, paginated browse listing.
func ListProducts(svc catalog.Service, normalizer *pricing.Normalizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || normalizer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		query, err := parseListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products := make([]productResponse, 0, len(result.Products))
		for _, p := range result.Products {
			products = append(products, toProductResponse(p, normalizer))
		}
		responses.WriteSuccess(w, productListResponse{Products: products, Pagination: result.Page})
	}
}

func parseListQuery(r *http.Request) (catalog.ListQuery, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return catalog.ListQuery{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return catalog.ListQuery{}, err
	}
	minPrice, err := validators.ParseQueryFloat(r, "min_price")
	if err != nil {
		return catalog.ListQuery{}, err
	}
	maxPrice, err := validators.ParseQueryFloat(r, "max_price")
	if err != nil {
		return catalog.ListQuery{}, err
	}
	featured, err := validators.ParseQueryBool(r, "featured")
	if err != nil {
		return catalog.ListQuery{}, err
	}
	inStock, err := validators.ParseQueryBool(r, "in_stock")
	if err != nil {
		return catalog.ListQuery{}, err
	}
	sortOrder, ok := catalog.ParseSortOrder(r.URL.Query().Get("sort"))
	if !ok {
		return catalog.ListQuery{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort").
			WithDetails(map[string]any{"field": "sort"})
	}

	return catalog.ListQuery{
		Filters: catalog.Filters{
			Category: validators.QueryString(r, "category", maxFilterLen),
			Brand:    validators.QueryString(r, "brand", maxFilterLen),
			Query:    validators.QueryString(r, "q", maxFilterLen),
			MinPrice: minPrice,
			MaxPrice: maxPrice,
			Featured: featured,
			InStock:  inStock != nil && *inStock,
		},
		Sort:       sortOrder,
		Pagination: pagination.Params{Page: page, Limit: limit},
	}, nil
}

// GetProduct serves one product with its display price.
func GetProduct(svc catalog.Service, normalizer *pricing.Normalizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || normalizer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		product, err := svc.GetProduct(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductResponse(*product, normalizer))
	}
}

// ListCategories serves the distinct category names.
func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}
