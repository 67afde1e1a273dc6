package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

type productReader interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q ListQuery) (*ListResult, error)
	Categories(ctx context.Context) ([]string, error)
}

// Service exposes read-only catalog operations.
type Service interface {
	ListProducts(ctx context.Context, q ListQuery) (*ListResult, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

type service struct {
	repo productReader
}

// NewService builds a catalog service backed by the provided reader.
func NewService(repo productReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, q ListQuery) (*ListResult, error) {
	f := q.Filters
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price must be non-negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}
	if _, ok := orderClauses[q.Sort]; !ok {
		if q.Sort != "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort").
				WithDetails(map[string]any{"sort": string(q.Sort)})
		}
		q.Sort = SortFeatured
	}

	result, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return result, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}
