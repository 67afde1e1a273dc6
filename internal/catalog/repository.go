package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads products from the catalog database.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AutoMigrate creates the products table for sqlite-backed environments.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Product{})
}

// FindByID loads a single product; gorm.ErrRecordNotFound when absent.
func (r *Repository) FindByID(ctx context.Context, id string) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns one page of products matching the query plus the total match count.
func (r *Repository) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	base := applyFilters(r.db.WithContext(ctx).Model(&Product{}), q.Filters)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	order, ok := orderClauses[q.Sort]
	if !ok {
		order = orderClauses[SortFeatured]
	}
	page := q.Pagination.Normalize()

	var products []Product
	err := base.Session(&gorm.Session{}).
		Order(order).
		Limit(page.Limit).
		Offset(q.Pagination.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &ListResult{Products: products, Page: q.Pagination.Describe(total)}, nil
}

// Categories returns the distinct categories in alphabetical order.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&Product{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Upsert inserts or replaces the provided products by id.
func (r *Repository) Upsert(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&products).Error
}

func applyFilters(tx *gorm.DB, f Filters) *gorm.DB {
	if c := strings.TrimSpace(f.Category); c != "" {
		tx = tx.Where("category = ?", c)
	}
	if b := strings.TrimSpace(f.Brand); b != "" {
		tx = tx.Where("brand = ?", b)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		like := "%" + escapeLike(q) + "%"
		tx = tx.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", like, like)
	}
	if f.MinPrice != nil {
		tx = tx.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		tx = tx.Where("price <= ?", *f.MaxPrice)
	}
	if f.Featured != nil {
		tx = tx.Where("featured = ?", *f.Featured)
	}
	if f.InStock {
		tx = tx.Where("stock > 0")
	}
	return tx
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
