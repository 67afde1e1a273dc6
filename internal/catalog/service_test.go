package catalog

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubReader struct {
	product    *Product
	findErr    error
	result     *ListResult
	listErr    error
	lastQuery  ListQuery
	categories []string
	catErr     error
}

func (s *stubReader) FindByID(ctx context.Context, id string) (*Product, error) {
	return s.product, s.findErr
}

func (s *stubReader) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	s.lastQuery = q
	return s.result, s.listErr
}

func (s *stubReader) Categories(ctx context.Context) ([]string, error) {
	return s.categories, s.catErr
}

func newStubService(t *testing.T, reader *stubReader) Service {
	t.Helper()
	svc, err := NewService(reader)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresReader(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}

func TestGetProductMapsErrors(t *testing.T) {
	ctx := context.Background()

	svc := newStubService(t, &stubReader{findErr: gorm.ErrRecordNotFound})
	_, err := svc.GetProduct(ctx, "p-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	svc = newStubService(t, &stubReader{findErr: errors.New("conn reset")})
	_, err = svc.GetProduct(ctx, "p-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), "got %v", err)

	_, err = svc.GetProduct(ctx, "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	svc = newStubService(t, &stubReader{product: &Product{ID: "p-1"}})
	p, err := svc.GetProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
}

func TestListProductsValidates(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{result: &ListResult{}}
	svc := newStubService(t, reader)

	min, max := 50.0, 10.0
	_, err := svc.ListProducts(ctx, ListQuery{Filters: Filters{MinPrice: &min, MaxPrice: &max}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	neg := -1.0
	_, err = svc.ListProducts(ctx, ListQuery{Filters: Filters{MinPrice: &neg}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.ListProducts(ctx, ListQuery{Sort: "cheapest"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.ListProducts(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, SortFeatured, reader.lastQuery.Sort)
}

func TestListCategoriesNeverNil(t *testing.T) {
	svc := newStubService(t, &stubReader{})
	cats, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cats)
	assert.Empty(t, cats)
}

func TestParseSortOrder(t *testing.T) {
	s, ok := ParseSortOrder("")
	assert.True(t, ok)
	assert.Equal(t, SortFeatured, s)

	s, ok = ParseSortOrder(" PRICE_DESC ")
	assert.True(t, ok)
	assert.Equal(t, SortPriceDesc, s)

	_, ok = ParseSortOrder("bogus")
	assert.False(t, ok)
}

func TestPricingInput(t *testing.T) {
	d := 5.0
	in := Product{Price: 12.5, Discount: &d}.PricingInput()
	assert.Equal(t, 12.5, in.BasePrice)
	require.NotNil(t, in.DiscountPercent)
	assert.Equal(t, 5.0, *in.DiscountPercent)
}
