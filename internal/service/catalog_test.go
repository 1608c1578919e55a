package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/linemk/damio-storefront/internal/lib/logger"
	"github.com/linemk/damio-storefront/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProducts() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Robe fleurie", Category: "girls", NewPrice: decimal.RequireFromString("1500.50"), Image: "robe.jpg"},
		{ID: 2, Name: "Ensemble bébé", Category: "baby", NewPrice: decimal.NewFromInt(2200), Image: "ensemble.jpg"},
	}
}

func TestCatalogService_ReadThroughCache(t *testing.T) {
	fb := newFakeBackend()
	fb.products = testProducts()
	svc := service.NewCatalogService(logger.Discard(), fb, newMemoryCache())
	ctx := context.Background()

	first := svc.Products(ctx)
	second := svc.Products(ctx)

	assert.Len(t, first, 2)
	assert.Len(t, second, 2)
	assert.True(t, second[0].NewPrice.Equal(decimal.RequireFromString("1500.5")))
	assert.Equal(t, 1, fb.count("allproducts"))
}

func TestCatalogService_ListsDegradeToEmpty(t *testing.T) {
	fb := newFakeBackend()
	fb.listErr = errors.New("connection refused")
	svc := service.NewCatalogService(logger.Discard(), fb, nil)
	ctx := context.Background()

	products := svc.Products(ctx)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.Empty(t, svc.NewCollections(ctx))
	assert.Empty(t, svc.Popular(ctx, "girls"))
	assert.Empty(t, svc.Categories(ctx))
	assert.NotNil(t, svc.Collections(ctx))
	assert.Empty(t, svc.ShopImages(ctx))

	_, err := svc.Index(ctx)
	assert.Error(t, err)
}

func TestCatalogService_PopularNormalizesCategory(t *testing.T) {
	fb := newFakeBackend()
	fb.products = testProducts()
	svc := service.NewCatalogService(logger.Discard(), fb, newMemoryCache())

	items := svc.Popular(context.Background(), "  Girls ")
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, 1, fb.count("popular:girls"))
}

func TestCatalogService_BlankSearchSkipsBackend(t *testing.T) {
	fb := newFakeBackend()
	svc := service.NewCatalogService(logger.Discard(), fb, nil)

	assert.Empty(t, svc.Search(context.Background(), "   "))
	assert.Equal(t, 0, fb.count("search"))
}

func TestCatalogService_Product(t *testing.T) {
	fb := newFakeBackend()
	fb.products = testProducts()
	svc := service.NewCatalogService(logger.Discard(), fb, newMemoryCache())
	ctx := context.Background()

	p, err := svc.Product(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Ensemble bébé", p.Name)

	_, err = svc.Product(ctx, 404)
	assert.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestCatalogService_Index(t *testing.T) {
	fb := newFakeBackend()
	fb.products = testProducts()
	svc := service.NewCatalogService(logger.Discard(), fb, nil)

	index, err := svc.Index(context.Background())
	require.NoError(t, err)
	assert.Len(t, index, 2)
	assert.Equal(t, "baby", index[2].Category)
}
