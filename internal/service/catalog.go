package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/linemk/damio-storefront/internal/backend"
	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/linemk/damio-storefront/internal/storage"
)

var ErrProductNotFound = errors.New("product not found")

// CatalogService - доступ к каталогу. Списки при сбое бэкенда деградируют
// до пустых, ошибка только пишется в лог
type CatalogService interface {
	Products(ctx context.Context) []models.Product
	Product(ctx context.Context, id int64) (*models.Product, error)
	NewCollections(ctx context.Context) []models.Product
	Popular(ctx context.Context, category string) []models.Product
	Search(ctx context.Context, query string) []models.Product
	Categories(ctx context.Context) []models.Category
	Collections(ctx context.Context) []models.Collection
	ShopImages(ctx context.Context) []models.ShopImage
	// Index - все товары по id. В отличие от списков ошибку возвращает
	Index(ctx context.Context) (map[int64]models.Product, error)
}

type catalogService struct {
	log     *slog.Logger
	backend CatalogBackend
	cache   storage.CatalogCache
}

func NewCatalogService(log *slog.Logger, backend CatalogBackend, cache storage.CatalogCache) CatalogService {
	if cache == nil {
		cache = storage.NopCatalogCache{}
	}
	return &catalogService{log: log, backend: backend, cache: cache}
}

// cached - read-through: кэш, при промахе или сбое кэша - бэкенд
func cached[T any](ctx context.Context, s *catalogService, key string, fetch func(context.Context) (T, error)) (T, error) {
	var out T
	hit, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		s.log.Warn("catalog cache read failed", slog.String("key", key), slog.Any("error", err))
	}
	if hit {
		return out, nil
	}

	out, err = fetch(ctx)
	if err != nil {
		return out, err
	}
	if err := s.cache.Set(ctx, key, out); err != nil {
		s.log.Warn("catalog cache write failed", slog.String("key", key), slog.Any("error", err))
	}
	return out, nil
}

func degrade[T any](s *catalogService, op string, items []T, err error) []T {
	if err != nil {
		s.log.Error("catalog request failed", slog.String("op", op), slog.Any("error", err))
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func (s *catalogService) Products(ctx context.Context) []models.Product {
	items, err := cached(ctx, s, "allproducts", s.backend.AllProducts)
	return degrade(s, "service.CatalogService.Products", items, err)
}

func (s *catalogService) NewCollections(ctx context.Context) []models.Product {
	items, err := cached(ctx, s, "newcollections", s.backend.NewCollections)
	return degrade(s, "service.CatalogService.NewCollections", items, err)
}

func (s *catalogService) Popular(ctx context.Context, category string) []models.Product {
	category = strings.ToLower(strings.TrimSpace(category))
	items, err := cached(ctx, s, "popular:"+category, func(ctx context.Context) ([]models.Product, error) {
		return s.backend.Popular(ctx, category)
	})
	return degrade(s, "service.CatalogService.Popular", items, err)
}

// Search не кэшируется, пустой запрос не уходит на бэкенд
func (s *catalogService) Search(ctx context.Context, query string) []models.Product {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Product{}
	}
	items, err := s.backend.Search(ctx, query)
	return degrade(s, "service.CatalogService.Search", items, err)
}

func (s *catalogService) Categories(ctx context.Context) []models.Category {
	items, err := cached(ctx, s, "categories", s.backend.Categories)
	return degrade(s, "service.CatalogService.Categories", items, err)
}

func (s *catalogService) Collections(ctx context.Context) []models.Collection {
	items, err := cached(ctx, s, "collections", s.backend.Collections)
	return degrade(s, "service.CatalogService.Collections", items, err)
}

func (s *catalogService) ShopImages(ctx context.Context) []models.ShopImage {
	items, err := cached(ctx, s, "shopimages", s.backend.ShopImages)
	return degrade(s, "service.CatalogService.ShopImages", items, err)
}

func (s *catalogService) Product(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.CatalogService.Product"

	p, err := cached(ctx, s, "product:"+strconv.FormatInt(id, 10), func(ctx context.Context) (*models.Product, error) {
		return s.backend.Product(ctx, id)
	})
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *catalogService) Index(ctx context.Context) (map[int64]models.Product, error) {
	const op = "service.CatalogService.Index"

	items, err := cached(ctx, s, "allproducts", s.backend.AllProducts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	index := make(map[int64]models.Product, len(items))
	for _, p := range items {
		index[p.ID] = p
	}
	return index, nil
}
