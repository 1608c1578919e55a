package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/linemk/damio-storefront/internal/service"
)

// ListResponse - обёртка для списков каталога
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// listHandler отдаёт список, который сервис каталога уже привёл к пустому при сбое
func listHandler[T any](log *slog.Logger, op string, list func(r *http.Request) []T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", op))
		writeJSON(w, logger, http.StatusOK, ListResponse[T]{Items: list(r)})
	}
}

func ProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return listHandler(log, "handlers.ProductsHandler", func(r *http.Request) []models.Product {
		return catalog.Products(r.Context())
	})
}

func NewCollectionsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return listHandler(log, "handlers.NewCollectionsHandler", func(r *http.Request) []models.Product {
		return catalog.NewCollections(r.Context())
	})
}

// PopularHandler обрабатывает GET /api/products/popular?category=
func PopularHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return listHandler(log, "handlers.PopularHandler", func(r *http.Request) []models.Product {
		return catalog.Popular(r.Context(), r.URL.Query().Get("category"))
	})
}

// SearchHandler обрабатывает GET /api/search?q=
func SearchHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return listHandler(log, "handlers.SearchHandler", func(r *http.Request) []models.Product {
		return catalog.Search(r.Context(), r.URL.Query().Get("q"))
	})
}

func CategoriesHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return listHandler(log, "handlers.CategoriesHandler", func(r *http.Request) []models.Category {
		return catalog.Categories(r.Context())
	})
}

func CollectionsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return listHandler(log, "handlers.CollectionsHandler", func(r *http.Request) []models.Collection {
		return catalog.Collections(r.Context())
	})
}

func ShopImagesHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return listHandler(log, "handlers.ShopImagesHandler", func(r *http.Request) []models.ShopImage {
		return catalog.ShopImages(r.Context())
	})
}

// ProductHandler обрабатывает GET /api/products/{id}
func ProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProductHandler"
		logger := log.With(slog.String("op", op))

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, logger, http.StatusBadRequest, "invalid product id")
			return
		}

		product, err := catalog.Product(r.Context(), id)
		if err != nil {
			if errors.Is(err, service.ErrProductNotFound) {
				writeError(w, logger, http.StatusNotFound, "product not found")
				return
			}
			logger.Error("failed to get product", slog.Int64("id", id), slog.Any("error", err))
			writeError(w, logger, http.StatusBadGateway, "catalog unavailable")
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}
