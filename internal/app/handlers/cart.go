package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/linemk/damio-storefront/internal/service"
	"github.com/shopspring/decimal"
)

// CartLine - строка корзины со снимком товара
type CartLine struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Variant   *models.Variant `json:"variant,omitempty"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CartView - корзина в том виде, в каком её показывает витрина
type CartView struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// AddToCartRequest - тело POST /api/cart/items
type AddToCartRequest struct {
	ProductID int64           `json:"productId" validate:"required,gt=0"`
	Variant   *models.Variant `json:"variant,omitempty"`
}

// newCartView собирает представление корзины. Товары, которых нет в каталоге,
// остаются в списке без цены и в сумму не входят
func newCartView(cart models.Cart, products []models.Product) CartView {
	index := make(map[int64]models.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}

	view := CartView{Items: []CartLine{}, Total: cart.Total(models.PriceIndex(products)), Count: cart.Count()}
	for _, e := range cart.Lines() {
		line := CartLine{ProductID: e.ProductID, Quantity: e.Quantity, Variant: e.Variant}
		if p, ok := index[e.ProductID]; ok {
			line.Name = p.Name
			line.Image = p.Image
			line.Price = p.NewPrice
			line.LineTotal = models.LineTotal(p.NewPrice, e.Quantity)
		}
		view.Items = append(view.Items, line)
	}
	return view
}

// CartHandler обрабатывает GET /api/cart
func CartHandler(log *slog.Logger, carts service.CartService, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CartHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}

		cart, err := carts.Load(r.Context(), sid)
		if err != nil {
			logger.Error("failed to load cart", slog.Any("error", err))
			writeFailure(w, logger, err, http.StatusInternalServerError, "failed to load cart")
			return
		}
		writeJSON(w, logger, http.StatusOK, newCartView(cart, catalog.Products(r.Context())))
	}
}

// AddToCartHandler обрабатывает POST /api/cart/items
func AddToCartHandler(log *slog.Logger, carts service.CartService, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}

		var req AddToCartRequest
		if !decodeBody(w, r, logger, &req) {
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Info("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		cart, err := carts.Add(r.Context(), sid, req.ProductID, req.Variant)
		if err != nil {
			logger.Error("failed to add to cart", slog.Any("error", err))
			writeFailure(w, logger, err, http.StatusInternalServerError, "failed to update cart")
			return
		}
		writeJSON(w, logger, http.StatusOK, newCartView(cart, catalog.Products(r.Context())))
	}
}

// RemoveFromCartHandler обрабатывает DELETE /api/cart/items/{id}, убирает одну единицу
func RemoveFromCartHandler(log *slog.Logger, carts service.CartService, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveFromCartHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, logger, http.StatusBadRequest, "invalid product id")
			return
		}

		cart, err := carts.Remove(r.Context(), sid, id)
		if err != nil {
			logger.Error("failed to remove from cart", slog.Any("error", err))
			writeFailure(w, logger, err, http.StatusInternalServerError, "failed to update cart")
			return
		}
		writeJSON(w, logger, http.StatusOK, newCartView(cart, catalog.Products(r.Context())))
	}
}
