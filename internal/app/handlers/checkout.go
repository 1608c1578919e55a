package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/linemk/damio-storefront/internal/service"
	"github.com/shopspring/decimal"
)

type QuoteRequest struct {
	Wilaya       string `json:"wilaya"`
	Commune      string `json:"commune"`
	DeliveryType string `json:"deliveryType" validate:"omitempty,oneof=home stopdesk"`
}

type QuoteResponse struct {
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
}

type OrderResponse struct {
	Order *models.Order `json:"order"`
}

// QuoteHandler обрабатывает POST /api/checkout/quote
func QuoteHandler(log *slog.Logger, checkout service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.QuoteHandler"
		logger := log.With(slog.String("op", op))

		var req QuoteRequest
		if !decodeBody(w, r, logger, &req) {
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		fee, err := checkout.Quote(r.Context(), req.Wilaya, req.Commune, req.DeliveryType)
		if err != nil {
			writeFailure(w, logger, err, http.StatusBadGateway, "delivery fee unavailable")
			return
		}
		writeJSON(w, logger, http.StatusOK, QuoteResponse{DeliveryFee: fee})
	}
}

// CheckoutHandler обрабатывает POST /api/checkout
func CheckoutHandler(log *slog.Logger, checkout service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}

		var form service.CheckoutForm
		if !decodeBody(w, r, logger, &form) {
			return
		}

		order, err := checkout.PlaceOrder(r.Context(), sid, form)
		switch {
		case err == nil:
			writeJSON(w, logger, http.StatusCreated, OrderResponse{Order: order})
		case errors.Is(err, service.ErrInvalidForm):
			writeError(w, logger, http.StatusBadRequest, "missing required fields")
		case errors.Is(err, service.ErrEmptyCart):
			writeError(w, logger, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, service.ErrUnknownProduct):
			writeError(w, logger, http.StatusConflict, "cart contains unknown products")
		default:
			writeFailure(w, logger, err, http.StatusBadGateway, "failed to place order")
		}
	}
}
