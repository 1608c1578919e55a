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

const (
	defaultTopCategories = 3
	defaultRecentEvents  = 20
)

type WishlistResponse struct {
	Items []int64 `json:"items"`
}

type ToggleWishlistRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

type ToggleWishlistResponse struct {
	InWishlist bool `json:"inWishlist"`
}

type ThemeBody struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

type EventsResponse struct {
	Events []models.PersonalizationEvent `json:"events"`
}

type TopCategoriesResponse struct {
	Categories []string `json:"categories"`
}

func WishlistHandler(log *slog.Logger, prefs service.PrefsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.WishlistHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}
		ids, err := prefs.Wishlist(r.Context(), sid)
		if err != nil {
			logger.Error("failed to read wishlist", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "failed to read wishlist")
			return
		}
		writeJSON(w, logger, http.StatusOK, WishlistResponse{Items: ids})
	}
}

// WishlistContainsHandler обрабатывает GET /api/wishlist/{id}
func WishlistContainsHandler(log *slog.Logger, prefs service.PrefsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.WishlistContainsHandler"
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

		in, err := prefs.Contains(r.Context(), sid, id)
		if err != nil {
			logger.Error("failed to read wishlist", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "failed to read wishlist")
			return
		}
		writeJSON(w, logger, http.StatusOK, ToggleWishlistResponse{InWishlist: in})
	}
}

func ToggleWishlistHandler(log *slog.Logger, prefs service.PrefsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ToggleWishlistHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}
		var req ToggleWishlistRequest
		if !decodeBody(w, r, logger, &req) {
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		in, err := prefs.ToggleWishlist(r.Context(), sid, req.ProductID)
		if err != nil {
			logger.Error("failed to toggle wishlist", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "failed to update wishlist")
			return
		}
		writeJSON(w, logger, http.StatusOK, ToggleWishlistResponse{InWishlist: in})
	}
}

func ThemeHandler(log *slog.Logger, prefs service.PrefsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ThemeHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}
		theme, err := prefs.Theme(r.Context(), sid)
		if err != nil {
			logger.Error("failed to read theme", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "failed to read theme")
			return
		}
		writeJSON(w, logger, http.StatusOK, ThemeBody{Theme: theme})
	}
}

func SetThemeHandler(log *slog.Logger, prefs service.PrefsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SetThemeHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}
		var req ThemeBody
		if !decodeBody(w, r, logger, &req) {
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "unknown theme")
			return
		}

		if err := prefs.SetTheme(r.Context(), sid, req.Theme); err != nil {
			logger.Error("failed to store theme", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "failed to store theme")
			return
		}
		writeJSON(w, logger, http.StatusOK, req)
	}
}

// RecordEventHandler обрабатывает POST /api/events
func RecordEventHandler(log *slog.Logger, prefs service.PrefsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RecordEventHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}
		var ev models.PersonalizationEvent
		if !decodeBody(w, r, logger, &ev) {
			return
		}

		if err := prefs.RecordEvent(r.Context(), sid, ev); err != nil {
			if errors.Is(err, service.ErrInvalidEvent) {
				writeError(w, logger, http.StatusBadRequest, "invalid event")
				return
			}
			logger.Error("failed to record event", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "failed to record event")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RecentEventsHandler обрабатывает GET /api/events?limit=, новые события первыми
func RecentEventsHandler(log *slog.Logger, prefs service.PrefsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RecentEventsHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}
		limit, ok := limitParam(w, r, logger, defaultRecentEvents)
		if !ok {
			return
		}

		events, err := prefs.RecentEvents(r.Context(), sid, limit)
		if err != nil {
			logger.Error("failed to read personalization log", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "failed to read events")
			return
		}
		writeJSON(w, logger, http.StatusOK, EventsResponse{Events: events})
	}
}

// TopCategoriesHandler обрабатывает GET /api/events/top-categories?limit=
func TopCategoriesHandler(log *slog.Logger, prefs service.PrefsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.TopCategoriesHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}
		limit, ok := limitParam(w, r, logger, defaultTopCategories)
		if !ok {
			return
		}

		categories, err := prefs.TopCategories(r.Context(), sid, limit)
		if err != nil {
			logger.Error("failed to read personalization log", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "failed to read events")
			return
		}
		writeJSON(w, logger, http.StatusOK, TopCategoriesResponse{Categories: categories})
	}
}

func limitParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, logger, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return n, true
}
