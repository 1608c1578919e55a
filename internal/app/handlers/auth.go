package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/damio-storefront/internal/backend"
	"github.com/linemk/damio-storefront/internal/service"
)

// LoginRequest представляет структуру запроса для входа с тегами валидации
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// StatusResponse - ответ без данных
type StatusResponse struct {
	Success bool `json:"success"`
}

// LoginHandler – HTTP-обработчик входа. Токен бэкенда остаётся в сессии и клиенту не отдаётся
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}

		var req LoginRequest
		if !decodeBody(w, r, logger, &req) {
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Info("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		if err := authService.Login(r.Context(), sid, req.Email, req.Password); err != nil {
			writeAccountFailure(w, logger, err, "login failed")
			return
		}
		writeJSON(w, logger, http.StatusOK, StatusResponse{Success: true})
	}
}

func SignupHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SignupHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}

		var req SignupRequest
		if !decodeBody(w, r, logger, &req) {
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Info("invalid request: validation error", slog.Any("error", err))
			writeError(w, logger, http.StatusBadRequest, "validation error")
			return
		}

		if err := authService.Signup(r.Context(), sid, req.Username, req.Email, req.Password); err != nil {
			writeAccountFailure(w, logger, err, "signup failed")
			return
		}
		writeJSON(w, logger, http.StatusCreated, StatusResponse{Success: true})
	}
}

func LogoutHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LogoutHandler"
		logger := log.With(slog.String("op", op))

		sid, ok := sessionID(w, r, logger)
		if !ok {
			return
		}
		if err := authService.Logout(r.Context(), sid); err != nil {
			logger.Error("logout failed", slog.Any("error", err))
			writeError(w, logger, http.StatusInternalServerError, "logout failed")
			return
		}
		writeJSON(w, logger, http.StatusOK, StatusResponse{Success: true})
	}
}

// writeAccountFailure: отказ бэкенда показывается как есть, остальное - 502
func writeAccountFailure(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	var be *backend.BackendError
	switch {
	case errors.As(err, &be):
		writeError(w, logger, http.StatusUnauthorized, be.Message)
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, logger, http.StatusUnauthorized, "invalid credentials")
	default:
		logger.Error(fallback, slog.Any("error", err))
		writeError(w, logger, http.StatusBadGateway, fallback)
	}
}
