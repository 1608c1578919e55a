package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/damio-storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/damio-storefront/internal/service"
)

var validate = validator.New()

// ErrorResponse - тело любого ответа с ошибкой
type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// writeFailure отвечает на ошибку сервиса. 401 бэкенда всегда превращается
// в редирект на вход, учётные данные к этому моменту уже стёрты
func writeFailure(w http.ResponseWriter, logger *slog.Logger, err error, status int, msg string) {
	if errors.Is(err, service.ErrUnauthorized) {
		writeJSON(w, logger, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Redirect: "/login"})
		return
	}
	writeError(w, logger, status, msg)
}

// sessionID достаёт id сессии, установленный session middleware
func sessionID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	sid, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("session not found in context")
		writeError(w, logger, http.StatusUnauthorized, "no session")
		return "", false
	}
	return sid, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Info("invalid request: decoding error", slog.Any("error", err))
		writeError(w, logger, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}
