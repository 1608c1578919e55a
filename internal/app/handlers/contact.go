package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/damio-storefront/internal/service"
)

func ContactHandler(log *slog.Logger, contact service.ContactService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ContactHandler"
		logger := log.With(slog.String("op", op))

		var form service.ContactForm
		if !decodeBody(w, r, logger, &form) {
			return
		}

		if err := contact.Submit(r.Context(), form); err != nil {
			if errors.Is(err, service.ErrInvalidForm) {
				writeError(w, logger, http.StatusBadRequest, "validation error")
				return
			}
			writeError(w, logger, http.StatusBadGateway, "failed to send message")
			return
		}
		writeJSON(w, logger, http.StatusOK, StatusResponse{Success: true})
	}
}
