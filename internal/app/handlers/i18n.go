package handlers

import (
	"log/slog"
	"net/http"
)

// Locales - источник словарей интерфейса
type Locales interface {
	Negotiate(acceptLanguage string) string
	Supported(lang string) bool
	Bundle(lang string) map[string]any
}

type BundleResponse struct {
	Lang     string         `json:"lang"`
	Messages map[string]any `json:"messages"`
}

// I18nHandler обрабатывает GET /api/i18n. Явный ?lang= важнее Accept-Language
func I18nHandler(log *slog.Logger, locales Locales) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.I18nHandler"))

		lang := r.URL.Query().Get("lang")
		if !locales.Supported(lang) {
			lang = locales.Negotiate(r.Header.Get("Accept-Language"))
		}
		w.Header().Set("Content-Language", lang)
		writeJSON(w, logger, http.StatusOK, BundleResponse{Lang: lang, Messages: locales.Bundle(lang)})
	}
}
