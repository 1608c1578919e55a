package jwtmiddleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	security "github.com/linemk/damio-storefront/internal/jwt-new"
)

type contextKey string

const SessionIDKey contextKey = "sessionID"

// HeaderSessionToken - заголовок, в котором клиент получает и возвращает токен сессии
const HeaderSessionToken = "X-Session-Token"

// NewSessionMiddleware привязывает запрос к сессии. Токен ищется в X-Session-Token,
// Authorization: Bearer и cookie. Нет токена или он битый - начинается новая гостевая
// сессия, запрос не отклоняется
func NewSessionMiddleware(log *slog.Logger, issuer *security.Issuer, cookieName string) func(http.Handler) http.Handler {
	log = log.With(slog.String("component", "middleware/session"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			// берётся первый токен, который удалось разобрать
			for _, tokenStr := range tokensFromRequest(r, cookieName) {
				parsed, err := issuer.Parse(tokenStr)
				if err != nil {
					log.Debug("session token rejected", slog.Any("error", err))
					continue
				}
				sid = parsed
				break
			}

			if sid == "" {
				sid = security.NewSessionID()
				tokenStr, err := issuer.NewToken(sid)
				if err != nil {
					log.Error("failed to issue session token", slog.Any("error", err))
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				w.Header().Set(HeaderSessionToken, tokenStr)
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    tokenStr,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(issuer.TTL().Seconds()),
				})
			}

			ctx := context.WithValue(r.Context(), SessionIDKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokensFromRequest - кандидаты в порядке: X-Session-Token, Bearer, cookie
func tokensFromRequest(r *http.Request, cookieName string) []string {
	var tokens []string
	if v := r.Header.Get(HeaderSessionToken); v != "" {
		tokens = append(tokens, v)
	}
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokens = append(tokens, parts[1])
		}
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		tokens = append(tokens, c.Value)
	}
	return tokens
}

// FromContext извлекает id сессии из контекста
func FromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(SessionIDKey).(string)
	return sid, ok && sid != ""
}

// WithSession кладёт id сессии в контекст (фоновые задачи, тесты)
func WithSession(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sid)
}
