package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/damio-storefront/internal/storage"
)

// Credentials хранит токен бэкенда в состоянии сессии (ключ auth-token)
type Credentials struct {
	log   *slog.Logger
	store storage.SessionStorage
}

func NewCredentials(log *slog.Logger, store storage.SessionStorage) *Credentials {
	return &Credentials{log: log, store: store}
}

// Token возвращает токен пользователя или пустую строку для гостя
func (c *Credentials) Token(ctx context.Context, sid string) (string, error) {
	const op = "service.Credentials.Token"

	var token string
	if err := c.store.Get(ctx, sid, storage.KeyAuthToken, &token); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

func (c *Credentials) SetToken(ctx context.Context, sid, token string) error {
	const op = "service.Credentials.SetToken"

	if err := c.store.Set(ctx, sid, storage.KeyAuthToken, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Wipe стирает токен и кэш серверной корзины. Вызывается на любой 401 бэкенда
func (c *Credentials) Wipe(ctx context.Context, sid string) error {
	const op = "service.Credentials.Wipe"
	c.log.Info("wiping credentials", slog.String("op", op), slog.String("sid", sid))

	if err := c.store.Delete(ctx, sid, storage.KeyAuthToken); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.store.Delete(ctx, sid, storage.KeyServerCart); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
