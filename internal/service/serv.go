package service

import (
	"context"
	"fmt"
	"log/slog"
)

type AuthService struct {
	log     *slog.Logger
	creds   *Credentials
	carts   CartService
	backend AccountBackend
}

func NewAuthService(log *slog.Logger, creds *Credentials, carts CartService, backend AccountBackend) *AuthService {
	return &AuthService{
		log:     log,
		creds:   creds,
		carts:   carts,
		backend: backend,
	}
}

type AuthServiceInterface interface {
	Login(ctx context.Context, sid, email, password string) error
	Signup(ctx context.Context, sid, username, email, password string) error
	Logout(ctx context.Context, sid string) error
}

// Login проверяет учётные данные на бэкенде, сохраняет выданный токен в сессии
// и переносит гостевую корзину на сервер. Ошибка переноса вход не отменяет:
// гостевая корзина остаётся в сессии
func (a *AuthService) Login(ctx context.Context, sid, email, password string) error {
	const op = "service.AuthService.Login"
	logger := a.log.With(slog.String("op", op), slog.String("sid", sid))
	logger.Info("logging in")

	token, err := a.backend.Login(ctx, email, password)
	if err != nil {
		logger.Warn("login rejected", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return a.startSession(ctx, op, sid, token)
}

func (a *AuthService) Signup(ctx context.Context, sid, username, email, password string) error {
	const op = "service.AuthService.Signup"
	logger := a.log.With(slog.String("op", op), slog.String("sid", sid))
	logger.Info("signing up")

	token, err := a.backend.Signup(ctx, username, email, password)
	if err != nil {
		logger.Warn("signup rejected", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return a.startSession(ctx, op, sid, token)
}

func (a *AuthService) startSession(ctx context.Context, op, sid, token string) error {
	if err := a.creds.SetToken(ctx, sid, token); err != nil {
		a.log.Error("failed to store auth token", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: failed to store token: %w", op, err)
	}
	if err := a.carts.Merge(ctx, sid); err != nil {
		a.log.Error("failed to merge guest cart", slog.String("op", op), slog.Any("error", err))
	}
	a.log.Info("user logged in successfully", slog.String("op", op), slog.String("sid", sid))
	return nil
}

func (a *AuthService) Logout(ctx context.Context, sid string) error {
	const op = "service.AuthService.Logout"

	if err := a.creds.Wipe(ctx, sid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
