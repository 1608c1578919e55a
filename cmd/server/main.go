package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/linemk/damio-storefront/internal/app"
	"github.com/linemk/damio-storefront/internal/config"
	security "github.com/linemk/damio-storefront/internal/jwt-new"
	"github.com/linemk/damio-storefront/internal/lib/i18n"
	"github.com/linemk/damio-storefront/internal/lib/logger"
	"github.com/linemk/damio-storefront/internal/lib/metrics"
	"github.com/pkg/errors"
)

func main() {
	// .env необязателен, переменные окружения могут прийти извне
	_ = godotenv.Load()

	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения: конфиг, БД, кэш, клиент бэкенда
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	issuer, err := security.NewIssuer(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		log.Error("failed to initialize session issuer", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize session issuer"))
	}

	services := app.NewServices(
		log,
		application.Sessions,
		application.Cache,
		application.Backend,
		i18n.NewLoader(log, cfg.I18n.Dir),
		cfg.Backend.Timeout,
		cfg.Cache.TTL,
	)
	router := app.NewRouter(log, issuer, cfg.Session.CookieName, services, metrics.Handler(application.Registry))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	// фоновые запросы корзины к бэкенду ещё могут идти
	services.Wait()
	log.Info("server gracefully stopped")
}
