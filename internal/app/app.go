package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/linemk/damio-storefront/internal/backend"
	"github.com/linemk/damio-storefront/internal/config"
	"github.com/linemk/damio-storefront/internal/lib/metrics"
	"github.com/linemk/damio-storefront/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sql.DB
	Redis    *redis.Client
	Registry *prometheus.Registry
	Backend  *backend.Client
	Sessions storage.SessionStorage
	Cache    storage.CatalogCache
}

// NewApp создаёт новый экземпляр App: БД состояния сессий, кэш каталога,
// реестр метрик и клиент бэкенда
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	// реализуем подключение к БД через DSN
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client, err := backend.New(log, backend.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		RPS:     cfg.Backend.RPS,
		Burst:   cfg.Backend.Burst,
		Metrics: metrics.NewBackend(registry),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	app := &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Registry: registry,
		Backend:  client,
		Sessions: storage.NewSessionRepository(db),
		Cache:    storage.NopCatalogCache{},
	}
	app.connectCache()

	return app, nil
}

// connectCache подключает Redis. Без Redis каталог работает напрямую с бэкендом
func (a *App) connectCache() {
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.Config.Redis.Address,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		a.Logger.Warn("redis unavailable, catalog cache disabled",
			slog.String("address", a.Config.Redis.Address), slog.Any("error", err))
		rdb.Close()
		return
	}

	a.Redis = rdb
	a.Cache = storage.NewRedisCatalogCache(rdb, a.Config.Cache.TTL)
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis", slog.Any("error", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("failed to close database", slog.Any("error", err))
	}
}
