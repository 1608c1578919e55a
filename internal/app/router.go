package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/damio-storefront/internal/app/handlers"
	security "github.com/linemk/damio-storefront/internal/jwt-new"
	"github.com/linemk/damio-storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/damio-storefront/internal/lib/i18n"
	"github.com/linemk/damio-storefront/internal/lib/logger/handlers/urllog"
	"github.com/linemk/damio-storefront/internal/service"
	"github.com/linemk/damio-storefront/internal/storage"
)

// Services - сервисный слой витрины
type Services struct {
	Catalog  service.CatalogService
	Carts    service.CartService
	Checkout service.CheckoutService
	Auth     service.AuthServiceInterface
	Prefs    service.PrefsService
	Contact  service.ContactService
	Locales  handlers.Locales

	// wait дожидается фоновых синхронизаций корзины
	wait func()
}

// Wait блокируется до завершения фоновых запросов корзины к бэкенду
func (s *Services) Wait() {
	if s.wait != nil {
		s.wait()
	}
}

// Backend - всё, что сервисам нужно от удалённого бэкенда
type Backend interface {
	service.CatalogBackend
	service.CartBackend
	service.AccountBackend
	service.OrderBackend
	service.ContactBackend
}

// NewServices собирает сервисы поверх хранилища сессий, кэша каталога и бэкенда
func NewServices(
	log *slog.Logger,
	sessions storage.SessionStorage,
	cache storage.CatalogCache,
	client Backend,
	locales *i18n.Loader,
	syncTimeout time.Duration,
	quoteTTL time.Duration,
) *Services {
	creds := service.NewCredentials(log, sessions)
	carts := service.NewCartService(log, sessions, creds, client, syncTimeout)
	catalog := service.NewCatalogService(log, client, cache)

	return &Services{
		Catalog:  catalog,
		Carts:    carts,
		Checkout: service.NewCheckoutService(log, carts, catalog, creds, client, quoteTTL),
		Auth:     service.NewAuthService(log, creds, carts, client),
		Prefs:    service.NewPrefsService(log, sessions),
		Contact:  service.NewContactService(log, client),
		Locales:  locales,
		wait:     carts.Wait,
	}
}

// NewRouter регистрирует middleware и эндпоинты витрины. metricsHandler может быть nil
func NewRouter(log *slog.Logger, issuer *security.Issuer, cookieName string, svc *Services, metricsHandler http.Handler) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	if metricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// каталог и словари доступны без сессии
	router.Get("/api/products", handlers.ProductsHandler(log, svc.Catalog))
	router.Get("/api/products/new", handlers.NewCollectionsHandler(log, svc.Catalog))
	router.Get("/api/products/popular", handlers.PopularHandler(log, svc.Catalog))
	router.Get("/api/products/{id}", handlers.ProductHandler(log, svc.Catalog))
	router.Get("/api/search", handlers.SearchHandler(log, svc.Catalog))
	router.Get("/api/categories", handlers.CategoriesHandler(log, svc.Catalog))
	router.Get("/api/collections", handlers.CollectionsHandler(log, svc.Catalog))
	router.Get("/api/shop-images", handlers.ShopImagesHandler(log, svc.Catalog))
	router.Get("/api/i18n", handlers.I18nHandler(log, svc.Locales))
	router.Post("/api/contact", handlers.ContactHandler(log, svc.Contact))
	router.Post("/api/checkout/quote", handlers.QuoteHandler(log, svc.Checkout))

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewSessionMiddleware(log, issuer, cookieName))

		r.Get("/api/cart", handlers.CartHandler(log, svc.Carts, svc.Catalog))
		r.Post("/api/cart/items", handlers.AddToCartHandler(log, svc.Carts, svc.Catalog))
		r.Delete("/api/cart/items/{id}", handlers.RemoveFromCartHandler(log, svc.Carts, svc.Catalog))

		r.Post("/api/checkout", handlers.CheckoutHandler(log, svc.Checkout))

		r.Post("/api/auth/login", handlers.LoginHandler(log, svc.Auth))
		r.Post("/api/auth/signup", handlers.SignupHandler(log, svc.Auth))
		r.Post("/api/auth/logout", handlers.LogoutHandler(log, svc.Auth))

		r.Get("/api/wishlist", handlers.WishlistHandler(log, svc.Prefs))
		r.Post("/api/wishlist", handlers.ToggleWishlistHandler(log, svc.Prefs))
		r.Get("/api/wishlist/{id}", handlers.WishlistContainsHandler(log, svc.Prefs))
		r.Get("/api/theme", handlers.ThemeHandler(log, svc.Prefs))
		r.Put("/api/theme", handlers.SetThemeHandler(log, svc.Prefs))
		r.Post("/api/events", handlers.RecordEventHandler(log, svc.Prefs))
		r.Get("/api/events", handlers.RecentEventsHandler(log, svc.Prefs))
		r.Get("/api/events/top-categories", handlers.TopCategoriesHandler(log, svc.Prefs))
	})

	return router
}
