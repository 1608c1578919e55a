package service

import (
	"context"

	"github.com/linemk/damio-storefront/internal/backend"
	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/shopspring/decimal"
)

// ErrUnauthorized - бэкенд не принял токен пользователя
var ErrUnauthorized = backend.ErrUnauthorized

// CatalogBackend - часть клиента бэкенда, нужная каталогу
type CatalogBackend interface {
	AllProducts(ctx context.Context) ([]models.Product, error)
	NewCollections(ctx context.Context) ([]models.Product, error)
	Popular(ctx context.Context, category string) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	Product(ctx context.Context, id int64) (*models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Collections(ctx context.Context) ([]models.Collection, error)
	ShopImages(ctx context.Context) ([]models.ShopImage, error)
}

// CartBackend - серверная корзина авторизованного пользователя
type CartBackend interface {
	GetCart(ctx context.Context, token string) (models.Cart, error)
	AddToCart(ctx context.Context, token string, productID int64, variant *models.Variant) error
	RemoveFromCart(ctx context.Context, token string, productID int64) error
}

type AccountBackend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, username, email, password string) (string, error)
}

type OrderBackend interface {
	DeliveryFee(ctx context.Context, wilaya, commune, deliveryType string) (decimal.Decimal, error)
	PlaceOrder(ctx context.Context, token string, order *models.Order) (string, error)
}

type ContactBackend interface {
	Contact(ctx context.Context, msg backend.ContactMessage) error
}

var (
	_ CatalogBackend = (*backend.Client)(nil)
	_ CartBackend    = (*backend.Client)(nil)
	_ AccountBackend = (*backend.Client)(nil)
	_ OrderBackend   = (*backend.Client)(nil)
	_ ContactBackend = (*backend.Client)(nil)
)
