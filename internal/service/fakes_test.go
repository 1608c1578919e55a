package service_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/linemk/damio-storefront/internal/backend"
	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/linemk/damio-storefront/internal/service"
	"github.com/shopspring/decimal"
)

// fakeBackend - фиктивный бэкенд магазина для сервисов
type fakeBackend struct {
	mu sync.Mutex

	products []models.Product
	listErr  error
	calls    map[string]int

	serverCart models.Cart
	getCartErr error
	addErr     error
	failAddAt  int // номер вызова AddToCart, который вернёт 500
	addCalls   int
	removeErr  error
	added      []int64
	removed    []int64

	token    string
	loginErr error

	fee      decimal.Decimal
	feeErr   error
	orderID  string
	orderErr error
	orders   []*models.Order
	tokens   []string

	contacts []backend.ContactMessage
}

var (
	_ service.CatalogBackend = (*fakeBackend)(nil)
	_ service.CartBackend    = (*fakeBackend)(nil)
	_ service.AccountBackend = (*fakeBackend)(nil)
	_ service.OrderBackend   = (*fakeBackend)(nil)
	_ service.ContactBackend = (*fakeBackend)(nil)
)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int), serverCart: models.Cart{}}
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) AllProducts(ctx context.Context) ([]models.Product, error) {
	f.hit("allproducts")
	return f.products, f.listErr
}

func (f *fakeBackend) NewCollections(ctx context.Context) ([]models.Product, error) {
	f.hit("newcollections")
	return f.products, f.listErr
}

func (f *fakeBackend) Popular(ctx context.Context, category string) ([]models.Product, error) {
	f.hit("popular:" + category)
	var out []models.Product
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, f.listErr
}

func (f *fakeBackend) Search(ctx context.Context, query string) ([]models.Product, error) {
	f.hit("search")
	return f.products, f.listErr
}

func (f *fakeBackend) Product(ctx context.Context, id int64) (*models.Product, error) {
	f.hit("product")
	for _, p := range f.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (f *fakeBackend) Categories(ctx context.Context) ([]models.Category, error) {
	f.hit("categories")
	return []models.Category{{ID: 1, Name: "Girls", Slug: "girls"}}, f.listErr
}

func (f *fakeBackend) Collections(ctx context.Context) ([]models.Collection, error) {
	f.hit("collections")
	return nil, f.listErr
}

func (f *fakeBackend) ShopImages(ctx context.Context) ([]models.ShopImage, error) {
	f.hit("shopimages")
	return []models.ShopImage{{ID: 1, Kind: "hero", Image: "hero.jpg"}}, f.listErr
}

func (f *fakeBackend) GetCart(ctx context.Context, token string) (models.Cart, error) {
	f.hit("getcart")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getCartErr != nil {
		return nil, f.getCartErr
	}
	return f.serverCart.Clone(), nil
}

func (f *fakeBackend) AddToCart(ctx context.Context, token string, productID int64, variant *models.Variant) error {
	f.hit("addtocart")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.addCalls++
	if f.addCalls == f.failAddAt {
		return &backend.StatusError{Code: 500}
	}
	f.added = append(f.added, productID)
	f.serverCart.Add(productID, variant)
	return nil
}

func (f *fakeBackend) RemoveFromCart(ctx context.Context, token string, productID int64) error {
	f.hit("removefromcart")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, productID)
	f.serverCart.Remove(productID)
	return nil
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (string, error) {
	f.hit("login")
	return f.token, f.loginErr
}

func (f *fakeBackend) Signup(ctx context.Context, username, email, password string) (string, error) {
	f.hit("signup")
	return f.token, f.loginErr
}

func (f *fakeBackend) DeliveryFee(ctx context.Context, wilaya, commune, deliveryType string) (decimal.Decimal, error) {
	f.hit("deliveryfee")
	return f.fee, f.feeErr
}

func (f *fakeBackend) PlaceOrder(ctx context.Context, token string, order *models.Order) (string, error) {
	f.hit("placeorder")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return "", f.orderErr
	}
	f.orders = append(f.orders, order)
	f.tokens = append(f.tokens, token)
	return f.orderID, nil
}

func (f *fakeBackend) Contact(ctx context.Context, msg backend.ContactMessage) error {
	f.hit("contact")
	f.contacts = append(f.contacts, msg)
	return nil
}

// memoryCache - кэш каталога в памяти
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}
