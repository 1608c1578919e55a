package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidForm    = errors.New("invalid form")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrUnknownProduct = errors.New("product in cart is not in the catalog")
)

const maxQuotes = 1024

// CheckoutForm - поля формы оформления. Проверяется только наличие
// имени, фамилии, адреса и телефона, формат не проверяется
type CheckoutForm struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	Address      string `json:"address" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Email        string `json:"email"`
	Wilaya       string `json:"wilaya"`
	Commune      string `json:"commune"`
	DeliveryType string `json:"deliveryType" validate:"omitempty,oneof=home stopdesk"`
	Notes        string `json:"notes"`
}

func (f CheckoutForm) shipping() models.ShippingInfo {
	return models.ShippingInfo{
		FirstName:    strings.TrimSpace(f.FirstName),
		LastName:     strings.TrimSpace(f.LastName),
		Address:      strings.TrimSpace(f.Address),
		Phone:        strings.TrimSpace(f.Phone),
		Email:        strings.TrimSpace(f.Email),
		Wilaya:       f.Wilaya,
		Commune:      f.Commune,
		DeliveryType: deliveryTypeOrDefault(f.DeliveryType),
		Notes:        f.Notes,
	}
}

func deliveryTypeOrDefault(t string) string {
	if t == "" {
		return models.DeliveryHome
	}
	return t
}

type CheckoutService interface {
	// Quote - стоимость доставки. Одинаковые входные данные в пределах TTL не вызывают повторный запрос
	Quote(ctx context.Context, wilaya, commune, deliveryType string) (decimal.Decimal, error)
	// PlaceOrder оформляет заказ из корзины сессии. Успех очищает корзину,
	// ошибка оставляет её нетронутой
	PlaceOrder(ctx context.Context, sid string, form CheckoutForm) (*models.Order, error)
}

type quote struct {
	fee     decimal.Decimal
	expires time.Time
}

type checkoutService struct {
	log      *slog.Logger
	validate *validator.Validate
	carts    CartService
	catalog  CatalogService
	creds    *Credentials
	backend  OrderBackend
	now      func() time.Time
	quoteTTL time.Duration

	mu     sync.Mutex
	quotes map[string]quote
}

// NewCheckoutService - quoteTTL задаёт, сколько живёт закэшированная стоимость доставки.
// Ноль отключает кэш
func NewCheckoutService(log *slog.Logger, carts CartService, catalog CatalogService, creds *Credentials, backend OrderBackend, quoteTTL time.Duration) CheckoutService {
	return &checkoutService{
		log:      log,
		validate: validator.New(),
		carts:    carts,
		catalog:  catalog,
		creds:    creds,
		backend:  backend,
		now:      time.Now,
		quoteTTL: quoteTTL,
		quotes:   make(map[string]quote),
	}
}

func (s *checkoutService) Quote(ctx context.Context, wilaya, commune, deliveryType string) (decimal.Decimal, error) {
	const op = "service.CheckoutService.Quote"

	deliveryType = deliveryTypeOrDefault(deliveryType)
	if wilaya == "" {
		return decimal.Zero, nil
	}
	key := wilaya + "|" + commune + "|" + deliveryType

	s.mu.Lock()
	cached, ok := s.quotes[key]
	s.mu.Unlock()
	if ok && s.now().Before(cached.expires) {
		return cached.fee, nil
	}

	fee, err := s.backend.DeliveryFee(ctx, wilaya, commune, deliveryType)
	if err != nil {
		s.log.Error("failed to get delivery fee", slog.String("op", op), slog.String("wilaya", wilaya), slog.Any("error", err))
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	if s.quoteTTL <= 0 {
		return fee, nil
	}
	s.mu.Lock()
	if len(s.quotes) >= maxQuotes {
		s.quotes = make(map[string]quote)
	}
	s.quotes[key] = quote{fee: fee, expires: s.now().Add(s.quoteTTL)}
	s.mu.Unlock()
	return fee, nil
}

func (s *checkoutService) PlaceOrder(ctx context.Context, sid string, form CheckoutForm) (*models.Order, error) {
	const op = "service.CheckoutService.PlaceOrder"
	logger := s.log.With(slog.String("op", op), slog.String("sid", sid))

	if err := s.validate.Struct(form); err != nil {
		logger.Info("checkout form rejected", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}

	cart, err := s.carts.Load(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load cart: %w", op, err)
	}
	lines := cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	index, err := s.catalog.Index(ctx)
	if err != nil {
		logger.Error("failed to resolve products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to resolve products: %w", op, err)
	}

	order := &models.Order{
		Shipping:  form.shipping(),
		Subtotal:  decimal.Zero,
		CreatedAt: s.now().UTC(),
	}
	for _, line := range lines {
		p, ok := index[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownProduct, line.ProductID)
		}
		total := models.LineTotal(p.NewPrice, line.Quantity)
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			UnitPrice: p.NewPrice,
			Quantity:  line.Quantity,
			Variant:   line.Variant,
			LineTotal: total,
		})
		order.Subtotal = order.Subtotal.Add(total)
	}

	order.DeliveryFee, err = s.Quote(ctx, form.Wilaya, form.Commune, order.Shipping.DeliveryType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order.Total = order.Subtotal.Add(order.DeliveryFee)

	token, err := s.creds.Token(ctx, sid)
	if err != nil {
		logger.Error("failed to read auth token, placing guest order", slog.Any("error", err))
	}

	id, err := s.backend.PlaceOrder(ctx, token, order)
	if err != nil {
		logger.Error("failed to place order", slog.Any("error", err))
		if errors.Is(err, ErrUnauthorized) {
			if err := s.creds.Wipe(ctx, sid); err != nil {
				logger.Error("failed to wipe credentials", slog.Any("error", err))
			}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order.ID = id

	if err := s.carts.Clear(ctx, sid); err != nil {
		logger.Error("order placed but cart was not cleared", slog.String("orderID", id), slog.Any("error", err))
	}
	logger.Info("order placed", slog.String("orderID", id), slog.String("total", order.Total.String()))
	return order, nil
}
