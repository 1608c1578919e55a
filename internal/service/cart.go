package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/linemk/damio-storefront/internal/storage"
)

// CartService собирает единое представление корзины независимо от того,
// вошёл пользователь или нет
type CartService interface {
	// Load возвращает корзину сессии. Сбой бэкенда не пробрасывается:
	// откат на кэш серверной корзины, затем на гостевую, затем на пустую.
	// Исключение - 401: учётные данные стираются, вместе с гостевой корзиной
	// возвращается ErrUnauthorized
	Load(ctx context.Context, sid string) (models.Cart, error)
	// Add добавляет единицу товара. Для авторизованного пользователя корзина
	// обновляется сразу, а запрос к бэкенду уходит в фоне и не ожидается
	Add(ctx context.Context, sid string, productID int64, variant *models.Variant) (models.Cart, error)
	// Remove убирает единицу товара, количество не опускается ниже нуля
	Remove(ctx context.Context, sid string, productID int64) (models.Cart, error)
	// Clear очищает корзину после оформления заказа
	Clear(ctx context.Context, sid string) error
	// Merge переносит гостевую корзину на сервер после входа
	Merge(ctx context.Context, sid string) error
}

type cartService struct {
	log     *slog.Logger
	store   storage.SessionStorage
	creds   *Credentials
	backend CartBackend
	timeout time.Duration

	locks *keyedMutex
	wg    sync.WaitGroup
}

func NewCartService(log *slog.Logger, store storage.SessionStorage, creds *Credentials, backend CartBackend, timeout time.Duration) *cartService {
	return &cartService{
		log:     log,
		store:   store,
		creds:   creds,
		backend: backend,
		timeout: timeout,
		locks:   newKeyedMutex(),
	}
}

func (s *cartService) Load(ctx context.Context, sid string) (models.Cart, error) {
	unlock := s.locks.Lock(sid)
	defer unlock()

	return s.load(ctx, sid)
}

func (s *cartService) load(ctx context.Context, sid string) (models.Cart, error) {
	const op = "service.CartService.Load"
	logger := s.log.With(slog.String("op", op), slog.String("sid", sid))

	token, err := s.creds.Token(ctx, sid)
	if err != nil {
		logger.Error("failed to read auth token, using guest cart", slog.Any("error", err))
		return s.readCart(ctx, sid, storage.KeyCart), nil
	}
	if token == "" {
		return s.readCart(ctx, sid, storage.KeyCart), nil
	}

	cart, err := s.backend.GetCart(ctx, token)
	if err == nil {
		if err := s.store.Set(ctx, sid, storage.KeyServerCart, cart); err != nil {
			logger.Error("failed to cache server cart", slog.Any("error", err))
		}
		return cart, nil
	}

	if errors.Is(err, ErrUnauthorized) {
		logger.Warn("backend rejected token, falling back to guest cart")
		if err := s.creds.Wipe(ctx, sid); err != nil {
			logger.Error("failed to wipe credentials", slog.Any("error", err))
		}
		return s.readCart(ctx, sid, storage.KeyCart), fmt.Errorf("%s: %w", op, err)
	}

	logger.Error("failed to fetch server cart", slog.Any("error", err))
	if cached, ok := s.tryReadCart(ctx, sid, storage.KeyServerCart); ok {
		return cached, nil
	}
	return s.readCart(ctx, sid, storage.KeyCart), nil
}

func (s *cartService) Add(ctx context.Context, sid string, productID int64, variant *models.Variant) (models.Cart, error) {
	const op = "service.CartService.Add"

	unlock := s.locks.Lock(sid)
	defer unlock()

	return s.mutate(ctx, sid, op, func(cart models.Cart) bool {
		cart.Add(productID, variant)
		return true
	}, func(ctx context.Context, token string) error {
		return s.backend.AddToCart(ctx, token, productID, variant)
	})
}

func (s *cartService) Remove(ctx context.Context, sid string, productID int64) (models.Cart, error) {
	const op = "service.CartService.Remove"

	unlock := s.locks.Lock(sid)
	defer unlock()

	return s.mutate(ctx, sid, op, func(cart models.Cart) bool {
		if cart.Quantity(productID) == 0 {
			return false
		}
		cart.Remove(productID)
		return true
	}, func(ctx context.Context, token string) error {
		return s.backend.RemoveFromCart(ctx, token, productID)
	})
}

// mutate применяет change к корзине сессии. Гостевая корзина сохраняется сразу,
// серверная обновляется оптимистично, а remote уходит в фон
func (s *cartService) mutate(
	ctx context.Context,
	sid, op string,
	change func(models.Cart) bool,
	remote func(ctx context.Context, token string) error,
) (models.Cart, error) {
	logger := s.log.With(slog.String("op", op), slog.String("sid", sid))

	token, err := s.creds.Token(ctx, sid)
	if err != nil {
		logger.Error("failed to read auth token, using guest cart", slog.Any("error", err))
	}

	if token == "" {
		cart := s.readCart(ctx, sid, storage.KeyCart)
		if !change(cart) {
			return cart, nil
		}
		if err := s.store.Set(ctx, sid, storage.KeyCart, cart); err != nil {
			logger.Error("failed to persist guest cart", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to persist guest cart: %w", op, err)
		}
		return cart, nil
	}

	cart, ok := s.tryReadCart(ctx, sid, storage.KeyServerCart)
	if !ok {
		cart = s.fetchServerCart(ctx, token, logger)
	}
	if !change(cart) {
		return cart, nil
	}
	if err := s.store.Set(ctx, sid, storage.KeyServerCart, cart); err != nil {
		logger.Error("failed to cache server cart", slog.Any("error", err))
	}

	s.background(ctx, sid, op, func(ctx context.Context) error {
		return remote(ctx, token)
	})
	return cart, nil
}

func (s *cartService) fetchServerCart(ctx context.Context, token string, logger *slog.Logger) models.Cart {
	cart, err := s.backend.GetCart(ctx, token)
	if err != nil {
		logger.Error("failed to fetch server cart", slog.Any("error", err))
		return models.Cart{}
	}
	return cart
}

// background выполняет вызов бэкенда вне запроса. Ошибка только логируется,
// локальное состояние не откатывается
func (s *cartService) background(ctx context.Context, sid, op string, call func(ctx context.Context) error) {
	bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		err := call(bgCtx)
		if err == nil {
			return
		}
		logger := s.log.With(slog.String("op", op), slog.String("sid", sid))
		logger.Error("background cart sync failed", slog.Any("error", err))
		if errors.Is(err, ErrUnauthorized) {
			if err := s.creds.Wipe(bgCtx, sid); err != nil {
				logger.Error("failed to wipe credentials", slog.Any("error", err))
			}
		}
	}()
}

// Wait дожидается фоновых вызовов бэкенда (graceful shutdown)
func (s *cartService) Wait() {
	s.wg.Wait()
}

func (s *cartService) Clear(ctx context.Context, sid string) error {
	const op = "service.CartService.Clear"

	unlock := s.locks.Lock(sid)
	defer unlock()

	if err := s.store.Delete(ctx, sid, storage.KeyCart); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.Delete(ctx, sid, storage.KeyServerCart); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *cartService) Merge(ctx context.Context, sid string) error {
	const op = "service.CartService.Merge"
	logger := s.log.With(slog.String("op", op), slog.String("sid", sid))

	unlock := s.locks.Lock(sid)
	defer unlock()

	token, err := s.creds.Token(ctx, sid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if token == "" {
		return nil
	}

	guest, ok := s.tryReadCart(ctx, sid, storage.KeyCart)
	if !ok || len(guest.Lines()) == 0 {
		return nil
	}

	logger.Info("merging guest cart", slog.Int("units", guest.Count()))
	for _, line := range guest.Lines() {
		for i := 0; i < line.Quantity; i++ {
			if err := s.backend.AddToCart(ctx, token, line.ProductID, line.Variant); err != nil {
				logger.Error("failed to merge guest cart line", slog.Int64("productID", line.ProductID), slog.Any("error", err))
				return fmt.Errorf("%s: %w", op, err)
			}
			// принятая бэкендом единица уходит из гостевой корзины, повторный Merge её не отправит
			guest.Remove(line.ProductID)
			if err := s.store.Set(ctx, sid, storage.KeyCart, guest); err != nil {
				logger.Error("failed to persist merge progress", slog.Any("error", err))
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err := s.store.Delete(ctx, sid, storage.KeyCart); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.Delete(ctx, sid, storage.KeyServerCart); err != nil {
		logger.Error("failed to drop cached server cart", slog.Any("error", err))
	}
	return nil
}

// readCart читает корзину по ключу. Отсутствующая или битая - пустая
func (s *cartService) readCart(ctx context.Context, sid, key string) models.Cart {
	cart, _ := s.tryReadCart(ctx, sid, key)
	return cart
}

func (s *cartService) tryReadCart(ctx context.Context, sid, key string) (models.Cart, bool) {
	var cart models.Cart
	if err := s.store.Get(ctx, sid, key, &cart); err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.log.Warn("failed to read cart, starting empty",
				slog.String("sid", sid), slog.String("key", key), slog.Any("error", err))
		}
		return models.Cart{}, false
	}
	if cart == nil {
		cart = models.Cart{}
	}
	return cart, true
}

// keyedMutex сериализует операции одной сессии внутри процесса
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
