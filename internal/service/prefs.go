package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/linemk/damio-storefront/internal/storage"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	// журнал персонализации хранит только последние события
	maxEvents = 100
)

var (
	ErrInvalidTheme = errors.New("unknown theme")
	ErrInvalidEvent = errors.New("invalid personalization event")
)

// PrefsService - избранное, тема оформления и журнал персонализации сессии
type PrefsService interface {
	ToggleWishlist(ctx context.Context, sid string, productID int64) (bool, error)
	Wishlist(ctx context.Context, sid string) ([]int64, error)
	Contains(ctx context.Context, sid string, productID int64) (bool, error)
	Theme(ctx context.Context, sid string) (string, error)
	SetTheme(ctx context.Context, sid, theme string) error
	RecordEvent(ctx context.Context, sid string, ev models.PersonalizationEvent) error
	RecentEvents(ctx context.Context, sid string, n int) ([]models.PersonalizationEvent, error)
	TopCategories(ctx context.Context, sid string, n int) ([]string, error)
}

type prefsService struct {
	log   *slog.Logger
	store storage.SessionStorage
	now   func() time.Time
}

func NewPrefsService(log *slog.Logger, store storage.SessionStorage) PrefsService {
	return &prefsService{log: log, store: store, now: time.Now}
}

// ToggleWishlist добавляет товар в избранное или убирает его оттуда.
// Возвращает true, если товар теперь в избранном
func (s *prefsService) ToggleWishlist(ctx context.Context, sid string, productID int64) (bool, error) {
	const op = "service.PrefsService.ToggleWishlist"

	ids, err := s.Wishlist(ctx, sid)
	if err != nil {
		return false, err
	}

	kept := ids[:0]
	found := false
	for _, id := range ids {
		if id == productID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		kept = append(kept, productID)
	}

	if err := s.store.Set(ctx, sid, storage.KeyWishlist, kept); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return !found, nil
}

func (s *prefsService) Wishlist(ctx context.Context, sid string) ([]int64, error) {
	const op = "service.PrefsService.Wishlist"

	ids := []int64{}
	if err := s.store.Get(ctx, sid, storage.KeyWishlist, &ids); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return []int64{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

func (s *prefsService) Contains(ctx context.Context, sid string, productID int64) (bool, error) {
	ids, err := s.Wishlist(ctx, sid)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == productID {
			return true, nil
		}
	}
	return false, nil
}

func (s *prefsService) Theme(ctx context.Context, sid string) (string, error) {
	const op = "service.PrefsService.Theme"

	var theme string
	if err := s.store.Get(ctx, sid, storage.KeyTheme, &theme); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return ThemeLight, nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if theme != ThemeDark {
		return ThemeLight, nil
	}
	return theme, nil
}

func (s *prefsService) SetTheme(ctx context.Context, sid, theme string) error {
	const op = "service.PrefsService.SetTheme"

	if theme != ThemeLight && theme != ThemeDark {
		return ErrInvalidTheme
	}
	if err := s.store.Set(ctx, sid, storage.KeyTheme, theme); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *prefsService) RecordEvent(ctx context.Context, sid string, ev models.PersonalizationEvent) error {
	const op = "service.PrefsService.RecordEvent"

	if ev.Type == "" || (ev.ProductID == 0 && ev.Category == "") {
		return ErrInvalidEvent
	}
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}

	events, err := s.events(ctx, sid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	events = append(events, ev)
	if len(events) > maxEvents {
		events = events[len(events)-maxEvents:]
	}
	if err := s.store.Set(ctx, sid, storage.KeyPersonalize, events); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RecentEvents - последние n событий, новые первыми
func (s *prefsService) RecentEvents(ctx context.Context, sid string, n int) ([]models.PersonalizationEvent, error) {
	events, err := s.events(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("service.PrefsService.RecentEvents: %w", err)
	}
	if n <= 0 || n > len(events) {
		n = len(events)
	}
	out := make([]models.PersonalizationEvent, 0, n)
	for i := len(events) - 1; i >= len(events)-n; i-- {
		out = append(out, events[i])
	}
	return out, nil
}

// TopCategories - самые частые категории в журнале, при равенстве - по алфавиту
func (s *prefsService) TopCategories(ctx context.Context, sid string, n int) ([]string, error) {
	events, err := s.events(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("service.PrefsService.TopCategories: %w", err)
	}

	counts := make(map[string]int)
	for _, ev := range events {
		if ev.Category != "" {
			counts[ev.Category]++
		}
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] != counts[categories[j]] {
			return counts[categories[i]] > counts[categories[j]]
		}
		return categories[i] < categories[j]
	})
	if n > 0 && n < len(categories) {
		categories = categories[:n]
	}
	return categories, nil
}

// events читает журнал. Битый журнал сбрасывается, как это делает клиент
func (s *prefsService) events(ctx context.Context, sid string) ([]models.PersonalizationEvent, error) {
	var events []models.PersonalizationEvent
	if err := s.store.Get(ctx, sid, storage.KeyPersonalize, &events); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		if errors.Is(err, storage.ErrInvalidSession) || errors.Is(err, storage.ErrStoreBusy) {
			return nil, err
		}
		s.log.Warn("personalization log unreadable, resetting", slog.String("sid", sid), slog.Any("error", err))
		return nil, nil
	}
	return events, nil
}
