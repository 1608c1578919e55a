package models

import "time"

// типы событий персонализации
const (
	EventView      = "view"
	EventAddToCart = "add_to_cart"
	EventWishlist  = "wishlist"
	EventSearch    = "search"
)

// PersonalizationEvent - запись журнала действий посетителя
type PersonalizationEvent struct {
	Type      string    `json:"type"`
	ProductID int64     `json:"productId,omitempty"`
	Category  string    `json:"category,omitempty"`
	At        time.Time `json:"at"`
}
