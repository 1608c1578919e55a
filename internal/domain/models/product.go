package models

import "github.com/shopspring/decimal"

// Product представляет товар каталога в том виде, в каком его отдаёт бэкенд
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Images    []string        `json:"images,omitempty"`
	Category  string          `json:"category"`
	NewPrice  decimal.Decimal `json:"new_price"` // актуальная цена в динарах
	OldPrice  decimal.Decimal `json:"old_price"`
	Sizes     []string        `json:"sizes,omitempty"`
	Colors    []string        `json:"colors,omitempty"`
	Ages      []string        `json:"ages,omitempty"`
	Available bool            `json:"available"`
}

// Category - раздел каталога
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image,omitempty"`
}

// Collection - подборка товаров, которую ведёт администратор
type Collection struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	Image      string  `json:"image,omitempty"`
	ProductIDs []int64 `json:"productIds,omitempty"`
}

// ShopImage - маркетинговый баннер витрины (hero, промо-блоки)
type ShopImage struct {
	ID    int64  `json:"id"`
	Kind  string `json:"type"`
	Title string `json:"title,omitempty"`
	Image string `json:"image"`
	Link  string `json:"link,omitempty"`
}

// PriceIndex строит справочник цен по id товара
func PriceIndex(products []Product) map[int64]decimal.Decimal {
	prices := make(map[int64]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.NewPrice
	}
	return prices
}
