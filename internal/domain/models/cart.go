package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Variant - выбранные размер, цвет и возраст для строки корзины
type Variant struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
	Age   string `json:"age,omitempty"`
}

func (v *Variant) IsZero() bool {
	return v == nil || (v.Size == "" && v.Color == "" && v.Age == "")
}

// CartEntry - строка корзины. На один товар всегда одна строка
type CartEntry struct {
	ProductID int64    `json:"productId"`
	Quantity  int      `json:"quantity"`
	Variant   *Variant `json:"variant,omitempty"`
}

// Cart - корзина, ключ - id товара
type Cart map[int64]CartEntry

// NewCartFromQuantities собирает корзину из ответа вида {"id": quantity}
func NewCartFromQuantities(q map[int64]int) Cart {
	c := make(Cart, len(q))
	for id, n := range q {
		if n > 0 {
			c[id] = CartEntry{ProductID: id, Quantity: n}
		}
	}
	return c
}

// Add увеличивает количество на единицу и возвращает новое значение.
// Непустой вариант перезаписывает сохранённый
func (c Cart) Add(id int64, variant *Variant) int {
	entry := c[id]
	entry.ProductID = id
	entry.Quantity++
	if !variant.IsZero() {
		v := *variant
		entry.Variant = &v
	}
	c[id] = entry
	return entry.Quantity
}

// Remove уменьшает количество на единицу, но не ниже нуля. Строка с нулём удаляется
func (c Cart) Remove(id int64) int {
	entry, ok := c[id]
	if !ok {
		return 0
	}
	entry.Quantity--
	if entry.Quantity <= 0 {
		delete(c, id)
		return 0
	}
	c[id] = entry
	return entry.Quantity
}

func (c Cart) Quantity(id int64) int {
	return c[id].Quantity
}

// Count - общее число единиц товара в корзине
func (c Cart) Count() int {
	n := 0
	for _, e := range c {
		if e.Quantity > 0 {
			n += e.Quantity
		}
	}
	return n
}

// Lines возвращает ненулевые строки, отсортированные по id товара
func (c Cart) Lines() []CartEntry {
	lines := make([]CartEntry, 0, len(c))
	for _, e := range c {
		if e.Quantity > 0 {
			lines = append(lines, e)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

// Total считает сумму цена * количество по ненулевым строкам.
// Строки без известной цены пропускаются
func (c Cart) Total(prices map[int64]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.Lines() {
		price, ok := prices[e.ProductID]
		if !ok {
			continue
		}
		total = total.Add(LineTotal(price, e.Quantity))
	}
	return total
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for id, e := range c {
		if e.Variant != nil {
			v := *e.Variant
			e.Variant = &v
		}
		out[id] = e
	}
	return out
}

// LineTotal - стоимость строки: цена за единицу * количество
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}
