package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/linemk/damio-storefront/internal/domain/models"
)

type cartItemRequest struct {
	ItemID int64  `json:"itemId"`
	Size   string `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
	Age    string `json:"age,omitempty"`
}

type cartItemDTO struct {
	ProductID int64  `json:"productId"`
	ItemID    int64  `json:"itemId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Age       string `json:"age"`
}

func (d cartItemDTO) entry() models.CartEntry {
	id := d.ProductID
	if id == 0 {
		id = d.ItemID
	}
	e := models.CartEntry{ProductID: id, Quantity: d.Quantity}
	v := &models.Variant{Size: d.Size, Color: d.Color, Age: d.Age}
	if !v.IsZero() {
		e.Variant = v
	}
	return e
}

// GetCart забирает серверную корзину авторизованного пользователя
func (c *Client) GetCart(ctx context.Context, token string) (models.Cart, error) {
	raw, err := c.call(ctx, "getcart", http.MethodPost, "/getcart", token, struct{}{})
	if err != nil {
		return nil, err
	}
	var payload json.RawMessage
	if err := decodeEnvelope(raw, &payload, "cartData", "cart"); err != nil {
		return nil, err
	}
	return decodeCart(payload)
}

func (c *Client) AddToCart(ctx context.Context, token string, productID int64, variant *models.Variant) error {
	req := cartItemRequest{ItemID: productID}
	if variant != nil {
		req.Size, req.Color, req.Age = variant.Size, variant.Color, variant.Age
	}
	raw, err := c.call(ctx, "addtocart", http.MethodPost, "/addtocart", token, req)
	if err != nil {
		return err
	}
	return decodeEnvelope(raw, nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, token string, productID int64) error {
	raw, err := c.call(ctx, "removefromcart", http.MethodPost, "/removefromcart", token, cartItemRequest{ItemID: productID})
	if err != nil {
		return err
	}
	return decodeEnvelope(raw, nil)
}

// decodeCart понимает три формы серверной корзины:
// {"id": quantity}, {"id": {quantity, size...}}, {"items": [...]} или просто [...]
func decodeCart(payload json.RawMessage) (models.Cart, error) {
	payload = bytes.TrimSpace(payload)
	cart := models.Cart{}
	if len(payload) == 0 || string(payload) == "null" {
		return cart, nil
	}

	if payload[0] == '[' {
		var items []cartItemDTO
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, fmt.Errorf("backend: decode cart items: %w", err)
		}
		return cartFromItems(items), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, fmt.Errorf("backend: decode cart: %w", err)
	}
	if items, ok := obj["items"]; ok {
		return decodeCart(items)
	}

	quantities := make(map[int64]int, len(obj))
	var detailed []cartItemDTO
	for key, value := range obj {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		var quantity int
		if err := json.Unmarshal(value, &quantity); err == nil {
			quantities[id] = quantity
			continue
		}
		var item cartItemDTO
		if err := json.Unmarshal(value, &item); err != nil {
			return nil, fmt.Errorf("backend: decode cart line %q: %w", key, err)
		}
		item.ProductID = id
		detailed = append(detailed, item)
	}

	cart = models.NewCartFromQuantities(quantities)
	for _, item := range detailed {
		if item.Quantity > 0 {
			cart[item.ProductID] = item.entry()
		}
	}
	return cart, nil
}

func cartFromItems(items []cartItemDTO) models.Cart {
	cart := models.Cart{}
	for _, it := range items {
		e := it.entry()
		if e.ProductID == 0 || e.Quantity <= 0 {
			continue
		}
		// одна строка на товар: дубликаты складываются, вариант берётся последний
		if prev, ok := cart[e.ProductID]; ok {
			e.Quantity += prev.Quantity
			if e.Variant == nil {
				e.Variant = prev.Variant
			}
		}
		cart[e.ProductID] = e
	}
	return cart
}
