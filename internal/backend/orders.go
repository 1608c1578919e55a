package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/shopspring/decimal"
)

type deliveryFeeRequest struct {
	Wilaya       string `json:"wilaya"`
	Commune      string `json:"commune"`
	DeliveryType string `json:"deliveryType"`
}

// деньги уходят на бэкенд числами, а не строками
type orderLinePayload struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     json.Number     `json:"price"`
	Quantity  int             `json:"quantity"`
	Variant   *models.Variant `json:"variant,omitempty"`
	Total     json.Number     `json:"total"`
}

type orderPayload struct {
	Items       []orderLinePayload  `json:"items"`
	Shipping    models.ShippingInfo `json:"shipping"`
	Subtotal    json.Number         `json:"subtotal"`
	DeliveryFee json.Number         `json:"deliveryFee"`
	Total       json.Number         `json:"total"`
}

// ContactMessage - сообщение формы обратной связи
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// DeliveryFee - стоимость доставки для (вилайя, коммуна, способ)
func (c *Client) DeliveryFee(ctx context.Context, wilaya, commune, deliveryType string) (decimal.Decimal, error) {
	raw, err := c.call(ctx, "deliveryfee", http.MethodPost, "/deliveryfee", "", deliveryFeeRequest{
		Wilaya:       wilaya,
		Commune:      commune,
		DeliveryType: deliveryType,
	})
	if err != nil {
		return decimal.Zero, err
	}

	var payload json.RawMessage
	if err := decodeEnvelope(raw, &payload, "fee", "deliveryFee"); err != nil {
		return decimal.Zero, err
	}
	var fee decimal.Decimal
	if err := json.Unmarshal(payload, &fee); err == nil {
		return fee, nil
	}
	var obj struct {
		Fee decimal.Decimal `json:"fee"`
	}
	if err := json.Unmarshal(payload, &obj); err != nil {
		return decimal.Zero, fmt.Errorf("backend: decode delivery fee: %w", err)
	}
	return obj.Fee, nil
}

// PlaceOrder отправляет заказ и возвращает id, присвоенный бэкендом.
// token пустой для гостевого заказа
func (c *Client) PlaceOrder(ctx context.Context, token string, order *models.Order) (string, error) {
	payload := orderPayload{
		Shipping:    order.Shipping,
		Subtotal:    json.Number(order.Subtotal.String()),
		DeliveryFee: json.Number(order.DeliveryFee.String()),
		Total:       json.Number(order.Total.String()),
	}
	for _, l := range order.Lines {
		payload.Items = append(payload.Items, orderLinePayload{
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     json.Number(l.UnitPrice.String()),
			Quantity:  l.Quantity,
			Variant:   l.Variant,
			Total:     json.Number(l.LineTotal.String()),
		})
	}

	raw, err := c.call(ctx, "placeorder", http.MethodPost, "/placeorder", token, payload)
	if err != nil {
		return "", err
	}
	var resp json.RawMessage
	if err := decodeEnvelope(raw, &resp, "orderId", "order"); err != nil {
		return "", err
	}
	return decodeOrderID(resp)
}

func (c *Client) Contact(ctx context.Context, msg ContactMessage) error {
	raw, err := c.call(ctx, "contact", http.MethodPost, "/contact", "", msg)
	if err != nil {
		return err
	}
	return decodeEnvelope(raw, nil)
}

func decodeOrderID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil && n != 0 {
		return strconv.FormatInt(n, 10), nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"orderId", "_id", "id"} {
			if v, ok := obj[key]; ok {
				return decodeOrderID(v)
			}
		}
	}
	return "", errors.New("backend: order id missing in response")
}
