package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// способы доставки
const (
	DeliveryHome     = "home"
	DeliveryStopDesk = "stopdesk"
)

// ShippingInfo - данные покупателя и адрес доставки из формы оформления
type ShippingInfo struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	Wilaya       string `json:"wilaya"`
	Commune      string `json:"commune"`
	DeliveryType string `json:"deliveryType"`
	Notes        string `json:"notes,omitempty"`
}

// OrderLine - строка заказа со снимком товара на момент оформления
type OrderLine struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Variant   *Variant        `json:"variant,omitempty"`
	LineTotal decimal.Decimal `json:"total"`
}

// Order создаётся один раз при оформлении и после отправки не меняется
type Order struct {
	ID          string          `json:"orderId,omitempty"`
	Lines       []OrderLine     `json:"items"`
	Shipping    ShippingInfo    `json:"shipping"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"createdAt"`
}
