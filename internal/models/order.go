package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderItem is a line item as exchanged with the order backend.
type OrderItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
}

// OrderSummary is the backend's authoritative pricing for a newly created order.
// Optional figures stay invalid when the backend omitted them.
type OrderSummary struct {
	CouponApplied   bool                `json:"coupon_applied"`
	CouponCode      string              `json:"coupon_code"`
	OrderTotal      decimal.NullDecimal `json:"order_total"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
	DiscountAmount  decimal.NullDecimal `json:"discount_amount"`
	NetTotal        decimal.NullDecimal `json:"net_total"`
	CartItems       []OrderItem         `json:"cart_items"`
}

// OrderStatus is the review state of an order.
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderCompleted
	OrderRejected
	OrderCancelled
)

// ParseOrderStatus translates the backend's status code. Unknown codes are Cancelled.
func ParseOrderStatus(code string) OrderStatus {
	switch strings.TrimSpace(code) {
	case "0":
		return OrderPending
	case "1":
		return OrderCompleted
	case "2":
		return OrderRejected
	default:
		return OrderCancelled
	}
}

func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "Pending"
	case OrderCompleted:
		return "Completed"
	case OrderRejected:
		return "Rejected"
	default:
		return "Cancelled"
	}
}

// MarshalJSON renders the status label.
func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Order is an order as seen from the admin panel.
type Order struct {
	ID              string          `json:"id"`
	UserName        string          `json:"user_name"`
	UserMobile      string          `json:"user_mobile"`
	Status          OrderStatus     `json:"status"`
	CartItems       []OrderItem     `json:"cart_items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	CouponCode      string          `json:"coupon_code"`
	CreatedAt       string          `json:"created_at"`
}

// OrderList is the admin order listing with the backend's optional summary block.
type OrderList struct {
	Orders  []Order                `json:"orders"`
	Summary map[string]interface{} `json:"summary,omitempty"`
}
