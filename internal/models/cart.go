package models

import "github.com/shopspring/decimal"

// CartLine is a single product entry in a shopper's cart.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"` // last-known stock, upper bound for Quantity
	ImageRef  string          `json:"image_ref"`
}

// LineTotal returns UnitPrice × Quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartRecord is the persisted form of a cart line.
type CartRecord struct {
	ID        uint            `gorm:"primaryKey"`
	SessionID string          `gorm:"index;type:varchar(36)"`
	Position  int             `gorm:"not null"`
	ProductID string          `gorm:"type:varchar(64)"`
	Name      string          `gorm:"type:varchar(255)"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2)"`
	Quantity  int
	Stock     int
	ImageRef  string `gorm:"type:text"`
}

// TableName pins the table name for cart rows.
func (CartRecord) TableName() string {
	return "cart_lines"
}

// CustomerInfo holds the contact details entered at checkout.
type CustomerInfo struct {
	Name   string `json:"name" validate:"required"`
	Mobile string `json:"mobile" validate:"required,mobile10"`
}

// CouponPreview is a client-side discount estimate. It is advisory only.
type CouponPreview struct {
	Code     string          `json:"code"`
	Percent  int             `json:"percent"`
	Amount   decimal.Decimal `json:"amount"`
	NetTotal decimal.Decimal `json:"net_total"`
}
