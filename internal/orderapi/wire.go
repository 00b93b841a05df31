package orderapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"crackerstore/internal/models"

	"github.com/shopspring/decimal"
)

// The backend is loosely typed: ids, flags and quantities arrive as numbers or
// strings, and cart_items is sometimes a JSON-encoded string. The types below
// absorb that at the boundary so models only see clean values.

type flexString string

func (f *flexString) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		*f = ""
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(raw)
	return nil
}

func (f flexString) Int() int {
	s := strings.TrimSpace(string(f))
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return int(d.IntPart())
	}
	return 0
}

// flexBool is true for true, "true", 1 and "1".
type flexBool bool

func (f *flexBool) UnmarshalJSON(raw []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(raw); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "true", "1", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

// errorFlag records the backend's "error" field. Only a case-insensitive
// "false" counts as success.
type errorFlag struct {
	present bool
	ok      bool
}

func (f *errorFlag) UnmarshalJSON(raw []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(raw); err != nil {
		return err
	}
	f.present = true
	f.ok = strings.EqualFold(strings.TrimSpace(string(s)), "false")
	return nil
}

type envelope struct {
	Error   errorFlag  `json:"error"`
	Message string     `json:"message"`
	Details []string   `json:"details"`
	OrderID flexString `json:"order_id"`
}

type wireItem struct {
	ID    flexString      `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   flexString      `json:"qty"`
}

type wireItems []wireItem

func (w *wireItems) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		if strings.TrimSpace(inner) == "" {
			*w = nil
			return nil
		}
		raw = []byte(inner)
	}
	if bytes.Equal(raw, []byte("null")) {
		*w = nil
		return nil
	}
	var items []wireItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*w = items
	return nil
}

func (w wireItems) toModels() []models.OrderItem {
	if len(w) == 0 {
		return nil
	}
	out := make([]models.OrderItem, 0, len(w))
	for _, it := range w {
		out = append(out, models.OrderItem{
			ID:    string(it.ID),
			Name:  it.Name,
			Price: it.Price,
			Qty:   it.Qty.Int(),
		})
	}
	return out
}

type wireSummary struct {
	CouponApplied   flexBool            `json:"coupon_applied"`
	CouponCode      string              `json:"coupon_code"`
	OrderTotal      decimal.NullDecimal `json:"order_total"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
	DiscountAmount  decimal.NullDecimal `json:"discount_amount"`
	NetTotal        decimal.NullDecimal `json:"net_total"`
	CartItems       wireItems           `json:"cart_items"`
}

func (w wireSummary) toModel() *models.OrderSummary {
	return &models.OrderSummary{
		CouponApplied:   bool(w.CouponApplied),
		CouponCode:      w.CouponCode,
		OrderTotal:      w.OrderTotal,
		DiscountPercent: w.DiscountPercent,
		DiscountAmount:  w.DiscountAmount,
		NetTotal:        w.NetTotal,
		CartItems:       w.CartItems.toModels(),
	}
}

type wireOrder struct {
	ID              flexString          `json:"id"`
	UserName        string              `json:"user_name"`
	UserMobile      flexString          `json:"user_mobile"`
	Status          flexString          `json:"status"`
	CartItems       wireItems           `json:"cart_items"`
	TotalAmount     decimal.NullDecimal `json:"total_amount"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
	DiscountAmount  decimal.NullDecimal `json:"discount_amount"`
	NetAmount       decimal.NullDecimal `json:"net_amount"`
	CouponCode      string              `json:"coupon_code"`
	CreatedAt       string              `json:"created_at"`
}

func (w wireOrder) toModel() models.Order {
	return models.Order{
		ID:              string(w.ID),
		UserName:        w.UserName,
		UserMobile:      string(w.UserMobile),
		Status:          models.ParseOrderStatus(string(w.Status)),
		CartItems:       w.CartItems.toModels(),
		TotalAmount:     w.TotalAmount.Decimal,
		DiscountPercent: w.DiscountPercent.Decimal,
		DiscountAmount:  w.DiscountAmount.Decimal,
		NetAmount:       w.NetAmount.Decimal,
		CouponCode:      w.CouponCode,
		CreatedAt:       w.CreatedAt,
	}
}

type wireProduct struct {
	ID            flexString          `json:"id"`
	Name          string              `json:"name"`
	CurrentPrice  decimal.NullDecimal `json:"current_price"`
	Price         decimal.NullDecimal `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"original_price"`
	Stock         flexString          `json:"stock"`
	Image         string              `json:"image"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
}

var markup = decimal.RequireFromString("1.2")

func (w wireProduct) toModel() models.Product {
	price := decimal.Zero
	switch {
	case w.CurrentPrice.Valid:
		price = w.CurrentPrice.Decimal
	case w.Price.Valid:
		price = w.Price.Decimal
	}
	original := price.Mul(markup)
	if w.OriginalPrice.Valid {
		original = w.OriginalPrice.Decimal
	}
	name := w.Name
	if name == "" {
		name = "Unnamed"
	}
	category := w.Category
	if category == "" {
		category = "general"
	}
	image := w.Image
	if !strings.HasPrefix(image, "data:image/") && !strings.HasPrefix(image, "http://") && !strings.HasPrefix(image, "https://") {
		image = ""
	}
	stock := w.Stock.Int()
	return models.Product{
		ID:            string(w.ID),
		Name:          name,
		Price:         price,
		OriginalPrice: original,
		Stock:         stock,
		Image:         image,
		Description:   w.Description,
		Category:      category,
		InStock:       stock > 0,
	}
}
