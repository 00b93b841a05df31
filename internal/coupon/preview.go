// Package coupon computes the advisory discount shown while a shopper types a
// promo code. The backend remains the authority on what is actually charged;
// the code list here duplicates its coupon table and must be kept in sync.
package coupon

import (
	"strings"

	"crackerstore/internal/models"

	"github.com/shopspring/decimal"
)

// Percent is the fixed discount granted by every known code.
const Percent = 15

// DefaultCodes are the promotional codes recognised when no list is configured.
var DefaultCodes = []string{"FIRSTSALE15"}

var hundred = decimal.NewFromInt(100)

// Engine matches codes against a fixed allow-list.
type Engine struct {
	codes map[string]struct{}
}

// NewEngine builds an engine for the given codes. Matching is case-insensitive.
func NewEngine(codes []string) *Engine {
	e := &Engine{codes: make(map[string]struct{}, len(codes))}
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			e.codes[c] = struct{}{}
		}
	}
	return e
}

var defaultEngine = NewEngine(DefaultCodes)

// Preview evaluates code against DefaultCodes.
func Preview(code string, cartTotal decimal.Decimal) *models.CouponPreview {
	return defaultEngine.Preview(code, cartTotal)
}

// Known reports whether code is on the allow-list.
func (e *Engine) Known(code string) bool {
	_, ok := e.codes[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Preview returns the estimated discount for cartTotal, or nil when the code is
// empty or unknown.
func (e *Engine) Preview(code string, cartTotal decimal.Decimal) *models.CouponPreview {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" || !e.Known(normalized) {
		return nil
	}

	amount := cartTotal.Mul(decimal.NewFromInt(Percent)).Div(hundred).Round(2)
	net := cartTotal.Sub(amount)
	if net.IsNegative() {
		net = decimal.Zero
	}
	return &models.CouponPreview{
		Code:     normalized,
		Percent:  Percent,
		Amount:   amount,
		NetTotal: net,
	}
}
