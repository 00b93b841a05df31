package checkout

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"crackerstore/internal/models"

	"github.com/shopspring/decimal"
)

// ReceiptItem is one row of the receipt table.
type ReceiptItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Receipt carries the reconciled figures handed to the document exporter.
type Receipt struct {
	CustomerName    string          `json:"customer_name"`
	Mobile          string          `json:"mobile"`
	OrderDate       time.Time       `json:"order_date"`
	CouponApplied   bool            `json:"coupon_applied"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	OrderTotal      decimal.Decimal `json:"order_total"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	NetTotal        decimal.Decimal `json:"net_total"`
	Items           []ReceiptItem   `json:"items"`
	FileName        string          `json:"file_name"`
}

// reconcile builds the receipt from the backend's summary. Only the summary
// and the pre-submission cart feed it; a coupon preview never does.
func reconcile(summary *models.OrderSummary, customer models.CustomerInfo, submitted []models.CartLine, cartTotal decimal.Decimal, now time.Time) *Receipt {
	r := &Receipt{
		CustomerName:    strings.TrimSpace(customer.Name),
		Mobile:          strings.TrimSpace(customer.Mobile),
		OrderDate:       now,
		OrderTotal:      cartTotal,
		NetTotal:        cartTotal,
		DiscountPercent: decimal.Zero,
		DiscountAmount:  decimal.Zero,
	}
	r.FileName = fmt.Sprintf("Order_%s_%s.pdf", r.CustomerName, now.Format("2006-01-02"))

	if len(summary.CartItems) > 0 {
		for _, it := range summary.CartItems {
			r.Items = append(r.Items, ReceiptItem{
				ID:        it.ID,
				Name:      it.Name,
				Qty:       it.Qty,
				Price:     it.Price,
				LineTotal: it.Price.Mul(decimal.NewFromInt(int64(it.Qty))),
			})
		}
	} else {
		for _, l := range submitted {
			r.Items = append(r.Items, ReceiptItem{
				ID:        l.ProductID,
				Name:      l.Name,
				Qty:       l.Quantity,
				Price:     l.UnitPrice,
				LineTotal: l.LineTotal(),
			})
		}
	}

	// Without an applied coupon the charged total is the cart total.
	if !summary.CouponApplied {
		return r
	}

	r.CouponApplied = true
	r.CouponCode = summary.CouponCode
	if summary.OrderTotal.Valid {
		r.OrderTotal = summary.OrderTotal.Decimal
	}
	switch {
	case summary.NetTotal.Valid:
		r.NetTotal = summary.NetTotal.Decimal
	case summary.OrderTotal.Valid:
		r.NetTotal = summary.OrderTotal.Decimal
	}
	if summary.DiscountPercent.Valid {
		r.DiscountPercent = summary.DiscountPercent.Decimal
	}
	if summary.DiscountAmount.Valid {
		r.DiscountAmount = summary.DiscountAmount.Decimal
	}
	return r
}

// ReceiptExporter turns a reconciled receipt into a document.
type ReceiptExporter interface {
	Export(r *Receipt) ([]byte, error)
}

// TextExporter renders the receipt as plain text.
type TextExporter struct{}

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).Parse(`Fireworks Store
Order Summary

Customer Name: {{.CustomerName}}
Mobile: {{.Mobile}}
Order Date: {{.OrderDate.Format "2006-01-02 15:04:05"}}
{{if .CouponApplied}}
Coupon: {{if .CouponCode}}{{.CouponCode}}{{else}}(applied){{end}}
{{end}}
Item | Qty | Price | Total
{{range .Items}}{{.Name}} | {{.Qty}} | Rs {{money .Price}} | Rs {{money .LineTotal}}
{{end}}
{{if .CouponApplied}}Order Total: Rs {{money .OrderTotal}}
Discount: {{.DiscountPercent}}% (Rs {{money .DiscountAmount}})
Net Total: Rs {{money .NetTotal}}
{{else}}Total: Rs {{money .NetTotal}}
{{end}}
Thank you for shopping with Fireworks Store!
`))

// Export implements ReceiptExporter.
func (TextExporter) Export(r *Receipt) ([]byte, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
