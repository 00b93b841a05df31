package cart

import (
	"crackerstore/internal/models"

	"github.com/shopspring/decimal"
)

// LineView is a cart line decorated with the affordances the UI needs.
type LineView struct {
	models.CartLine
	LineTotal    decimal.Decimal `json:"line_total"`
	CanIncrement bool            `json:"can_increment"`
	CanDecrement bool            `json:"can_decrement"`
	CanRemove    bool            `json:"can_remove"`
}

// View is a point-in-time rendering of the cart.
type View struct {
	Lines      []LineView      `json:"lines"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ReadOnly   bool            `json:"read_only"`
}

// Snapshot builds a View under a single read lock so totals match the lines.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Lines:      make([]LineView, 0, len(s.lines)),
		TotalPrice: decimal.Zero,
		ReadOnly:   s.frozen,
	}
	for _, l := range s.lines {
		lt := l.LineTotal()
		v.Lines = append(v.Lines, LineView{
			CartLine:     l,
			LineTotal:    lt,
			CanIncrement: !s.frozen && l.Quantity < l.Stock,
			CanDecrement: !s.frozen && l.Quantity > 1,
			CanRemove:    !s.frozen,
		})
		v.TotalItems += l.Quantity
		v.TotalPrice = v.TotalPrice.Add(lt)
	}
	return v
}
