// Package cart holds the shopper's cart lines and their derived totals.
package cart

import (
	"sync"

	"crackerstore/internal/models"

	"github.com/shopspring/decimal"
)

// Store is an in-memory cart keyed by product ID, preserving insertion order.
// Mutations that would break 1 <= quantity <= stock are silent no-ops; each
// mutating method reports whether the cart changed.
type Store struct {
	mu     sync.RWMutex
	lines  []models.CartLine
	frozen bool
}

// NewStore creates an empty cart.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) indexOf(productID string) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem inserts the product with quantity 1, or increments an existing line up
// to the product's current stock.
func (s *Store) AddItem(p models.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen || p.Stock <= 0 {
		return false
	}

	if i := s.indexOf(p.ID); i >= 0 {
		line := &s.lines[i]
		line.Stock = p.Stock
		line.UnitPrice = p.Price
		if line.Quantity > line.Stock {
			line.Quantity = line.Stock
			return true
		}
		if line.Quantity >= line.Stock {
			return false
		}
		line.Quantity++
		return true
	}

	s.lines = append(s.lines, models.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
		Stock:     p.Stock,
		ImageRef:  p.Image,
	})
	return true
}

// Increment raises a line's quantity by one, capped at its stock.
func (s *Store) Increment(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if s.frozen || i < 0 || s.lines[i].Quantity >= s.lines[i].Stock {
		return false
	}
	s.lines[i].Quantity++
	return true
}

// Decrement lowers a line's quantity by one. A line never drops below 1;
// use RemoveItem to delete it.
func (s *Store) Decrement(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if s.frozen || i < 0 || s.lines[i].Quantity <= 1 {
		return false
	}
	s.lines[i].Quantity--
	return true
}

// RemoveItem deletes the line for productID.
func (s *Store) RemoveItem(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if s.frozen || i < 0 {
		return false
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return true
}

// Clear empties the cart. It ignores the frozen flag.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Restore replaces the cart with previously persisted lines. Duplicate products
// are merged, quantities are clamped to stock and empty lines are dropped.
func (s *Store) Restore(lines []models.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	for _, l := range lines {
		if i := s.indexOf(l.ProductID); i >= 0 {
			s.lines[i].Quantity += l.Quantity
			if s.lines[i].Quantity > s.lines[i].Stock {
				s.lines[i].Quantity = s.lines[i].Stock
			}
			continue
		}
		if l.Quantity > l.Stock {
			l.Quantity = l.Stock
		}
		if l.Quantity < 1 {
			continue
		}
		s.lines = append(s.lines, l)
	}
}

// Freeze makes every quantity mutation a no-op until Thaw.
func (s *Store) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Thaw re-enables mutations.
func (s *Store) Thaw() {
	s.mu.Lock()
	s.frozen = false
	s.mu.Unlock()
}

// Frozen reports whether the cart is read-only.
func (s *Store) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// Lines returns a copy of the current lines.
func (s *Store) Lines() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Line returns the line for productID.
func (s *Store) Line(productID string) (models.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(productID); i >= 0 {
		return s.lines[i], true
	}
	return models.CartLine{}, false
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// TotalItems is the sum of all quantities.
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice is the sum of unit price × quantity over all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// CanIncrement reports whether Increment would change the line.
func (s *Store) CanIncrement(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(productID)
	return !s.frozen && i >= 0 && s.lines[i].Quantity < s.lines[i].Stock
}

// CanDecrement reports whether Decrement would change the line.
func (s *Store) CanDecrement(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(productID)
	return !s.frozen && i >= 0 && s.lines[i].Quantity > 1
}
