package repositories

import "crackerstore/internal/models"

// CartRepository persists each shopper session's cart lines.
type CartRepository interface {
	// Load returns the saved lines in cart order, or ErrNotFound when the
	// session has nothing stored.
	Load(sessionID string) ([]models.CartLine, error)
	Save(sessionID string, lines []models.CartLine) error
	Delete(sessionID string) error
}
