package repositories

import (
	"fmt"
	"sync"

	"crackerstore/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts map[string][]models.CartLine
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string][]models.CartLine),
	}
}

// Load returns a copy of the stored lines.
func (r *MockCartRepository) Load(sessionID string) ([]models.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines, ok := r.carts[sessionID]
	if !ok {
		return nil, fmt.Errorf("cart for session %s: %w", sessionID, ErrNotFound)
	}
	return append([]models.CartLine(nil), lines...), nil
}

// Save stores a copy of lines.
func (r *MockCartRepository) Save(sessionID string, lines []models.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(lines) == 0 {
		delete(r.carts, sessionID)
		return nil
	}
	r.carts[sessionID] = append([]models.CartLine(nil), lines...)
	return nil
}

// Delete removes a session's cart.
func (r *MockCartRepository) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, sessionID)
	return nil
}
