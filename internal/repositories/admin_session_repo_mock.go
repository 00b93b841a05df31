package repositories

import (
	"fmt"
	"sync"

	"crackerstore/internal/models"

	"github.com/google/uuid"
)

// MockAdminSessionRepository is an in-memory implementation of AdminSessionRepository.
type MockAdminSessionRepository struct {
	sessions map[string]models.AdminSession
	mu       sync.RWMutex
}

// NewMockAdminSessionRepository creates a new instance of MockAdminSessionRepository.
func NewMockAdminSessionRepository() *MockAdminSessionRepository {
	return &MockAdminSessionRepository{
		sessions: make(map[string]models.AdminSession),
	}
}

// Create adds a new session.
func (r *MockAdminSessionRepository) Create(session *models.AdminSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	r.sessions[session.ID] = *session
	return nil
}

// GetByID returns a session by its ID.
func (r *MockAdminSessionRepository) GetByID(id string) (*models.AdminSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("admin session %s: %w", id, ErrNotFound)
	}
	return &session, nil
}

// Delete removes a session by its ID.
func (r *MockAdminSessionRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}
