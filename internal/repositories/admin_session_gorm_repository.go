package repositories

import (
	"errors"
	"fmt"

	"crackerstore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMAdminSessionRepository is a GORM implementation of AdminSessionRepository.
type GORMAdminSessionRepository struct {
	db *gorm.DB
}

// NewGORMAdminSessionRepository creates a new instance of GORMAdminSessionRepository.
func NewGORMAdminSessionRepository(db *gorm.DB) *GORMAdminSessionRepository {
	return &GORMAdminSessionRepository{
		db: db,
	}
}

// Create stores a new admin session.
func (r *GORMAdminSessionRepository) Create(session *models.AdminSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create admin session: %w", err)
	}
	return nil
}

// GetByID retrieves an admin session by its ID.
func (r *GORMAdminSessionRepository) GetByID(id string) (*models.AdminSession, error) {
	var session models.AdminSession
	if err := r.db.First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("admin session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get admin session %s: %w", id, err)
	}
	return &session, nil
}

// Delete removes an admin session. Deleting a missing session is not an error.
func (r *GORMAdminSessionRepository) Delete(id string) error {
	if err := r.db.Delete(&models.AdminSession{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete admin session %s: %w", id, err)
	}
	return nil
}
