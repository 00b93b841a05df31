package repositories

import "crackerstore/internal/models"

// AdminSessionRepository defines the interface for admin session storage.
type AdminSessionRepository interface {
	Create(session *models.AdminSession) error
	GetByID(id string) (*models.AdminSession, error)
	Delete(id string) error
}
