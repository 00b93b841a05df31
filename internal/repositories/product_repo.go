package repositories

import (
	"crackerstore/internal/models"
)

// ProductRepository defines the interface for catalogue data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	// ReplaceAll swaps the whole catalogue for a fresh backend listing.
	ReplaceAll(products []models.Product) error
}
