package repositories

import (
	"errors"
	"fmt"

	"crackerstore/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository. It keeps
// the last catalogue the backend returned so the storefront can still list
// products while the backend is unreachable.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products in listing order.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Order("position asc").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// ReplaceAll rewrites the cached catalogue in one transaction.
func (r *GORMProductRepository) ReplaceAll(products []models.Product) error {
	rows := make([]models.Product, 0, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		if p.ID == "" {
			continue
		}
		p.Position = i
		if j, ok := index[p.ID]; ok {
			rows[j] = p
			continue
		}
		index[p.ID] = len(rows)
		rows = append(rows, p)
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace catalogue: %w", err)
	}
	return nil
}
