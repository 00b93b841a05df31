package repositories

import (
	"fmt"
	"sync"

	"crackerstore/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It keeps the backend's listing order.
type MockProductRepository struct {
	products map[string]models.Product
	order    []string
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns all products.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		productList = append(productList, r.products[id])
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return &product, nil
}

// ReplaceAll discards the cached catalogue and stores products in order.
// Later duplicates of an ID win.
func (r *MockProductRepository) ReplaceAll(products []models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products = make(map[string]models.Product, len(products))
	r.order = r.order[:0]
	for i, p := range products {
		if p.ID == "" {
			continue
		}
		if _, seen := r.products[p.ID]; !seen {
			r.order = append(r.order, p.ID)
		}
		p.Position = i
		r.products[p.ID] = p
	}
	return nil
}
