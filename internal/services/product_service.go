package services

import (
	"context"
	"fmt"

	"crackerstore/internal/metrics"
	"crackerstore/internal/models"
	"crackerstore/internal/repositories"

	"github.com/rs/zerolog/log"
)

// CatalogueSource lists the products the backend currently sells.
type CatalogueSource interface {
	HomeProducts(ctx context.Context) ([]models.Product, error)
}

// ProductService keeps the local catalogue cache in step with the backend.
type ProductService struct {
	source  CatalogueSource
	repo    repositories.ProductRepository
	metrics *metrics.Metrics
}

// NewProductService creates a new ProductService.
func NewProductService(source CatalogueSource, repo repositories.ProductRepository, m *metrics.Metrics) *ProductService {
	return &ProductService{
		source:  source,
		repo:    repo,
		metrics: m,
	}
}

// Refresh replaces the cached catalogue with the backend's listing and returns
// the number of products stored. On failure the previous cache is kept.
func (s *ProductService) Refresh(ctx context.Context) (int, error) {
	products, err := s.source.HomeProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh catalogue: %w", err)
	}
	if err := s.repo.ReplaceAll(products); err != nil {
		return 0, fmt.Errorf("failed to refresh catalogue: %w", err)
	}
	s.metrics.SetCatalogueSize(len(products))
	log.Info().Int("products", len(products)).Msg("catalogue refreshed")
	return len(products), nil
}

// GetAllProducts retrieves all cached products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single cached product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}
