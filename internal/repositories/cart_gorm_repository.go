package repositories

import (
	"fmt"

	"crackerstore/internal/models"

	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// Load reads a session's cart rows.
func (r *GORMCartRepository) Load(sessionID string) ([]models.CartLine, error) {
	var records []models.CartRecord
	if err := r.db.Where("session_id = ?", sessionID).Order("position asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart for session %s: %w", sessionID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("cart for session %s: %w", sessionID, ErrNotFound)
	}

	lines := make([]models.CartLine, 0, len(records))
	for _, rec := range records {
		lines = append(lines, models.CartLine{
			ProductID: rec.ProductID,
			Name:      rec.Name,
			UnitPrice: rec.UnitPrice,
			Quantity:  rec.Quantity,
			Stock:     rec.Stock,
			ImageRef:  rec.ImageRef,
		})
	}
	return lines, nil
}

// Save replaces a session's cart rows. An empty cart deletes them.
func (r *GORMCartRepository) Save(sessionID string, lines []models.CartLine) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.CartRecord{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		records := make([]models.CartRecord, 0, len(lines))
		for i, l := range lines {
			records = append(records, models.CartRecord{
				SessionID: sessionID,
				Position:  i,
				ProductID: l.ProductID,
				Name:      l.Name,
				UnitPrice: l.UnitPrice,
				Quantity:  l.Quantity,
				Stock:     l.Stock,
				ImageRef:  l.ImageRef,
			})
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save cart for session %s: %w", sessionID, err)
	}
	return nil
}

// Delete removes a session's cart rows.
func (r *GORMCartRepository) Delete(sessionID string) error {
	if err := r.db.Where("session_id = ?", sessionID).Delete(&models.CartRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete cart for session %s: %w", sessionID, err)
	}
	return nil
}
