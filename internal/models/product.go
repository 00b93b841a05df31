package models

import "github.com/shopspring/decimal"

// Product represents a catalogue entry as last reported by the backend.
type Product struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name          string          `json:"name" gorm:"type:varchar(255);not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	OriginalPrice decimal.Decimal `json:"original_price" gorm:"type:decimal(12,2)"`
	Stock         int             `json:"stock"`
	Image         string          `json:"image" gorm:"type:text"`
	Description   string          `json:"description" gorm:"type:text"`
	Category      string          `json:"category" gorm:"type:varchar(100)"`
	InStock       bool            `json:"in_stock"`
	Position      int             `json:"-" gorm:"index"` // order within the last home_products response
}

// TableName keeps the cached catalogue apart from any backend schema.
func (Product) TableName() string {
	return "catalogue_products"
}
