package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCategory = "other"

// Product is a catalog entry. Deleting a product clears InOrder instead of
// removing the row so historical order lines keep their reference.
type Product struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(100);not null" json:"name"`
	Category  string          `gorm:"type:varchar(30);not null;index" json:"category"`
	Price     decimal.Decimal `gorm:"type:decimal(9,2);not null" json:"price"`
	Photo     string          `gorm:"type:varchar(255)" json:"photo,omitempty"`
	InOrder   bool            `gorm:"not null;index" json:"in_order"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
