package models

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductModel is one purchasable option combination. TierKey is the
// TierIndex joined with "-" and backs the uniqueness of the combination.
type ProductModel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_product_models_tier_key,priority:1"`
	TierKey   string    `gorm:"column:tier_key;not null;uniqueIndex:ux_product_models_tier_key,priority:2"`
	TierIndex []int     `gorm:"column:tier_index;type:jsonb;serializer:json;not null"`
	Price     int64     `gorm:"column:price;not null"`
	Stock     int       `gorm:"column:stock;not null"`
	SKU       string    `gorm:"column:sku;not null"`
	Sold      int       `gorm:"column:sold;not null"`
}

func (m *ProductModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.TierKey = TierKey(m.TierIndex)
	return nil
}

// TierKey renders a tier index vector as a stable string key.
func TierKey(tierIndex []int) string {
	parts := make([]string, len(tierIndex))
	for i, idx := range tierIndex {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, "-")
}
