package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductTier is one axis of variation. Position preserves tier order.
type ProductTier struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_product_tiers_position,priority:1"`
	Position  int        `gorm:"column:position;not null;uniqueIndex:ux_product_tiers_position,priority:2"`
	Name      string     `gorm:"column:name;not null"`
	Options   []string   `gorm:"column:options;type:jsonb;serializer:json;not null"`
	HasImages bool       `gorm:"column:has_images;not null"`
	Images    [][]string `gorm:"column:images;type:jsonb;serializer:json"`
}

func (t *ProductTier) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
