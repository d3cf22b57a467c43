package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem snapshots a purchased line so later catalog edits do not change
// historical orders.
type OrderItem struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	ShopID       uuid.UUID  `gorm:"column:shop_id;type:uuid;not null"`
	ModelID      *uuid.UUID `gorm:"column:model_id;type:uuid"`
	TierIndex    []int      `gorm:"column:tier_index;type:jsonb;serializer:json;not null"`
	ProductName  string     `gorm:"column:product_name;not null"`
	OptionLabels []string   `gorm:"column:option_labels;type:jsonb;serializer:json;not null"`
	SKU          string     `gorm:"column:sku;not null"`
	UnitPrice    int64      `gorm:"column:unit_price;not null"`
	Quantity     int        `gorm:"column:quantity;not null"`
	LineTotal    int64      `gorm:"column:line_total;not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
