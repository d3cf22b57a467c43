package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one line of a buyer's cart. A line is unique per product and
// option combination.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_cart_items_line,priority:1"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_line,priority:2"`
	TierKey   string    `gorm:"column:tier_key;not null;uniqueIndex:ux_cart_items_line,priority:3"`
	ShopID    uuid.UUID `gorm:"column:shop_id;type:uuid;not null"`
	TierIndex []int     `gorm:"column:tier_index;type:jsonb;serializer:json;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.TierKey = TierKey(c.TierIndex)
	return nil
}
