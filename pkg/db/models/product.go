package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/pkg/enums"
)

// Product is a shop listing. Products without tiers sell from Stock directly;
// products with tiers sell from their Models.
type Product struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	ShopID            uuid.UUID             `gorm:"column:shop_id;type:uuid;not null;index"`
	Name              string                `gorm:"column:name;not null"`
	Description       string                `gorm:"column:description;not null;default:''"`
	Category          enums.ProductCategory `gorm:"column:category;not null"`
	CurrentPrice      int64                 `gorm:"column:current_price;not null"`
	DiscountPrice     *int64                `gorm:"column:discount_price"`
	Stock             int                   `gorm:"column:stock;not null;default:0"`
	Sold              int                   `gorm:"column:sold;not null;default:0"`
	DescriptionImages []string              `gorm:"column:description_images;type:jsonb;serializer:json"`
	IsActive          bool                  `gorm:"column:is_active;not null"`
	Tiers             []ProductTier         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Models            []ProductModel        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
