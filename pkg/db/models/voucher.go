package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/pkg/enums"
)

// Voucher is a discount code scoped to one shop or to the whole platform.
// Value is a percentage for percentage vouchers and an amount otherwise.
type Voucher struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code              string             `gorm:"column:code;not null;uniqueIndex:ux_vouchers_code"`
	Scope             enums.VoucherScope `gorm:"column:scope;not null"`
	ShopID            *uuid.UUID         `gorm:"column:shop_id;type:uuid;index"`
	Kind              enums.VoucherKind  `gorm:"column:kind;not null"`
	Value             decimal.Decimal    `gorm:"column:value;type:numeric(14,2);not null"`
	MinOrderAmount    int64              `gorm:"column:min_order_amount;not null"`
	MaxDiscountAmount *int64             `gorm:"column:max_discount_amount"`
	UsageLimit        *int               `gorm:"column:usage_limit"`
	UsedCount         int                `gorm:"column:used_count;not null"`
	StartsAt          time.Time          `gorm:"column:starts_at;not null"`
	ExpiresAt         *time.Time         `gorm:"column:expires_at"`
	IsActive          bool               `gorm:"column:is_active;not null"`
	CreatedBy         uuid.UUID          `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Voucher) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
