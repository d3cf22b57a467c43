package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/pkg/enums"
	"github.com/taomall/marketplace-backend/pkg/types"
)

// Order is a placed checkout. Amounts are whole currency units (VND).
type Order struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID              uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status              enums.OrderStatus   `gorm:"column:status;not null"`
	PaymentMethod       enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentStatus       enums.PaymentStatus `gorm:"column:payment_status;not null"`
	Subtotal            int64               `gorm:"column:subtotal;not null"`
	ShopDiscount        int64               `gorm:"column:shop_discount;not null"`
	PlatformDiscount    int64               `gorm:"column:platform_discount;not null"`
	AmountDue           int64               `gorm:"column:amount_due;not null"`
	VoucherShopCode     *string             `gorm:"column:voucher_shop_code"`
	VoucherPlatformCode *string             `gorm:"column:voucher_platform_code"`
	ShippingAddress     types.Address       `gorm:"column:shipping_address;type:jsonb;not null"`
	Note                string              `gorm:"column:note;not null"`
	PaymentRef          *string             `gorm:"column:payment_ref"`
	PaidAt              *time.Time          `gorm:"column:paid_at"`
	Items               []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
