package vouchers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	"github.com/taomall/marketplace-backend/pkg/types"
)

// VoucherDTO is the management view of a voucher.
type VoucherDTO struct {
	ID                uuid.UUID          `json:"id"`
	Code              string             `json:"code"`
	Scope             enums.VoucherScope `json:"scope"`
	ShopID            *uuid.UUID         `json:"shopId,omitempty"`
	Kind              enums.VoucherKind  `json:"kind"`
	Value             decimal.Decimal    `json:"value"`
	MinOrderAmount    int64              `json:"minOrderAmount"`
	MaxDiscountAmount *int64             `json:"maxDiscountAmount,omitempty"`
	UsageLimit        *int               `json:"usageLimit,omitempty"`
	UsedCount         int                `json:"usedCount"`
	StartsAt          time.Time          `json:"startsAt"`
	ExpiresAt         *time.Time         `json:"expiresAt,omitempty"`
	IsActive          bool               `json:"isActive"`
	CreatedAt         time.Time          `json:"createdAt"`
}

type VoucherListResult = types.Page[VoucherDTO]

// ApplyResult is the discount a code grants against an order total.
type ApplyResult struct {
	Code           string             `json:"code"`
	DiscountAmount int64              `json:"discountAmount"`
	Scope          enums.VoucherScope `json:"scope"`
	ShopID         *uuid.UUID         `json:"shopId,omitempty"`
}

func NewVoucherDTO(v *models.Voucher) VoucherDTO {
	return VoucherDTO{
		ID:                v.ID,
		Code:              v.Code,
		Scope:             v.Scope,
		ShopID:            v.ShopID,
		Kind:              v.Kind,
		Value:             v.Value,
		MinOrderAmount:    v.MinOrderAmount,
		MaxDiscountAmount: v.MaxDiscountAmount,
		UsageLimit:        v.UsageLimit,
		UsedCount:         v.UsedCount,
		StartsAt:          v.StartsAt,
		ExpiresAt:         v.ExpiresAt,
		IsActive:          v.IsActive,
		CreatedAt:         v.CreatedAt,
	}
}
