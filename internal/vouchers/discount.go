package vouchers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
)

// Rejection reasons reported in the details of a VALIDATION_ERROR.
const (
	ReasonNotFound       = "not_found"
	ReasonInactive       = "inactive"
	ReasonNotStarted     = "not_started"
	ReasonExpired        = "expired"
	ReasonMinOrder       = "min_order_not_met"
	ReasonUsageExhausted = "usage_exhausted"
	ReasonShopMismatch   = "shop_mismatch"
	ReasonScopeMismatch  = "scope_mismatch"
)

var hundred = decimal.NewFromInt(100)

// Check returns the reason v cannot be used for an order of total at now, or
// "" when it can. shopID is the shop the order lines belong to, if any.
func Check(v *models.Voucher, total int64, shopID *uuid.UUID, now time.Time) string {
	switch {
	case !v.IsActive:
		return ReasonInactive
	case now.Before(v.StartsAt):
		return ReasonNotStarted
	case v.ExpiresAt != nil && !now.Before(*v.ExpiresAt):
		return ReasonExpired
	case v.UsageLimit != nil && v.UsedCount >= *v.UsageLimit:
		return ReasonUsageExhausted
	case v.Scope == enums.VoucherScopeShop && (shopID == nil || v.ShopID == nil || *shopID != *v.ShopID):
		return ReasonShopMismatch
	case total < v.MinOrderAmount:
		return ReasonMinOrder
	}
	return ""
}

// Discount computes what v takes off total. Percentages round down to whole
// currency units, the cap applies next, and the result never exceeds total.
func Discount(v *models.Voucher, total int64) int64 {
	if total <= 0 {
		return 0
	}
	var amount int64
	switch v.Kind {
	case enums.VoucherKindPercentage:
		amount = decimal.NewFromInt(total).Mul(v.Value).Div(hundred).Floor().IntPart()
	default:
		amount = v.Value.Floor().IntPart()
	}
	if v.MaxDiscountAmount != nil && amount > *v.MaxDiscountAmount {
		amount = *v.MaxDiscountAmount
	}
	if amount > total {
		amount = total
	}
	if amount < 0 {
		return 0
	}
	return amount
}
