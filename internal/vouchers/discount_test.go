package vouchers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
)

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func TestDiscount(t *testing.T) {
	cases := []struct {
		name  string
		v     models.Voucher
		total int64
		want  int64
	}{
		{"fixed", models.Voucher{Kind: enums.VoucherKindFixed, Value: decimal.NewFromInt(20000)}, 100000, 20000},
		{"fixed above total", models.Voucher{Kind: enums.VoucherKindFixed, Value: decimal.NewFromInt(50000)}, 30000, 30000},
		{"percentage rounds down", models.Voucher{Kind: enums.VoucherKindPercentage, Value: decimal.NewFromFloat(12.5)}, 99999, 12499},
		{"percentage capped", models.Voucher{Kind: enums.VoucherKindPercentage, Value: decimal.NewFromInt(50), MaxDiscountAmount: int64Ptr(30000)}, 100000, 30000},
		{"zero total", models.Voucher{Kind: enums.VoucherKindFixed, Value: decimal.NewFromInt(10)}, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Discount(&tc.v, tc.total))
		})
	}
}

func TestCheck(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	shop := uuid.New()
	other := uuid.New()
	expired := now.Add(-time.Minute)
	base := func() models.Voucher {
		return models.Voucher{
			Scope:          enums.VoucherScopeShop,
			ShopID:         &shop,
			IsActive:       true,
			StartsAt:       now.Add(-time.Hour),
			MinOrderAmount: 1000,
		}
	}

	v := base()
	assert.Empty(t, Check(&v, 1000, &shop, now))

	v = base()
	v.IsActive = false
	assert.Equal(t, ReasonInactive, Check(&v, 1000, &shop, now))

	v = base()
	v.StartsAt = now.Add(time.Hour)
	assert.Equal(t, ReasonNotStarted, Check(&v, 1000, &shop, now))

	v = base()
	v.ExpiresAt = &expired
	assert.Equal(t, ReasonExpired, Check(&v, 1000, &shop, now))

	v = base()
	v.UsageLimit, v.UsedCount = intPtr(2), 2
	assert.Equal(t, ReasonUsageExhausted, Check(&v, 1000, &shop, now))

	v = base()
	assert.Equal(t, ReasonMinOrder, Check(&v, 999, &shop, now))
	assert.Equal(t, ReasonShopMismatch, Check(&v, 1000, &other, now))
	assert.Equal(t, ReasonShopMismatch, Check(&v, 1000, nil, now))
	assert.Equal(t, ReasonShopMismatch, Check(&v, 0, &other, now), "shop without lines is a mismatch, not a small order")
	assert.Equal(t, ReasonShopMismatch, Check(&v, 0, nil, now))

	v = base()
	v.Scope, v.ShopID = enums.VoucherScopePlatform, nil
	assert.Empty(t, Check(&v, 1000, nil, now))
}
