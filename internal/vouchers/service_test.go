package vouchers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/pkg/db/dbtest"
	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/metrics"
	"github.com/taomall/marketplace-backend/pkg/pagination"
)

type harness struct {
	svc    Service
	conn   *gorm.DB
	reg    *prometheus.Registry
	seller Actor
	admin  Actor
	shopID uuid.UUID
}

func newHarness(t *testing.T) harness {
	t.Helper()
	conn := dbtest.Open(t)
	reg := prometheus.NewRegistry()
	svc, err := NewService(NewRepository(conn), metrics.NewDomainMetrics(reg))
	require.NoError(t, err)
	shop := uuid.New()
	return harness{
		svc:    svc,
		conn:   conn,
		reg:    reg,
		seller: Actor{UserID: uuid.New(), Role: enums.RoleSeller, ShopID: &shop},
		admin:  Actor{UserID: uuid.New(), Role: enums.RoleAdmin},
		shopID: shop,
	}
}

func percentInput(code string, pct int64) CreateInput {
	return CreateInput{Code: code, Kind: enums.VoucherKindPercentage, Value: decimal.NewFromInt(pct)}
}

func TestCreateScopesByRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	shopVoucher, err := h.svc.Create(ctx, h.seller, percentInput(" shop10 ", 10))
	require.NoError(t, err)
	assert.Equal(t, "SHOP10", shopVoucher.Code)
	assert.Equal(t, enums.VoucherScopeShop, shopVoucher.Scope)
	require.NotNil(t, shopVoucher.ShopID)
	assert.Equal(t, h.shopID, *shopVoucher.ShopID)

	platform, err := h.svc.Create(ctx, h.admin, percentInput("MEGA", 5))
	require.NoError(t, err)
	assert.Equal(t, enums.VoucherScopePlatform, platform.Scope)
	assert.Nil(t, platform.ShopID)

	_, err = h.svc.Create(ctx, h.admin, percentInput("mega", 5))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = h.svc.Create(ctx, Actor{Role: enums.RoleBuyer}, percentInput("NOPE", 5))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = h.svc.Create(ctx, h.admin, percentInput("TOOMUCH", 150))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	past := time.Now().Add(-time.Hour)
	in := percentInput("BACKWARDS", 5)
	in.ExpiresAt = &past
	_, err = h.svc.Create(ctx, h.admin, in)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListAndDeactivate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, code := range []string{"AAA", "BBB", "CCC"} {
		_, err := h.svc.Create(ctx, h.seller, percentInput(code, 10))
		require.NoError(t, err)
	}
	otherShop := uuid.New()
	foreign, err := h.svc.Create(ctx, Actor{UserID: uuid.New(), Role: enums.RoleSeller, ShopID: &otherShop}, percentInput("DDD", 10))
	require.NoError(t, err)

	page, err := h.svc.List(ctx, h.seller, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	rest, err := h.svc.List(ctx, h.seller, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)

	require.True(t, pkgerrors.IsCode(h.svc.Deactivate(ctx, h.seller, foreign.ID), pkgerrors.CodeForbidden))
	require.NoError(t, h.svc.Deactivate(ctx, h.admin, foreign.ID))
	require.True(t, pkgerrors.IsCode(h.svc.Deactivate(ctx, h.seller, uuid.New()), pkgerrors.CodeNotFound))

	_, err = h.svc.Apply(ctx, ApplyInput{Code: "DDD", OrderTotal: 1000, ShopID: &otherShop})
	assertReason(t, err, ReasonInactive)
}

func TestApply(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	capAmount := int64(15000)
	in := percentInput("SALE20", 20)
	in.MaxDiscountAmount = &capAmount
	in.MinOrderAmount = 50000
	_, err := h.svc.Create(ctx, h.seller, in)
	require.NoError(t, err)

	res, err := h.svc.Apply(ctx, ApplyInput{Code: "sale20", OrderTotal: 60000, ShopID: &h.shopID})
	require.NoError(t, err)
	assert.EqualValues(t, 12000, res.DiscountAmount)
	assert.Equal(t, enums.VoucherScopeShop, res.Scope)

	res, err = h.svc.Apply(ctx, ApplyInput{Code: "SALE20", OrderTotal: 200000, ShopID: &h.shopID})
	require.NoError(t, err)
	assert.EqualValues(t, 15000, res.DiscountAmount)

	_, err = h.svc.Apply(ctx, ApplyInput{Code: "SALE20", OrderTotal: 40000, ShopID: &h.shopID})
	assertReason(t, err, ReasonMinOrder)

	_, err = h.svc.Apply(ctx, ApplyInput{Code: "SALE20", OrderTotal: 60000})
	assertReason(t, err, ReasonShopMismatch)

	_, err = h.svc.Apply(ctx, ApplyInput{Code: "MISSING", OrderTotal: 60000})
	assertReason(t, err, ReasonNotFound)

	assert.Equal(t, 2.0, counterValue(t, h.reg, "shop", metrics.ResultApplied))
	assert.Equal(t, 2.0, counterValue(t, h.reg, "shop", metrics.ResultRejected))
}

func TestClaimRedeemsWithinLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := CreateInput{Code: "ONCE", Kind: enums.VoucherKindFixed, Value: decimal.NewFromInt(10000), UsageLimit: intPtr(1)}
	_, err := h.svc.Create(ctx, h.admin, in)
	require.NoError(t, err)

	total := func(*models.Voucher) (int64, *uuid.UUID) { return 80000, nil }

	_, err = h.svc.Claim(ctx, h.conn, "ONCE", enums.VoucherScopeShop, total)
	assertReason(t, err, ReasonScopeMismatch)

	res, err := h.svc.Claim(ctx, h.conn, "once", enums.VoucherScopePlatform, total)
	require.NoError(t, err)
	assert.EqualValues(t, 10000, res.DiscountAmount)

	var stored models.Voucher
	require.NoError(t, h.conn.Where("code = ?", "ONCE").First(&stored).Error)
	assert.Equal(t, 1, stored.UsedCount)

	_, err = h.svc.Claim(ctx, h.conn, "ONCE", enums.VoucherScopePlatform, total)
	assertReason(t, err, ReasonUsageExhausted)
}

func assertReason(t *testing.T, err error, reason string) {
	t.Helper()
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, reason, details["reason"])
}

func counterValue(t *testing.T, reg *prometheus.Registry, scope, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "voucher_apply_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["scope"] == scope && labels["result"] == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRepositoryDeactivateExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	insert := func(code string, expires *time.Time) uuid.UUID {
		v := &models.Voucher{
			Code:      code,
			Scope:     enums.VoucherScopePlatform,
			Kind:      enums.VoucherKindFixed,
			Value:     decimal.NewFromInt(1000),
			StartsAt:  now.Add(-24 * time.Hour),
			ExpiresAt: expires,
			IsActive:  true,
			CreatedBy: uuid.New(),
		}
		require.NoError(t, h.conn.Create(v).Error)
		return v.ID
	}
	expired := insert("OLD", &past)
	live := insert("LIVE", &future)
	open := insert("OPEN", nil)

	repo := NewRepository(h.conn)
	n, err := repo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for id, active := range map[uuid.UUID]bool{expired: false, live: true, open: true} {
		v, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, active, v.IsActive, v.Code)
	}
}
