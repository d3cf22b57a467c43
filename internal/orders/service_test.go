package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/internal/cart"
	product "github.com/taomall/marketplace-backend/internal/products"
	"github.com/taomall/marketplace-backend/internal/vouchers"
	"github.com/taomall/marketplace-backend/pkg/db"
	"github.com/taomall/marketplace-backend/pkg/db/dbtest"
	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/metrics"
	"github.com/taomall/marketplace-backend/pkg/outbox"
	"github.com/taomall/marketplace-backend/pkg/pagination"
	"github.com/taomall/marketplace-backend/pkg/types"
)

type env struct {
	conn     *gorm.DB
	svc      Service
	cart     cart.Service
	vouchers vouchers.Service
	reg      *prometheus.Registry
	buyer    uuid.UUID
	shirt    *models.Product
	mug      *models.Product
}

func setup(t *testing.T) env {
	t.Helper()
	conn := dbtest.Open(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewDomainMetrics(reg)
	productRepo := product.NewRepository(conn)

	cartSvc, err := cart.NewService(cart.NewRepository(conn), productRepo)
	require.NoError(t, err)
	voucherSvc, err := vouchers.NewService(vouchers.NewRepository(conn), m)
	require.NoError(t, err)
	svc, err := NewService(Deps{
		Repo:     NewRepository(conn),
		Tx:       db.Wrap(conn),
		Cart:     cartSvc,
		Products: productRepo,
		Vouchers: voucherSvc,
		Outbox:   outbox.NewService(outbox.NewRepository(conn), nil),
		Metrics:  m,
	})
	require.NoError(t, err)

	shirt := &models.Product{
		ShopID:            uuid.New(),
		Name:              "Shirt",
		Category:          enums.ProductCategoryFashion,
		CurrentPrice:      100000,
		IsActive:          true,
		DescriptionImages: []string{},
		Tiers: []models.ProductTier{
			{Position: 0, Name: "Color", Options: []string{"Red", "Blue"}, Images: [][]string{}},
		},
		Models: []models.ProductModel{
			{TierIndex: []int{0}, Price: 100000, Stock: 3, SKU: "RED"},
			{TierIndex: []int{1}, Price: 120000, Stock: 1, SKU: "BLUE"},
		},
	}
	require.NoError(t, conn.Create(shirt).Error)
	mug := &models.Product{
		ShopID:            uuid.New(),
		Name:              "Mug",
		Category:          enums.ProductCategoryHome,
		CurrentPrice:      50000,
		Stock:             10,
		IsActive:          true,
		DescriptionImages: []string{},
	}
	require.NoError(t, conn.Create(mug).Error)

	return env{conn: conn, svc: svc, cart: cartSvc, vouchers: voucherSvc, reg: reg, buyer: uuid.New(), shirt: shirt, mug: mug}
}

func (e env) add(t *testing.T, productID uuid.UUID, tierIndex []int, qty int) uuid.UUID {
	t.Helper()
	line, err := e.cart.AddItem(context.Background(), e.buyer, cart.AddItemInput{ProductID: productID, TierIndex: tierIndex, Quantity: qty})
	require.NoError(t, err)
	return line.ID
}

func address() types.Address {
	return types.Address{RecipientName: "Lan", Phone: "0901234567", Line1: "12 Hang Bai", District: "Hoan Kiem", City: "Ha Noi"}
}

func strPtr(v string) *string { return &v }

func TestCreateOrderCODHappyPath(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	shirtLine := e.add(t, e.shirt.ID, []int{0}, 2)
	mugLine := e.add(t, e.mug.ID, nil, 1)

	res, err := e.svc.Create(ctx, e.buyer, CreateOrderInput{
		CartItemIDs:     []uuid.UUID{shirtLine, mugLine, shirtLine},
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 250000, res.Subtotal)
	assert.EqualValues(t, 250000, res.AmountDue)
	assert.False(t, res.PaymentRequired)
	assert.Equal(t, enums.OrderStatusPlaced, res.Status)

	var model models.ProductModel
	require.NoError(t, e.conn.Where("product_id = ? AND tier_key = ?", e.shirt.ID, "0").First(&model).Error)
	assert.Equal(t, 1, model.Stock)
	assert.Equal(t, 2, model.Sold)
	var mug models.Product
	require.NoError(t, e.conn.First(&mug, "id = ?", e.mug.ID).Error)
	assert.Equal(t, 9, mug.Stock)
	assert.Equal(t, 1, mug.Sold)

	cartView, err := e.cart.ListItems(ctx, e.buyer)
	require.NoError(t, err)
	assert.Empty(t, cartView.Items)

	order, err := e.svc.Get(ctx, e.buyer, res.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "VN", order.ShippingAddress.Country)
	for _, item := range order.Items {
		if item.ProductID == e.shirt.ID {
			assert.Equal(t, []string{"Red"}, item.OptionLabels)
			assert.Equal(t, "RED", item.SKU)
			assert.NotNil(t, item.ModelID)
		}
	}

	var events []models.OutboxEvent
	require.NoError(t, e.conn.Where("event_type = ?", enums.EventOrderCreated).Find(&events).Error)
	assert.Len(t, events, 1)

	_, err = e.svc.Get(ctx, uuid.New(), res.OrderID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateOrderWithVouchers(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	shopID := e.shirt.ShopID
	_, err := e.vouchers.Create(ctx, vouchers.Actor{UserID: uuid.New(), Role: enums.RoleSeller, ShopID: &shopID}, vouchers.CreateInput{
		Code: "SHIRT10", Kind: enums.VoucherKindPercentage, Value: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	_, err = e.vouchers.Create(ctx, vouchers.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}, vouchers.CreateInput{
		Code: "FREESHIP", Kind: enums.VoucherKindFixed, Value: decimal.NewFromInt(30000),
	})
	require.NoError(t, err)

	shirtLine := e.add(t, e.shirt.ID, []int{1}, 1)
	mugLine := e.add(t, e.mug.ID, nil, 2)

	res, err := e.svc.Create(ctx, e.buyer, CreateOrderInput{
		CartItemIDs:         []uuid.UUID{shirtLine, mugLine},
		ShippingAddress:     address(),
		PaymentMethod:       enums.PaymentMethodVNPay,
		VoucherShopCode:     strPtr("shirt10"),
		VoucherPlatformCode: strPtr(" FREESHIP "),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 220000, res.Subtotal)
	assert.EqualValues(t, 12000, res.ShopDiscount, "10% of the shirt shop's 120000 only")
	assert.EqualValues(t, 30000, res.PlatformDiscount)
	assert.EqualValues(t, 178000, res.AmountDue)
	assert.True(t, res.PaymentRequired)
	assert.Equal(t, enums.OrderStatusPendingPayment, res.Status)

	var v models.Voucher
	require.NoError(t, e.conn.Where("code = ?", "SHIRT10").First(&v).Error)
	assert.Equal(t, 1, v.UsedCount)

	assert.Equal(t, 1.0, counter(t, e.reg, "orders_created_total", map[string]string{"payment_method": "vnpay"}))
}

func TestCreateOrderRollsBackOnFailure(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, err := e.vouchers.Create(ctx, vouchers.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}, vouchers.CreateInput{
		Code: "BIGSPEND", Kind: enums.VoucherKindFixed, Value: decimal.NewFromInt(10000), MinOrderAmount: 1000000,
	})
	require.NoError(t, err)
	line := e.add(t, e.shirt.ID, []int{0}, 1)

	_, err = e.svc.Create(ctx, e.buyer, CreateOrderInput{
		CartItemIDs:         []uuid.UUID{line},
		ShippingAddress:     address(),
		PaymentMethod:       enums.PaymentMethodCOD,
		VoucherPlatformCode: strPtr("BIGSPEND"),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	var count int64
	require.NoError(t, e.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	cartView, err := e.cart.ListItems(ctx, e.buyer)
	require.NoError(t, err)
	assert.Len(t, cartView.Items, 1, "cart untouched")
	var model models.ProductModel
	require.NoError(t, e.conn.Where("product_id = ? AND tier_key = ?", e.shirt.ID, "0").First(&model).Error)
	assert.Equal(t, 3, model.Stock)
}

func TestCreateOrderStockAndOwnership(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	line := e.add(t, e.shirt.ID, []int{1}, 1)
	require.NoError(t, e.conn.Model(&models.ProductModel{}).Where("product_id = ?", e.shirt.ID).Update("stock", 0).Error)

	_, err := e.svc.Create(ctx, e.buyer, CreateOrderInput{CartItemIDs: []uuid.UUID{line}, ShippingAddress: address(), PaymentMethod: enums.PaymentMethodCOD})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = e.svc.Create(ctx, uuid.New(), CreateOrderInput{CartItemIDs: []uuid.UUID{line}, ShippingAddress: address(), PaymentMethod: enums.PaymentMethodCOD})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = e.svc.Create(ctx, e.buyer, CreateOrderInput{CartItemIDs: []uuid.UUID{line}, ShippingAddress: types.Address{Line1: "x"}, PaymentMethod: enums.PaymentMethodCOD})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = e.svc.Create(ctx, e.buyer, CreateOrderInput{CartItemIDs: []uuid.UUID{line}, ShippingAddress: address(), PaymentMethod: "card"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListForUser(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		line := e.add(t, e.mug.ID, nil, 1)
		_, err := e.svc.Create(ctx, e.buyer, CreateOrderInput{CartItemIDs: []uuid.UUID{line}, ShippingAddress: address(), PaymentMethod: enums.PaymentMethodCOD})
		require.NoError(t, err)
	}

	page, err := e.svc.ListForUser(ctx, e.buyer, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	rest, err := e.svc.ListForUser(ctx, e.buyer, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.NotEqual(t, page.Items[0].ID, rest.Items[0].ID)

	other, err := e.svc.ListForUser(ctx, uuid.New(), pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func counter(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
