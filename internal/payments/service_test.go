package payments

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/internal/orders"
	"github.com/taomall/marketplace-backend/pkg/config"
	"github.com/taomall/marketplace-backend/pkg/db"
	"github.com/taomall/marketplace-backend/pkg/db/dbtest"
	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/idempotency"
	"github.com/taomall/marketplace-backend/pkg/outbox"
	"github.com/taomall/marketplace-backend/pkg/redis/redistest"
	"github.com/taomall/marketplace-backend/pkg/types"
	"github.com/taomall/marketplace-backend/pkg/vnpay"
)

const secret = "test-secret"

type fixture struct {
	svc  Service
	conn *gorm.DB
	kv   *redistest.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	gateway, err := vnpay.New(config.VNPayConfig{
		TmnCode:    "TAOMALL1",
		HashSecret: secret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://shop.example/payments/return",
		Locale:     "vn",
		Version:    "2.1.0",
	})
	require.NoError(t, err)
	kv := redistest.New()
	guard, err := idempotency.NewManager(kv, time.Hour)
	require.NoError(t, err)
	svc, err := NewService(Deps{
		Orders:      orders.NewRepository(conn),
		Tx:          db.Wrap(conn),
		Gateway:     gateway,
		Idempotency: guard,
		Outbox:      outbox.NewService(outbox.NewRepository(conn), nil),
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn, kv: kv}
}

func (f fixture) order(t *testing.T, user uuid.UUID, method enums.PaymentMethod, due int64) *models.Order {
	t.Helper()
	o := &models.Order{
		UserID:        user,
		Status:        enums.OrderStatusPendingPayment,
		PaymentMethod: method,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Subtotal:      due,
		AmountDue:     due,
		ShippingAddress: types.Address{
			RecipientName: "Lan", Phone: "0901234567", Line1: "1 Le Loi", District: "1", City: "HCM", Country: "VN",
		},
	}
	require.NoError(t, f.conn.Create(o).Error)
	return o
}

func callback(ref string, amount int64, code, txnNo string) url.Values {
	v := url.Values{}
	v.Set("vnp_TxnRef", ref)
	v.Set("vnp_Amount", strconv.FormatInt(amount*100, 10))
	v.Set("vnp_ResponseCode", code)
	v.Set("vnp_TransactionStatus", code)
	v.Set("vnp_TransactionNo", txnNo)
	v.Set("vnp_BankCode", "NCB")
	v.Set("vnp_SecureHash", vnpay.Sign(secret, v.Encode()))
	return v
}

func (f fixture) events(t *testing.T, eventType enums.OutboxEventType) int {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return int(n)
}

func TestCreatePaymentURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	o := f.order(t, user, enums.PaymentMethodVNPay, 178000)

	res, err := f.svc.CreatePaymentURL(ctx, user, o.ID, "10.0.0.1")
	require.NoError(t, err)
	parsed, err := url.Parse(res.PaymentURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "17800000", q.Get("vnp_Amount"))
	assert.Equal(t, res.TxnRef, q.Get("vnp_TxnRef"))
	assert.NotEmpty(t, q.Get("vnp_SecureHash"))

	id, err := OrderIDFromTxnRef(res.TxnRef)
	require.NoError(t, err)
	assert.Equal(t, o.ID, id)
	assert.Equal(t, 1, f.events(t, enums.EventPaymentRequested))

	_, err = f.svc.CreatePaymentURL(ctx, uuid.New(), o.ID, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	cod := f.order(t, user, enums.PaymentMethodCOD, 1000)
	_, err = f.svc.CreatePaymentURL(ctx, user, cod.ID, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestHandleReturnSuccessIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, uuid.New(), enums.PaymentMethodVNPay, 50000)
	ref := TxnRef(o.ID, time.Now())

	out, err := f.svc.HandleReturn(ctx, callback(ref, 50000, vnpay.ResponseSuccess, "14000001"))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.False(t, out.Duplicate)
	assert.Equal(t, enums.PaymentStatusPaid, out.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPlaced, out.Status)

	again, err := f.svc.HandleReturn(ctx, callback(ref, 50000, vnpay.ResponseSuccess, "14000001"))
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Equal(t, 1, f.events(t, enums.EventOrderPaid))

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, "id = ?", o.ID).Error)
	require.NotNil(t, stored.PaidAt)
	require.NotNil(t, stored.PaymentRef)
	assert.Equal(t, "14000001", *stored.PaymentRef)
}

func TestHandleReturnFailureKeepsOrderOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, uuid.New(), enums.PaymentMethodVNPay, 50000)

	out, err := f.svc.HandleReturn(ctx, callback(TxnRef(o.ID, time.Now()), 50000, "24", ""))
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, enums.PaymentStatusFailed, out.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPendingPayment, out.Status)
	assert.Equal(t, 1, f.events(t, enums.EventPaymentFailed))

	retry, err := f.svc.HandleReturn(ctx, callback(TxnRef(o.ID, time.Now().Add(time.Minute)), 50000, vnpay.ResponseSuccess, "14000002"))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, retry.PaymentStatus)
}

func TestHandleReturnRejectsTampering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t, uuid.New(), enums.PaymentMethodVNPay, 50000)
	ref := TxnRef(o.ID, time.Now())

	forged := callback(ref, 50000, vnpay.ResponseSuccess, "1")
	forged.Set("vnp_Amount", "100")
	_, err := f.svc.HandleReturn(ctx, forged)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.HandleReturn(ctx, callback(ref, 40000, vnpay.ResponseSuccess, "1"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.HandleReturn(ctx, callback("garbage", 50000, vnpay.ResponseSuccess, "1"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Zero(t, f.kv.Len("tm:idempotency"))
}

func TestTxnRefRoundTrip(t *testing.T) {
	id := uuid.New()
	ref := TxnRef(id, time.Unix(1700000000, 0))
	assert.True(t, strings.HasSuffix(ref, "T1700000000"))
	got, err := OrderIDFromTxnRef(ref)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = OrderIDFromTxnRef("short")
	assert.Error(t, err)
}
