package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/internal/orders"
	"github.com/taomall/marketplace-backend/pkg/db"
	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/idempotency"
	"github.com/taomall/marketplace-backend/pkg/logger"
	"github.com/taomall/marketplace-backend/pkg/outbox"
	"github.com/taomall/marketplace-backend/pkg/outbox/payloads"
	"github.com/taomall/marketplace-backend/pkg/vnpay"
)

// ReturnConsumer names the idempotency scope of gateway callbacks.
const ReturnConsumer = "vnpay-return"

// Gateway is the VNPay client surface payments needs.
type Gateway interface {
	BuildPaymentURL(req vnpay.PaymentRequest) (string, error)
	VerifyReturn(values url.Values) (vnpay.ReturnResult, error)
}

type Service interface {
	CreatePaymentURL(ctx context.Context, userID, orderID uuid.UUID, clientIP string) (*PaymentURLResult, error)
	HandleReturn(ctx context.Context, query url.Values) (*ReturnOutcome, error)
}

type PaymentURLResult struct {
	PaymentURL string `json:"paymentUrl"`
	TxnRef     string `json:"txnRef"`
}

// ReturnOutcome reports the order state after a gateway callback. Duplicate
// marks a callback that was already handled.
type ReturnOutcome struct {
	OrderID       uuid.UUID           `json:"orderId"`
	Success       bool                `json:"success"`
	ResponseCode  string              `json:"responseCode"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	Duplicate     bool                `json:"duplicate"`
}

type Deps struct {
	Orders      orders.Repository
	Tx          db.TxRunner
	Gateway     Gateway
	Idempotency *idempotency.Manager
	Outbox      outbox.Emitter
	Logger      *logger.Logger
}

type service struct {
	Deps
	now func() time.Time
}

// NewService builds the payment service. A nil Gateway is allowed and makes
// every payment call fail with DEPENDENCY_ERROR.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Idempotency == nil:
		return nil, fmt.Errorf("idempotency manager required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{Deps: deps, now: time.Now}, nil
}

func (s *service) CreatePaymentURL(ctx context.Context, userID, orderID uuid.UUID, clientIP string) (*PaymentURLResult, error) {
	if s.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vnpay is not configured")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case order.UserID != userID:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	case order.PaymentMethod != enums.PaymentMethodVNPay:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid through vnpay")
	case order.PaymentStatus == enums.PaymentStatusPaid:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	case order.AmountDue <= 0:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has nothing to pay")
	}

	ref := TxnRef(order.ID, s.now())
	payURL, err := s.Gateway.BuildPaymentURL(vnpay.PaymentRequest{
		TxnRef:    ref,
		Amount:    order.AmountDue,
		OrderInfo: fmt.Sprintf("Thanh toan don hang %s", order.ID),
		ClientIP:  clientIP,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build payment url")
	}

	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.Orders.WithTx(tx).SetPaymentRef(ctx, order.ID, ref); err != nil {
			return err
		}
		return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRequested,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.RoleBuyer)},
			Data:          payloads.PaymentRequestedEvent{OrderID: order.ID, TxnRef: ref, Amount: order.AmountDue},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment request")
	}
	return &PaymentURLResult{PaymentURL: payURL, TxnRef: ref}, nil
}

func (s *service) HandleReturn(ctx context.Context, query url.Values) (*ReturnOutcome, error) {
	if s.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vnpay is not configured")
	}
	result, err := s.Gateway.VerifyReturn(query)
	if err != nil {
		if errors.Is(err, vnpay.ErrInvalidSignature) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment signature")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment callback")
	}
	orderID, err := OrderIDFromTxnRef(result.TxnRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment callback")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if result.Success && result.Amount != order.AmountDue {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "paid amount %d does not match amount due %d", result.Amount, order.AmountDue)
	}

	callbackID := fmt.Sprintf("%s:%s:%s", result.TxnRef, result.ResponseCode, result.TransactionNo)
	seen, err := s.Idempotency.CheckAndMarkProcessed(ctx, ReturnConsumer, callbackID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check callback idempotency")
	}
	if seen {
		return outcome(order, result, true), nil
	}

	if err := s.applyResult(ctx, order, result); err != nil {
		if relErr := s.Idempotency.Release(ctx, ReturnConsumer, callbackID); relErr != nil && s.Logger != nil {
			s.Logger.Error(s.Logger.WithField(ctx, "txn_ref", result.TxnRef), "release callback key", relErr)
		}
		return nil, err
	}

	order, err = s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		logCtx := s.Logger.WithFields(ctx, map[string]any{
			"order_id":      order.ID.String(),
			"txn_ref":       result.TxnRef,
			"response_code": result.ResponseCode,
		})
		if result.Success {
			s.Logger.Info(logCtx, "vnpay payment settled")
		} else {
			s.Logger.Warn(logCtx, "vnpay payment failed")
		}
	}
	return outcome(order, result, false), nil
}

// applyResult records the callback. Failures only touch payment_status, so
// the order stays open for another attempt.
func (s *service) applyResult(ctx context.Context, order *models.Order, result vnpay.ReturnResult) error {
	err := s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.Orders.WithTx(tx)
		if result.Success {
			changed, err := repo.MarkPaid(ctx, order.ID, result.TransactionNo, s.now().UTC())
			if err != nil || !changed {
				return err
			}
			return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderPaid,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data:          payloads.OrderPaidEvent{OrderID: order.ID, TransactionNo: result.TransactionNo, Amount: result.Amount},
			})
		}
		changed, err := repo.MarkPaymentFailed(ctx, order.ID)
		if err != nil || !changed {
			return err
		}
		return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data:          payloads.PaymentFailedEvent{OrderID: order.ID, ResponseCode: result.ResponseCode},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment result")
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func outcome(order *models.Order, result vnpay.ReturnResult, duplicate bool) *ReturnOutcome {
	return &ReturnOutcome{
		OrderID:       order.ID,
		Success:       result.Success,
		ResponseCode:  result.ResponseCode,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Duplicate:     duplicate,
	}
}
