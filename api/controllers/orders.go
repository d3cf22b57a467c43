package controllers

import (
	"net/http"
	"strings"

	"github.com/taomall/marketplace-backend/api/responses"
	"github.com/taomall/marketplace-backend/api/validators"
	"github.com/taomall/marketplace-backend/internal/orders"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/logger"
	"github.com/taomall/marketplace-backend/pkg/types"
)

type createOrderRequest struct {
	CartItemIDs         []string      `json:"cartItemIds" validate:"required,min=1,dive,required"`
	ShippingAddress     types.Address `json:"shippingAddress"`
	PaymentMethod       string        `json:"paymentMethod" validate:"required"`
	VoucherShopCode     *string       `json:"voucherShopCode,omitempty"`
	VoucherPlatformCode *string       `json:"voucherPlatformCode,omitempty"`
	Note                string        `json:"note" validate:"max=500"`
}

func optionalCode(raw *string) *string {
	if raw == nil {
		return nil
	}
	code := strings.TrimSpace(*raw)
	if code == "" {
		return nil
	}
	return &code
}

// OrderCreate checks out the selected cart lines. Repeating the request with
// the same Idempotency-Key replays the first response.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemIDs, err := parseUUIDList(payload.CartItemIDs, "cartItemIds")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paymentMethod").WithDetails(map[string]any{"field": "paymentMethod"}))
			return
		}

		result, err := svc.Create(r.Context(), actor.UserID, orders.CreateOrderInput{
			CartItemIDs:         itemIDs,
			ShippingAddress:     payload.ShippingAddress,
			PaymentMethod:       method,
			VoucherShopCode:     optionalCode(payload.VoucherShopCode),
			VoucherPlatformCode: optionalCode(payload.VoucherPlatformCode),
			Note:                payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListForUser(r.Context(), actor.UserID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), actor.UserID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
