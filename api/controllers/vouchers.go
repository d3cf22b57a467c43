package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taomall/marketplace-backend/api/responses"
	"github.com/taomall/marketplace-backend/api/validators"
	"github.com/taomall/marketplace-backend/internal/vouchers"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/logger"
)

type createVoucherRequest struct {
	Code              string          `json:"code" validate:"required"`
	Kind              string          `json:"kind" validate:"required"`
	Value             decimal.Decimal `json:"value"`
	MinOrderAmount    int64           `json:"minOrderAmount" validate:"gte=0"`
	MaxDiscountAmount *int64          `json:"maxDiscountAmount,omitempty" validate:"omitempty,gt=0"`
	UsageLimit        *int            `json:"usageLimit,omitempty" validate:"omitempty,gt=0"`
	StartsAt          *time.Time      `json:"startsAt,omitempty"`
	ExpiresAt         *time.Time      `json:"expiresAt,omitempty"`
}

type applyVoucherRequest struct {
	Code       string  `json:"code" validate:"required"`
	OrderTotal int64   `json:"orderTotal" validate:"gte=0"`
	ShopID     *string `json:"shopId,omitempty"`
}

func voucherActor(r *http.Request) (vouchers.Actor, error) {
	actor, err := requireActor(r)
	if err != nil {
		return vouchers.Actor{}, err
	}
	return vouchers.Actor{UserID: actor.UserID, Role: enums.Role(actor.Role), ShopID: actor.ShopID}, nil
}

// VoucherCreate serves both the seller and admin routes. The scope follows
// the caller's role.
func VoucherCreate(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := voucherActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createVoucherRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseVoucherKind(strings.TrimSpace(payload.Kind))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind").WithDetails(map[string]any{"field": "kind"}))
			return
		}

		voucher, err := svc.Create(r.Context(), actor, vouchers.CreateInput{
			Code:              payload.Code,
			Kind:              kind,
			Value:             payload.Value,
			MinOrderAmount:    payload.MinOrderAmount,
			MaxDiscountAmount: payload.MaxDiscountAmount,
			UsageLimit:        payload.UsageLimit,
			StartsAt:          payload.StartsAt,
			ExpiresAt:         payload.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, voucher)
	}
}

func VoucherList(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := voucherActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func VoucherDeactivate(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := voucherActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		voucherID, err := validators.ParseUUIDParam(r, "voucherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), actor, voucherID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// VoucherApply previews a discount for the buyer. Nothing is consumed.
func VoucherApply(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requireActor(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload applyVoucherRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shopID, err := parseOptionalUUID(payload.ShopID, "shopId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Apply(r.Context(), vouchers.ApplyInput{
			Code:       payload.Code,
			OrderTotal: payload.OrderTotal,
			ShopID:     shopID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
