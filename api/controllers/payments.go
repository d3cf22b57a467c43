package controllers

import (
	"net/http"

	"github.com/taomall/marketplace-backend/api/middleware"
	"github.com/taomall/marketplace-backend/api/responses"
	"github.com/taomall/marketplace-backend/api/validators"
	"github.com/taomall/marketplace-backend/internal/payments"
	"github.com/taomall/marketplace-backend/pkg/logger"
)

type paymentURLRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

func PaymentCreateURL(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload paymentURLRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ids, err := parseUUIDList([]string{payload.OrderID}, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreatePaymentURL(r.Context(), actor.UserID, ids[0], middleware.ClientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PaymentReturn is where the gateway sends the shopper back. The signed
// query string is the only trust anchor, so the route is public.
func PaymentReturn(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := svc.HandleReturn(r.Context(), r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"order_id":      outcome.OrderID.String(),
				"response_code": outcome.ResponseCode,
				"duplicate":     outcome.Duplicate,
			})
			logg.Info(ctx, "payment.return")
		}
		responses.WriteSuccess(w, outcome)
	}
}
