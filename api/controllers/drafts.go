package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taomall/marketplace-backend/api/responses"
	"github.com/taomall/marketplace-backend/api/validators"
	"github.com/taomall/marketplace-backend/internal/drafts"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/logger"
	"github.com/taomall/marketplace-backend/pkg/variants"
)

type startDraftRequest struct {
	ProductID   *string       `json:"productId,omitempty"`
	Name        string        `json:"name" validate:"max=120"`
	Description string        `json:"description" validate:"max=5000"`
	Category    string        `json:"category,omitempty"`
	Price       *priceRequest `json:"price,omitempty"`
	Stock       int           `json:"stock" validate:"gte=0"`
}

type addTierRequest struct {
	Name    string `json:"name"`
	Options string `json:"options"`
}

type imagesRequest struct {
	Images []string `json:"images"`
}

type updateModelRequest struct {
	TierIndex []int   `json:"tierIndex" validate:"required,dive,gte=0"`
	Price     *int64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock     *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
	SKU       *string `json:"sku,omitempty" validate:"omitempty,max=100"`
}

type submitDraftRequest struct {
	Name        *string       `json:"name,omitempty" validate:"omitempty,required,max=120"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    *string       `json:"category,omitempty"`
	Price       *priceRequest `json:"price,omitempty"`
	Stock       *int          `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

func parseIndexParam(r *http.Request, key string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, key)))
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key).WithDetails(map[string]any{"field": key})
	}
	return idx, nil
}

type draftScope struct {
	shopID  uuid.UUID
	draftID string
}

// draftHandler resolves the shop and draft id shared by every draft route.
func draftHandler(logg *logger.Logger, fn func(w http.ResponseWriter, r *http.Request, shop draftScope) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := requireShop(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scope := draftScope{shopID: shopID, draftID: strings.TrimSpace(chi.URLParam(r, "draftId"))}
		result, err := fn(w, r, scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func DraftStart(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := requireShop(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload startDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := parseOptionalUUID(payload.ProductID, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := drafts.StartInput{
			ProductID:   productID,
			Name:        payload.Name,
			Description: payload.Description,
			Stock:       payload.Stock,
		}
		if payload.Category != "" {
			category, err := parseCategory(payload.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Category = category
		}
		if payload.Price != nil {
			input.Price = payload.Price.toPrice()
		}

		result, err := svc.Start(r.Context(), shopID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func DraftGet(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(logg, func(w http.ResponseWriter, r *http.Request, s draftScope) (any, error) {
		return svc.Get(r.Context(), s.shopID, s.draftID)
	})
}

func DraftDiscard(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(logg, func(w http.ResponseWriter, r *http.Request, s draftScope) (any, error) {
		if err := svc.Discard(r.Context(), s.shopID, s.draftID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "discarded"}, nil
	})
}

// DraftAddTier takes the options as one comma separated string, exactly as
// the seller typed them.
func DraftAddTier(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(logg, func(w http.ResponseWriter, r *http.Request, s draftScope) (any, error) {
		var payload addTierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.AddTier(r.Context(), s.shopID, s.draftID, payload.Name, payload.Options)
	})
}

func DraftRemoveTier(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(logg, func(w http.ResponseWriter, r *http.Request, s draftScope) (any, error) {
		tierIdx, err := parseIndexParam(r, "tier")
		if err != nil {
			return nil, err
		}
		return svc.RemoveTier(r.Context(), s.shopID, s.draftID, tierIdx)
	})
}

func DraftRemoveOption(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(logg, func(w http.ResponseWriter, r *http.Request, s draftScope) (any, error) {
		tierIdx, err := parseIndexParam(r, "tier")
		if err != nil {
			return nil, err
		}
		optionIdx, err := parseIndexParam(r, "option")
		if err != nil {
			return nil, err
		}
		return svc.RemoveOption(r.Context(), s.shopID, s.draftID, tierIdx, optionIdx)
	})
}

func DraftSetOptionImages(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(logg, func(w http.ResponseWriter, r *http.Request, s draftScope) (any, error) {
		optionIdx, err := parseIndexParam(r, "option")
		if err != nil {
			return nil, err
		}
		var payload imagesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SetOptionImages(r.Context(), s.shopID, s.draftID, optionIdx, payload.Images)
	})
}

func DraftSetDescriptionImages(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(logg, func(w http.ResponseWriter, r *http.Request, s draftScope) (any, error) {
		var payload imagesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SetDescriptionImages(r.Context(), s.shopID, s.draftID, payload.Images)
	})
}

func DraftGenerateModels(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(logg, func(w http.ResponseWriter, r *http.Request, s draftScope) (any, error) {
		return svc.Regenerate(r.Context(), s.shopID, s.draftID)
	})
}

func DraftUpdateModel(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(logg, func(w http.ResponseWriter, r *http.Request, s draftScope) (any, error) {
		var payload updateModelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdateModel(r.Context(), s.shopID, s.draftID, variants.ModelEdit{
			TierIndex: payload.TierIndex,
			Price:     payload.Price,
			Stock:     payload.Stock,
			SKU:       payload.SKU,
		})
	})
}

func DraftSubmit(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return draftHandler(logg, func(w http.ResponseWriter, r *http.Request, s draftScope) (any, error) {
		var payload submitDraftRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				return nil, err
			}
		}
		input := drafts.SubmitInput{
			Name:        payload.Name,
			Description: payload.Description,
			Stock:       payload.Stock,
		}
		if payload.Category != nil {
			category, err := parseCategory(*payload.Category)
			if err != nil {
				return nil, err
			}
			input.Category = &category
		}
		if payload.Price != nil {
			price := payload.Price.toPrice()
			input.Price = &price
		}
		return svc.Submit(r.Context(), s.shopID, s.draftID, input)
	})
}

