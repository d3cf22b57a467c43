package controllers

import (
	"net/http"
	"strings"

	"github.com/taomall/marketplace-backend/api/responses"
	"github.com/taomall/marketplace-backend/api/validators"
	productsvc "github.com/taomall/marketplace-backend/internal/products"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/logger"
	"github.com/taomall/marketplace-backend/pkg/variants"
)

const maxSearchQueryLen = 120

type priceRequest struct {
	CurrentPrice  int64  `json:"currentPrice" validate:"gte=0"`
	DiscountPrice *int64 `json:"discountPrice,omitempty" validate:"omitempty,gte=0"`
}

func (p priceRequest) toPrice() variants.Price {
	return variants.Price{CurrentPrice: p.CurrentPrice, DiscountPrice: p.DiscountPrice}
}

type tierRequest struct {
	Name      string     `json:"name" validate:"required"`
	Options   []string   `json:"options" validate:"required,min=1,dive,required"`
	HasImages bool       `json:"hasImages"`
	Images    [][]string `json:"images,omitempty"`
}

type modelRequest struct {
	ID        string `json:"id,omitempty"`
	TierIndex []int  `json:"tierIndex" validate:"dive,gte=0"`
	Price     int64  `json:"price" validate:"gte=0"`
	Stock     int    `json:"stock" validate:"gte=0"`
	SKU       string `json:"sku" validate:"max=100"`
}

type createProductRequest struct {
	Name              string         `json:"name" validate:"required,max=120"`
	Description       string         `json:"description" validate:"max=5000"`
	Category          string         `json:"category" validate:"required"`
	Price             priceRequest   `json:"price"`
	Stock             int            `json:"stock" validate:"gte=0"`
	TierVariations    []tierRequest  `json:"tierVariations" validate:"dive"`
	Models            []modelRequest `json:"models" validate:"dive"`
	DescriptionImages []string       `json:"descriptionImages" validate:"max=20,dive,required"`
}

type updateProductRequest struct {
	Name              *string         `json:"name,omitempty" validate:"omitempty,required,max=120"`
	Description       *string         `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category          *string         `json:"category,omitempty"`
	Price             *priceRequest   `json:"price,omitempty"`
	Stock             *int            `json:"stock,omitempty" validate:"omitempty,gte=0"`
	TierVariations    *[]tierRequest  `json:"tierVariations,omitempty" validate:"omitempty,dive"`
	Models            *[]modelRequest `json:"models,omitempty" validate:"omitempty,dive"`
	DescriptionImages *[]string       `json:"descriptionImages,omitempty" validate:"omitempty,max=20,dive,required"`
	IsActive          *bool           `json:"isActive,omitempty"`
}

type resolveModelRequest struct {
	TierIndex []int `json:"tierIndex"`
}

func parseCategory(raw string) (enums.ProductCategory, error) {
	category, err := enums.ParseProductCategory(strings.TrimSpace(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").WithDetails(map[string]any{"field": "category"})
	}
	return category, nil
}

func toTiers(in []tierRequest) []variants.Tier {
	tiers := make([]variants.Tier, 0, len(in))
	for _, t := range in {
		tiers = append(tiers, variants.Tier{
			Name:      t.Name,
			Options:   t.Options,
			HasImages: t.HasImages,
			Images:    t.Images,
		})
	}
	return tiers
}

func toModelInputs(in []modelRequest) []productsvc.ModelInput {
	out := make([]productsvc.ModelInput, 0, len(in))
	for _, m := range in {
		out = append(out, productsvc.ModelInput{
			ID:        m.ID,
			TierIndex: m.TierIndex,
			Price:     m.Price,
			Stock:     m.Stock,
			SKU:       m.SKU,
		})
	}
	return out
}

func (r createProductRequest) toInput() (productsvc.CreateProductInput, error) {
	category, err := parseCategory(r.Category)
	if err != nil {
		return productsvc.CreateProductInput{}, err
	}
	return productsvc.CreateProductInput{
		Name:              r.Name,
		Description:       r.Description,
		Category:          category,
		Price:             r.Price.toPrice(),
		Stock:             r.Stock,
		TierVariations:    toTiers(r.TierVariations),
		Models:            toModelInputs(r.Models),
		DescriptionImages: r.DescriptionImages,
	}, nil
}

func (r updateProductRequest) toInput() (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		Name:              r.Name,
		Description:       r.Description,
		Stock:             r.Stock,
		DescriptionImages: r.DescriptionImages,
		IsActive:          r.IsActive,
	}
	if r.Category != nil {
		category, err := parseCategory(*r.Category)
		if err != nil {
			return productsvc.UpdateProductInput{}, err
		}
		input.Category = &category
	}
	if r.Price != nil {
		price := r.Price.toPrice()
		input.Price = &price
	}
	if r.TierVariations != nil {
		tiers := toTiers(*r.TierVariations)
		input.TierVariations = &tiers
	}
	if r.Models != nil {
		models := toModelInputs(*r.Models)
		input.Models = &models
	}
	return input, nil
}

// ProductList serves the public catalogue, newest first.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shopID, err := validators.ParseQueryUUID(r, "shopId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.ListProductsInput{
			ShopID:     shopID,
			Query:      validators.SanitizeSearch(r.URL.Query().Get("q"), maxSearchQueryLen),
			Pagination: params,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := parseCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Category = &category
		}

		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductResolveModel maps an option selection to its model. An incomplete
// selection answers matched=false rather than an error.
func ProductResolveModel(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload resolveModelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ResolveModel(r.Context(), productID, payload.TierIndex)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SellerCreateProduct handles product creation for the caller's shop.
func SellerCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := requireShop(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), shopID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// SellerGetProduct returns one of the caller's products, deactivated ones included.
func SellerGetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := requireShop(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetShopProduct(r.Context(), shopID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func SellerUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := requireShop(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), shopID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func SellerDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := requireShop(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), shopID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
