package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/pkg/db"
	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/outbox"
	"github.com/taomall/marketplace-backend/pkg/outbox/payloads"
	"github.com/taomall/marketplace-backend/pkg/pagination"
	"github.com/taomall/marketplace-backend/pkg/variants"
)

// TempIDPrefix marks client-side model ids that the server must not persist.
const TempIDPrefix = "temp-"

// Service exposes catalog operations for sellers and shoppers.
type Service interface {
	CreateProduct(ctx context.Context, shopID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, shopID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	GetShopProduct(ctx context.Context, shopID, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	DeleteProduct(ctx context.Context, shopID, productID uuid.UUID) error
	ResolveModel(ctx context.Context, productID uuid.UUID, selection []int) (*ResolveResult, error)
}

// ModelInput is a model row as sent by the seller. ID may be a server uuid, a
// temp- placeholder, or empty.
type ModelInput struct {
	ID        string
	TierIndex []int
	Price     int64
	Stock     int
	SKU       string
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name              string
	Description       string
	Category          enums.ProductCategory
	Price             variants.Price
	Stock             int
	TierVariations    []variants.Tier
	Models            []ModelInput
	DescriptionImages []string
}

// UpdateProductInput holds optional mutation values. Tiers and models are
// replaced together when either is present.
type UpdateProductInput struct {
	Name              *string
	Description       *string
	Category          *enums.ProductCategory
	Price             *variants.Price
	Stock             *int
	TierVariations    *[]variants.Tier
	Models            *[]ModelInput
	DescriptionImages *[]string
	IsActive          *bool
}

type service struct {
	repo   *Repository
	tx     db.TxRunner
	outbox outbox.Emitter
	cache  *ListCache
}

// NewService constructs a product service instance. cache may be nil.
func NewService(repo *Repository, tx db.TxRunner, emitter outbox.Emitter, cache *ListCache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, cache: cache}, nil
}

func (s *service) CreateProduct(ctx context.Context, shopID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := validateBasics(input.Name, input.Category, input.Price, input.Stock); err != nil {
		return nil, err
	}

	tiers := variants.CloneTiers(input.TierVariations)
	rows, err := buildModelRows(tiers, input.Models, input.Price.CurrentPrice, nil, input.DescriptionImages)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ShopID:            shopID,
		Name:              strings.TrimSpace(input.Name),
		Description:       input.Description,
		Category:          input.Category,
		CurrentPrice:      input.Price.CurrentPrice,
		DiscountPrice:     input.Price.DiscountPrice,
		DescriptionImages: nonNilStrings(input.DescriptionImages),
		IsActive:          true,
		Tiers:             tierRows(tiers),
		Models:            rows,
	}
	if len(tiers) == 0 {
		product.Stock = input.Stock
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		return s.emitPublished(ctx, tx, product)
	}); err != nil {
		return nil, asDomainError(err, "create product")
	}

	s.cache.Invalidate(ctx)
	return s.detail(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, shopID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	current, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	if current.ShopID != shopID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to shop")
	}

	applyScalarUpdate(current, input)
	if err := validateBasics(current.Name, current.Category, PriceOf(current), current.Stock); err != nil {
		return nil, err
	}

	replaceVariants := input.TierVariations != nil || input.Models != nil
	var tiers []variants.Tier
	var rows []models.ProductModel
	if replaceVariants {
		tiers = VariantTiers(current.Tiers)
		if input.TierVariations != nil {
			tiers = variants.CloneTiers(*input.TierVariations)
		}
		var modelInput []ModelInput
		if input.Models != nil {
			modelInput = *input.Models
		}
		existing := make(map[uuid.UUID]models.ProductModel, len(current.Models))
		for _, m := range current.Models {
			existing[m.ID] = m
		}
		rows, err = buildModelRows(tiers, modelInput, current.CurrentPrice, existing, current.DescriptionImages)
		if err != nil {
			return nil, err
		}
		if len(tiers) > 0 {
			current.Stock = 0
		}
	} else if err := variants.Validate(VariantTiers(current.Tiers), VariantModels(current.Models), current.DescriptionImages); err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.UpdateProduct(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		if replaceVariants {
			if err := repo.ReplaceVariants(ctx, current.ID, tierRows(tiers), rows); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace variants")
			}
			current.Models = rows
		}
		return s.emitPublished(ctx, tx, current)
	}); err != nil {
		return nil, asDomainError(err, "update product")
	}

	s.cache.Invalidate(ctx)
	return s.detail(ctx, current.ID)
}

// GetProduct is the shopper view; deactivated products are not found.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	p, err := s.activeDetail(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(p), nil
}

// GetShopProduct is the seller view and includes deactivated products.
func (s *service) GetShopProduct(ctx context.Context, shopID, productID uuid.UUID) (*ProductDTO, error) {
	p, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	if p.ShopID != shopID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to shop")
	}
	return NewProductDTO(p), nil
}

func (s *service) detail(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	p, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	return NewProductDTO(p), nil
}

func (s *service) activeDetail(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	p, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	if !p.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if input.Category != nil && !input.Category.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category %q", *input.Category)
	}
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cached, ok := s.cache.Get(ctx, input); ok {
		return cached, nil
	}

	rows, err := s.repo.ListProducts(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	page, next := pagination.Trim(rows, input.Pagination.Limit, productCursor)

	result := &ProductListResult{Items: make([]ProductSummaryDTO, len(page)), NextCursor: next}
	for i := range page {
		result.Items[i] = NewProductSummaryDTO(&page[i])
	}
	s.cache.Put(ctx, input, result)
	return result, nil
}

func (s *service) DeleteProduct(ctx context.Context, shopID, productID uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return notFoundOr(err, "load product")
	}
	if p.ShopID != shopID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to shop")
	}
	if err := s.repo.Deactivate(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	s.cache.Invalidate(ctx)
	return nil
}

func (s *service) ResolveModel(ctx context.Context, productID uuid.UUID, selection []int) (*ResolveResult, error) {
	p, err := s.activeDetail(ctx, productID)
	if err != nil {
		return nil, err
	}
	offer := ResolveOffer(p, selection)
	result := &ResolveResult{
		Matched:        offer.Matched,
		EffectivePrice: offer.UnitPrice,
		Available:      offer.Available,
		OptionLabels:   offer.OptionLabels,
	}
	if offer.Model != nil {
		dto := newModelDTO(offer.Model)
		result.Model = &dto
	}
	return result, nil
}

func (s *service) emitPublished(ctx context.Context, tx *gorm.DB, p *models.Product) error {
	shopID := p.ShopID
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventProductPublished,
		AggregateType: enums.AggregateProduct,
		AggregateID:   p.ID,
		Actor:         &outbox.ActorRef{ShopID: &shopID, Role: string(enums.RoleSeller)},
		Data: payloads.ProductPublishedEvent{
			ProductID:  p.ID,
			ShopID:     p.ShopID,
			ModelCount: len(p.Models),
		},
	})
}

// buildModelRows turns seller model input into rows. temp- ids and ids not in
// keep are dropped so the server assigns fresh ones. A kept id also keeps the
// row's sold counter, which sellers cannot edit. With tiers but no models the
// full combination set is generated from basePrice.
func buildModelRows(tiers []variants.Tier, input []ModelInput, basePrice int64, keep map[uuid.UUID]models.ProductModel, descriptionImages []string) ([]models.ProductModel, error) {
	vm := make([]variants.Model, len(input))
	for i, m := range input {
		vm[i] = variants.Model{TierIndex: m.TierIndex, Price: m.Price, Stock: m.Stock, SKU: strings.TrimSpace(m.SKU)}
	}
	if len(tiers) > 0 && len(vm) == 0 {
		vm = variants.GenerateModels(tiers, basePrice)
		input = make([]ModelInput, len(vm))
	}
	if err := variants.Validate(tiers, vm, descriptionImages); err != nil {
		return nil, err
	}

	rows := make([]models.ProductModel, len(vm))
	for i, m := range vm {
		rows[i] = models.ProductModel{
			TierIndex: append([]int(nil), m.TierIndex...),
			Price:     m.Price,
			Stock:     m.Stock,
			SKU:       m.SKU,
		}
		if id, ok := persistedID(input[i].ID, keep); ok {
			rows[i].ID = id
			rows[i].Sold = keep[id].Sold
		}
	}
	return rows, nil
}

func persistedID(raw string, keep map[uuid.UUID]models.ProductModel) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, TempIDPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	if _, ok := keep[id]; !ok {
		return uuid.Nil, false
	}
	return id, true
}

func validateBasics(name string, category enums.ProductCategory, price variants.Price, stock int) error {
	switch {
	case strings.TrimSpace(name) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case !category.IsValid():
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category %q", category)
	case price.CurrentPrice < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "currentPrice cannot be negative")
	case price.DiscountPrice != nil && (*price.DiscountPrice < 0 || *price.DiscountPrice > price.CurrentPrice):
		return pkgerrors.New(pkgerrors.CodeValidation, "discountPrice must be between 0 and currentPrice")
	case stock < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

func applyScalarUpdate(p *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Category != nil {
		p.Category = *input.Category
	}
	if input.Price != nil {
		p.CurrentPrice = input.Price.CurrentPrice
		p.DiscountPrice = input.Price.DiscountPrice
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}
	if input.DescriptionImages != nil {
		p.DescriptionImages = nonNilStrings(*input.DescriptionImages)
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return append([]string{}, v...)
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func asDomainError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
