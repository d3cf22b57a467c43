package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/types"
	"github.com/taomall/marketplace-backend/pkg/variants"
)

// ModelDTO is one purchasable combination as returned to clients.
type ModelDTO struct {
	ID        uuid.UUID `json:"id"`
	TierIndex []int     `json:"tierIndex"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	SKU       string    `json:"sku"`
	Sold      int       `json:"sold"`
}

// PriceRange spans the model prices of a tiered product.
type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID                uuid.UUID       `json:"id"`
	ShopID            uuid.UUID       `json:"shopId"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Price             variants.Price  `json:"price"`
	EffectivePrice    int64           `json:"effectivePrice"`
	OnSale            bool            `json:"onSale"`
	PriceRange        *PriceRange     `json:"priceRange,omitempty"`
	Stock             int             `json:"stock"`
	Sold              int             `json:"sold"`
	TierVariations    []variants.Tier `json:"tierVariations"`
	Models            []ModelDTO      `json:"models"`
	DescriptionImages []string        `json:"descriptionImages"`
	IsActive          bool            `json:"isActive"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ProductSummaryDTO is the list representation of a product.
type ProductSummaryDTO struct {
	ID             uuid.UUID      `json:"id"`
	ShopID         uuid.UUID      `json:"shopId"`
	Name           string         `json:"name"`
	Category       string         `json:"category"`
	Price          variants.Price `json:"price"`
	EffectivePrice int64          `json:"effectivePrice"`
	OnSale         bool           `json:"onSale"`
	PriceRange     *PriceRange    `json:"priceRange,omitempty"`
	Stock          int            `json:"stock"`
	Sold           int            `json:"sold"`
	Thumbnail      string         `json:"thumbnail,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// ProductListResult is a page of product summaries.
type ProductListResult = types.Page[ProductSummaryDTO]

// ResolveResult answers which model a selection maps to. Matched=false is a
// normal incomplete selection, not an error.
type ResolveResult struct {
	Matched        bool      `json:"matched"`
	Model          *ModelDTO `json:"model,omitempty"`
	EffectivePrice int64     `json:"effectivePrice"`
	Available      int       `json:"available"`
	OptionLabels   []string  `json:"optionLabels,omitempty"`
}

// NewProductDTO builds a DTO from a product loaded with variants.
func NewProductDTO(p *models.Product) *ProductDTO {
	price := PriceOf(p)
	dto := &ProductDTO{
		ID:                p.ID,
		ShopID:            p.ShopID,
		Name:              p.Name,
		Description:       p.Description,
		Category:          string(p.Category),
		Price:             price,
		EffectivePrice:    price.EffectivePrice(),
		OnSale:            price.HasDiscount(),
		PriceRange:        priceRange(p.Models),
		Stock:             totalStock(p),
		Sold:              p.Sold,
		TierVariations:    VariantTiers(p.Tiers),
		Models:            make([]ModelDTO, len(p.Models)),
		DescriptionImages: append([]string{}, p.DescriptionImages...),
		IsActive:          p.IsActive,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	for i := range p.Models {
		dto.Models[i] = newModelDTO(&p.Models[i])
	}
	return dto
}

// NewProductSummaryDTO builds the list shape of a product.
func NewProductSummaryDTO(p *models.Product) ProductSummaryDTO {
	price := PriceOf(p)
	return ProductSummaryDTO{
		ID:             p.ID,
		ShopID:         p.ShopID,
		Name:           p.Name,
		Category:       string(p.Category),
		Price:          price,
		EffectivePrice: price.EffectivePrice(),
		OnSale:         price.HasDiscount(),
		PriceRange:     priceRange(p.Models),
		Stock:          totalStock(p),
		Sold:           p.Sold,
		Thumbnail:      thumbnail(p),
		CreatedAt:      p.CreatedAt,
	}
}

func newModelDTO(m *models.ProductModel) ModelDTO {
	return ModelDTO{
		ID:        m.ID,
		TierIndex: append([]int{}, m.TierIndex...),
		Price:     m.Price,
		Stock:     m.Stock,
		SKU:       m.SKU,
		Sold:      m.Sold,
	}
}

func priceRange(rows []models.ProductModel) *PriceRange {
	if len(rows) == 0 {
		return nil
	}
	r := &PriceRange{Min: rows[0].Price, Max: rows[0].Price}
	for _, m := range rows[1:] {
		if m.Price < r.Min {
			r.Min = m.Price
		}
		if m.Price > r.Max {
			r.Max = m.Price
		}
	}
	return r
}

func totalStock(p *models.Product) int {
	if len(p.Tiers) == 0 {
		return p.Stock
	}
	total := 0
	for _, m := range p.Models {
		total += m.Stock
	}
	return total
}

func thumbnail(p *models.Product) string {
	for _, t := range p.Tiers {
		if !t.HasImages {
			continue
		}
		for _, imgs := range t.Images {
			if len(imgs) > 0 {
				return imgs[0]
			}
		}
	}
	if len(p.DescriptionImages) > 0 {
		return p.DescriptionImages[0]
	}
	return ""
}
