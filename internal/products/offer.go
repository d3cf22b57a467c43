package product

import (
	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/variants"
)

// Offer is what a selection of a product costs and how much of it is left.
type Offer struct {
	Product      *models.Product
	Model        *models.ProductModel
	Matched      bool
	UnitPrice    int64
	Available    int
	SKU          string
	OptionLabels []string
}

// ResolveOffer resolves selection against a product loaded with variants.
// Products without tiers sell themselves and only match an empty selection.
func ResolveOffer(p *models.Product, selection []int) Offer {
	offer := Offer{Product: p, UnitPrice: PriceOf(p).EffectivePrice()}
	if len(p.Tiers) == 0 {
		if len(selection) == 0 {
			offer.Matched = true
			offer.Available = p.Stock
		}
		return offer
	}

	idx := variants.IndexOfModel(VariantModels(p.Models), selection)
	if idx < 0 {
		return offer
	}
	m := &p.Models[idx]
	offer.Model = m
	offer.Matched = true
	offer.UnitPrice = m.Price
	offer.Available = m.Stock
	offer.SKU = m.SKU
	offer.OptionLabels = variants.OptionLabels(VariantTiers(p.Tiers), m.TierIndex)
	return offer
}

// PriceOf returns the listing price of a product.
func PriceOf(p *models.Product) variants.Price {
	return variants.Price{CurrentPrice: p.CurrentPrice, DiscountPrice: p.DiscountPrice}
}

// VariantTiers converts persisted tiers (already ordered by position).
func VariantTiers(rows []models.ProductTier) []variants.Tier {
	out := make([]variants.Tier, len(rows))
	for i, t := range rows {
		out[i] = variants.Tier{
			Name:      t.Name,
			Options:   append([]string(nil), t.Options...),
			HasImages: t.HasImages,
		}
		if t.HasImages {
			out[i].Images = alignImages(t.Images, len(t.Options))
		}
	}
	return out
}

// VariantModels converts persisted models, keeping their order.
func VariantModels(rows []models.ProductModel) []variants.Model {
	out := make([]variants.Model, len(rows))
	for i, m := range rows {
		out[i] = variants.Model{
			TierIndex: append([]int(nil), m.TierIndex...),
			Price:     m.Price,
			Stock:     m.Stock,
			SKU:       m.SKU,
			Sold:      m.Sold,
		}
	}
	return out
}

func tierRows(tiers []variants.Tier) []models.ProductTier {
	out := make([]models.ProductTier, len(tiers))
	for i, t := range tiers {
		out[i] = models.ProductTier{
			Position:  i,
			Name:      t.Name,
			Options:   append([]string(nil), t.Options...),
			HasImages: t.HasImages,
		}
		if t.HasImages {
			out[i].Images = alignImages(t.Images, len(t.Options))
		}
	}
	return out
}

func alignImages(images [][]string, n int) [][]string {
	out := make([][]string, n)
	for i := range out {
		if i < len(images) && images[i] != nil {
			out[i] = append([]string(nil), images[i]...)
		} else {
			out[i] = []string{}
		}
	}
	return out
}
