package cart

import (
	"github.com/google/uuid"

	product "github.com/taomall/marketplace-backend/internal/products"
	"github.com/taomall/marketplace-backend/pkg/db/models"
)

// LineDTO is a cart line priced against the current catalog.
type LineDTO struct {
	ID           uuid.UUID  `json:"id"`
	ProductID    uuid.UUID  `json:"productId"`
	ShopID       uuid.UUID  `json:"shopId"`
	ProductName  string     `json:"productName"`
	TierIndex    []int      `json:"tierIndex"`
	OptionLabels []string   `json:"optionLabels"`
	ModelID      *uuid.UUID `json:"modelId,omitempty"`
	SKU          string     `json:"sku,omitempty"`
	UnitPrice    int64      `json:"unitPrice"`
	Quantity     int        `json:"quantity"`
	LineTotal    int64      `json:"lineTotal"`
	Available    int        `json:"available"`
	// Purchasable is false when the product was withdrawn or the combination
	// no longer exists.
	Purchasable bool `json:"purchasable"`
}

// CartDTO is the whole cart of a buyer.
type CartDTO struct {
	Items    []LineDTO `json:"items"`
	Subtotal int64     `json:"subtotal"`
}

// NewLineDTO prices item. p may be nil when the product is gone.
func NewLineDTO(item *models.CartItem, p *models.Product) LineDTO {
	line := LineDTO{
		ID:           item.ID,
		ProductID:    item.ProductID,
		ShopID:       item.ShopID,
		TierIndex:    append([]int{}, item.TierIndex...),
		OptionLabels: []string{},
		Quantity:     item.Quantity,
	}
	if p == nil {
		return line
	}
	line.ProductName = p.Name
	offer := product.ResolveOffer(p, item.TierIndex)
	line.UnitPrice = offer.UnitPrice
	line.LineTotal = offer.UnitPrice * int64(item.Quantity)
	line.Available = offer.Available
	line.SKU = offer.SKU
	line.Purchasable = p.IsActive && offer.Matched
	if offer.OptionLabels != nil {
		line.OptionLabels = offer.OptionLabels
	}
	if offer.Model != nil {
		id := offer.Model.ID
		line.ModelID = &id
	}
	return line
}
