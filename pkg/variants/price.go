package variants

// Price is a listing price with an optional markdown.
type Price struct {
	CurrentPrice  int64  `json:"currentPrice"`
	DiscountPrice *int64 `json:"discountPrice,omitempty"`
}

// EffectivePrice is the amount a shopper pays: the discount price when one is
// set, the current price otherwise.
func (p Price) EffectivePrice() int64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.CurrentPrice
}

// HasDiscount reports a markdown strictly below the current price.
func (p Price) HasDiscount() bool {
	return p.DiscountPrice != nil && *p.DiscountPrice < p.CurrentPrice
}
