package checkout

// Summary is the priced breakdown of one checkout.
type Summary struct {
	Subtotal         int64 `json:"subtotal"`
	ShopDiscount     int64 `json:"shopDiscount"`
	PlatformDiscount int64 `json:"platformDiscount"`
	AmountDue        int64 `json:"amountDue"`
}

// ComputeAmountDue subtracts both voucher discounts from the subtotal and
// floors the result at zero. Negative inputs count as zero.
func ComputeAmountDue(subtotal, shopDiscount, platformDiscount int64) int64 {
	due := nonNegative(subtotal)
	for _, d := range [...]int64{shopDiscount, platformDiscount} {
		d = nonNegative(d)
		if d >= due {
			return 0
		}
		due -= d
	}
	return due
}

// Summarize builds a Summary using ComputeAmountDue.
func Summarize(subtotal, shopDiscount, platformDiscount int64) Summary {
	return Summary{
		Subtotal:         nonNegative(subtotal),
		ShopDiscount:     nonNegative(shopDiscount),
		PlatformDiscount: nonNegative(platformDiscount),
		AmountDue:        ComputeAmountDue(subtotal, shopDiscount, platformDiscount),
	}
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
