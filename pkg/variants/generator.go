package variants

// GenerateModels returns the full cartesian product of option indices across
// tiers. The last tier varies fastest. Every model is seeded with basePrice,
// zero stock, zero sold and an empty SKU.
//
// The result always replaces any previous model list; edits made to earlier
// models are not carried over.
func GenerateModels(tiers []Tier, basePrice int64) []Model {
	models := []Model{}
	if len(tiers) == 0 {
		return models
	}

	total := 1
	for _, tier := range tiers {
		if len(tier.Options) == 0 {
			return models
		}
		total *= len(tier.Options)
	}
	models = make([]Model, 0, total)

	cursor := make([]int, len(tiers))
	for {
		models = append(models, Model{
			TierIndex: append([]int(nil), cursor...),
			Price:     basePrice,
		})

		pos := len(cursor) - 1
		for ; pos >= 0; pos-- {
			cursor[pos]++
			if cursor[pos] < len(tiers[pos].Options) {
				break
			}
			cursor[pos] = 0
		}
		if pos < 0 {
			return models
		}
	}
}
