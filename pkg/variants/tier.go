// Package variants models a product's tiers of variation and the purchasable
// models (SKUs) derived from them.
package variants

const (
	MaxTiers             = 3
	MaxImagesPerOption   = 8
	MaxDescriptionImages = 20
)

// Tier is one axis of variation such as Color or Size. Options are referenced
// by position, so their order is significant.
type Tier struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
	// HasImages marks the tier whose options own image lists. Images[i]
	// belongs to Options[i] and is only populated when HasImages is set.
	HasImages bool       `json:"hasImages"`
	Images    [][]string `json:"images,omitempty"`
}

// Model is one concrete purchasable combination. TierIndex holds one option
// index per tier and is the model's identity.
type Model struct {
	TierIndex []int  `json:"tierIndex"`
	Price     int64  `json:"price"`
	Stock     int    `json:"stock"`
	SKU       string `json:"sku"`
	Sold      int    `json:"sold"`
}

// Notice is a soft validation message meant for the seller. It never aborts
// an operation on its own.
type Notice struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Notices []Notice

func (n Notices) add(field, message string) Notices {
	return append(n, Notice{Field: field, Message: message})
}

// CloneTiers deep-copies tiers so callers can mutate the result freely.
func CloneTiers(tiers []Tier) []Tier {
	if tiers == nil {
		return nil
	}
	out := make([]Tier, len(tiers))
	for i, t := range tiers {
		out[i] = Tier{
			Name:      t.Name,
			Options:   append([]string(nil), t.Options...),
			HasImages: t.HasImages,
		}
		if t.Images != nil {
			out[i].Images = make([][]string, len(t.Images))
			for j, imgs := range t.Images {
				out[i].Images[j] = append([]string(nil), imgs...)
			}
		}
	}
	return out
}

// OptionLabels maps a tier index vector to its option labels. Out of range
// positions are skipped.
func OptionLabels(tiers []Tier, tierIndex []int) []string {
	labels := make([]string, 0, len(tierIndex))
	for pos, idx := range tierIndex {
		if pos >= len(tiers) || idx < 0 || idx >= len(tiers[pos].Options) {
			continue
		}
		labels = append(labels, tiers[pos].Options[idx])
	}
	return labels
}
