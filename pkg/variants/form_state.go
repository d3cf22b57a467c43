package variants

import (
	"fmt"
	"strings"
)

// ProductFormState is the authoring state of one product editing session.
// It is owned by whoever drives the session and holds no global state.
type ProductFormState struct {
	BasePrice         int64    `json:"basePrice"`
	Tiers             []Tier   `json:"tiers"`
	Models            []Model  `json:"models"`
	DescriptionImages []string `json:"descriptionImages"`
}

// ModelEdit is a partial update of one model row. Nil fields are left alone.
type ModelEdit struct {
	TierIndex []int
	Price     *int64
	Stock     *int
	SKU       *string
}

// ImageTier returns the position of the tier carrying images, or -1.
func (s *ProductFormState) ImageTier() int {
	for i, tier := range s.Tiers {
		if tier.HasImages {
			return i
		}
	}
	return -1
}

// AddTier adds a tier from a name and a comma separated option list, or merges
// new options into an existing tier with the same name (case-insensitive).
// Existing options are matched exactly and silently skipped. It reports
// whether anything changed; any change clears the generated models.
func (s *ProductFormState) AddTier(name, optionsCSV string) (bool, Notices) {
	var notices Notices
	name = strings.TrimSpace(name)
	if name == "" {
		return false, notices.add("name", "tier name is required")
	}
	options := splitOptions(optionsCSV)
	if len(options) == 0 {
		return false, notices.add("options", "at least one option is required")
	}

	for i := range s.Tiers {
		if !strings.EqualFold(s.Tiers[i].Name, name) {
			continue
		}
		tier := &s.Tiers[i]
		added := 0
		for _, opt := range options {
			if containsExact(tier.Options, opt) {
				continue
			}
			tier.Options = append(tier.Options, opt)
			if tier.HasImages {
				tier.Images = append(tier.Images, []string{})
			}
			added++
		}
		if added == 0 {
			return false, notices.add("options", fmt.Sprintf("tier %q already has these options", tier.Name))
		}
		s.Models = nil
		return true, notices
	}

	if len(s.Tiers) >= MaxTiers {
		return false, notices.add("tiers", fmt.Sprintf("a product can have at most %d tiers", MaxTiers))
	}

	tier := Tier{Name: name, Options: options}
	if s.ImageTier() < 0 && len(s.Tiers) == 0 {
		tier.HasImages = true
		tier.Images = emptySlots(len(options))
	}
	s.Tiers = append(s.Tiers, tier)
	s.Models = nil
	return true, notices
}

// RemoveOption drops one option and its image slot. Removing the last option
// of a tier removes the tier. Models are cleared because their indices may
// now point past the end of the shortened list.
func (s *ProductFormState) RemoveOption(tierIdx, optionIdx int) bool {
	if tierIdx < 0 || tierIdx >= len(s.Tiers) {
		return false
	}
	tier := &s.Tiers[tierIdx]
	if optionIdx < 0 || optionIdx >= len(tier.Options) {
		return false
	}
	if len(tier.Options) == 1 {
		return s.RemoveTier(tierIdx)
	}

	tier.Options = append(tier.Options[:optionIdx], tier.Options[optionIdx+1:]...)
	if tier.HasImages && optionIdx < len(tier.Images) {
		tier.Images = append(tier.Images[:optionIdx], tier.Images[optionIdx+1:]...)
	}
	s.Models = nil
	return true
}

// RemoveTier drops a whole tier and clears the models. When the image tier is
// removed the new first tier takes over with empty image slots.
func (s *ProductFormState) RemoveTier(tierIdx int) bool {
	if tierIdx < 0 || tierIdx >= len(s.Tiers) {
		return false
	}
	hadImages := s.Tiers[tierIdx].HasImages
	s.Tiers = append(s.Tiers[:tierIdx], s.Tiers[tierIdx+1:]...)
	if hadImages && len(s.Tiers) > 0 && s.ImageTier() < 0 {
		s.Tiers[0].HasImages = true
		s.Tiers[0].Images = emptySlots(len(s.Tiers[0].Options))
	}
	s.Models = nil
	return true
}

// SetOptionImages replaces the image list of one option on the image tier.
// Lists over MaxImagesPerOption are truncated with a notice.
func (s *ProductFormState) SetOptionImages(optionIdx int, urls []string) Notices {
	var notices Notices
	tierIdx := s.ImageTier()
	if tierIdx < 0 {
		return notices.add("images", "no tier carries images")
	}
	tier := &s.Tiers[tierIdx]
	if optionIdx < 0 || optionIdx >= len(tier.Options) {
		return notices.add("images", fmt.Sprintf("option %d does not exist", optionIdx))
	}
	for len(tier.Images) < len(tier.Options) {
		tier.Images = append(tier.Images, []string{})
	}

	clean := compactURLs(urls)
	if len(clean) > MaxImagesPerOption {
		notices = notices.add("images", fmt.Sprintf("option %q can have at most %d images", tier.Options[optionIdx], MaxImagesPerOption))
		clean = clean[:MaxImagesPerOption]
	}
	tier.Images[optionIdx] = clean
	return notices
}

// SetDescriptionImages replaces the product description images, keeping at
// most MaxDescriptionImages.
func (s *ProductFormState) SetDescriptionImages(urls []string) Notices {
	var notices Notices
	clean := compactURLs(urls)
	if len(clean) > MaxDescriptionImages {
		notices = notices.add("descriptionImages", fmt.Sprintf("a product can have at most %d description images", MaxDescriptionImages))
		clean = clean[:MaxDescriptionImages]
	}
	s.DescriptionImages = clean
	return notices
}

// Regenerate replaces the model list with a fresh cartesian product seeded
// from BasePrice.
func (s *ProductFormState) Regenerate() {
	s.Models = GenerateModels(s.Tiers, s.BasePrice)
}

// UpdateModel applies edit to the model matching edit.TierIndex.
func (s *ProductFormState) UpdateModel(edit ModelEdit) (bool, Notices) {
	var notices Notices
	idx := IndexOfModel(s.Models, edit.TierIndex)
	if idx < 0 {
		return false, notices.add("tierIndex", "no model matches this selection")
	}
	if edit.Price != nil && *edit.Price < 0 {
		notices = notices.add("price", "price cannot be negative")
	}
	if edit.Stock != nil && *edit.Stock < 0 {
		notices = notices.add("stock", "stock cannot be negative")
	}
	if len(notices) > 0 {
		return false, notices
	}

	model := &s.Models[idx]
	if edit.Price != nil {
		model.Price = *edit.Price
	}
	if edit.Stock != nil {
		model.Stock = *edit.Stock
	}
	if edit.SKU != nil {
		model.SKU = strings.TrimSpace(*edit.SKU)
	}
	return true, notices
}

func splitOptions(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || containsExact(out, part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

func containsExact(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func compactURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func emptySlots(n int) [][]string {
	slots := make([][]string, n)
	for i := range slots {
		slots[i] = []string{}
	}
	return slots
}
