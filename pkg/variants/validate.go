package variants

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
)

// FieldError is one structural problem found by Validate.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldErr(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the structural invariants of a tier set and its models. It
// returns a VALIDATION_ERROR listing every violation, or nil.
func Validate(tiers []Tier, models []Model, descriptionImages []string) error {
	var errs error

	if len(tiers) > MaxTiers {
		errs = multierr.Append(errs, fieldErr("tierVariations", "at most %d tiers are allowed", MaxTiers))
	}

	names := map[string]struct{}{}
	imageTiers := 0
	for i, tier := range tiers {
		field := fmt.Sprintf("tierVariations[%d]", i)
		name := strings.ToLower(strings.TrimSpace(tier.Name))
		if name == "" {
			errs = multierr.Append(errs, fieldErr(field+".name", "name is required"))
		} else if _, dup := names[name]; dup {
			errs = multierr.Append(errs, fieldErr(field+".name", "duplicate tier name %q", tier.Name))
		}
		names[name] = struct{}{}

		if len(tier.Options) == 0 {
			errs = multierr.Append(errs, fieldErr(field+".options", "at least one option is required"))
		}
		seen := map[string]struct{}{}
		for j, opt := range tier.Options {
			if strings.TrimSpace(opt) == "" {
				errs = multierr.Append(errs, fieldErr(fmt.Sprintf("%s.options[%d]", field, j), "option label is required"))
				continue
			}
			if _, dup := seen[opt]; dup {
				errs = multierr.Append(errs, fieldErr(fmt.Sprintf("%s.options[%d]", field, j), "duplicate option %q", opt))
			}
			seen[opt] = struct{}{}
		}

		if tier.HasImages {
			imageTiers++
			if len(tier.Images) > len(tier.Options) {
				errs = multierr.Append(errs, fieldErr(field+".images", "more image slots than options"))
			}
			for j, imgs := range tier.Images {
				if len(imgs) > MaxImagesPerOption {
					errs = multierr.Append(errs, fieldErr(fmt.Sprintf("%s.images[%d]", field, j), "at most %d images per option", MaxImagesPerOption))
				}
			}
		} else if len(tier.Images) > 0 {
			errs = multierr.Append(errs, fieldErr(field+".images", "images are only allowed on the image tier"))
		}
	}
	if imageTiers > 1 {
		errs = multierr.Append(errs, fieldErr("tierVariations", "only one tier may carry images"))
	}
	if len(descriptionImages) > MaxDescriptionImages {
		errs = multierr.Append(errs, fieldErr("descriptionImages", "at most %d description images", MaxDescriptionImages))
	}

	errs = multierr.Append(errs, validateModels(tiers, models))

	if errs == nil {
		return nil
	}
	return validationError(errs)
}

func validateModels(tiers []Tier, models []Model) error {
	var errs error
	if len(tiers) == 0 && len(models) > 0 {
		return fieldErr("models", "models require at least one tier")
	}

	seen := map[string]int{}
	for i, model := range models {
		field := fmt.Sprintf("models[%d]", i)
		if len(model.TierIndex) != len(tiers) {
			errs = multierr.Append(errs, fieldErr(field+".tierIndex", "expected %d indices, got %d", len(tiers), len(model.TierIndex)))
			continue
		}
		inBounds := true
		for pos, idx := range model.TierIndex {
			if idx < 0 || idx >= len(tiers[pos].Options) {
				errs = multierr.Append(errs, fieldErr(field+".tierIndex", "index %d out of range for tier %q", idx, tiers[pos].Name))
				inBounds = false
			}
		}
		if inBounds {
			key := fmt.Sprint(model.TierIndex)
			if first, dup := seen[key]; dup {
				errs = multierr.Append(errs, fieldErr(field+".tierIndex", "duplicates models[%d]", first))
			} else {
				seen[key] = i
			}
		}
		if model.Price < 0 {
			errs = multierr.Append(errs, fieldErr(field+".price", "price cannot be negative"))
		}
		if model.Stock < 0 {
			errs = multierr.Append(errs, fieldErr(field+".stock", "stock cannot be negative"))
		}
	}
	return errs
}

func validationError(errs error) error {
	list := multierr.Errors(errs)
	details := make([]FieldError, 0, len(list))
	for _, err := range list {
		if fe, ok := err.(*FieldError); ok {
			details = append(details, *fe)
			continue
		}
		details = append(details, FieldError{Message: err.Error()})
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid variant definition").WithDetails(map[string]any{
		"fields": details,
	})
}
