package drafts

import (
	"time"

	"github.com/google/uuid"

	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	"github.com/taomall/marketplace-backend/pkg/variants"
)

// Draft is one seller's in-progress product form. ProductID is set when the
// draft edits an existing product.
type Draft struct {
	ID          string                    `json:"id"`
	ShopID      uuid.UUID                 `json:"shopId"`
	ProductID   *uuid.UUID                `json:"productId,omitempty"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Category    enums.ProductCategory     `json:"category"`
	Price       variants.Price            `json:"price"`
	Stock       int                       `json:"stock"`
	State       variants.ProductFormState `json:"state"`
	// ModelIDs maps a tier key to the persisted model id it was loaded with.
	// It is cleared whenever the model list is rebuilt.
	ModelIDs  map[string]uuid.UUID `json:"modelIds,omitempty"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// Result is the response to every draft operation.
type Result struct {
	Draft    *Draft           `json:"draft"`
	Messages variants.Notices `json:"messages"`
}

func newResult(d *Draft, notices variants.Notices) *Result {
	if notices == nil {
		notices = variants.Notices{}
	}
	return &Result{Draft: d, Messages: notices}
}

// syncModelIDs drops id bindings once the models they belonged to are gone.
func (d *Draft) syncModelIDs() {
	if len(d.State.Models) == 0 {
		d.ModelIDs = nil
	}
}

func (d *Draft) modelID(tierIndex []int) (uuid.UUID, bool) {
	id, ok := d.ModelIDs[tierKey(tierIndex)]
	return id, ok
}

func tierKey(tierIndex []int) string {
	return models.TierKey(tierIndex)
}
