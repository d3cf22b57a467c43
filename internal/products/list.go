package product

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	"github.com/taomall/marketplace-backend/pkg/pagination"
)

// ListProductsInput captures the browse filters and cursor.
type ListProductsInput struct {
	ShopID          *uuid.UUID
	Category        *enums.ProductCategory
	Query           string
	IncludeInactive bool
	Pagination      pagination.Params
}

// ListProducts returns one page ordered newest first, fetching one extra row
// to detect the next page.
func (r *Repository) ListProducts(ctx context.Context, input ListProductsInput) ([]models.Product, error) {
	q := r.withVariants(r.db.WithContext(ctx).Model(&models.Product{}))

	if !input.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if input.ShopID != nil {
		q = q.Where("shop_id = ?", *input.ShopID)
	}
	if input.Category != nil {
		q = q.Where("category = ?", *input.Category)
	}
	if term := strings.TrimSpace(input.Query); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	var rows []models.Product
	if err := q.Scopes(pagination.Seek(input.Pagination)).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		sortModels(rows[i].Models)
	}
	return rows, nil
}

func productCursor(p models.Product) pagination.Cursor {
	return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}
