package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/pkg/db/models"
)

// ReserveModelStock takes qty units from a model and books them as sold. It
// reports false when the model no longer has qty units.
func (r *Repository) ReserveModelStock(ctx context.Context, modelID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ? AND stock >= ?", modelID, qty).
		Updates(map[string]any{
			"stock": gorm.Expr("stock - ?", qty),
			"sold":  gorm.Expr("sold + ?", qty),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReserveProductStock is ReserveModelStock for products without tiers. For
// tiered products only the sold counter moves.
func (r *Repository) ReserveProductStock(ctx context.Context, productID uuid.UUID, qty int, tiered bool) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	updates := map[string]any{"sold": gorm.Expr("sold + ?", qty)}
	if tiered {
		q = q.Where("id = ?", productID)
	} else {
		q = q.Where("id = ? AND stock >= ?", productID, qty)
		updates["stock"] = gorm.Expr("stock - ?", qty)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
