package product

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/taomall/marketplace-backend/pkg/db/models"
)

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts the product together with its tiers and models.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves scalar columns only; variants go through ReplaceVariants.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// ReplaceVariants swaps the tier and model rows of a product wholesale. Model
// rows carrying an ID keep it.
func (r *Repository) ReplaceVariants(ctx context.Context, productID uuid.UUID, tiers []models.ProductTier, rows []models.ProductModel) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductTier{}).Error; err != nil {
		return err
	}
	for i := range tiers {
		tiers[i].ProductID = productID
	}
	for i := range rows {
		rows[i].ProductID = productID
	}
	if len(tiers) > 0 {
		if err := tx.Create(&tiers).Error; err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

// Deactivate hides a product from browsing without deleting order history.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// GetProductDetail fetches a product with tiers and models in canonical order.
func (r *Repository) GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.withVariants(r.db.WithContext(ctx)).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	sortModels(product.Models)
	return &product, nil
}

// FindDetailsByIDs loads several products with variants, keyed by id.
func (r *Repository) FindDetailsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.withVariants(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		sortModels(rows[i].Models)
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *Repository) withVariants(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Models")
}

// sortModels orders models row-major by tier index, the order the generator
// produces them in.
func sortModels(rows []models.ProductModel) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].TierIndex, rows[j].TierIndex
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}
