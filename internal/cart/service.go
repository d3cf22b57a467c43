package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/pkg/checkout"
	"github.com/taomall/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
)

// MaxLineQuantity bounds a single cart line.
const MaxLineQuantity = 999

type productLoader interface {
	GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindDetailsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

// Service exposes cart operations for buyers.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*LineDTO, error)
	ListItems(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*LineDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	// SelectItems loads the given lines inside tx. Every id must be one of
	// the user's lines.
	SelectItems(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) ([]models.CartItem, error)
	// ClearItems removes the given lines inside tx, typically after an order
	// consumed them.
	ClearItems(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) error
}

// AddItemInput selects a product combination to put in the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	TierIndex []int
	Quantity  int
}

type service struct {
	repo     *Repository
	products productLoader
}

func NewService(repo *Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*LineDTO, error) {
	if input.Quantity <= 0 || input.Quantity > MaxLineQuantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between 1 and %d", MaxLineQuantity)
	}
	p, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if _, err := s.checkLine(p, uuid.Nil, input.TierIndex, input.Quantity); err != nil {
		return nil, err
	}

	tierIndex := append([]int{}, input.TierIndex...)
	existing, err := s.repo.FindLine(ctx, userID, p.ID, models.TierKey(tierIndex))
	switch {
	case err == nil:
		qty := existing.Quantity + input.Quantity
		if qty > MaxLineQuantity {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between 1 and %d", MaxLineQuantity).
				WithDetails(map[string]any{"inCart": existing.Quantity, "max": MaxLineQuantity})
		}
		if _, err := s.checkLine(p, existing.ID, tierIndex, qty); err != nil {
			return nil, err
		}
		if err := s.repo.SetQuantity(ctx, existing.ID, qty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		existing.Quantity = qty
		line := NewLineDTO(existing, p)
		return &line, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: p.ID,
		ShopID:    p.ShopID,
		TierIndex: tierIndex,
		Quantity:  input.Quantity,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
	}
	line := NewLineDTO(item, p)
	return &line, nil
}

func (s *service) ListItems(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	products, err := s.products.FindDetailsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	out := &CartDTO{Items: make([]LineDTO, len(rows))}
	for i := range rows {
		line := NewLineDTO(&rows[i], products[rows[i].ProductID])
		out.Items[i] = line
		if line.Purchasable {
			out.Subtotal += line.LineTotal
		}
	}
	return out, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*LineDTO, error) {
	if qty <= 0 || qty > MaxLineQuantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between 1 and %d", MaxLineQuantity)
	}
	item, err := s.repo.FindByID(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	p, err := s.loadProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := s.checkLine(p, item.ID, item.TierIndex, qty); err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, item.ID, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	item.Quantity = qty
	line := NewLineDTO(item, p)
	return &line, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) SelectItems(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) ([]models.CartItem, error) {
	rows, err := s.repo.WithTx(tx).ListByIDs(ctx, userID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	found := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		found[row.ID] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart items not found").
			WithDetails(map[string]any{"cartItemIds": missing})
	}
	return rows, nil
}

func (s *service) ClearItems(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) error {
	if err := s.repo.WithTx(tx).DeleteByIDs(ctx, userID, ids); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
	}
	return nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.products.GetProductDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return p, nil
}

// checkLine rejects selections that match no model and quantities above what
// is in stock.
func (s *service) checkLine(p *models.Product, itemID uuid.UUID, tierIndex []int, qty int) (LineDTO, error) {
	line := NewLineDTO(&models.CartItem{ID: itemID, ProductID: p.ID, ShopID: p.ShopID, TierIndex: tierIndex, Quantity: qty}, p)
	if !line.Purchasable {
		return line, pkgerrors.New(pkgerrors.CodeValidation, "selection does not match a purchasable model").
			WithDetails(map[string]any{"productId": p.ID, "tierIndex": tierIndex})
	}
	err := checkout.ValidateStock([]checkout.StockLine{{
		CartItemID:  itemID,
		ProductID:   p.ID,
		ProductName: p.Name,
		TierIndex:   tierIndex,
		Matched:     true,
		Available:   line.Available,
		Quantity:    qty,
	}})
	return line, err
}
