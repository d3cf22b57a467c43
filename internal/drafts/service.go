package drafts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	product "github.com/taomall/marketplace-backend/internal/products"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/logger"
	"github.com/taomall/marketplace-backend/pkg/variants"
)

// Service drives product form sessions. Every mutation loads the draft,
// applies one operation to its form state and writes it back.
type Service interface {
	Start(ctx context.Context, shopID uuid.UUID, input StartInput) (*Result, error)
	Get(ctx context.Context, shopID uuid.UUID, draftID string) (*Result, error)
	AddTier(ctx context.Context, shopID uuid.UUID, draftID, name, optionsCSV string) (*Result, error)
	RemoveOption(ctx context.Context, shopID uuid.UUID, draftID string, tierIdx, optionIdx int) (*Result, error)
	RemoveTier(ctx context.Context, shopID uuid.UUID, draftID string, tierIdx int) (*Result, error)
	SetOptionImages(ctx context.Context, shopID uuid.UUID, draftID string, optionIdx int, urls []string) (*Result, error)
	SetDescriptionImages(ctx context.Context, shopID uuid.UUID, draftID string, urls []string) (*Result, error)
	Regenerate(ctx context.Context, shopID uuid.UUID, draftID string) (*Result, error)
	UpdateModel(ctx context.Context, shopID uuid.UUID, draftID string, edit variants.ModelEdit) (*Result, error)
	Submit(ctx context.Context, shopID uuid.UUID, draftID string, input SubmitInput) (*product.ProductDTO, error)
	Discard(ctx context.Context, shopID uuid.UUID, draftID string) error
}

// StartInput opens a draft. With ProductID set the draft is seeded from that
// product and the other fields are ignored.
type StartInput struct {
	ProductID   *uuid.UUID
	Name        string
	Description string
	Category    enums.ProductCategory
	Price       variants.Price
	Stock       int
}

// SubmitInput carries last-minute overrides of the product details.
type SubmitInput struct {
	Name        *string
	Description *string
	Category    *enums.ProductCategory
	Price       *variants.Price
	Stock       *int
}

type service struct {
	store    *Store
	products product.Service
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(store *Store, products product.Service, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("draft store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product service required")
	}
	return &service{store: store, products: products, logg: logg, now: time.Now}, nil
}

func (s *service) Start(ctx context.Context, shopID uuid.UUID, input StartInput) (*Result, error) {
	if shopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop context required")
	}
	d := &Draft{
		ID:          uuid.NewString(),
		ShopID:      shopID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Stock:       input.Stock,
		State: variants.ProductFormState{
			BasePrice:         input.Price.CurrentPrice,
			DescriptionImages: []string{},
		},
	}
	if input.ProductID != nil {
		if err := s.seed(ctx, d, *input.ProductID); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"draft_id": d.ID, "shop_id": shopID.String()}), "product draft started")
	}
	return newResult(d, nil), nil
}

func (s *service) seed(ctx context.Context, d *Draft, productID uuid.UUID) error {
	p, err := s.products.GetShopProduct(ctx, d.ShopID, productID)
	if err != nil {
		return err
	}
	id := p.ID
	d.ProductID = &id
	d.Name = p.Name
	d.Description = p.Description
	d.Category = enums.ProductCategory(p.Category)
	d.Price = p.Price
	d.Stock = p.Stock
	d.State = variants.ProductFormState{
		BasePrice:         p.Price.CurrentPrice,
		Tiers:             variants.CloneTiers(p.TierVariations),
		Models:            make([]variants.Model, len(p.Models)),
		DescriptionImages: append([]string{}, p.DescriptionImages...),
	}
	d.ModelIDs = make(map[string]uuid.UUID, len(p.Models))
	for i, m := range p.Models {
		d.State.Models[i] = variants.Model{
			TierIndex: append([]int(nil), m.TierIndex...),
			Price:     m.Price,
			Stock:     m.Stock,
			SKU:       m.SKU,
			Sold:      m.Sold,
		}
		d.ModelIDs[tierKey(m.TierIndex)] = m.ID
	}
	return nil
}

func (s *service) Get(ctx context.Context, shopID uuid.UUID, draftID string) (*Result, error) {
	d, err := s.load(ctx, shopID, draftID)
	if err != nil {
		return nil, err
	}
	return newResult(d, nil), nil
}

func (s *service) AddTier(ctx context.Context, shopID uuid.UUID, draftID, name, optionsCSV string) (*Result, error) {
	return s.mutate(ctx, shopID, draftID, func(d *Draft) variants.Notices {
		_, notices := d.State.AddTier(name, optionsCSV)
		return notices
	})
}

func (s *service) RemoveOption(ctx context.Context, shopID uuid.UUID, draftID string, tierIdx, optionIdx int) (*Result, error) {
	return s.mutate(ctx, shopID, draftID, func(d *Draft) variants.Notices {
		if !d.State.RemoveOption(tierIdx, optionIdx) {
			return notice("options", fmt.Sprintf("option %d of tier %d does not exist", optionIdx, tierIdx))
		}
		return nil
	})
}

func (s *service) RemoveTier(ctx context.Context, shopID uuid.UUID, draftID string, tierIdx int) (*Result, error) {
	return s.mutate(ctx, shopID, draftID, func(d *Draft) variants.Notices {
		if !d.State.RemoveTier(tierIdx) {
			return notice("tiers", fmt.Sprintf("tier %d does not exist", tierIdx))
		}
		return nil
	})
}

func (s *service) SetOptionImages(ctx context.Context, shopID uuid.UUID, draftID string, optionIdx int, urls []string) (*Result, error) {
	return s.mutate(ctx, shopID, draftID, func(d *Draft) variants.Notices {
		return d.State.SetOptionImages(optionIdx, urls)
	})
}

func (s *service) SetDescriptionImages(ctx context.Context, shopID uuid.UUID, draftID string, urls []string) (*Result, error) {
	return s.mutate(ctx, shopID, draftID, func(d *Draft) variants.Notices {
		return d.State.SetDescriptionImages(urls)
	})
}

func (s *service) Regenerate(ctx context.Context, shopID uuid.UUID, draftID string) (*Result, error) {
	return s.mutate(ctx, shopID, draftID, func(d *Draft) variants.Notices {
		if len(d.State.Tiers) == 0 {
			return notice("tiers", "add a tier before generating models")
		}
		d.State.BasePrice = d.Price.CurrentPrice
		d.State.Regenerate()
		d.ModelIDs = nil
		return nil
	})
}

func (s *service) UpdateModel(ctx context.Context, shopID uuid.UUID, draftID string, edit variants.ModelEdit) (*Result, error) {
	return s.mutate(ctx, shopID, draftID, func(d *Draft) variants.Notices {
		_, notices := d.State.UpdateModel(edit)
		return notices
	})
}

func (s *service) Submit(ctx context.Context, shopID uuid.UUID, draftID string, input SubmitInput) (*product.ProductDTO, error) {
	d, err := s.load(ctx, shopID, draftID)
	if err != nil {
		return nil, err
	}
	applySubmitOverrides(d, input)

	tiers := variants.CloneTiers(d.State.Tiers)
	modelInput := make([]product.ModelInput, len(d.State.Models))
	for i, m := range d.State.Models {
		modelInput[i] = product.ModelInput{TierIndex: m.TierIndex, Price: m.Price, Stock: m.Stock, SKU: m.SKU}
		if id, ok := d.modelID(m.TierIndex); ok {
			modelInput[i].ID = id.String()
		}
	}
	images := append([]string{}, d.State.DescriptionImages...)

	var out *product.ProductDTO
	if d.ProductID == nil {
		out, err = s.products.CreateProduct(ctx, shopID, product.CreateProductInput{
			Name:              d.Name,
			Description:       d.Description,
			Category:          d.Category,
			Price:             d.Price,
			Stock:             d.Stock,
			TierVariations:    tiers,
			Models:            modelInput,
			DescriptionImages: images,
		})
	} else {
		out, err = s.products.UpdateProduct(ctx, shopID, *d.ProductID, product.UpdateProductInput{
			Name:              &d.Name,
			Description:       &d.Description,
			Category:          &d.Category,
			Price:             &d.Price,
			Stock:             &d.Stock,
			TierVariations:    &tiers,
			Models:            &modelInput,
			DescriptionImages: &images,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, d); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "draft_id", d.ID), "submitted draft not deleted")
	}
	return out, nil
}

func (s *service) Discard(ctx context.Context, shopID uuid.UUID, draftID string) error {
	d, err := s.load(ctx, shopID, draftID)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, d)
}

func (s *service) mutate(ctx context.Context, shopID uuid.UUID, draftID string, fn func(d *Draft) variants.Notices) (*Result, error) {
	d, err := s.load(ctx, shopID, draftID)
	if err != nil {
		return nil, err
	}
	notices := fn(d)
	d.syncModelIDs()
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return newResult(d, notices), nil
}

func (s *service) load(ctx context.Context, shopID uuid.UUID, draftID string) (*Draft, error) {
	draftID = strings.TrimSpace(draftID)
	if _, err := uuid.Parse(draftID); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
	}
	d := &Draft{ID: draftID, ShopID: shopID}
	if err := s.store.Load(ctx, d); err != nil {
		return nil, err
	}
	if d.ShopID != shopID || d.ID != draftID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
	}
	return d, nil
}

func (s *service) save(ctx context.Context, d *Draft) error {
	d.UpdatedAt = s.now().UTC()
	return s.store.Save(ctx, d)
}

func applySubmitOverrides(d *Draft, input SubmitInput) {
	if input.Name != nil {
		d.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		d.Description = *input.Description
	}
	if input.Category != nil {
		d.Category = *input.Category
	}
	if input.Price != nil {
		d.Price = *input.Price
	}
	if input.Stock != nil {
		d.Stock = *input.Stock
	}
}

func notice(field, message string) variants.Notices {
	return variants.Notices{{Field: field, Message: message}}
}
