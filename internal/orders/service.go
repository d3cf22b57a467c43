package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/internal/cart"
	product "github.com/taomall/marketplace-backend/internal/products"
	"github.com/taomall/marketplace-backend/internal/vouchers"
	"github.com/taomall/marketplace-backend/pkg/checkout"
	"github.com/taomall/marketplace-backend/pkg/db"
	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/logger"
	"github.com/taomall/marketplace-backend/pkg/metrics"
	"github.com/taomall/marketplace-backend/pkg/outbox"
	"github.com/taomall/marketplace-backend/pkg/outbox/payloads"
	"github.com/taomall/marketplace-backend/pkg/pagination"
)

const maxNoteLength = 500

// Service exposes buyer order operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*CreateOrderResult, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResult, error)
}

// Deps groups the collaborators of the order service.
type Deps struct {
	Repo     Repository
	Tx       db.TxRunner
	Cart     cart.Service
	Products *product.Repository
	Vouchers vouchers.Service
	Outbox   outbox.Emitter
	Metrics  *metrics.DomainMetrics
	Logger   *logger.Logger
}

type service struct {
	Deps
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart service required")
	case deps.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case deps.Vouchers == nil:
		return nil, fmt.Errorf("voucher service required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{Deps: deps}, nil
}

// pricedLine is a cart line resolved against the catalog inside the order tx.
type pricedLine struct {
	item  models.CartItem
	offer product.Offer
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*CreateOrderResult, error) {
	ids, err := validateCreate(&input)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		items, err := s.Cart.SelectItems(ctx, tx, userID, ids)
		if err != nil {
			return err
		}
		lines, err := s.priceLines(ctx, tx, items)
		if err != nil {
			return err
		}

		var subtotal int64
		shopSubtotals := map[uuid.UUID]int64{}
		for _, line := range lines {
			amount := line.offer.UnitPrice * int64(line.item.Quantity)
			subtotal += amount
			shopSubtotals[line.item.ShopID] += amount
		}

		var shopDiscount, platformDiscount int64
		if input.VoucherShopCode != nil {
			res, err := s.Vouchers.Claim(ctx, tx, *input.VoucherShopCode, enums.VoucherScopeShop, func(v *models.Voucher) (int64, *uuid.UUID) {
				if v.ShopID == nil {
					return 0, nil
				}
				total, ok := shopSubtotals[*v.ShopID]
				if !ok {
					return 0, nil
				}
				return total, v.ShopID
			})
			if err != nil {
				return err
			}
			shopDiscount = res.DiscountAmount
			input.VoucherShopCode = &res.Code
		}
		if input.VoucherPlatformCode != nil {
			res, err := s.Vouchers.Claim(ctx, tx, *input.VoucherPlatformCode, enums.VoucherScopePlatform, func(*models.Voucher) (int64, *uuid.UUID) {
				return subtotal, nil
			})
			if err != nil {
				return err
			}
			platformDiscount = res.DiscountAmount
			input.VoucherPlatformCode = &res.Code
		}

		order = buildOrder(userID, input, lines, checkout.Summarize(subtotal, shopDiscount, platformDiscount))
		if err := s.Repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		if err := s.reserveStock(ctx, tx, lines); err != nil {
			return err
		}
		if err := s.Cart.ClearItems(ctx, tx, userID, ids); err != nil {
			return err
		}
		return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.RoleBuyer)},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				UserID:        userID,
				ShopIDs:       shopIDs(order.Items),
				PaymentMethod: order.PaymentMethod,
				Subtotal:      order.Subtotal,
				AmountDue:     order.AmountDue,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil, err
	}

	s.Metrics.IncOrderCreated(string(order.PaymentMethod))
	if s.Logger != nil {
		logCtx := s.Logger.WithFields(ctx, map[string]any{
			"order_id":       order.ID.String(),
			"payment_method": string(order.PaymentMethod),
			"amount_due":     order.AmountDue,
		})
		s.Logger.Info(logCtx, "order created")
	}

	return &CreateOrderResult{
		OrderID:          order.ID,
		Status:           order.Status,
		PaymentMethod:    order.PaymentMethod,
		Subtotal:         order.Subtotal,
		ShopDiscount:     order.ShopDiscount,
		PlatformDiscount: order.PlatformDiscount,
		AmountDue:        order.AmountDue,
		PaymentRequired:  order.PaymentMethod.RequiresRedirect() && order.AmountDue > 0,
	}, nil
}

// priceLines resolves every cart line and fails with the full list of lines
// that cannot be fulfilled.
func (s *service) priceLines(ctx context.Context, tx *gorm.DB, items []models.CartItem) ([]pricedLine, error) {
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.Products.WithTx(tx).FindDetailsByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	lines := make([]pricedLine, len(items))
	stock := make([]checkout.StockLine, len(items))
	for i, item := range items {
		stock[i] = checkout.StockLine{
			CartItemID: item.ID,
			ProductID:  item.ProductID,
			TierIndex:  item.TierIndex,
			Quantity:   item.Quantity,
		}
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		offer := product.ResolveOffer(p, item.TierIndex)
		lines[i] = pricedLine{item: item, offer: offer}
		stock[i].ProductName = p.Name
		stock[i].Matched = offer.Matched
		stock[i].Available = offer.Available
	}
	if err := checkout.ValidateStock(stock); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *service) reserveStock(ctx context.Context, tx *gorm.DB, lines []pricedLine) error {
	repo := s.Products.WithTx(tx)
	for _, line := range lines {
		qty := line.item.Quantity
		var ok bool
		var err error
		if line.offer.Model != nil {
			ok, err = repo.ReserveModelStock(ctx, line.offer.Model.ID, qty)
			if err == nil && ok {
				ok, err = repo.ReserveProductStock(ctx, line.item.ProductID, qty, true)
			}
		} else {
			ok, err = repo.ReserveProductStock(ctx, line.item.ProductID, qty, false)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s sold out while ordering", line.offer.Product.Name).
				WithDetails(map[string]any{"cartItemId": line.item.ID, "reason": checkout.ReasonOutOfStock})
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.Repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResult, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.Repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := &OrderListResult{Items: make([]OrderDTO, len(page)), NextCursor: next}
	for i := range page {
		out.Items[i] = NewOrderDTO(&page[i])
	}
	return out, nil
}

func validateCreate(input *CreateOrderInput) ([]uuid.UUID, error) {
	if len(input.CartItemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cartItemIds is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", input.PaymentMethod)
	}
	input.ShippingAddress = input.ShippingAddress.Normalize()
	addr := input.ShippingAddress
	if addr.RecipientName == "" || addr.Phone == "" || addr.Line1 == "" || addr.District == "" || addr.City == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}
	input.Note = strings.TrimSpace(input.Note)
	if len(input.Note) > maxNoteLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "note cannot exceed %d characters", maxNoteLength)
	}
	input.VoucherShopCode = blankToNil(input.VoucherShopCode)
	input.VoucherPlatformCode = blankToNil(input.VoucherPlatformCode)

	seen := make(map[uuid.UUID]struct{}, len(input.CartItemIDs))
	ids := make([]uuid.UUID, 0, len(input.CartItemIDs))
	for _, id := range input.CartItemIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func buildOrder(userID uuid.UUID, input CreateOrderInput, lines []pricedLine, summary checkout.Summary) *models.Order {
	status := enums.OrderStatusPlaced
	if input.PaymentMethod.RequiresRedirect() && summary.AmountDue > 0 {
		status = enums.OrderStatusPendingPayment
	}
	paymentStatus := enums.PaymentStatusUnpaid
	if summary.AmountDue == 0 {
		paymentStatus = enums.PaymentStatusPaid
	}
	order := &models.Order{
		UserID:              userID,
		Status:              status,
		PaymentMethod:       input.PaymentMethod,
		PaymentStatus:       paymentStatus,
		Subtotal:            summary.Subtotal,
		ShopDiscount:        summary.ShopDiscount,
		PlatformDiscount:    summary.PlatformDiscount,
		AmountDue:           summary.AmountDue,
		VoucherShopCode:     input.VoucherShopCode,
		VoucherPlatformCode: input.VoucherPlatformCode,
		ShippingAddress:     input.ShippingAddress,
		Note:                input.Note,
		Items:               make([]models.OrderItem, len(lines)),
	}
	for i, line := range lines {
		item := models.OrderItem{
			ProductID:    line.item.ProductID,
			ShopID:       line.item.ShopID,
			TierIndex:    append([]int{}, line.item.TierIndex...),
			ProductName:  line.offer.Product.Name,
			OptionLabels: append([]string{}, line.offer.OptionLabels...),
			SKU:          line.offer.SKU,
			UnitPrice:    line.offer.UnitPrice,
			Quantity:     line.item.Quantity,
			LineTotal:    line.offer.UnitPrice * int64(line.item.Quantity),
		}
		if line.offer.Model != nil {
			id := line.offer.Model.ID
			item.ModelID = &id
		}
		order.Items[i] = item
	}
	return order
}

func shopIDs(items []models.OrderItem) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	out := []uuid.UUID{}
	for _, item := range items {
		if _, ok := seen[item.ShopID]; ok {
			continue
		}
		seen[item.ShopID] = struct{}{}
		out = append(out, item.ShopID)
	}
	return out
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}
