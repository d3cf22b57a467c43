package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	"github.com/taomall/marketplace-backend/pkg/types"
)

// CreateOrderInput is a checkout of selected cart lines.
type CreateOrderInput struct {
	CartItemIDs         []uuid.UUID
	ShippingAddress     types.Address
	PaymentMethod       enums.PaymentMethod
	VoucherShopCode     *string
	VoucherPlatformCode *string
	Note                string
}

// CreateOrderResult is returned once the order is committed.
type CreateOrderResult struct {
	OrderID          uuid.UUID           `json:"orderId"`
	Status           enums.OrderStatus   `json:"status"`
	PaymentMethod    enums.PaymentMethod `json:"paymentMethod"`
	Subtotal         int64               `json:"subtotal"`
	ShopDiscount     int64               `json:"shopDiscount"`
	PlatformDiscount int64               `json:"platformDiscount"`
	AmountDue        int64               `json:"amountDue"`
	PaymentRequired  bool                `json:"paymentRequired"`
}

type OrderItemDTO struct {
	ID           uuid.UUID  `json:"id"`
	ProductID    uuid.UUID  `json:"productId"`
	ShopID       uuid.UUID  `json:"shopId"`
	ModelID      *uuid.UUID `json:"modelId,omitempty"`
	TierIndex    []int      `json:"tierIndex"`
	ProductName  string     `json:"productName"`
	OptionLabels []string   `json:"optionLabels"`
	SKU          string     `json:"sku"`
	UnitPrice    int64      `json:"unitPrice"`
	Quantity     int        `json:"quantity"`
	LineTotal    int64      `json:"lineTotal"`
}

type OrderDTO struct {
	ID                  uuid.UUID           `json:"id"`
	Status              enums.OrderStatus   `json:"status"`
	PaymentMethod       enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus       enums.PaymentStatus `json:"paymentStatus"`
	Subtotal            int64               `json:"subtotal"`
	ShopDiscount        int64               `json:"shopDiscount"`
	PlatformDiscount    int64               `json:"platformDiscount"`
	AmountDue           int64               `json:"amountDue"`
	VoucherShopCode     *string             `json:"voucherShopCode,omitempty"`
	VoucherPlatformCode *string             `json:"voucherPlatformCode,omitempty"`
	ShippingAddress     types.Address       `json:"shippingAddress"`
	Note                string              `json:"note"`
	PaidAt              *time.Time          `json:"paidAt,omitempty"`
	Items               []OrderItemDTO      `json:"items"`
	CreatedAt           time.Time           `json:"createdAt"`
}

type OrderListResult = types.Page[OrderDTO]

func NewOrderDTO(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                  o.ID,
		Status:              o.Status,
		PaymentMethod:       o.PaymentMethod,
		PaymentStatus:       o.PaymentStatus,
		Subtotal:            o.Subtotal,
		ShopDiscount:        o.ShopDiscount,
		PlatformDiscount:    o.PlatformDiscount,
		AmountDue:           o.AmountDue,
		VoucherShopCode:     o.VoucherShopCode,
		VoucherPlatformCode: o.VoucherPlatformCode,
		ShippingAddress:     o.ShippingAddress,
		Note:                o.Note,
		PaidAt:              o.PaidAt,
		Items:               make([]OrderItemDTO, len(o.Items)),
		CreatedAt:           o.CreatedAt,
	}
	for i, item := range o.Items {
		dto.Items[i] = OrderItemDTO{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ShopID:       item.ShopID,
			ModelID:      item.ModelID,
			TierIndex:    item.TierIndex,
			ProductName:  item.ProductName,
			OptionLabels: item.OptionLabels,
			SKU:          item.SKU,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal,
		}
	}
	return dto
}
