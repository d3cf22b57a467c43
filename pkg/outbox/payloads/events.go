package payloads

import (
	"github.com/google/uuid"

	"github.com/taomall/marketplace-backend/pkg/enums"
)

// OrderCreatedEvent announces a placed order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	ShopIDs       []uuid.UUID         `json:"shop_ids"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Subtotal      int64               `json:"subtotal"`
	AmountDue     int64               `json:"amount_due"`
}

// PaymentRequestedEvent is emitted when a gateway URL is issued for an order.
type PaymentRequestedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	TxnRef  string    `json:"txn_ref"`
	Amount  int64     `json:"amount"`
}

// OrderPaidEvent is emitted once a gateway confirms payment.
type OrderPaidEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	TransactionNo string    `json:"transaction_no"`
	Amount        int64     `json:"amount"`
}

// PaymentFailedEvent records a declined or abandoned gateway payment. The
// order itself stays open.
type PaymentFailedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	ResponseCode string    `json:"response_code"`
}

// ProductPublishedEvent is emitted when a seller creates or replaces a listing.
type ProductPublishedEvent struct {
	ProductID  uuid.UUID `json:"product_id"`
	ShopID     uuid.UUID `json:"shop_id"`
	ModelCount int       `json:"model_count"`
}
