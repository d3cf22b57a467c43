package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error)
	// MarkPaid settles an unpaid order and reports whether this call did it.
	MarkPaid(ctx context.Context, id uuid.UUID, ref string, paidAt time.Time) (bool, error)
	// MarkPaymentFailed records a failed attempt on an order that is not paid.
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error)
	SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error
}
