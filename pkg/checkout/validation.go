package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
)

// StockLine describes one cart line checked against its model's stock.
type StockLine struct {
	CartItemID  uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	TierIndex   []int
	Matched     bool
	Available   int
	Quantity    int
}

// StockViolation is returned to callers when a line cannot be fulfilled.
type StockViolation struct {
	CartItemID   uuid.UUID `json:"cartItemId"`
	ProductID    uuid.UUID `json:"productId"`
	ProductName  string    `json:"productName,omitempty"`
	TierIndex    []int     `json:"tierIndex"`
	Reason       string    `json:"reason"`
	Available    int       `json:"available"`
	RequestedQty int       `json:"requestedQty"`
}

const (
	ReasonOutOfStock   = "out_of_stock"
	ReasonModelMissing = "model_missing"
	ReasonBadQuantity  = "invalid_quantity"
)

// ValidateStock ensures every line resolves to a model with enough stock.
func ValidateStock(lines []StockLine) error {
	var violations []StockViolation
	for _, line := range lines {
		reason := ""
		switch {
		case line.Quantity <= 0:
			reason = ReasonBadQuantity
		case !line.Matched:
			reason = ReasonModelMissing
		case line.Quantity > line.Available:
			reason = ReasonOutOfStock
		}
		if reason == "" {
			continue
		}
		violations = append(violations, StockViolation{
			CartItemID:   line.CartItemID,
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			TierIndex:    line.TierIndex,
			Reason:       reason,
			Available:    line.Available,
			RequestedQty: line.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%d item(s) cannot be fulfilled", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
