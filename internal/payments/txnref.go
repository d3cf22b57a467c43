package payments

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TxnRef derives a gateway reference from the order id and the attempt time.
// The gateway rejects reused references, so every attempt gets its own.
func TxnRef(orderID uuid.UUID, at time.Time) string {
	return strings.ReplaceAll(orderID.String(), "-", "") + "T" + strconv.FormatInt(at.Unix(), 10)
}

// OrderIDFromTxnRef recovers the order id from a TxnRef.
func OrderIDFromTxnRef(ref string) (uuid.UUID, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(ref), "T")
	if len(head) != 32 {
		return uuid.Nil, fmt.Errorf("malformed txn ref %q", ref)
	}
	return uuid.Parse(head)
}
