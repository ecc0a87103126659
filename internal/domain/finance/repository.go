package finance

import (
	"context"

	"github.com/google/uuid"
)

// RefundLedger reads refund transactions. Writes go through the order
// repository so the ledger entry commits in the same transaction as the
// return record it settles.
type RefundLedger interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]RefundTransaction, error)
}
