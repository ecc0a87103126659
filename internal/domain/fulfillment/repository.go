package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/finance"
)

// OrderRepository is the order store collaborator. Every append/removal
// method must compare-and-swap the aggregate version inside its database
// transaction and return shared.ErrConcurrencyConflict on a mismatch, so
// two concurrent writers can never both apply against the same snapshot.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	Create(ctx context.Context, order *Order) error

	// AppendDelivery persists a newly recorded delivery together with the
	// refreshed order status.
	AppendDelivery(ctx context.Context, order *Order, record *DeliveryRecord) error

	// RemoveDelivery deletes a delivery record and persists the refreshed
	// order status.
	RemoveDelivery(ctx context.Context, order *Order, deliveryID uuid.UUID) error

	// AppendReturn persists a return record and its refund transaction in
	// one database transaction: if the refund ledger write fails, the
	// return record must not be committed.
	AppendReturn(ctx context.Context, order *Order, record *ReturnRecord, refund *finance.RefundTransaction) error
}
