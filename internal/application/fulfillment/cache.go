package fulfillment

import (
	"context"

	"github.com/google/uuid"
)

// ViewCache caches derived fulfillment views for display. Implementations
// are free to drop entries at any time; correctness only requires that
// Invalidate is called on every log append or removal, which the service
// guarantees.
type ViewCache interface {
	Get(ctx context.Context, orderID uuid.UUID) (*FulfillmentView, bool)
	Set(ctx context.Context, orderID uuid.UUID, view *FulfillmentView)
	Invalidate(ctx context.Context, orderID uuid.UUID)
}
