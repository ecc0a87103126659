package event

import (
	"context"

	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/fulfillment"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// FulfillmentEventLogger writes a structured log line for every
// fulfillment event, giving operators a flat stream to grep alongside
// the per-order audit trail.
type FulfillmentEventLogger struct {
	logger *zap.Logger
}

// NewFulfillmentEventLogger creates the logging handler
func NewFulfillmentEventLogger(logger *zap.Logger) *FulfillmentEventLogger {
	return &FulfillmentEventLogger{logger: logger.Named("fulfillment-events")}
}

// EventTypes declares the events this handler subscribes to
func (h *FulfillmentEventLogger) EventTypes() []string {
	return []string{
		fulfillment.EventTypeDeliveryRecorded,
		fulfillment.EventTypeDeliveryDeleted,
		fulfillment.EventTypeReturnProcessed,
		fulfillment.EventTypeOverDeliveryDetected,
	}
}

// Handle logs the event
func (h *FulfillmentEventLogger) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("order_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *fulfillment.DeliveryRecordedEvent:
		fields = append(fields,
			zap.String("delivery_id", e.DeliveryID.String()),
			zap.Int64("quantity", e.TotalQuantity))
	case *fulfillment.DeliveryDeletedEvent:
		fields = append(fields,
			zap.String("delivery_id", e.DeliveryID.String()),
			zap.Int64("quantity", e.TotalQuantity))
	case *fulfillment.ReturnProcessedEvent:
		fields = append(fields,
			zap.String("return_id", e.ReturnID.String()),
			zap.String("refund_total", e.RefundTotal.StringFixed(2)),
			zap.Bool("refund_required", e.RefundRequired))
	case *fulfillment.OverDeliveryDetectedEvent:
		for _, item := range e.Items {
			fields = append(fields, zap.Int64("over_"+item.ProductName, item.Quantity))
		}
	}

	h.logger.Info(event.EventType(), fields...)
	return nil
}

var _ Handler = (*FulfillmentEventLogger)(nil)
