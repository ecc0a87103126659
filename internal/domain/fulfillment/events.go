package fulfillment

import (
	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the fulfillment domain
const (
	EventTypeDeliveryRecorded     = "fulfillment.delivery_recorded"
	EventTypeDeliveryDeleted      = "fulfillment.delivery_deleted"
	EventTypeReturnProcessed      = "fulfillment.return_processed"
	EventTypeOverDeliveryDetected = "fulfillment.over_delivery_detected"
)

const aggregateTypeOrder = "Order"

// DeliveryRecordedEvent is published when a delivery is appended to the log
type DeliveryRecordedEvent struct {
	shared.BaseDomainEvent
	OrderNumber    string         `json:"order_number"`
	DeliveryID     uuid.UUID      `json:"delivery_id"`
	TotalQuantity  int64          `json:"total_quantity"`
	CreatedByID    uuid.UUID      `json:"created_by_id"`
	CreatedByName  string         `json:"created_by_name"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
}

// NewDeliveryRecordedEvent creates a DeliveryRecordedEvent
func NewDeliveryRecordedEvent(order *Order, record *DeliveryRecord) *DeliveryRecordedEvent {
	return &DeliveryRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeliveryRecorded, order.ID, aggregateTypeOrder),
		OrderNumber:     order.OrderNumber,
		DeliveryID:      record.ID,
		TotalQuantity:   record.TotalQuantity(),
		CreatedByID:     record.CreatedByID,
		CreatedByName:   record.CreatedByName,
		DeliveryStatus:  order.DeliveryStatus,
	}
}

// DeliveryDeletedEvent is published when an administrator removes a
// delivery record from the log
type DeliveryDeletedEvent struct {
	shared.BaseDomainEvent
	OrderNumber    string         `json:"order_number"`
	DeliveryID     uuid.UUID      `json:"delivery_id"`
	TotalQuantity  int64          `json:"total_quantity"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
}

// NewDeliveryDeletedEvent creates a DeliveryDeletedEvent
func NewDeliveryDeletedEvent(order *Order, removed *DeliveryRecord) *DeliveryDeletedEvent {
	return &DeliveryDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeliveryDeleted, order.ID, aggregateTypeOrder),
		OrderNumber:     order.OrderNumber,
		DeliveryID:      removed.ID,
		TotalQuantity:   removed.TotalQuantity(),
		DeliveryStatus:  order.DeliveryStatus,
	}
}

// ReturnProcessedEvent is published when a return record is appended
type ReturnProcessedEvent struct {
	shared.BaseDomainEvent
	OrderNumber    string          `json:"order_number"`
	ReturnID       uuid.UUID       `json:"return_id"`
	Reason         string          `json:"reason"`
	RefundRequired bool            `json:"refund_required"`
	RefundTotal    decimal.Decimal `json:"refund_total"`
	DeliveryStatus DeliveryStatus  `json:"delivery_status"`
}

// NewReturnProcessedEvent creates a ReturnProcessedEvent
func NewReturnProcessedEvent(order *Order, record *ReturnRecord) *ReturnProcessedEvent {
	return &ReturnProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnProcessed, order.ID, aggregateTypeOrder),
		OrderNumber:     order.OrderNumber,
		ReturnID:        record.ID,
		Reason:          record.Reason,
		RefundRequired:  record.RefundRequired,
		RefundTotal:     record.GrandTotal(),
		DeliveryStatus:  order.DeliveryStatus,
	}
}

// OverDelivery names a line item whose delivered units now exceed the
// effective entitlement after a return
type OverDelivery struct {
	LineItemID  uuid.UUID `json:"line_item_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"quantity"`
}

// OverDeliveryDetectedEvent is published when a return retroactively
// shrinks the entitlement below what has physically shipped. The ledger
// clamps the derived quantities; the warehouse has to reconcile the
// physical stock by hand.
type OverDeliveryDetectedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string         `json:"order_number"`
	ReturnID    uuid.UUID      `json:"return_id"`
	Items       []OverDelivery `json:"items"`
}

// NewOverDeliveryDetectedEvent creates an OverDeliveryDetectedEvent
func NewOverDeliveryDetectedEvent(order *Order, record *ReturnRecord, items []OverDelivery) *OverDeliveryDetectedEvent {
	return &OverDeliveryDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOverDeliveryDetected, order.ID, aggregateTypeOrder),
		OrderNumber:     order.OrderNumber,
		ReturnID:        record.ID,
		Items:           items,
	}
}
