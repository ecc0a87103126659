package fulfillment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/identity"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared/valueobject"
)

// Order is the aggregate root for fulfillment reconciliation. The line
// items are fixed when the order is placed; everything that happens
// afterwards is an append to one of the two event logs, and every
// aggregate quantity is re-derived from those logs.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber    string           `gorm:"size:50;not null;uniqueIndex"`
	CustomerName   string           `gorm:"size:200;not null"`
	LineItems      []LineItem       `gorm:"foreignKey:OrderID"`
	DeliveryLog    []DeliveryRecord `gorm:"foreignKey:OrderID"`
	ReturnLog      []ReturnRecord   `gorm:"foreignKey:OrderID"`
	HasReturns     bool             `gorm:"not null;default:false"`
	DeliveryStatus DeliveryStatus   `gorm:"size:20;not null;default:NOT_STARTED"`
}

// NewOrder creates a new order with an empty fulfillment history
func NewOrder(orderNumber, customerName string) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerName:      customerName,
		LineItems:         make([]LineItem, 0),
		DeliveryLog:       make([]DeliveryRecord, 0),
		ReturnLog:         make([]ReturnRecord, 0),
		DeliveryStatus:    DeliveryStatusNotStarted,
	}, nil
}

// AddLineItem adds a line to the order. Only allowed while both logs are
// still empty: line items are immutable once fulfillment has started.
func (o *Order) AddLineItem(productName string, orderedQuantity int64, lineTotal valueobject.Money, taxes []TaxComponent) (*LineItem, error) {
	if len(o.DeliveryLog) > 0 || len(o.ReturnLog) > 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add line items after fulfillment has started")
	}
	for _, line := range o.LineItems {
		if line.ProductName == productName {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order")
		}
	}

	line, err := NewLineItem(o.ID, productName, orderedQuantity, lineTotal, taxes)
	if err != nil {
		return nil, err
	}

	o.LineItems = append(o.LineItems, *line)
	o.UpdatedAt = time.Now()

	return line, nil
}

// GetLineItem returns a line item by its ID
func (o *Order) GetLineItem(lineItemID uuid.UUID) *LineItem {
	for idx := range o.LineItems {
		if o.LineItems[idx].ID == lineItemID {
			return &o.LineItems[idx]
		}
	}
	return nil
}

// Usage folds the two event logs into per-item derived quantities
func (o *Order) Usage() map[uuid.UUID]ItemUsage {
	return ComputeUsage(o.LineItems, o.DeliveryLog, o.ReturnLog)
}

// Totals folds the two event logs into order-level totals
func (o *Order) Totals() UsageTotals {
	return ComputeTotals(o.Usage())
}

// RecordDelivery validates and appends a delivery to the delivery log.
// Validation is batch-atomic: every requested quantity is checked against
// the current balance before any item is accepted, so an invalid line
// leaves the log untouched.
func (o *Order) RecordDelivery(actor identity.Actor, date time.Time, notes string, items []DeliveryRequestItem) (*DeliveryRecord, error) {
	record, err := newDeliveryRecord(o.ID, date, notes, actor, items)
	if err != nil {
		return nil, err
	}

	usage := o.Usage()
	requested := make(map[uuid.UUID]int64, len(items))
	for _, item := range items {
		if o.GetLineItem(item.LineItemID) == nil {
			return nil, shared.NewDomainErrorWithDetails(
				"ITEM_NOT_FOUND",
				"Order has no line item "+item.LineItemID.String(),
				map[string]any{"item_id": item.LineItemID},
			)
		}
		requested[item.LineItemID] += item.Quantity
	}

	for lineItemID, qty := range requested {
		balance := usage[lineItemID].Balance
		if qty > balance {
			return nil, shared.NewDomainErrorWithDetails(
				"QUANTITY_EXCEEDS_BALANCE",
				fmt.Sprintf("Cannot deliver %d of %s: only %d remaining", qty, usage[lineItemID].ProductName, balance),
				map[string]any{
					"item_id":           lineItemID,
					"requested":         qty,
					"remaining_balance": balance,
				},
			)
		}
	}

	o.DeliveryLog = append(o.DeliveryLog, *record)
	o.refreshStatus()
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewDeliveryRecordedEvent(o, record))

	return record, nil
}

// DeleteDelivery removes a delivery record from the log by ID and returns
// the removed record so the caller can audit what was deleted. Aggregates
// are derived by summation, so removal only ever decreases delivered
// quantities and needs no re-validation.
func (o *Order) DeleteDelivery(deliveryID uuid.UUID) (*DeliveryRecord, error) {
	for idx, record := range o.DeliveryLog {
		if record.ID == deliveryID {
			removed := record
			o.DeliveryLog = append(o.DeliveryLog[:idx], o.DeliveryLog[idx+1:]...)
			o.refreshStatus()
			o.UpdatedAt = time.Now()

			o.AddDomainEvent(NewDeliveryDeletedEvent(o, &removed))

			return &removed, nil
		}
	}
	return nil, shared.ErrNotFound.WithDetail("delivery_id", deliveryID)
}

// ProcessReturn validates a return request, computes pro-rata refunds per
// line, and appends an immutable return record. Same all-or-nothing policy
// as RecordDelivery. When the return pushes already-delivered stock above
// the new effective entitlement, an OverDeliveryDetected event is raised
// for manual warehouse reconciliation; the derivation itself clamps.
func (o *Order) ProcessReturn(actor identity.Actor, reason string, items []ReturnRequestItem, refundRequired bool) (*ReturnRecord, error) {
	record, err := newReturnRecord(o.ID, reason, refundRequired, actor)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Return must contain at least one item")
	}

	usage := o.Usage()
	requested := make(map[uuid.UUID]int64, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, shared.NewDomainErrorWithDetails(
				"INVALID_QUANTITY",
				"Return quantity must be positive",
				map[string]any{"item_id": item.LineItemID},
			)
		}
		if o.GetLineItem(item.LineItemID) == nil {
			return nil, shared.NewDomainErrorWithDetails(
				"ITEM_NOT_FOUND",
				"Order has no line item "+item.LineItemID.String(),
				map[string]any{"item_id": item.LineItemID},
			)
		}
		requested[item.LineItemID] += item.Quantity
	}

	for lineItemID, qty := range requested {
		u := usage[lineItemID]
		returnable := u.OrderedQuantity - u.ReturnedQty
		if qty > returnable {
			return nil, shared.NewDomainErrorWithDetails(
				"QUANTITY_EXCEEDS_ORDERED",
				fmt.Sprintf("Cannot return %d of %s: only %d returnable", qty, u.ProductName, returnable),
				map[string]any{
					"item_id":    lineItemID,
					"requested":  qty,
					"returnable": returnable,
				},
			)
		}
	}

	for _, item := range items {
		line := o.GetLineItem(item.LineItemID)
		amount, tax := line.RefundForQuantity(item.Quantity)
		record.addItem(item.LineItemID, item.Quantity, amount, tax)
	}

	overBefore := overDeliveredByItem(usage)

	o.ReturnLog = append(o.ReturnLog, *record)
	o.HasReturns = true
	o.refreshStatus()
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewReturnProcessedEvent(o, record))

	if over := newOverDeliveries(overBefore, o.Usage()); len(over) > 0 {
		o.AddDomainEvent(NewOverDeliveryDetectedEvent(o, record, over))
	}

	return record, nil
}

// GetDeliveryRecord returns a delivery record by ID
func (o *Order) GetDeliveryRecord(deliveryID uuid.UUID) *DeliveryRecord {
	for idx := range o.DeliveryLog {
		if o.DeliveryLog[idx].ID == deliveryID {
			return &o.DeliveryLog[idx]
		}
	}
	return nil
}

// refreshStatus recomputes the cached delivery status from the logs
func (o *Order) refreshStatus() {
	o.DeliveryStatus = CalculateStatus(o.Totals())
}

// overDeliveredByItem extracts the over-delivered units per line item
func overDeliveredByItem(usage map[uuid.UUID]ItemUsage) map[uuid.UUID]int64 {
	over := make(map[uuid.UUID]int64)
	for id, u := range usage {
		if u.OverDelivered > 0 {
			over[id] = u.OverDelivered
		}
	}
	return over
}

// newOverDeliveries returns the items whose over-delivery grew compared
// to the snapshot taken before the return was appended
func newOverDeliveries(before map[uuid.UUID]int64, after map[uuid.UUID]ItemUsage) []OverDelivery {
	var result []OverDelivery
	for id, u := range after {
		if u.OverDelivered > before[id] {
			result = append(result, OverDelivery{
				LineItemID:  id,
				ProductName: u.ProductName,
				Quantity:    u.OverDelivered,
			})
		}
	}
	return result
}
