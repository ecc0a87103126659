package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/identity"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
)

// DeliveryItem is one delivered quantity within a delivery record
type DeliveryItem struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeliveryRecordID uuid.UUID `gorm:"type:uuid;not null;index"`
	LineItemID       uuid.UUID `gorm:"type:uuid;not null"`
	Quantity         int64     `gorm:"not null"`
	CreatedAt        time.Time
}

// DeliveryRecord is one append-only entry in an order's delivery log.
// Immutable after creation except for whole-record deletion by an
// administrator.
type DeliveryRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	DeliveryDate  time.Time `gorm:"type:date;not null"`
	Notes         string    `gorm:"size:1000"`
	Items         []DeliveryItem `gorm:"foreignKey:DeliveryRecordID;constraint:OnDelete:CASCADE"`
	CreatedByID   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedByName string    `gorm:"size:200;not null"`
	CreatedAt     time.Time
}

// DeliveryRequestItem is one requested line of a delivery
type DeliveryRequestItem struct {
	LineItemID uuid.UUID
	Quantity   int64
}

// newDeliveryRecord builds a delivery record; quantity-vs-balance
// validation happens on the Order aggregate before this is called.
func newDeliveryRecord(orderID uuid.UUID, date time.Time, notes string, actor identity.Actor, items []DeliveryRequestItem) (*DeliveryRecord, error) {
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Delivery date is required")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Delivery must contain at least one item")
	}

	record := &DeliveryRecord{
		ID:            uuid.New(),
		OrderID:       orderID,
		DeliveryDate:  truncateToDate(date),
		Notes:         notes,
		Items:         make([]DeliveryItem, 0, len(items)),
		CreatedByID:   actor.ID,
		CreatedByName: actor.DisplayName,
		CreatedAt:     time.Now(),
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, shared.NewDomainErrorWithDetails(
				"INVALID_QUANTITY",
				"Delivery quantity must be positive",
				map[string]any{"item_id": item.LineItemID},
			)
		}
		record.Items = append(record.Items, DeliveryItem{
			ID:               uuid.New(),
			DeliveryRecordID: record.ID,
			LineItemID:       item.LineItemID,
			Quantity:         item.Quantity,
			CreatedAt:        time.Now(),
		})
	}

	return record, nil
}

// QuantityFor returns the quantity this record delivered for a line item
func (r *DeliveryRecord) QuantityFor(lineItemID uuid.UUID) int64 {
	var total int64
	for _, item := range r.Items {
		if item.LineItemID == lineItemID {
			total += item.Quantity
		}
	}
	return total
}

// TotalQuantity returns the sum of all delivered quantities in this record
func (r *DeliveryRecord) TotalQuantity() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.Quantity
	}
	return total
}

// truncateToDate drops the time component, keeping a calendar date
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
