package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/identity"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReturnItem is one returned quantity within a return record, together
// with the pro-rata refund computed for it at processing time.
type ReturnItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReturnRecordID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineItemID     uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity       int64           `gorm:"not null"`
	RefundAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	RefundTax      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt      time.Time
}

// ReturnRecord is one append-only entry in an order's return log.
// It is a financial event: never deleted, never mutated. Each record is
// one-to-one with a refund transaction in the refund ledger.
type ReturnRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Reason         string    `gorm:"size:500;not null"`
	// RefundRequired is true when the customer already paid in full and
	// is owed money back; false reduces the outstanding invoice instead.
	RefundRequired bool         `gorm:"not null"`
	Items          []ReturnItem `gorm:"foreignKey:ReturnRecordID;constraint:OnDelete:CASCADE"`
	CreatedByID    uuid.UUID    `gorm:"type:uuid;not null"`
	CreatedByName  string       `gorm:"size:200;not null"`
	CreatedAt      time.Time
}

// ReturnRequestItem is one requested line of a return
type ReturnRequestItem struct {
	LineItemID uuid.UUID
	Quantity   int64
}

// newReturnRecord builds a return record with refunds already computed;
// quantity validation happens on the Order aggregate before this is called.
func newReturnRecord(orderID uuid.UUID, reason string, refundRequired bool, actor identity.Actor) (*ReturnRecord, error) {
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Return reason cannot be empty")
	}

	return &ReturnRecord{
		ID:             uuid.New(),
		OrderID:        orderID,
		Reason:         reason,
		RefundRequired: refundRequired,
		Items:          make([]ReturnItem, 0),
		CreatedByID:    actor.ID,
		CreatedByName:  actor.DisplayName,
		CreatedAt:      time.Now(),
	}, nil
}

// addItem appends a returned line with its computed refund
func (r *ReturnRecord) addItem(lineItemID uuid.UUID, qty int64, refundAmount, refundTax decimal.Decimal) {
	r.Items = append(r.Items, ReturnItem{
		ID:             uuid.New(),
		ReturnRecordID: r.ID,
		LineItemID:     lineItemID,
		Quantity:       qty,
		RefundAmount:   refundAmount,
		RefundTax:      refundTax,
		CreatedAt:      time.Now(),
	})
}

// QuantityFor returns the quantity this record returned for a line item
func (r *ReturnRecord) QuantityFor(lineItemID uuid.UUID) int64 {
	var total int64
	for _, item := range r.Items {
		if item.LineItemID == lineItemID {
			total += item.Quantity
		}
	}
	return total
}

// TotalRefundAmount returns the sum of all line refunds excluding tax
func (r *ReturnRecord) TotalRefundAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.RefundAmount)
	}
	return total
}

// TotalRefundTax returns the sum of all pro-rata tax refunds
func (r *ReturnRecord) TotalRefundTax() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.RefundTax)
	}
	return total
}

// GrandTotal returns the order-level refund: line refunds plus their taxes
func (r *ReturnRecord) GrandTotal() decimal.Decimal {
	return r.TotalRefundAmount().Add(r.TotalRefundTax())
}
