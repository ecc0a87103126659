package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RefundMethod describes how the customer is made whole
type RefundMethod string

const (
	// RefundMethodCash indicates money is paid back to the customer
	// (they already settled the order in full)
	RefundMethodCash RefundMethod = "CASH"
	// RefundMethodInvoiceCredit indicates the outstanding invoice balance
	// is reduced instead of cash changing hands
	RefundMethodInvoiceCredit RefundMethod = "INVOICE_CREDIT"
)

// IsValid checks if the method is a known RefundMethod
func (m RefundMethod) IsValid() bool {
	switch m {
	case RefundMethodCash, RefundMethodInvoiceCredit:
		return true
	}
	return false
}

// String returns the string representation of RefundMethod
func (m RefundMethod) String() string {
	return string(m)
}

// RefundTransactionLine carries the computed refund for a single order line
type RefundTransactionLine struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RefundTransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineItemID          uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName         string          `gorm:"size:200;not null"`
	Quantity            int64           `gorm:"not null"`
	Amount              decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Tax                 decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt           time.Time
}

// RefundTransaction is the immutable ledger entry created for every
// processed return. One transaction per return record.
type RefundTransaction struct {
	shared.BaseAggregateRoot
	OrderID     uuid.UUID               `gorm:"type:uuid;not null;index"`
	Reason      string                  `gorm:"size:500;not null"`
	Method      RefundMethod            `gorm:"size:20;not null"`
	Lines       []RefundTransactionLine `gorm:"foreignKey:RefundTransactionID"`
	TotalAmount decimal.Decimal         `gorm:"type:numeric(14,2);not null"`
	TotalTax    decimal.Decimal         `gorm:"type:numeric(14,2);not null"`
}

// NewRefundTransaction creates a refund transaction for an order
func NewRefundTransaction(orderID uuid.UUID, reason string, method RefundMethod) (*RefundTransaction, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Refund reason cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFUND_METHOD", "Unknown refund method")
	}

	return &RefundTransaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		Reason:            reason,
		Method:            method,
		Lines:             make([]RefundTransactionLine, 0),
		TotalAmount:       decimal.Zero,
		TotalTax:          decimal.Zero,
	}, nil
}

// AddLine appends a computed per-line refund and updates the totals
func (t *RefundTransaction) AddLine(lineItemID uuid.UUID, productName string, quantity int64, amount, tax decimal.Decimal) error {
	if lineItemID == uuid.Nil {
		return shared.NewDomainError("INVALID_LINE_ITEM", "Line item ID cannot be empty")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Refund quantity must be positive")
	}
	if amount.IsNegative() || tax.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund amounts cannot be negative")
	}

	t.Lines = append(t.Lines, RefundTransactionLine{
		ID:                  uuid.New(),
		RefundTransactionID: t.ID,
		LineItemID:          lineItemID,
		ProductName:         productName,
		Quantity:            quantity,
		Amount:              amount,
		Tax:                 tax,
		CreatedAt:           time.Now(),
	})
	t.TotalAmount = t.TotalAmount.Add(amount)
	t.TotalTax = t.TotalTax.Add(tax)
	t.UpdatedAt = time.Now()

	return nil
}

// GrandTotal returns the total amount owed back including tax
func (t *RefundTransaction) GrandTotal() decimal.Decimal {
	return t.TotalAmount.Add(t.TotalTax)
}

// RequiresPayout returns true when cash must actually be paid back
func (t *RefundTransaction) RequiresPayout() bool {
	return t.Method == RefundMethodCash
}
