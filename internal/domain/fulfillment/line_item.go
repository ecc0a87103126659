package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TaxComponent is one named tax charged on an order line, e.g. a sales levy.
// Amount is the tax charged on the whole line at order time.
type TaxComponent struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxComponents is stored as a JSON column on the line item
type TaxComponents []TaxComponent

// LineItem is one line of a purchase order. It is immutable once the
// order is placed: quantities and amounts never change, only the two
// event logs move.
type LineItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName     string          `gorm:"size:200;not null"`
	OrderedQuantity int64           `gorm:"not null"`
	LineTotal       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TaxComponents   TaxComponents   `gorm:"serializer:json"`
	CreatedAt       time.Time
}

// NewLineItem creates a new order line
func NewLineItem(orderID uuid.UUID, productName string, orderedQuantity int64, lineTotal valueobject.Money, taxes []TaxComponent) (*LineItem, error) {
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if orderedQuantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Ordered quantity cannot be negative")
	}
	if lineTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Line total cannot be negative")
	}
	for _, tax := range taxes {
		if tax.Name == "" {
			return nil, shared.NewDomainError("INVALID_TAX", "Tax component name cannot be empty")
		}
		if tax.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_TAX", "Tax component amount cannot be negative")
		}
	}

	return &LineItem{
		ID:              uuid.New(),
		OrderID:         orderID,
		ProductName:     productName,
		OrderedQuantity: orderedQuantity,
		LineTotal:       lineTotal.Amount(),
		TaxComponents:   taxes,
		CreatedAt:       time.Now(),
	}, nil
}

// UnitPrice returns the pro-rata price per ordered unit.
// The divisor is the persisted ordered quantity, never the post-return
// effective one.
func (l *LineItem) UnitPrice() decimal.Decimal {
	if l.OrderedQuantity == 0 {
		return decimal.Zero
	}
	return l.LineTotal.Div(decimal.NewFromInt(l.OrderedQuantity))
}

// RefundForQuantity computes the pro-rata refund for returning qty units:
// round(unit price x qty, 2), plus each tax component refunded with the
// same per-unit method, summed into a single tax figure.
func (l *LineItem) RefundForQuantity(qty int64) (amount, tax decimal.Decimal) {
	if qty <= 0 || l.OrderedQuantity == 0 {
		return decimal.Zero, decimal.Zero
	}

	q := decimal.NewFromInt(qty)
	ordered := decimal.NewFromInt(l.OrderedQuantity)

	amount = l.LineTotal.Div(ordered).Mul(q).Round(2)

	tax = decimal.Zero
	for _, component := range l.TaxComponents {
		tax = tax.Add(component.Amount.Div(ordered).Mul(q).Round(2))
	}
	return amount, tax
}

// GetLineTotalMoney returns the line total as Money value object
func (l *LineItem) GetLineTotalMoney() valueobject.Money {
	return valueobject.NewMoneyHKD(l.LineTotal)
}
