package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/finance"
	"gorm.io/gorm"
)

// GormRefundLedger implements finance.RefundLedger using GORM
type GormRefundLedger struct {
	db *gorm.DB
}

// NewGormRefundLedger creates a new GORM-based refund ledger
func NewGormRefundLedger(db *gorm.DB) *GormRefundLedger {
	return &GormRefundLedger{db: db}
}

// FindByOrder lists an order's refund transactions, oldest first
func (l *GormRefundLedger) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]finance.RefundTransaction, error) {
	var txns []finance.RefundTransaction
	err := l.db.WithContext(ctx).
		Preload("Lines").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
