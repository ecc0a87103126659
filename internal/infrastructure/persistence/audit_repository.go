package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/fulfillment"
	"gorm.io/gorm"
)

// GormAuditTrail implements fulfillment.AuditTrail using GORM
type GormAuditTrail struct {
	db *gorm.DB
}

// NewGormAuditTrail creates a new GORM-based audit trail
func NewGormAuditTrail(db *gorm.DB) *GormAuditTrail {
	return &GormAuditTrail{db: db}
}

// AppendNote persists an audit note
func (t *GormAuditTrail) AppendNote(ctx context.Context, note *fulfillment.AuditNote) error {
	return t.db.WithContext(ctx).Create(note).Error
}

// ListByOrder lists an order's activity history, oldest first
func (t *GormAuditTrail) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.AuditNote, error) {
	var notes []fulfillment.AuditNote
	err := t.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}
