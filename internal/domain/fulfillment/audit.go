package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/identity"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
)

// AuditNote is one entry in an order's activity history
type AuditNote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ActorID   uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`
	ActorName string    `gorm:"size:200;not null" json:"actor_name"`
	Note      string    `gorm:"size:1000;not null" json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAuditNote creates an audit note for an order
func NewAuditNote(orderID uuid.UUID, actor identity.Actor, note string) (*AuditNote, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if note == "" {
		return nil, shared.NewDomainError("INVALID_NOTE", "Audit note cannot be empty")
	}

	return &AuditNote{
		ID:        uuid.New(),
		OrderID:   orderID,
		ActorID:   actor.ID,
		ActorName: actor.DisplayName,
		Note:      note,
		CreatedAt: time.Now(),
	}, nil
}

// AuditTrail is the activity-history collaborator
type AuditTrail interface {
	AppendNote(ctx context.Context, note *AuditNote) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]AuditNote, error)
}
