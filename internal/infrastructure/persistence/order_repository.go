package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/finance"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/fulfillment"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrderRepository implements fulfillment.OrderRepository using GORM.
// All log mutations run in a transaction guarded by a compare-and-swap on
// the order version, so two writers working from the same snapshot cannot
// both commit.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM-based order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads an order with its line items and both event logs
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	var order fulfillment.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_items.created_at ASC")
		}).
		Preload("DeliveryLog", func(db *gorm.DB) *gorm.DB {
			return db.Order("delivery_records.created_at ASC")
		}).
		Preload("DeliveryLog.Items").
		Preload("ReturnLog", func(db *gorm.DB) *gorm.DB {
			return db.Order("return_records.created_at ASC")
		}).
		Preload("ReturnLog.Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber loads an order by its business key
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*fulfillment.Order, error) {
	var order fulfillment.Order
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, order.ID)
}

// Create persists a new order together with its line items
func (r *GormOrderRepository) Create(ctx context.Context, order *fulfillment.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// AppendDelivery persists a newly recorded delivery and the refreshed
// order status under the version check
func (r *GormOrderRepository) AppendDelivery(ctx context.Context, order *fulfillment.Order, record *fulfillment.DeliveryRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.updateOrderWithLock(tx, order); err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

// RemoveDelivery deletes a delivery record (and its items) and persists
// the refreshed order status under the version check
func (r *GormOrderRepository) RemoveDelivery(ctx context.Context, order *fulfillment.Order, deliveryID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.updateOrderWithLock(tx, order); err != nil {
			return err
		}
		if err := tx.Where("delivery_record_id = ?", deliveryID).
			Delete(&fulfillment.DeliveryItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND order_id = ?", deliveryID, order.ID).
			Delete(&fulfillment.DeliveryRecord{}).Error
	})
}

// AppendReturn persists a return record and its refund transaction in one
// transaction: a refund ledger failure rolls the return record back too
func (r *GormOrderRepository) AppendReturn(ctx context.Context, order *fulfillment.Order, record *fulfillment.ReturnRecord, refund *finance.RefundTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.updateOrderWithLock(tx, order); err != nil {
			return err
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if refund != nil {
			if err := tx.Create(refund).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// updateOrderWithLock writes the order's derived columns guarded by a
// version compare-and-swap. RowsAffected == 0 means another writer
// committed since this aggregate was loaded.
func (r *GormOrderRepository) updateOrderWithLock(tx *gorm.DB, order *fulfillment.Order) error {
	var count int64
	if err := tx.Model(&fulfillment.Order{}).
		Where("id = ?", order.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}

	currentVersion := order.Version
	order.Version++
	order.UpdatedAt = time.Now()

	result := tx.Model(&fulfillment.Order{}).
		Where("id = ? AND version = ?", order.ID, currentVersion).
		Updates(map[string]any{
			"has_returns":     order.HasReturns,
			"delivery_status": order.DeliveryStatus,
			"version":         order.Version,
			"updated_at":      order.UpdatedAt,
		})
	if result.Error != nil {
		order.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		order.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}
