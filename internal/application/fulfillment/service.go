package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/finance"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/fulfillment"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/identity"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// Service reconciles order fulfillment: it owns the three mutating
// operations (record delivery, delete delivery, process return) and the
// derived read view. Every mutation is all-or-nothing and persisted with
// an optimistic version check.
type Service struct {
	orders     fulfillment.OrderRepository
	refunds    finance.RefundLedger
	audit      fulfillment.AuditTrail
	authorizer identity.Authorizer
	events     shared.EventPublisher
	cache      ViewCache
	logger     *zap.Logger
}

// NewService creates a fulfillment Service
func NewService(
	orders fulfillment.OrderRepository,
	refunds finance.RefundLedger,
	audit fulfillment.AuditTrail,
	authorizer identity.Authorizer,
	logger *zap.Logger,
) *Service {
	return &Service{
		orders:     orders,
		refunds:    refunds,
		audit:      audit,
		authorizer: authorizer,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher for domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// SetViewCache sets the fulfillment view cache
func (s *Service) SetViewCache(cache ViewCache) {
	s.cache = cache
}

// CreateOrder creates a new order with its fixed line items
func (s *Service) CreateOrder(ctx context.Context, actor identity.Actor, input CreateOrderInput) (*FulfillmentView, error) {
	if !s.authorizer.CanEditOrder(actor) {
		return nil, shared.ErrForbidden
	}

	order, err := fulfillment.NewOrder(input.OrderNumber, input.CustomerName)
	if err != nil {
		return nil, err
	}

	for _, line := range input.Lines {
		lineTotal, err := valueobject.NewMoneyHKDFromString(line.LineTotal)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Invalid line total: "+line.LineTotal)
		}
		if _, err := order.AddLineItem(line.ProductName, line.OrderedQuantity, lineTotal, line.TaxComponents); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, s.asDependencyError(err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber))

	return ToFulfillmentView(order), nil
}

// RecordDelivery validates and appends a delivery event, then returns the
// refreshed fulfillment view
func (s *Service) RecordDelivery(ctx context.Context, actor identity.Actor, orderID uuid.UUID, input RecordDeliveryInput) (*FulfillmentView, error) {
	if !s.authorizer.CanEditOrder(actor) {
		return nil, shared.ErrForbidden
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	record, err := order.RecordDelivery(actor, input.Date, input.Notes, input.Items)
	if err != nil {
		return nil, err
	}

	if err := s.orders.AppendDelivery(ctx, order, record); err != nil {
		return nil, s.asDependencyError(err)
	}

	s.appendAuditNote(ctx, order.ID, actor, fmt.Sprintf(
		"Recorded delivery on %s: %s",
		record.DeliveryDate.Format("2006-01-02"),
		s.summarizeDelivery(order, record),
	))
	s.publishEvents(ctx, order)
	s.invalidateView(ctx, order.ID)

	s.logger.Info("delivery recorded",
		zap.String("order_id", order.ID.String()),
		zap.String("delivery_id", record.ID.String()),
		zap.Int64("quantity", record.TotalQuantity()),
		zap.String("actor", actor.DisplayName))

	return ToFulfillmentView(order), nil
}

// DeleteDelivery removes a delivery record by ID. Privileged: only actors
// allowed to delete delivery records may call it.
func (s *Service) DeleteDelivery(ctx context.Context, actor identity.Actor, orderID, deliveryID uuid.UUID) (*FulfillmentView, error) {
	if !s.authorizer.CanDeleteDeliveryRecord(actor) {
		return nil, shared.ErrForbidden
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	removed, err := order.DeleteDelivery(deliveryID)
	if err != nil {
		return nil, err
	}

	if err := s.orders.RemoveDelivery(ctx, order, deliveryID); err != nil {
		return nil, s.asDependencyError(err)
	}

	s.appendAuditNote(ctx, order.ID, actor, fmt.Sprintf(
		"Deleted delivery of %s (dated %s, recorded by %s)",
		s.summarizeDelivery(order, removed),
		removed.DeliveryDate.Format("2006-01-02"),
		removed.CreatedByName,
	))
	s.publishEvents(ctx, order)
	s.invalidateView(ctx, order.ID)

	s.logger.Info("delivery deleted",
		zap.String("order_id", order.ID.String()),
		zap.String("delivery_id", deliveryID.String()),
		zap.String("actor", actor.DisplayName))

	return ToFulfillmentView(order), nil
}

// ProcessReturn validates a return request, writes the refund transaction
// and the return record atomically, then returns the refreshed view
func (s *Service) ProcessReturn(ctx context.Context, actor identity.Actor, orderID uuid.UUID, input ProcessReturnInput) (*FulfillmentView, error) {
	if !s.authorizer.CanEditOrder(actor) {
		return nil, shared.ErrForbidden
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	record, err := order.ProcessReturn(actor, input.Reason, input.Items, input.RefundRequired)
	if err != nil {
		return nil, err
	}

	refund, err := s.buildRefundTransaction(order, record)
	if err != nil {
		return nil, err
	}

	// The repository persists record and refund in one transaction: if the
	// ledger write fails, the return record is not committed.
	if err := s.orders.AppendReturn(ctx, order, record, refund); err != nil {
		return nil, s.asDependencyError(err)
	}

	s.appendAuditNote(ctx, order.ID, actor, fmt.Sprintf(
		"Processed return (%s): %s, refund %s",
		record.Reason,
		s.summarizeReturn(order, record),
		record.GrandTotal().StringFixed(2),
	))
	s.noteOverDeliveries(ctx, order, actor)
	s.publishEvents(ctx, order)
	s.invalidateView(ctx, order.ID)

	s.logger.Info("return processed",
		zap.String("order_id", order.ID.String()),
		zap.String("return_id", record.ID.String()),
		zap.String("refund_total", record.GrandTotal().StringFixed(2)),
		zap.Bool("refund_required", record.RefundRequired),
		zap.String("actor", actor.DisplayName))

	return ToFulfillmentView(order), nil
}

// GetFulfillmentView returns the derived per-item table and status,
// recomputed from the logs (served from cache until the next append)
func (s *Service) GetFulfillmentView(ctx context.Context, orderID uuid.UUID) (*FulfillmentView, error) {
	if s.cache != nil {
		if view, ok := s.cache.Get(ctx, orderID); ok {
			return view, nil
		}
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	view := ToFulfillmentView(order)
	if s.cache != nil {
		s.cache.Set(ctx, orderID, view)
	}
	return view, nil
}

// GetFulfillmentViewByNumber resolves an order by its human-facing number
func (s *Service) GetFulfillmentViewByNumber(ctx context.Context, orderNumber string) (*FulfillmentView, error) {
	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.GetFulfillmentView(ctx, order.ID)
}

// ListDeliveries returns the order's delivery log
func (s *Service) ListDeliveries(ctx context.Context, orderID uuid.UUID) ([]DeliveryRecordResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToDeliveryRecordResponses(order.DeliveryLog), nil
}

// ListReturns returns the order's return log
func (s *Service) ListReturns(ctx context.Context, orderID uuid.UUID) ([]ReturnRecordResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToReturnRecordResponses(order.ReturnLog), nil
}

// ListRefunds returns the refund ledger entries created for an order
func (s *Service) ListRefunds(ctx context.Context, orderID uuid.UUID) ([]RefundTransactionResponse, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	txns, err := s.refunds.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, s.asDependencyError(err)
	}
	return ToRefundTransactionResponses(txns), nil
}

// ListAuditNotes returns the order's activity history
func (s *Service) ListAuditNotes(ctx context.Context, orderID uuid.UUID) ([]fulfillment.AuditNote, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.audit.ListByOrder(ctx, orderID)
}

// buildRefundTransaction maps a return record onto a refund ledger entry
func (s *Service) buildRefundTransaction(order *fulfillment.Order, record *fulfillment.ReturnRecord) (*finance.RefundTransaction, error) {
	method := finance.RefundMethodInvoiceCredit
	if record.RefundRequired {
		method = finance.RefundMethodCash
	}

	refund, err := finance.NewRefundTransaction(order.ID, record.Reason, method)
	if err != nil {
		return nil, err
	}

	for _, item := range record.Items {
		line := order.GetLineItem(item.LineItemID)
		if line == nil {
			return nil, shared.ErrNotFound.WithDetail("item_id", item.LineItemID)
		}
		if err := refund.AddLine(item.LineItemID, line.ProductName, item.Quantity, item.RefundAmount, item.RefundTax); err != nil {
			return nil, err
		}
	}
	return refund, nil
}

// summarizeDelivery renders "4 x Apples, 5 x Bananas" for audit notes
func (s *Service) summarizeDelivery(order *fulfillment.Order, record *fulfillment.DeliveryRecord) string {
	parts := make([]string, 0, len(record.Items))
	for _, item := range record.Items {
		name := item.LineItemID.String()
		if line := order.GetLineItem(item.LineItemID); line != nil {
			name = line.ProductName
		}
		parts = append(parts, fmt.Sprintf("%d x %s", item.Quantity, name))
	}
	return strings.Join(parts, ", ")
}

// summarizeReturn renders "3 x Apples" for audit notes
func (s *Service) summarizeReturn(order *fulfillment.Order, record *fulfillment.ReturnRecord) string {
	parts := make([]string, 0, len(record.Items))
	for _, item := range record.Items {
		name := item.LineItemID.String()
		if line := order.GetLineItem(item.LineItemID); line != nil {
			name = line.ProductName
		}
		parts = append(parts, fmt.Sprintf("%d x %s", item.Quantity, name))
	}
	return strings.Join(parts, ", ")
}

// noteOverDeliveries records an audit note for any over-delivery the
// pending events flag, so the warehouse can reconcile physical stock
func (s *Service) noteOverDeliveries(ctx context.Context, order *fulfillment.Order, actor identity.Actor) {
	for _, event := range order.GetDomainEvents() {
		over, ok := event.(*fulfillment.OverDeliveryDetectedEvent)
		if !ok {
			continue
		}
		parts := make([]string, 0, len(over.Items))
		for _, item := range over.Items {
			parts = append(parts, fmt.Sprintf("%d x %s", item.Quantity, item.ProductName))
		}
		s.appendAuditNote(ctx, order.ID, actor,
			"Over-delivery detected, warehouse reconciliation needed: "+strings.Join(parts, ", "))
	}
}

// appendAuditNote writes to the activity history; failures are logged but
// never fail the originating operation
func (s *Service) appendAuditNote(ctx context.Context, orderID uuid.UUID, actor identity.Actor, text string) {
	note, err := fulfillment.NewAuditNote(orderID, actor, text)
	if err != nil {
		s.logger.Warn("failed to build audit note", zap.Error(err))
		return
	}
	if err := s.audit.AppendNote(ctx, note); err != nil {
		s.logger.Warn("failed to append audit note",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}

// publishEvents publishes and clears the order's pending domain events
func (s *Service) publishEvents(ctx context.Context, order *fulfillment.Order) {
	if s.events == nil {
		order.ClearDomainEvents()
		return
	}
	for _, event := range order.GetDomainEvents() {
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	order.ClearDomainEvents()
}

// invalidateView drops the cached view after any log mutation
func (s *Service) invalidateView(ctx context.Context, orderID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, orderID)
	}
}

// asDependencyError maps store/ledger failures to the dependency error,
// preserving concurrency conflicts and not-found results
func (s *Service) asDependencyError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if ok := asDomainError(err, &domainErr); ok {
		switch domainErr.Code {
		case shared.ErrConcurrencyConflict.Code, shared.ErrNotFound.Code:
			return err
		}
	}
	return shared.ErrDependencyFailed.WithDetail("cause", err.Error())
}

func asDomainError(err error, target **shared.DomainError) bool {
	de, ok := err.(*shared.DomainError)
	if ok {
		*target = de
	}
	return ok
}
