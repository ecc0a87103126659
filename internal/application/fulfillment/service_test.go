package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/finance"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/fulfillment"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/identity"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*fulfillment.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Order), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, order *fulfillment.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) AppendDelivery(ctx context.Context, order *fulfillment.Order, record *fulfillment.DeliveryRecord) error {
	args := m.Called(ctx, order, record)
	return args.Error(0)
}

func (m *MockOrderRepository) RemoveDelivery(ctx context.Context, order *fulfillment.Order, deliveryID uuid.UUID) error {
	args := m.Called(ctx, order, deliveryID)
	return args.Error(0)
}

func (m *MockOrderRepository) AppendReturn(ctx context.Context, order *fulfillment.Order, record *fulfillment.ReturnRecord, refund *finance.RefundTransaction) error {
	args := m.Called(ctx, order, record, refund)
	return args.Error(0)
}

// MockRefundLedger is a mock implementation of RefundLedger
type MockRefundLedger struct {
	mock.Mock
}

func (m *MockRefundLedger) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]finance.RefundTransaction, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.RefundTransaction), args.Error(1)
}

// MockAuditTrail is a mock implementation of AuditTrail
type MockAuditTrail struct {
	mock.Mock
}

func (m *MockAuditTrail) AppendNote(ctx context.Context, note *fulfillment.AuditNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockAuditTrail) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.AuditNote, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.AuditNote), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type serviceFixture struct {
	service *Service
	orders  *MockOrderRepository
	refunds *MockRefundLedger
	audit   *MockAuditTrail
}

func newServiceFixture() *serviceFixture {
	orders := new(MockOrderRepository)
	refunds := new(MockRefundLedger)
	audit := new(MockAuditTrail)
	service := NewService(orders, refunds, audit, identity.NewRoleAuthorizer(), zap.NewNop())
	return &serviceFixture{service: service, orders: orders, refunds: refunds, audit: audit}
}

func staffActor() identity.Actor {
	return identity.Actor{ID: uuid.New(), DisplayName: "Mei Ling", Role: identity.RoleStaff}
}

func adminActor() identity.Actor {
	return identity.Actor{ID: uuid.New(), DisplayName: "Ah Ho", Role: identity.RoleAdmin}
}

func newTestOrder(t *testing.T) *fulfillment.Order {
	t.Helper()
	order, err := fulfillment.NewOrder("PO-2026-101", "Sheung Wan Grocer")
	assert.NoError(t, err)
	return order
}

func addTestLine(t *testing.T, order *fulfillment.Order, product string, qty int64, total float64) *fulfillment.LineItem {
	t.Helper()
	line, err := order.AddLineItem(product, qty, valueobject.NewMoneyHKDFromFloat(total), nil)
	assert.NoError(t, err)
	return line
}

func TestService_RecordDelivery(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

	t.Run("records delivery and returns refreshed view", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Fuji Apples", 10, 120)

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.orders.On("AppendDelivery", ctx, order, mock.AnythingOfType("*fulfillment.DeliveryRecord")).Return(nil)
		f.audit.On("AppendNote", ctx, mock.AnythingOfType("*fulfillment.AuditNote")).Return(nil)

		view, err := f.service.RecordDelivery(ctx, staffActor(), order.ID, RecordDeliveryInput{
			Date:  date,
			Items: []fulfillment.DeliveryRequestItem{{LineItemID: line.ID, Quantity: 4}},
		})

		assert.NoError(t, err)
		assert.Equal(t, fulfillment.DeliveryStatusPartial, view.Status)
		assert.Equal(t, int64(4), view.Items[0].DeliveredQty)
		assert.Equal(t, int64(6), view.Items[0].Balance)
		f.orders.AssertExpectations(t)
		f.audit.AssertExpectations(t)
	})

	t.Run("rejects actor without edit privilege", func(t *testing.T) {
		f := newServiceFixture()
		actor := identity.Actor{ID: uuid.New(), DisplayName: "Visitor", Role: identity.Role("GUEST")}

		_, err := f.service.RecordDelivery(ctx, actor, uuid.New(), RecordDeliveryInput{Date: date})

		assert.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*shared.DomainError).Code)
		f.orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("does not persist when validation fails", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Fuji Apples", 10, 120)

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)

		_, err := f.service.RecordDelivery(ctx, staffActor(), order.ID, RecordDeliveryInput{
			Date:  date,
			Items: []fulfillment.DeliveryRequestItem{{LineItemID: line.ID, Quantity: 11}},
		})

		assert.Error(t, err)
		assert.Equal(t, "QUANTITY_EXCEEDS_BALANCE", err.(*shared.DomainError).Code)
		f.orders.AssertNotCalled(t, "AppendDelivery", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates concurrency conflict from the store", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Fuji Apples", 10, 120)

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.orders.On("AppendDelivery", ctx, order, mock.Anything).Return(shared.ErrConcurrencyConflict)

		_, err := f.service.RecordDelivery(ctx, staffActor(), order.ID, RecordDeliveryInput{
			Date:  date,
			Items: []fulfillment.DeliveryRequestItem{{LineItemID: line.ID, Quantity: 1}},
		})

		assert.Error(t, err)
		assert.Equal(t, "CONCURRENCY_CONFLICT", err.(*shared.DomainError).Code)
	})

	t.Run("maps unknown store failures to dependency error", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Fuji Apples", 10, 120)

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.orders.On("AppendDelivery", ctx, order, mock.Anything).Return(errors.New("connection reset"))

		_, err := f.service.RecordDelivery(ctx, staffActor(), order.ID, RecordDeliveryInput{
			Date:  date,
			Items: []fulfillment.DeliveryRequestItem{{LineItemID: line.ID, Quantity: 1}},
		})

		assert.Error(t, err)
		assert.Equal(t, "DEPENDENCY_FAILED", err.(*shared.DomainError).Code)
	})
}

func TestService_DeleteDelivery(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

	t.Run("admin deletes a delivery and status recomputes", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Honey Mangoes", 5, 200)

		record, err := order.RecordDelivery(adminActor(), date, "", []fulfillment.DeliveryRequestItem{
			{LineItemID: line.ID, Quantity: 5},
		})
		assert.NoError(t, err)
		order.ClearDomainEvents()
		assert.Equal(t, fulfillment.DeliveryStatusComplete, order.DeliveryStatus)

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.orders.On("RemoveDelivery", ctx, order, record.ID).Return(nil)
		f.audit.On("AppendNote", ctx, mock.AnythingOfType("*fulfillment.AuditNote")).Return(nil)

		view, err := f.service.DeleteDelivery(ctx, adminActor(), order.ID, record.ID)

		assert.NoError(t, err)
		assert.Equal(t, fulfillment.DeliveryStatusNotStarted, view.Status)
		assert.Equal(t, int64(0), view.TotalDelivered)
		f.orders.AssertExpectations(t)
	})

	t.Run("staff cannot delete delivery records", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.service.DeleteDelivery(ctx, staffActor(), uuid.New(), uuid.New())

		assert.Error(t, err)
		assert.Equal(t, "FORBIDDEN", err.(*shared.DomainError).Code)
		f.orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown delivery id", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		addTestLine(t, order, "Honey Mangoes", 5, 200)

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)

		_, err := f.service.DeleteDelivery(ctx, adminActor(), order.ID, uuid.New())

		assert.Error(t, err)
		assert.Equal(t, "NOT_FOUND", err.(*shared.DomainError).Code)
		f.orders.AssertNotCalled(t, "RemoveDelivery", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_ProcessReturn(t *testing.T) {
	ctx := context.Background()

	t.Run("writes return and refund atomically via the repository", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Fuji Apples", 10, 50)

		var captured *finance.RefundTransaction
		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.orders.On("AppendReturn", ctx, order, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				captured = args.Get(3).(*finance.RefundTransaction)
			}).
			Return(nil)
		f.audit.On("AppendNote", ctx, mock.AnythingOfType("*fulfillment.AuditNote")).Return(nil)

		view, err := f.service.ProcessReturn(ctx, staffActor(), order.ID, ProcessReturnInput{
			Reason:         "bruised fruit",
			RefundRequired: true,
			Items:          []fulfillment.ReturnRequestItem{{LineItemID: line.ID, Quantity: 3}},
		})

		assert.NoError(t, err)
		assert.True(t, view.HasReturns)
		assert.Equal(t, int64(3), view.Items[0].ReturnedQty)
		assert.Equal(t, int64(7), view.Items[0].EffectiveQty)

		assert.NotNil(t, captured)
		assert.Equal(t, finance.RefundMethodCash, captured.Method)
		assert.Equal(t, "15", captured.TotalAmount.String())
		assert.Len(t, captured.Lines, 1)
		f.orders.AssertExpectations(t)
	})

	t.Run("credits the invoice when no cash refund is owed", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Fuji Apples", 10, 50)

		var captured *finance.RefundTransaction
		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.orders.On("AppendReturn", ctx, order, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				captured = args.Get(3).(*finance.RefundTransaction)
			}).
			Return(nil)
		f.audit.On("AppendNote", ctx, mock.AnythingOfType("*fulfillment.AuditNote")).Return(nil)

		_, err := f.service.ProcessReturn(ctx, staffActor(), order.ID, ProcessReturnInput{
			Reason: "wrong variety",
			Items:  []fulfillment.ReturnRequestItem{{LineItemID: line.ID, Quantity: 2}},
		})

		assert.NoError(t, err)
		assert.Equal(t, finance.RefundMethodInvoiceCredit, captured.Method)
		assert.False(t, captured.RequiresPayout())
	})

	t.Run("ledger failure surfaces as dependency error", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Fuji Apples", 10, 50)

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.orders.On("AppendReturn", ctx, order, mock.Anything, mock.Anything).
			Return(errors.New("ledger unavailable"))

		_, err := f.service.ProcessReturn(ctx, staffActor(), order.ID, ProcessReturnInput{
			Reason: "bruised fruit",
			Items:  []fulfillment.ReturnRequestItem{{LineItemID: line.ID, Quantity: 1}},
		})

		assert.Error(t, err)
		assert.Equal(t, "DEPENDENCY_FAILED", err.(*shared.DomainError).Code)
	})

	t.Run("over-delivery adds a reconciliation audit note", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Fuji Apples", 10, 50)
		date := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

		_, err := order.RecordDelivery(staffActor(), date, "", []fulfillment.DeliveryRequestItem{
			{LineItemID: line.ID, Quantity: 10},
		})
		assert.NoError(t, err)
		order.ClearDomainEvents()

		var notes []string
		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.orders.On("AppendReturn", ctx, order, mock.Anything, mock.Anything).Return(nil)
		f.audit.On("AppendNote", ctx, mock.AnythingOfType("*fulfillment.AuditNote")).
			Run(func(args mock.Arguments) {
				notes = append(notes, args.Get(1).(*fulfillment.AuditNote).Note)
			}).
			Return(nil)

		view, err := f.service.ProcessReturn(ctx, staffActor(), order.ID, ProcessReturnInput{
			Reason: "customer cancelled part of the order",
			Items:  []fulfillment.ReturnRequestItem{{LineItemID: line.ID, Quantity: 4}},
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(4), view.Items[0].OverDelivered)
		assert.Len(t, notes, 2)
		assert.Contains(t, notes[1], "Over-delivery detected")
		assert.Contains(t, notes[1], "4 x Fuji Apples")
	})
}

func TestService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("creates order with line items", func(t *testing.T) {
		f := newServiceFixture()
		f.orders.On("Create", ctx, mock.AnythingOfType("*fulfillment.Order")).Return(nil)

		view, err := f.service.CreateOrder(ctx, staffActor(), CreateOrderInput{
			OrderNumber:  "PO-2026-102",
			CustomerName: "Kennedy Town Cafe",
			Lines: []CreateOrderLineInput{
				{ProductName: "Dragon Fruit", OrderedQuantity: 20, LineTotal: "360.00"},
				{ProductName: "Kiwi", OrderedQuantity: 30, LineTotal: "150.00"},
			},
		})

		assert.NoError(t, err)
		assert.Equal(t, "PO-2026-102", view.OrderNumber)
		assert.Len(t, view.Items, 2)
		assert.Equal(t, fulfillment.DeliveryStatusNotStarted, view.Status)
		assert.Equal(t, int64(50), view.TotalEffective)
		f.orders.AssertExpectations(t)
	})

	t.Run("rejects malformed line total", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.service.CreateOrder(ctx, staffActor(), CreateOrderInput{
			OrderNumber:  "PO-2026-103",
			CustomerName: "Kennedy Town Cafe",
			Lines:        []CreateOrderLineInput{{ProductName: "Kiwi", OrderedQuantity: 5, LineTotal: "not-a-number"}},
		})

		assert.Error(t, err)
		assert.Equal(t, "INVALID_AMOUNT", err.(*shared.DomainError).Code)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestService_GetFulfillmentView(t *testing.T) {
	ctx := context.Background()

	t.Run("serves from cache when present", func(t *testing.T) {
		f := newServiceFixture()
		orderID := uuid.New()
		cached := &FulfillmentView{OrderID: orderID, OrderNumber: "PO-2026-104"}

		cache := newStubCache()
		cache.Set(ctx, orderID, cached)
		f.service.SetViewCache(cache)

		view, err := f.service.GetFulfillmentView(ctx, orderID)

		assert.NoError(t, err)
		assert.Same(t, cached, view)
		f.orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("recomputes and fills cache on miss", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		addTestLine(t, order, "Pomelo", 8, 160)

		cache := newStubCache()
		f.service.SetViewCache(cache)
		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)

		view, err := f.service.GetFulfillmentView(ctx, order.ID)

		assert.NoError(t, err)
		assert.Equal(t, order.OrderNumber, view.OrderNumber)
		_, ok := cache.Get(ctx, order.ID)
		assert.True(t, ok)
	})

	t.Run("mutations invalidate the cached view", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Pomelo", 8, 160)

		cache := newStubCache()
		cache.Set(ctx, order.ID, &FulfillmentView{OrderID: order.ID})
		f.service.SetViewCache(cache)

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.orders.On("AppendDelivery", ctx, order, mock.Anything).Return(nil)
		f.audit.On("AppendNote", ctx, mock.Anything).Return(nil)

		_, err := f.service.RecordDelivery(ctx, staffActor(), order.ID, RecordDeliveryInput{
			Date:  time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
			Items: []fulfillment.DeliveryRequestItem{{LineItemID: line.ID, Quantity: 2}},
		})

		assert.NoError(t, err)
		_, ok := cache.Get(ctx, order.ID)
		assert.False(t, ok)
	})
}

func TestService_EventPublishing(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes and clears pending events", func(t *testing.T) {
		f := newServiceFixture()
		order := newTestOrder(t)
		line := addTestLine(t, order, "Lychee", 12, 240)

		publisher := new(MockEventPublisher)
		publisher.On("Publish", ctx, mock.Anything).Return(nil)
		f.service.SetEventPublisher(publisher)

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.orders.On("AppendDelivery", ctx, order, mock.Anything).Return(nil)
		f.audit.On("AppendNote", ctx, mock.Anything).Return(nil)

		_, err := f.service.RecordDelivery(ctx, staffActor(), order.ID, RecordDeliveryInput{
			Date:  time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
			Items: []fulfillment.DeliveryRequestItem{{LineItemID: line.ID, Quantity: 3}},
		})

		assert.NoError(t, err)
		publisher.AssertNumberOfCalls(t, "Publish", 1)
		assert.Empty(t, order.GetDomainEvents())
	})
}

// stubCache is a map-backed ViewCache for tests
type stubCache struct {
	views map[uuid.UUID]*FulfillmentView
}

func newStubCache() *stubCache {
	return &stubCache{views: make(map[uuid.UUID]*FulfillmentView)}
}

func (c *stubCache) Get(ctx context.Context, orderID uuid.UUID) (*FulfillmentView, bool) {
	view, ok := c.views[orderID]
	return view, ok
}

func (c *stubCache) Set(ctx context.Context, orderID uuid.UUID, view *FulfillmentView) {
	c.views[orderID] = view
}

func (c *stubCache) Invalidate(ctx context.Context, orderID uuid.UUID) {
	delete(c.views, orderID)
}
