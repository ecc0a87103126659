package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/finance"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/fulfillment"
)

// ItemRow is one line of the derived fulfillment table
type ItemRow struct {
	LineItemID      uuid.UUID `json:"line_item_id"`
	ProductName     string    `json:"product_name"`
	OrderedQuantity int64     `json:"ordered_quantity"`
	DeliveredQty    int64     `json:"delivered_qty"`
	ReturnedQty     int64     `json:"returned_qty"`
	EffectiveQty    int64     `json:"effective_ordered"`
	Balance         int64     `json:"balance"`
	OverDelivered   int64     `json:"over_delivered"`
}

// FulfillmentView is the full derived per-item table plus order status,
// recomputed fresh from the logs
type FulfillmentView struct {
	OrderID          uuid.UUID                 `json:"order_id"`
	OrderNumber      string                    `json:"order_number"`
	CustomerName     string                    `json:"customer_name"`
	Status           fulfillment.DeliveryStatus `json:"status"`
	HasReturns       bool                      `json:"has_returns"`
	Items            []ItemRow                 `json:"items"`
	TotalEffective   int64                     `json:"total_effective_ordered"`
	TotalDelivered   int64                     `json:"total_delivered"`
	Version          int                       `json:"version"`
}

// RecordDeliveryInput carries a validated delivery request into the service
type RecordDeliveryInput struct {
	Date  time.Time
	Notes string
	Items []fulfillment.DeliveryRequestItem
}

// ProcessReturnInput carries a validated return request into the service
type ProcessReturnInput struct {
	Reason string
	// RefundRequired is supplied by the caller: true when the customer
	// paid up front and is owed cash, false to credit the invoice
	RefundRequired bool
	Items          []fulfillment.ReturnRequestItem
}

// CreateOrderLineInput is one line of a new order
type CreateOrderLineInput struct {
	ProductName     string
	OrderedQuantity int64
	LineTotal       string
	TaxComponents   []fulfillment.TaxComponent
}

// CreateOrderInput carries a new order into the service
type CreateOrderInput struct {
	OrderNumber  string
	CustomerName string
	Lines        []CreateOrderLineInput
}

// DeliveryItemResponse is one item of a delivery record in API responses
type DeliveryItemResponse struct {
	LineItemID uuid.UUID `json:"line_item_id"`
	Quantity   int64     `json:"quantity"`
}

// DeliveryRecordResponse is a delivery record in API responses
type DeliveryRecordResponse struct {
	ID            uuid.UUID              `json:"id"`
	DeliveryDate  string                 `json:"delivery_date"`
	Notes         string                 `json:"notes,omitempty"`
	Items         []DeliveryItemResponse `json:"items"`
	CreatedByID   uuid.UUID              `json:"created_by_id"`
	CreatedByName string                 `json:"created_by_name"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ReturnItemResponse is one item of a return record in API responses
type ReturnItemResponse struct {
	LineItemID   uuid.UUID `json:"line_item_id"`
	Quantity     int64     `json:"quantity"`
	RefundAmount string    `json:"refund_amount"`
	RefundTax    string    `json:"refund_tax"`
}

// ReturnRecordResponse is a return record in API responses
type ReturnRecordResponse struct {
	ID             uuid.UUID            `json:"id"`
	Reason         string               `json:"reason"`
	RefundRequired bool                 `json:"refund_required"`
	Items          []ReturnItemResponse `json:"items"`
	RefundTotal    string               `json:"refund_total"`
	CreatedByID    uuid.UUID            `json:"created_by_id"`
	CreatedByName  string               `json:"created_by_name"`
	CreatedAt      time.Time            `json:"created_at"`
}

// RefundLineResponse is one line of a refund transaction in API responses
type RefundLineResponse struct {
	LineItemID  uuid.UUID `json:"line_item_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"quantity"`
	Amount      string    `json:"amount"`
	Tax         string    `json:"tax"`
}

// RefundTransactionResponse is a refund ledger entry in API responses
type RefundTransactionResponse struct {
	ID          uuid.UUID            `json:"id"`
	OrderID     uuid.UUID            `json:"order_id"`
	Reason      string               `json:"reason"`
	Method      string               `json:"method"`
	Lines       []RefundLineResponse `json:"lines"`
	TotalAmount string               `json:"total_amount"`
	TotalTax    string               `json:"total_tax"`
	GrandTotal  string               `json:"grand_total"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ToFulfillmentView builds the derived view from an order, preserving the
// line item order of the original purchase order
func ToFulfillmentView(order *fulfillment.Order) *FulfillmentView {
	usage := order.Usage()
	totals := fulfillment.ComputeTotals(usage)

	items := make([]ItemRow, 0, len(order.LineItems))
	for _, line := range order.LineItems {
		u := usage[line.ID]
		items = append(items, ItemRow{
			LineItemID:      line.ID,
			ProductName:     line.ProductName,
			OrderedQuantity: line.OrderedQuantity,
			DeliveredQty:    u.DeliveredQty,
			ReturnedQty:     u.ReturnedQty,
			EffectiveQty:    u.EffectiveOrdered,
			Balance:         u.Balance,
			OverDelivered:   u.OverDelivered,
		})
	}

	return &FulfillmentView{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerName:   order.CustomerName,
		Status:         order.DeliveryStatus,
		HasReturns:     order.HasReturns,
		Items:          items,
		TotalEffective: totals.EffectiveOrdered,
		TotalDelivered: totals.Delivered,
		Version:        order.GetVersion(),
	}
}

// ToDeliveryRecordResponse maps a delivery record to its API response
func ToDeliveryRecordResponse(record *fulfillment.DeliveryRecord) DeliveryRecordResponse {
	items := make([]DeliveryItemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, DeliveryItemResponse{
			LineItemID: item.LineItemID,
			Quantity:   item.Quantity,
		})
	}
	return DeliveryRecordResponse{
		ID:            record.ID,
		DeliveryDate:  record.DeliveryDate.Format("2006-01-02"),
		Notes:         record.Notes,
		Items:         items,
		CreatedByID:   record.CreatedByID,
		CreatedByName: record.CreatedByName,
		CreatedAt:     record.CreatedAt,
	}
}

// ToDeliveryRecordResponses maps a delivery log to API responses
func ToDeliveryRecordResponses(records []fulfillment.DeliveryRecord) []DeliveryRecordResponse {
	responses := make([]DeliveryRecordResponse, 0, len(records))
	for idx := range records {
		responses = append(responses, ToDeliveryRecordResponse(&records[idx]))
	}
	return responses
}

// ToReturnRecordResponse maps a return record to its API response
func ToReturnRecordResponse(record *fulfillment.ReturnRecord) ReturnRecordResponse {
	items := make([]ReturnItemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, ReturnItemResponse{
			LineItemID:   item.LineItemID,
			Quantity:     item.Quantity,
			RefundAmount: item.RefundAmount.StringFixed(2),
			RefundTax:    item.RefundTax.StringFixed(2),
		})
	}
	return ReturnRecordResponse{
		ID:             record.ID,
		Reason:         record.Reason,
		RefundRequired: record.RefundRequired,
		Items:          items,
		RefundTotal:    record.GrandTotal().StringFixed(2),
		CreatedByID:    record.CreatedByID,
		CreatedByName:  record.CreatedByName,
		CreatedAt:      record.CreatedAt,
	}
}

// ToReturnRecordResponses maps a return log to API responses
func ToReturnRecordResponses(records []fulfillment.ReturnRecord) []ReturnRecordResponse {
	responses := make([]ReturnRecordResponse, 0, len(records))
	for idx := range records {
		responses = append(responses, ToReturnRecordResponse(&records[idx]))
	}
	return responses
}

// ToRefundTransactionResponse maps a refund ledger entry to its API response
func ToRefundTransactionResponse(txn *finance.RefundTransaction) RefundTransactionResponse {
	lines := make([]RefundLineResponse, 0, len(txn.Lines))
	for _, line := range txn.Lines {
		lines = append(lines, RefundLineResponse{
			LineItemID:  line.LineItemID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Amount:      line.Amount.StringFixed(2),
			Tax:         line.Tax.StringFixed(2),
		})
	}
	return RefundTransactionResponse{
		ID:          txn.ID,
		OrderID:     txn.OrderID,
		Reason:      txn.Reason,
		Method:      txn.Method.String(),
		Lines:       lines,
		TotalAmount: txn.TotalAmount.StringFixed(2),
		TotalTax:    txn.TotalTax.StringFixed(2),
		GrandTotal:  txn.GrandTotal().StringFixed(2),
		CreatedAt:   txn.CreatedAt,
	}
}

// ToRefundTransactionResponses maps refund ledger entries to API responses
func ToRefundTransactionResponses(txns []finance.RefundTransaction) []RefundTransactionResponse {
	responses := make([]RefundTransactionResponse, 0, len(txns))
	for idx := range txns {
		responses = append(responses, ToRefundTransactionResponse(&txns[idx]))
	}
	return responses
}
