package fulfillment

import (
	"github.com/google/uuid"
)

// ItemUsage holds the derived quantities for a single line item.
// Nothing here is ever stored; it is recomputed from the two event logs
// on every read so a cached counter can never drift from reality.
type ItemUsage struct {
	LineItemID      uuid.UUID `json:"line_item_id"`
	ProductName     string    `json:"product_name"`
	OrderedQuantity int64     `json:"ordered_quantity"`
	// ReturnedQty is the sum of all return items for this line
	ReturnedQty int64 `json:"returned_qty"`
	// EffectiveOrdered is max(0, ordered - returned): what the customer
	// is still entitled to receive in total
	EffectiveOrdered int64 `json:"effective_ordered"`
	// RawDeliveredQty is the unclamped sum of all delivery items
	RawDeliveredQty int64 `json:"raw_delivered_qty"`
	// DeliveredQty is min(raw delivered, effective ordered)
	DeliveredQty int64 `json:"delivered_qty"`
	// Balance is effective ordered minus delivered: still owed
	Balance int64 `json:"balance"`
	// OverDelivered is max(0, raw delivered - effective ordered): units
	// physically shipped beyond the present entitlement, surfaced for
	// manual warehouse reconciliation
	OverDelivered int64 `json:"over_delivered"`
}

// UsageTotals aggregates the derived quantities across all line items
type UsageTotals struct {
	EffectiveOrdered int64 `json:"effective_ordered"`
	Delivered        int64 `json:"delivered"`
}

// ComputeUsage folds an order's two event logs into per-item aggregates.
// Pure function: no side effects, deterministic given the same logs.
func ComputeUsage(lineItems []LineItem, deliveryLog []DeliveryRecord, returnLog []ReturnRecord) map[uuid.UUID]ItemUsage {
	usage := make(map[uuid.UUID]ItemUsage, len(lineItems))

	for _, line := range lineItems {
		var returned int64
		for _, record := range returnLog {
			returned += record.QuantityFor(line.ID)
		}

		var rawDelivered int64
		for _, record := range deliveryLog {
			rawDelivered += record.QuantityFor(line.ID)
		}

		effective := line.OrderedQuantity - returned
		if effective < 0 {
			effective = 0
		}

		delivered := rawDelivered
		if delivered > effective {
			delivered = effective
		}

		overDelivered := rawDelivered - effective
		if overDelivered < 0 {
			overDelivered = 0
		}

		usage[line.ID] = ItemUsage{
			LineItemID:       line.ID,
			ProductName:      line.ProductName,
			OrderedQuantity:  line.OrderedQuantity,
			ReturnedQty:      returned,
			EffectiveOrdered: effective,
			RawDeliveredQty:  rawDelivered,
			DeliveredQty:     delivered,
			Balance:          effective - delivered,
			OverDelivered:    overDelivered,
		}
	}

	return usage
}

// ComputeTotals sums per-item aggregates into order-level totals
func ComputeTotals(usage map[uuid.UUID]ItemUsage) UsageTotals {
	var totals UsageTotals
	for _, u := range usage {
		totals.EffectiveOrdered += u.EffectiveOrdered
		totals.Delivered += u.DeliveredQty
	}
	return totals
}
