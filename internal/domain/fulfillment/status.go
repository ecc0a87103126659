package fulfillment

// DeliveryStatus represents the fulfillment status of an order.
// It is always a pure function of the two event logs; the cached copy on
// the order row exists for display only and is refreshed on every append
// or removal.
type DeliveryStatus string

const (
	DeliveryStatusNotStarted DeliveryStatus = "NOT_STARTED"
	DeliveryStatusPartial    DeliveryStatus = "PARTIAL"
	DeliveryStatusComplete   DeliveryStatus = "COMPLETE"
)

// IsValid checks if the status is a valid DeliveryStatus
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusNotStarted, DeliveryStatusPartial, DeliveryStatusComplete:
		return true
	}
	return false
}

// String returns the string representation of DeliveryStatus
func (s DeliveryStatus) String() string {
	return string(s)
}

// CalculateStatus derives the order-level status from aggregate totals.
// COMPLETE when nothing is effectively ordered (everything returned) or
// everything owed has been delivered; a return can therefore move a
// COMPLETE order back to PARTIAL - status reflects present entitlement,
// not historical peak delivery.
func CalculateStatus(totals UsageTotals) DeliveryStatus {
	if totals.EffectiveOrdered == 0 || totals.Delivered >= totals.EffectiveOrdered {
		return DeliveryStatusComplete
	}
	if totals.Delivered == 0 {
		return DeliveryStatusNotStarted
	}
	return DeliveryStatusPartial
}
