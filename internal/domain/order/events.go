package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSubmittedEvent is emitted when payment confirmation moves an order
// from PENDING to SUBMITTED.
type OrderSubmittedEvent struct {
	OrderID    string
	CustomerID string
	Amount     decimal.Decimal
	OccurredAt time.Time
}

func (OrderSubmittedEvent) EventName() string { return "order.submitted" }

func NewOrderSubmittedEvent(o *Order) OrderSubmittedEvent {
	return OrderSubmittedEvent{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Amount:     o.Amount,
		OccurredAt: time.Now().UTC(),
	}
}
