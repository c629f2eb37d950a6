package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("payment: not found")
	ErrConflict    = errors.New("payment: already exists for order")
	ErrUnavailable = errors.New("payment: gateway unavailable")
)

// MethodCard is the only payment method the platform offers today.
const MethodCard = "CARD"

// Outcome is the closed set of payment states the order core acts on. The
// gateway reports free-form status strings; everything we do not recognize as
// a success lands in the pending bucket.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomePending   Outcome = "pending"
)

const statusPaid = "PAID"

// OutcomeOf maps a raw gateway status string to a recognized outcome.
// The comparison is case-insensitive, matching the gateway's contract.
func OutcomeOf(rawStatus string) Outcome {
	if strings.EqualFold(rawStatus, statusPaid) {
		return OutcomeSucceeded
	}
	return OutcomePending
}

// Payment is the gateway's view of a payment as observed by the order core.
// The gateway owns this record; the core only keeps the id on the order.
type Payment struct {
	ID        string
	OrderID   string
	Amount    decimal.Decimal
	Method    string
	Status    string
	CreatedAt time.Time
}

// Outcome classifies the payment's current status.
func (p *Payment) Outcome() Outcome {
	return OutcomeOf(p.Status)
}
