package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// CreateResult is the tagged outcome of a create request. "Payment already
// exists for this order" is a normal alternate outcome, not an error: the
// gateway enforces one payment per order and a duplicate create surfaces the
// existing record through AlreadyExists.
type CreateResult struct {
	Payment       *Payment
	AlreadyExists bool
}

// Gateway is the outbound port to the remote payment service. All calls are
// synchronous network operations; implementations must bound them with a
// timeout and report transport failures as ErrUnavailable.
type Gateway interface {
	CreatePayment(ctx context.Context, orderID string, amount decimal.Decimal, method string) (CreateResult, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID string) (*Payment, error)
	// ProcessPayment asks the gateway to capture the payment and returns its
	// resulting state, whatever that is.
	ProcessPayment(ctx context.Context, paymentID string) (*Payment, error)
}
