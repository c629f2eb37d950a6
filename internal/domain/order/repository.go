package order

import (
	"context"
	"time"
)

// Repository persists orders together with their items. Implementations must
// apply each Save as one atomic unit and enforce two storage-level guards:
// at most one PENDING order per customer (SavePending returns ErrConflict
// otherwise), and UpdateStatusGuarded only wins when the stored status still
// matches the expected one.
type Repository interface {
	Save(ctx context.Context, o *Order) error
	// SavePending inserts a fresh pending cart and fails with ErrConflict
	// when the customer already has one.
	SavePending(ctx context.Context, o *Order) error
	// UpdateStatusGuarded persists the order only while its stored status
	// equals expected; a concurrent writer that got there first makes this
	// call fail with ErrConflict.
	UpdateStatusGuarded(ctx context.Context, o *Order, expected Status) error
	FindByID(ctx context.Context, id string) (*Order, error)
	// FindByItemID returns the order owning the given line item.
	// Missing items are reported as ErrItemNotFound.
	FindByItemID(ctx context.Context, itemID string) (*Order, error)
	FindPendingByCustomer(ctx context.Context, customerID string) (*Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*Order, error)
	// FindByStatus returns orders in the given status, newest first.
	FindByStatus(ctx context.Context, status Status) ([]*Order, error)
	// FindByStatusOlderThan returns orders in the given status created
	// before the cutoff.
	FindByStatusOlderThan(ctx context.Context, status Status, cutoff time.Time) ([]*Order, error)
	// FindPastByCustomer returns the customer's non-pending orders, newest first.
	FindPastByCustomer(ctx context.Context, customerID string) ([]*Order, error)
	DeleteByID(ctx context.Context, id string) error
}
