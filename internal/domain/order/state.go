package order

import "fmt"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusConfirmed Status = "CONFIRMED"
	StatusDelivered Status = "DELIVERED"
)

// transitions is the single source of truth for the order lifecycle.
// The lifecycle is strictly forward: PENDING -> SUBMITTED -> CONFIRMED -> DELIVERED.
var transitions = map[Status]Status{
	StatusPending:   StatusSubmitted,
	StatusSubmitted: StatusConfirmed,
	StatusConfirmed: StatusDelivered,
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusSubmitted, StatusConfirmed, StatusDelivered:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidState, raw)
}

// TransitionTo moves the order to the target status if the lifecycle allows
// it. Unsupported changes, including no-ops and backward moves, fail with
// ErrInvalidState naming both statuses.
func (o *Order) TransitionTo(target Status) error {
	next, ok := transitions[o.Status]
	if !ok || next != target {
		return fmt.Errorf("%w: cannot change %s order to %s", ErrInvalidState, o.Status, target)
	}
	if target == StatusSubmitted && len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	o.Status = target
	o.touch()
	return nil
}

// Submit advances a paid pending order. Guarded by the non-empty cart rule.
func (o *Order) Submit() error {
	return o.TransitionTo(StatusSubmitted)
}

// Confirm advances a submitted order; used by staff.
func (o *Order) Confirm() error {
	return o.TransitionTo(StatusConfirmed)
}

// Deliver advances a confirmed order; used by staff and the auto-delivery sweep.
func (o *Order) Deliver() error {
	return o.TransitionTo(StatusDelivered)
}
