package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingWithItem() *Order {
	o := NewPending("order-1", "customer-1")
	o.AddProduct("item-1", "product-1", 1, dec("10.00"))
	return o
}

func TestLifecycle_ForwardPath(t *testing.T) {
	o := pendingWithItem()

	require.NoError(t, o.Submit())
	assert.Equal(t, StatusSubmitted, o.Status)

	require.NoError(t, o.Confirm())
	assert.Equal(t, StatusConfirmed, o.Status)

	require.NoError(t, o.Deliver())
	assert.Equal(t, StatusDelivered, o.Status)
}

func TestSubmit_EmptyOrderRejected(t *testing.T) {
	o := NewPending("order-1", "customer-1")

	err := o.Submit()

	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Equal(t, StatusPending, o.Status)
}

func TestTransitionTo_RejectsInvalidChanges(t *testing.T) {
	cases := []struct {
		name   string
		from   Status
		target Status
	}{
		{"pending to confirmed skips submitted", StatusPending, StatusConfirmed},
		{"pending to delivered skips the lifecycle", StatusPending, StatusDelivered},
		{"submitted to delivered skips confirmed", StatusSubmitted, StatusDelivered},
		{"submitted to submitted is a no-op", StatusSubmitted, StatusSubmitted},
		{"confirmed back to submitted", StatusConfirmed, StatusSubmitted},
		{"delivered is terminal", StatusDelivered, StatusConfirmed},
		{"delivered to delivered", StatusDelivered, StatusDelivered},
		{"confirmed back to pending", StatusConfirmed, StatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := pendingWithItem()
			o.Status = tc.from

			err := o.TransitionTo(tc.target)

			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Equal(t, tc.from, o.Status, "failed transition must not change status")
		})
	}
}

func TestTransitionTo_ErrorNamesStatuses(t *testing.T) {
	o := pendingWithItem()
	o.Status = StatusDelivered

	err := o.TransitionTo(StatusConfirmed)

	require.Error(t, err)
	assert.Contains(t, err.Error(), string(StatusDelivered))
	assert.Contains(t, err.Error(), string(StatusConfirmed))
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"PENDING", "SUBMITTED", "CONFIRMED", "DELIVERED"} {
		s, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, Status(valid), s)
	}

	_, err := ParseStatus("CANCELLED")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = ParseStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidState, "statuses are case-sensitive on the wire")
}
