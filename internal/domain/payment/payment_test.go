package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeOf(t *testing.T) {
	cases := []struct {
		raw  string
		want Outcome
	}{
		{"PAID", OutcomeSucceeded},
		{"paid", OutcomeSucceeded},
		{"Paid", OutcomeSucceeded},
		{"PENDING", OutcomePending},
		{"FAILED", OutcomePending},
		{"DECLINED", OutcomePending},
		{"", OutcomePending},
		{"SOME_FUTURE_STATUS", OutcomePending},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, OutcomeOf(tc.raw), "status %q", tc.raw)
	}
}

func TestPaymentOutcome(t *testing.T) {
	p := &Payment{ID: "pay-1", Status: "PAID"}
	assert.Equal(t, OutcomeSucceeded, p.Outcome())

	p.Status = "PROCESSING"
	assert.Equal(t, OutcomePending, p.Outcome())
}
