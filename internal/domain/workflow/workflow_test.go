package workflow

import (
	"errors"
	"testing"
)

func TestWeeklyTransitions(t *testing.T) {
	if err := Weekly.Transition(StatusDraft, StatusSubmitted, ""); err != nil {
		t.Fatalf("draft -> submitted: %v", err)
	}
	if err := Weekly.Transition(StatusSubmitted, StatusApproved, ""); err != nil {
		t.Fatalf("submitted -> approved: %v", err)
	}
	if err := Weekly.Transition(StatusDraft, StatusApproved, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if !Weekly.Terminal(StatusApproved) || !Weekly.Terminal(StatusRejected) {
		t.Fatal("approved and rejected must be terminal")
	}
}

func TestRejectionNeedsReason(t *testing.T) {
	if err := Weekly.Transition(StatusSubmitted, StatusRejected, "  "); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected reason required, got %v", err)
	}
	if err := Period.Transition(StatusCalculated, StatusRejected, "hours disputed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvoiceTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusGenerated, StatusSent, true},
		{StatusSent, StatusPaid, true},
		{StatusSent, StatusOverdue, true},
		{StatusOverdue, StatusPaid, true},
		{StatusGenerated, StatusPaid, false},
		{StatusPaid, StatusOverdue, false},
	}
	for _, tc := range cases {
		err := Invoice.Transition(tc.from, tc.to, "")
		if tc.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s: expected invalid transition, got %v", tc.from, tc.to, err)
		}
	}
	if Invoice.Terminal(StatusOverdue) {
		t.Fatal("overdue must not be terminal")
	}
}
