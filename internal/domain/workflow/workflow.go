package workflow

import (
	"errors"
	"fmt"
	"strings"
)

const (
	StatusDraft      = "draft"
	StatusCalculated = "calculated"
	StatusSubmitted  = "submitted"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"

	StatusGenerated = "generated"
	StatusSent      = "sent"
	StatusPaid      = "paid"
	StatusOverdue   = "overdue"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrReasonRequired    = errors.New("rejection reason is required")
)

// Machine maps a status to the statuses it may move to. A status with no
// outgoing edges is terminal.
type Machine map[string][]string

var (
	Weekly = Machine{
		StatusDraft:     {StatusSubmitted},
		StatusSubmitted: {StatusApproved, StatusRejected},
	}

	Period = Machine{
		StatusCalculated: {StatusSubmitted, StatusApproved, StatusRejected},
		StatusSubmitted:  {StatusApproved, StatusRejected},
	}

	Invoice = Machine{
		StatusGenerated: {StatusSent},
		StatusSent:      {StatusPaid, StatusOverdue},
		StatusOverdue:   {StatusPaid},
	}
)

func (m Machine) CanTransition(from, to string) bool {
	for _, next := range m[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (m Machine) Terminal(status string) bool {
	return len(m[status]) == 0
}

// Transition validates a move and the reason a rejection must carry.
func (m Machine) Transition(from, to, reason string) error {
	if !m.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if to == StatusRejected && strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}
