package timesheet

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHours       = errors.New("invalid hours")
	ErrWeekStartNotMonday = errors.New("week start date must be a Monday")
	ErrNonContiguousWeeks = errors.New("weeks are not contiguous")
	ErrCandidateMismatch  = errors.New("timesheets belong to different candidates")
	ErrCurrencyMismatch   = errors.New("timesheets are billed in different currencies")
	ErrDuplicateWeek      = errors.New("duplicate week in period")
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrInvalidMode        = errors.New("invalid monthly aggregation mode")
	ErrNotFound           = errors.New("timesheet not found")
	ErrWeekAlreadyExists  = errors.New("timesheet already exists for this week")
	ErrPeriodExists       = errors.New("period timesheet already exists")
	ErrNotEditable        = errors.New("only draft timesheets can be edited")
	ErrWeekRejected       = errors.New("timesheet week was rejected")
	ErrNoWeeks            = errors.New("no timesheets in period")
)

// HoursError identifies the day and field that failed validation.
type HoursError struct {
	Day    int    `json:"day"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *HoursError) Error() string {
	return fmt.Sprintf("invalid hours on %s (%s): %s", weekdayNames[e.Day], e.Field, e.Reason)
}

func (e *HoursError) Unwrap() error {
	return ErrInvalidHours
}
