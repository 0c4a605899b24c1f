package timesheet

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"staffing/internal/domain/billing"
	"staffing/internal/domain/money"
	"staffing/internal/domain/workflow"
)

// NewWeekly builds a draft week starting on a Monday and computes its
// totals and amounts against profile.
func NewWeekly(candidateID string, weekStart time.Time, days [DaysPerWeek]DayEntry, profile billing.Profile) (Weekly, error) {
	weekStart = money.Date(weekStart)
	if weekStart.Weekday() != time.Monday {
		return Weekly{}, ErrWeekStartNotMonday
	}
	w := Weekly{
		CandidateID:   candidateID,
		WeekStartDate: weekStart,
		WeekEndDate:   weekStart.AddDate(0, 0, DaysPerWeek-1),
		Status:        workflow.StatusDraft,
	}
	if err := w.Recompute(days, profile); err != nil {
		return Weekly{}, err
	}
	return w, nil
}

// Recompute replaces the day entries and refreshes totals, amounts and the
// rate snapshot.
func (w *Weekly) Recompute(days [DaysPerWeek]DayEntry, profile billing.Profile) error {
	totals, err := ValidateAndSum(days)
	if err != nil {
		return err
	}
	w.Days = days
	w.Totals = totals
	w.Rate = SnapshotOf(profile)
	w.Amounts = ComputeAmounts(totals, profile)
	w.Conversion = nil
	return nil
}

// ConvertToINR records the INR equivalent of the week's total. INR weeks
// convert at 1.
func (w *Weekly) ConvertToINR(rate decimal.Decimal, on time.Time) error {
	if strings.EqualFold(w.Rate.Currency, money.CurrencyINR) {
		rate = decimal.NewFromInt(1)
	}
	if !rate.IsPositive() {
		return money.ErrInvalidConversionRate
	}
	w.Conversion = &Conversion{
		ConvertedAmount: w.Amounts.TotalAmount.Mul(rate),
		ConversionRate:  rate,
		ConversionDate:  money.Date(on),
	}
	return nil
}

// DayDate returns the calendar date of day index i.
func (w Weekly) DayDate(i int) time.Time {
	return w.WeekStartDate.AddDate(0, 0, i)
}

func (w Weekly) Breakdown() WeekBreakdown {
	return WeekBreakdown{
		WeeklyID:      w.ID,
		WeekStartDate: w.WeekStartDate,
		WeekEndDate:   w.WeekEndDate,
		Days:          w.Days,
		Totals:        w.Totals,
		Rate:          w.Rate,
		Amounts:       w.Amounts,
	}
}
