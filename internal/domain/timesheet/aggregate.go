package timesheet

import (
	"fmt"
	"sort"
	"time"

	"staffing/internal/domain/money"
	"staffing/internal/domain/workflow"
)

func (p PeriodTotals) addWeek(t WeeklyTotals, a Amounts) PeriodTotals {
	p.TotalHours = p.TotalHours.Add(t.TotalWeeklyHours)
	p.RegularHours = p.RegularHours.Add(t.TotalRegularHours)
	p.OvertimeHours = p.OvertimeHours.Add(t.TotalOvertimeHours)
	p.SickHours = p.SickHours.Add(t.TotalSickHours)
	p.PaidLeaveHours = p.PaidLeaveHours.Add(t.TotalPaidLeaveHours)
	p.UnpaidLeaveHours = p.UnpaidLeaveHours.Add(t.TotalUnpaidLeaveHours)
	p.Amounts = p.Amounts.add(a)
	return p
}

// AggregateBiWeekly combines two consecutive weeks of one candidate. The
// inputs are copied, never modified.
func AggregateBiWeekly(week1, week2 Weekly) (BiWeekly, error) {
	if week1.CandidateID != week2.CandidateID {
		return BiWeekly{}, ErrCandidateMismatch
	}
	if !week2.WeekStartDate.Equal(week1.WeekStartDate.AddDate(0, 0, DaysPerWeek)) {
		return BiWeekly{}, fmt.Errorf("%w: %s then %s", ErrNonContiguousWeeks,
			week1.WeekStartDate.Format(time.DateOnly), week2.WeekStartDate.Format(time.DateOnly))
	}
	if week1.Rate.Currency != week2.Rate.Currency {
		return BiWeekly{}, ErrCurrencyMismatch
	}

	var totals PeriodTotals
	totals = totals.addWeek(week1.Totals, week1.Amounts)
	totals = totals.addWeek(week2.Totals, week2.Amounts)

	return BiWeekly{
		CandidateID: week1.CandidateID,
		Week1ID:     week1.ID,
		Week2ID:     week2.ID,
		PeriodStart: week1.WeekStartDate,
		PeriodEnd:   week2.WeekEndDate,
		Currency:    week1.Rate.Currency,
		Totals:      totals,
		DayTotals:   week1.Totals.DayHours.add(week2.Totals.DayHours),
		Week1:       week1.Breakdown(),
		Week2:       week2.Breakdown(),
		Status:      workflow.StatusCalculated,
	}, nil
}

// AggregateMonthly sums the weeks of one candidate whose span intersects
// the calendar month. Weeks outside the month are ignored. In ModeFull a
// boundary week counts in full here and in the neighbouring month; in
// ModeProrated only its in-month days count and are repriced from the
// week's rate snapshot.
func AggregateMonthly(candidateID string, year, month int, weeks []Weekly, mode string) (Monthly, error) {
	if month < 1 || month > 12 || year < 1 {
		return Monthly{}, fmt.Errorf("%w: %d-%02d", ErrInvalidPeriod, year, month)
	}
	if mode == "" {
		mode = ModeFull
	}
	if mode != ModeFull && mode != ModeProrated {
		return Monthly{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	m := Monthly{
		CandidateID: candidateID,
		Year:        year,
		Month:       month,
		Mode:        mode,
		WeekIDs:     []string{},
		Status:      workflow.StatusCalculated,
	}
	first, last := m.PeriodStart(), m.PeriodEnd()

	contributing := make([]Weekly, 0, len(weeks))
	seen := make(map[time.Time]bool, len(weeks))
	for _, w := range weeks {
		if w.CandidateID != candidateID {
			return Monthly{}, ErrCandidateMismatch
		}
		if w.WeekEndDate.Before(first) || w.WeekStartDate.After(last) {
			continue
		}
		if seen[w.WeekStartDate] {
			return Monthly{}, fmt.Errorf("%w: %s", ErrDuplicateWeek, w.WeekStartDate.Format(time.DateOnly))
		}
		seen[w.WeekStartDate] = true
		contributing = append(contributing, w)
	}
	sort.Slice(contributing, func(i, j int) bool {
		return contributing[i].WeekStartDate.Before(contributing[j].WeekStartDate)
	})

	for _, w := range contributing {
		if m.Currency == "" {
			m.Currency = w.Rate.Currency
		} else if m.Currency != w.Rate.Currency {
			return Monthly{}, ErrCurrencyMismatch
		}
		totals, amounts := w.Totals, w.Amounts
		if mode == ModeProrated {
			totals, amounts = prorate(w, first, last)
		}
		m.Totals = m.Totals.addWeek(totals, amounts)
		m.DayTotals = m.DayTotals.add(totals.DayHours)
		m.WeekIDs = append(m.WeekIDs, w.ID)
	}
	m.TotalWeeks = len(contributing)
	if m.Currency == "" {
		m.Currency = money.CurrencyINR
	}
	return m, nil
}

// prorate keeps only the days of w inside [first, last].
func prorate(w Weekly, first, last time.Time) (WeeklyTotals, Amounts) {
	var totals WeeklyTotals
	for i, day := range w.Days {
		date := w.DayDate(i)
		if date.Before(first) || date.After(last) {
			continue
		}
		totals.DayHours[i] = day.Worked()
		totals.TotalRegularHours = totals.TotalRegularHours.Add(day.Regular)
		totals.TotalOvertimeHours = totals.TotalOvertimeHours.Add(day.Overtime)
		totals.TotalSickHours = totals.TotalSickHours.Add(day.Sick)
		totals.TotalPaidLeaveHours = totals.TotalPaidLeaveHours.Add(day.Paid)
		totals.TotalUnpaidLeaveHours = totals.TotalUnpaidLeaveHours.Add(day.Unpaid)
	}
	totals.TotalWeeklyHours = totals.TotalRegularHours.Add(totals.TotalOvertimeHours)
	return totals, w.Rate.price(totals.TotalRegularHours, totals.TotalOvertimeHours)
}
