package timesheet

import (
	"time"

	"github.com/shopspring/decimal"

	"staffing/internal/domain/money"
)

// Conversion records an optional INR equivalent of a week's total.
type Conversion struct {
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
	ConversionRate  decimal.Decimal `json:"conversionRate"`
	ConversionDate  time.Time       `json:"conversionDate"`
}

type Weekly struct {
	ID              string                `json:"id"`
	CandidateID     string                `json:"candidateId"`
	WeekStartDate   time.Time             `json:"weekStartDate"`
	WeekEndDate     time.Time             `json:"weekEndDate"`
	Days            [DaysPerWeek]DayEntry `json:"days"`
	Totals          WeeklyTotals          `json:"totals"`
	Rate            RateSnapshot          `json:"rate"`
	Amounts         Amounts               `json:"amounts"`
	Conversion      *Conversion           `json:"conversion,omitempty"`
	Status          string                `json:"status"`
	RejectionReason string                `json:"rejectionReason,omitempty"`
	CreatedBy       string                `json:"createdBy,omitempty"`
	ApprovedBy      string                `json:"approvedBy,omitempty"`
	SubmittedAt     *time.Time            `json:"submittedAt,omitempty"`
	DecidedAt       *time.Time            `json:"decidedAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// WeekBreakdown is a verbatim copy of one constituent week kept on a
// period record for audit.
type WeekBreakdown struct {
	WeeklyID      string                `json:"weeklyId"`
	WeekStartDate time.Time             `json:"weekStartDate"`
	WeekEndDate   time.Time             `json:"weekEndDate"`
	Days          [DaysPerWeek]DayEntry `json:"days"`
	Totals        WeeklyTotals          `json:"totals"`
	Rate          RateSnapshot          `json:"rate"`
	Amounts       Amounts               `json:"amounts"`
}

// PeriodTotals are straight sums over the contributing weeks.
type PeriodTotals struct {
	TotalHours       decimal.Decimal `json:"totalHours"`
	RegularHours     decimal.Decimal `json:"regularHours"`
	OvertimeHours    decimal.Decimal `json:"overtimeHours"`
	SickHours        decimal.Decimal `json:"sickHours"`
	PaidLeaveHours   decimal.Decimal `json:"paidLeaveHours"`
	UnpaidLeaveHours decimal.Decimal `json:"unpaidLeaveHours"`
	Amounts
}

type BiWeekly struct {
	ID              string        `json:"id"`
	CandidateID     string        `json:"candidateId"`
	Week1ID         string        `json:"week1Id"`
	Week2ID         string        `json:"week2Id"`
	PeriodStart     time.Time     `json:"periodStart"`
	PeriodEnd       time.Time     `json:"periodEnd"`
	Currency        string        `json:"currency"`
	Totals          PeriodTotals  `json:"totals"`
	DayTotals       DayTotals     `json:"dayTotals"`
	Week1           WeekBreakdown `json:"week1"`
	Week2           WeekBreakdown `json:"week2"`
	Status          string        `json:"status"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	CreatedBy       string        `json:"createdBy,omitempty"`
	ApprovedBy      string        `json:"approvedBy,omitempty"`
	DecidedAt       *time.Time    `json:"decidedAt,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

type Monthly struct {
	ID              string       `json:"id"`
	CandidateID     string       `json:"candidateId"`
	Year            int          `json:"year"`
	Month           int          `json:"month"`
	Mode            string       `json:"mode"`
	Currency        string       `json:"currency"`
	TotalWeeks      int          `json:"totalWeeks"`
	WeekIDs         []string     `json:"weekIds"`
	Totals          PeriodTotals `json:"totals"`
	DayTotals       DayTotals    `json:"dayTotals"`
	Status          string       `json:"status"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
	CreatedBy       string       `json:"createdBy,omitempty"`
	ApprovedBy      string       `json:"approvedBy,omitempty"`
	DecidedAt       *time.Time   `json:"decidedAt,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
}

type WeeklyFilter struct {
	CandidateID string
	Status      string
	From        *time.Time
	To          *time.Time
}

func (t WeeklyTotals) Rounded() WeeklyTotals {
	for i := range t.DayHours {
		t.DayHours[i] = money.Round2(t.DayHours[i])
	}
	t.TotalWeeklyHours = money.Round2(t.TotalWeeklyHours)
	t.TotalRegularHours = money.Round2(t.TotalRegularHours)
	t.TotalOvertimeHours = money.Round2(t.TotalOvertimeHours)
	t.TotalSickHours = money.Round2(t.TotalSickHours)
	t.TotalPaidLeaveHours = money.Round2(t.TotalPaidLeaveHours)
	t.TotalUnpaidLeaveHours = money.Round2(t.TotalUnpaidLeaveHours)
	return t
}

func (t PeriodTotals) Rounded() PeriodTotals {
	t.TotalHours = money.Round2(t.TotalHours)
	t.RegularHours = money.Round2(t.RegularHours)
	t.OvertimeHours = money.Round2(t.OvertimeHours)
	t.SickHours = money.Round2(t.SickHours)
	t.PaidLeaveHours = money.Round2(t.PaidLeaveHours)
	t.UnpaidLeaveHours = money.Round2(t.UnpaidLeaveHours)
	t.Amounts = t.Amounts.Rounded()
	return t
}

func (d DayTotals) Rounded() DayTotals {
	for i := range d {
		d[i] = money.Round2(d[i])
	}
	return d
}

// Rounded returns a copy with hours and amounts at display precision.
// Stored values stay at full precision.
func (w Weekly) Rounded() Weekly {
	w.Totals = w.Totals.Rounded()
	w.Amounts = w.Amounts.Rounded()
	if w.Conversion != nil {
		c := *w.Conversion
		c.ConvertedAmount = money.Round2(c.ConvertedAmount)
		w.Conversion = &c
	}
	return w
}

func (b BiWeekly) Rounded() BiWeekly {
	b.Totals = b.Totals.Rounded()
	b.DayTotals = b.DayTotals.Rounded()
	b.Week1.Totals = b.Week1.Totals.Rounded()
	b.Week1.Amounts = b.Week1.Amounts.Rounded()
	b.Week2.Totals = b.Week2.Totals.Rounded()
	b.Week2.Amounts = b.Week2.Amounts.Rounded()
	return b
}

func (m Monthly) Rounded() Monthly {
	m.Totals = m.Totals.Rounded()
	m.DayTotals = m.DayTotals.Rounded()
	return m
}

// PeriodStart and PeriodEnd bound the calendar month.
func (m Monthly) PeriodStart() time.Time {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
}

func (m Monthly) PeriodEnd() time.Time {
	return m.PeriodStart().AddDate(0, 1, -1)
}
