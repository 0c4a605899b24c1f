package timesheet

import (
	"bytes"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"staffing/internal/domain/billing"
)

// DayEntry holds one day's hours by category.
type DayEntry struct {
	Regular  decimal.Decimal `json:"regular"`
	Overtime decimal.Decimal `json:"overtime"`
	Sick     decimal.Decimal `json:"sick"`
	Paid     decimal.Decimal `json:"paid"`
	Unpaid   decimal.Decimal `json:"unpaid"`
}

// Worked is regular plus overtime hours.
func (d DayEntry) Worked() decimal.Decimal {
	return d.Regular.Add(d.Overtime)
}

func (d DayEntry) Total() decimal.Decimal {
	return d.Worked().Add(d.Sick).Add(d.Paid).Add(d.Unpaid)
}

type hourField struct {
	name  string
	value decimal.Decimal
}

func (d DayEntry) fields() []hourField {
	return []hourField{
		{FieldRegular, d.Regular},
		{FieldOvertime, d.Overtime},
		{FieldSick, d.Sick},
		{FieldPaid, d.Paid},
		{FieldUnpaid, d.Unpaid},
	}
}

// DayTotals is indexed Monday first and serializes as named weekday hours.
type DayTotals [DaysPerWeek]decimal.Decimal

func (d DayTotals) MarshalJSON() ([]byte, error) {
	out := make(map[string]decimal.Decimal, DaysPerWeek)
	for i, name := range weekdayNames {
		out[name+"Hours"] = d[i]
	}
	return json.Marshal(out)
}

func (d *DayTotals) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	in := map[string]decimal.Decimal{}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	for i, name := range weekdayNames {
		d[i] = in[name+"Hours"]
	}
	return nil
}

func (d DayTotals) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, h := range d {
		total = total.Add(h)
	}
	return total
}

func (d DayTotals) add(other DayTotals) DayTotals {
	for i := range d {
		d[i] = d[i].Add(other[i])
	}
	return d
}

type WeeklyTotals struct {
	DayHours              DayTotals       `json:"dayHours"`
	TotalWeeklyHours      decimal.Decimal `json:"totalWeeklyHours"`
	TotalRegularHours     decimal.Decimal `json:"totalRegularHours"`
	TotalOvertimeHours    decimal.Decimal `json:"totalOvertimeHours"`
	TotalSickHours        decimal.Decimal `json:"totalSickHours"`
	TotalPaidLeaveHours   decimal.Decimal `json:"totalPaidLeaveHours"`
	TotalUnpaidLeaveHours decimal.Decimal `json:"totalUnpaidLeaveHours"`
}

// ValidateAndSum checks every field is non-negative and no day exceeds 24
// hours across all categories, then sums the week. Leave hours are kept
// apart from worked hours.
func ValidateAndSum(days [DaysPerWeek]DayEntry) (WeeklyTotals, error) {
	limit := decimal.NewFromInt(MaxDayHours)
	var totals WeeklyTotals
	for i, day := range days {
		for _, f := range day.fields() {
			if f.value.IsNegative() {
				return WeeklyTotals{}, &HoursError{Day: i, Field: f.name, Reason: "must not be negative"}
			}
		}
		if day.Total().GreaterThan(limit) {
			return WeeklyTotals{}, &HoursError{Day: i, Field: FieldTotal, Reason: "day exceeds 24 hours"}
		}
		totals.DayHours[i] = day.Worked()
		totals.TotalRegularHours = totals.TotalRegularHours.Add(day.Regular)
		totals.TotalOvertimeHours = totals.TotalOvertimeHours.Add(day.Overtime)
		totals.TotalSickHours = totals.TotalSickHours.Add(day.Sick)
		totals.TotalPaidLeaveHours = totals.TotalPaidLeaveHours.Add(day.Paid)
		totals.TotalUnpaidLeaveHours = totals.TotalUnpaidLeaveHours.Add(day.Unpaid)
	}
	totals.TotalWeeklyHours = totals.TotalRegularHours.Add(totals.TotalOvertimeHours)
	return totals, nil
}

// CheckLeavePolicy rejects sick or paid leave on a subcontract week.
func CheckLeavePolicy(days [DaysPerWeek]DayEntry, profile billing.Profile) error {
	if !profile.IsSubcontract() {
		return nil
	}
	for i, day := range days {
		if !day.Sick.IsZero() {
			return &HoursError{Day: i, Field: FieldSick, Reason: "subcontractors do not accrue sick leave"}
		}
		if !day.Paid.IsZero() {
			return &HoursError{Day: i, Field: FieldPaid, Reason: "subcontractors do not accrue paid leave"}
		}
	}
	return nil
}

// LeaveUsage expresses a week's leave hours in days against a fulltime
// profile's allotments.
type LeaveUsage struct {
	SickDaysUsed  decimal.Decimal `json:"sickDaysUsed"`
	PaidDaysUsed  decimal.Decimal `json:"paidDaysUsed"`
	SickAllotment int             `json:"sickAllotment"`
	PaidAllotment int             `json:"paidAllotment"`
}

func (u LeaveUsage) Exceeded() bool {
	return u.SickDaysUsed.GreaterThan(decimal.NewFromInt(int64(u.SickAllotment))) ||
		u.PaidDaysUsed.GreaterThan(decimal.NewFromInt(int64(u.PaidAllotment)))
}

func ComputeLeaveUsage(totals []WeeklyTotals, profile billing.Profile) LeaveUsage {
	perDay := profile.HoursPerDay()
	usage := LeaveUsage{SickAllotment: profile.SickLeaveDays, PaidAllotment: profile.PaidLeaveDays}
	sick, paid := decimal.Zero, decimal.Zero
	for _, t := range totals {
		sick = sick.Add(t.TotalSickHours)
		paid = paid.Add(t.TotalPaidLeaveHours)
	}
	usage.SickDaysUsed = sick.Div(perDay)
	usage.PaidDaysUsed = paid.Div(perDay)
	return usage
}
