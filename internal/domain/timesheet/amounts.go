package timesheet

import (
	"github.com/shopspring/decimal"

	"staffing/internal/domain/billing"
	"staffing/internal/domain/money"
)

// RateSnapshot freezes the billing terms a timesheet was computed with.
type RateSnapshot struct {
	BillingProfileID   string          `json:"billingProfileId"`
	HourlyRate         decimal.Decimal `json:"hourlyRate"`
	Currency           string          `json:"currency"`
	EmploymentType     string          `json:"employmentType"`
	TDSRate            decimal.Decimal `json:"tdsRate"`
	OvertimeMultiplier decimal.Decimal `json:"overtimeMultiplier"`
}

func SnapshotOf(profile billing.Profile) RateSnapshot {
	multiplier := profile.OvertimeMultiplier
	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	tds := profile.TDSRate
	if !profile.IsSubcontract() {
		tds = decimal.Zero
	}
	return RateSnapshot{
		BillingProfileID:   profile.ID,
		HourlyRate:         profile.HourlyRate,
		Currency:           profile.Currency,
		EmploymentType:     profile.EmploymentType,
		TDSRate:            tds,
		OvertimeMultiplier: multiplier,
	}
}

type Amounts struct {
	RegularAmount  decimal.Decimal `json:"regularAmount"`
	OvertimeAmount decimal.Decimal `json:"overtimeAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	TDSAmount      decimal.Decimal `json:"tdsAmount"`
	NetAmount      decimal.Decimal `json:"netAmount"`
}

func (a Amounts) add(other Amounts) Amounts {
	return Amounts{
		RegularAmount:  a.RegularAmount.Add(other.RegularAmount),
		OvertimeAmount: a.OvertimeAmount.Add(other.OvertimeAmount),
		TotalAmount:    a.TotalAmount.Add(other.TotalAmount),
		TDSAmount:      a.TDSAmount.Add(other.TDSAmount),
		NetAmount:      a.NetAmount.Add(other.NetAmount),
	}
}

// Rounded rounds the priced lines and derives the rest from them, so
// regular + overtime == total and total - tds == net hold at two places.
func (a Amounts) Rounded() Amounts {
	r := Amounts{
		RegularAmount:  money.Round2(a.RegularAmount),
		OvertimeAmount: money.Round2(a.OvertimeAmount),
		TDSAmount:      money.Round2(a.TDSAmount),
	}
	r.TotalAmount = r.RegularAmount.Add(r.OvertimeAmount)
	r.NetAmount = r.TotalAmount.Sub(r.TDSAmount)
	return r
}

// ComputeAmounts prices a week's regular and overtime hours against the
// profile. Subcontract totals carry TDS withholding; fulltime totals do not.
func ComputeAmounts(totals WeeklyTotals, profile billing.Profile) Amounts {
	return SnapshotOf(profile).price(totals.TotalRegularHours, totals.TotalOvertimeHours)
}

// price computes amounts at full precision.
func (r RateSnapshot) price(regularHours, overtimeHours decimal.Decimal) Amounts {
	var a Amounts
	a.RegularAmount = regularHours.Mul(r.HourlyRate)
	a.OvertimeAmount = overtimeHours.Mul(r.HourlyRate).Mul(r.OvertimeMultiplier)
	a.TotalAmount = a.RegularAmount.Add(a.OvertimeAmount)
	if r.EmploymentType == billing.EmploymentSubcontract {
		a.TDSAmount = money.Percent(a.TotalAmount, r.TDSRate)
	} else {
		a.TDSAmount = decimal.Zero
	}
	a.NetAmount = a.TotalAmount.Sub(a.TDSAmount)
	return a
}
