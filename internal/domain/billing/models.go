package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

type Profile struct {
	ID                  string          `json:"id"`
	CandidateID         string          `json:"candidateId"`
	HourlyRate          decimal.Decimal `json:"hourlyRate"`
	Currency            string          `json:"currency"`
	WorkingHoursPerWeek decimal.Decimal `json:"workingHoursPerWeek"`
	WorkingDaysPerWeek  int             `json:"workingDaysPerWeek"`
	EmploymentType      string          `json:"employmentType"`
	TDSRate             decimal.Decimal `json:"tdsRate"`
	Benefits            []string        `json:"benefits"`
	SickLeaveDays       int             `json:"sickLeaveDays"`
	PaidLeaveDays       int             `json:"paidLeaveDays"`
	OvertimeMultiplier  decimal.Decimal `json:"overtimeMultiplier"`
	EffectiveFrom       time.Time       `json:"effectiveFrom"`
	EffectiveTo         *time.Time      `json:"effectiveTo,omitempty"`
	IsActive            bool            `json:"isActive"`
	CreatedBy           string          `json:"createdBy,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
}

func (p Profile) IsSubcontract() bool {
	return p.EmploymentType == EmploymentSubcontract
}

// HoursPerDay is the working-day length used to express leave hours as days.
func (p Profile) HoursPerDay() decimal.Decimal {
	if p.WorkingDaysPerWeek <= 0 || !p.WorkingHoursPerWeek.IsPositive() {
		return decimal.NewFromInt(8)
	}
	return p.WorkingHoursPerWeek.Div(decimal.NewFromInt(int64(p.WorkingDaysPerWeek)))
}

// Covers reports whether date falls inside the profile's validity interval.
func (p Profile) Covers(date time.Time) bool {
	if date.Before(p.EffectiveFrom) {
		return false
	}
	return p.EffectiveTo == nil || !date.After(*p.EffectiveTo)
}
