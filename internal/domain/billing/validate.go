package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"staffing/internal/domain/money"
)

// Normalize fills defaults and validates p. Fulltime profiles never carry
// TDS; subcontract profiles never carry benefits or leave allotments.
func Normalize(p Profile) (Profile, error) {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.EmploymentType = strings.ToLower(strings.TrimSpace(p.EmploymentType))
	p.EffectiveFrom = money.Date(p.EffectiveFrom)

	if strings.TrimSpace(p.CandidateID) == "" {
		return p, invalid("candidateId is required")
	}
	if !p.HourlyRate.IsPositive() {
		return p, invalid("hourly rate must be positive")
	}
	if !money.ValidCurrency(p.Currency) {
		return p, invalid("currency must be INR or USD")
	}
	if p.WorkingDaysPerWeek == 0 {
		p.WorkingDaysPerWeek = 5
	}
	if p.WorkingDaysPerWeek < 1 || p.WorkingDaysPerWeek > 7 {
		return p, invalid("working days per week must be between 1 and 7")
	}
	if p.WorkingHoursPerWeek.IsZero() {
		p.WorkingHoursPerWeek = decimal.NewFromInt(40)
	}
	if p.WorkingHoursPerWeek.IsNegative() || p.WorkingHoursPerWeek.GreaterThan(decimal.NewFromInt(168)) {
		return p, invalid("working hours per week must be between 0 and 168")
	}
	if p.OvertimeMultiplier.IsZero() {
		p.OvertimeMultiplier = decimal.NewFromInt(1)
	}
	if p.OvertimeMultiplier.LessThan(decimal.NewFromInt(1)) {
		return p, invalid("overtime multiplier must be at least 1")
	}
	if p.EffectiveFrom.IsZero() {
		return p, invalid("effectiveFrom is required")
	}

	switch p.EmploymentType {
	case EmploymentSubcontract:
		if p.TDSRate.IsNegative() || p.TDSRate.GreaterThan(decimal.NewFromInt(100)) {
			return p, invalid("tds rate must be between 0 and 100")
		}
		if len(p.Benefits) > 0 || p.SickLeaveDays != 0 || p.PaidLeaveDays != 0 {
			return p, invalid("subcontract profiles carry no benefits or leave allotments")
		}
	case EmploymentFulltime:
		p.TDSRate = decimal.Zero
		if p.SickLeaveDays < 0 || p.PaidLeaveDays < 0 {
			return p, invalid("leave allotments must not be negative")
		}
	default:
		return p, invalid("employment type must be subcontract or fulltime")
	}
	if p.Benefits == nil {
		p.Benefits = []string{}
	}
	return p, nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidBillingConfig, reason)
}
