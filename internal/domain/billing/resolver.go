package billing

import (
	"time"

	"staffing/internal/domain/money"
)

// SelectActive picks the active profile among a candidate's records. When
// several are flagged active the latest effective one wins.
func SelectActive(profiles []Profile) (Profile, error) {
	var best *Profile
	for i := range profiles {
		p := &profiles[i]
		if !p.IsActive {
			continue
		}
		if best == nil || newer(*p, *best) {
			best = p
		}
	}
	if best == nil {
		return Profile{}, ErrNoBillingConfigured
	}
	return *best, nil
}

// SelectAt picks the profile whose validity interval contains date,
// regardless of the active flag, so past weeks keep their historical rate.
func SelectAt(profiles []Profile, date time.Time) (Profile, error) {
	date = money.Date(date)
	var best *Profile
	for i := range profiles {
		p := &profiles[i]
		if !p.Covers(date) {
			continue
		}
		if best == nil || newer(*p, *best) {
			best = p
		}
	}
	if best == nil {
		return Profile{}, ErrNoBillingConfigured
	}
	return *best, nil
}

func newer(a, b Profile) bool {
	if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
		return a.EffectiveFrom.After(b.EffectiveFrom)
	}
	return a.CreatedAt.After(b.CreatedAt)
}
