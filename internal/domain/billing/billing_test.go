package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func subcontract(candidateID string, from time.Time) Profile {
	return Profile{
		CandidateID:    candidateID,
		HourlyRate:     decimal.NewFromInt(50),
		Currency:       "inr",
		EmploymentType: "Subcontract",
		TDSRate:        decimal.NewFromInt(10),
		EffectiveFrom:  from,
	}
}

type fakeStore struct {
	candidates map[string]bool
	profiles   []Profile
	seq        int
}

func (f *fakeStore) CandidateExists(_ context.Context, candidateID string) (bool, error) {
	return f.candidates[candidateID], nil
}

func (f *fakeStore) ListByCandidate(_ context.Context, candidateID string) ([]Profile, error) {
	var out []Profile
	for _, p := range f.profiles {
		if p.CandidateID == candidateID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, p Profile) (Profile, error) {
	f.seq++
	p.ID = string(rune('a' + f.seq))
	p.IsActive = true
	p.CreatedAt = time.Now()
	f.profiles = append(f.profiles, p)
	return p, nil
}

func (f *fakeStore) Supersede(ctx context.Context, currentID string, closeOn time.Time, next Profile) (Profile, error) {
	for i := range f.profiles {
		if f.profiles[i].ID == currentID {
			f.profiles[i].IsActive = false
			closed := closeOn
			f.profiles[i].EffectiveTo = &closed
		}
	}
	return f.Create(ctx, next)
}

func TestSelectActiveNoProfile(t *testing.T) {
	_, err := SelectActive([]Profile{{ID: "old", IsActive: false}})
	assert.ErrorIs(t, err, ErrNoBillingConfigured)
}

func TestSelectActivePrefersLatest(t *testing.T) {
	profiles := []Profile{
		{ID: "p1", IsActive: true, EffectiveFrom: day(2026, 1, 1)},
		{ID: "p2", IsActive: true, EffectiveFrom: day(2026, 3, 1)},
		{ID: "p3", IsActive: false, EffectiveFrom: day(2026, 6, 1)},
	}
	got, err := SelectActive(profiles)
	require.NoError(t, err)
	assert.Equal(t, "p2", got.ID)
}

func TestSelectAtUsesValidityInterval(t *testing.T) {
	closed := day(2026, 2, 28)
	profiles := []Profile{
		{ID: "jan", EffectiveFrom: day(2026, 1, 1), EffectiveTo: &closed},
		{ID: "mar", IsActive: true, EffectiveFrom: day(2026, 3, 1)},
	}
	got, err := SelectAt(profiles, day(2026, 2, 16))
	require.NoError(t, err)
	assert.Equal(t, "jan", got.ID)

	got, err = SelectAt(profiles, time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "mar", got.ID)

	_, err = SelectAt(profiles, day(2025, 12, 31))
	assert.ErrorIs(t, err, ErrNoBillingConfigured)
}

func TestNormalizeDefaults(t *testing.T) {
	p, err := Normalize(subcontract("c1", day(2026, 1, 5)))
	require.NoError(t, err)
	assert.Equal(t, "INR", p.Currency)
	assert.Equal(t, EmploymentSubcontract, p.EmploymentType)
	assert.Equal(t, 5, p.WorkingDaysPerWeek)
	assert.Equal(t, "40", p.WorkingHoursPerWeek.String())
	assert.Equal(t, "1", p.OvertimeMultiplier.String())
	assert.Equal(t, "8", p.HoursPerDay().String())
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	cases := map[string]func(*Profile){
		"zero rate":         func(p *Profile) { p.HourlyRate = decimal.Zero },
		"bad currency":      func(p *Profile) { p.Currency = "EUR" },
		"bad type":          func(p *Profile) { p.EmploymentType = "intern" },
		"tds above 100":     func(p *Profile) { p.TDSRate = decimal.NewFromInt(101) },
		"sub benefits":      func(p *Profile) { p.Benefits = []string{"health"} },
		"sub leave":         func(p *Profile) { p.SickLeaveDays = 3 },
		"low multiplier":    func(p *Profile) { p.OvertimeMultiplier = decimal.RequireFromString("0.5") },
		"missing from":      func(p *Profile) { p.EffectiveFrom = time.Time{} },
		"missing candidate": func(p *Profile) { p.CandidateID = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := subcontract("c1", day(2026, 1, 5))
			mutate(&p)
			_, err := Normalize(p)
			assert.ErrorIs(t, err, ErrInvalidBillingConfig)
		})
	}
}

func TestNormalizeFulltimeDropsTDS(t *testing.T) {
	p := subcontract("c1", day(2026, 1, 5))
	p.EmploymentType = EmploymentFulltime
	p.Benefits = []string{"health"}
	p.SickLeaveDays = 6
	p.PaidLeaveDays = 12
	got, err := Normalize(p)
	require.NoError(t, err)
	assert.True(t, got.TDSRate.IsZero())
}

func TestServiceCreateAndResolve(t *testing.T) {
	store := &fakeStore{candidates: map[string]bool{"c1": true}}
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.ResolveActive(ctx, "c1")
	assert.ErrorIs(t, err, ErrNoBillingConfigured)

	created, err := svc.Create(ctx, subcontract("c1", day(2026, 1, 5)))
	require.NoError(t, err)

	active, err := svc.ResolveActive(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, active.ID)

	_, err = svc.Create(ctx, subcontract("c1", day(2026, 2, 2)))
	assert.ErrorIs(t, err, ErrActiveProfileExists)

	_, err = svc.Create(ctx, subcontract("missing", day(2026, 2, 2)))
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestServiceSupersedeVersions(t *testing.T) {
	store := &fakeStore{candidates: map[string]bool{"c1": true}}
	svc := NewService(store)
	ctx := context.Background()

	first, err := svc.Create(ctx, subcontract("c1", day(2026, 1, 5)))
	require.NoError(t, err)

	raise := subcontract("", day(2026, 3, 2))
	raise.HourlyRate = decimal.NewFromInt(60)
	_, err = svc.Supersede(ctx, "c1", raise)
	require.NoError(t, err)

	active, err := svc.ResolveActive(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "60", active.HourlyRate.String())

	historical, err := svc.ResolveAt(ctx, "c1", day(2026, 2, 23))
	require.NoError(t, err)
	assert.Equal(t, first.ID, historical.ID)
	require.NotNil(t, historical.EffectiveTo)
	assert.Equal(t, day(2026, 3, 1), *historical.EffectiveTo)

	backdated := subcontract("", day(2026, 3, 2))
	_, err = svc.Supersede(ctx, "c1", backdated)
	assert.True(t, errors.Is(err, ErrEffectiveDateOrder))
}
