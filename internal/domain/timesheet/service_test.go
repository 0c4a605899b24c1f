package timesheet

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffing/internal/domain/billing"
	"staffing/internal/domain/workflow"
)

type fakeResolver struct {
	profiles map[string]billing.Profile
}

func (f fakeResolver) ResolveAt(_ context.Context, candidateID string, _ time.Time) (billing.Profile, error) {
	p, ok := f.profiles[candidateID]
	if !ok {
		return billing.Profile{}, billing.ErrNoBillingConfigured
	}
	return p, nil
}

type memStore struct {
	weekly   map[string]Weekly
	biweekly map[string]BiWeekly
	monthly  map[string]Monthly
	seq      int
}

func newMemStore() *memStore {
	return &memStore{weekly: map[string]Weekly{}, biweekly: map[string]BiWeekly{}, monthly: map[string]Monthly{}}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) CreateWeekly(_ context.Context, w Weekly) (Weekly, error) {
	for _, existing := range m.weekly {
		if existing.CandidateID == w.CandidateID && existing.WeekStartDate.Equal(w.WeekStartDate) && existing.Status != workflow.StatusRejected {
			return Weekly{}, ErrWeekAlreadyExists
		}
	}
	w.ID = m.nextID("week")
	m.weekly[w.ID] = w
	return w, nil
}

func (m *memStore) UpdateWeeklyDays(_ context.Context, w Weekly) (Weekly, error) {
	current, ok := m.weekly[w.ID]
	if !ok || current.Status != workflow.StatusDraft {
		return Weekly{}, ErrNotEditable
	}
	w.Status = current.Status
	w.CandidateID = current.CandidateID
	m.weekly[w.ID] = w
	return w, nil
}

func (m *memStore) GetWeekly(_ context.Context, id string) (Weekly, error) {
	w, ok := m.weekly[id]
	if !ok {
		return Weekly{}, ErrNotFound
	}
	return w, nil
}

func (m *memStore) ListWeekly(_ context.Context, filter WeeklyFilter, _, _ int) ([]Weekly, int, error) {
	var out []Weekly
	for _, w := range m.weekly {
		if filter.CandidateID != "" && w.CandidateID != filter.CandidateID {
			continue
		}
		out = append(out, w)
	}
	return out, len(out), nil
}

func (m *memStore) WeeksInRange(_ context.Context, candidateID string, from, to time.Time) ([]Weekly, error) {
	var out []Weekly
	for _, w := range m.weekly {
		if w.CandidateID != candidateID || w.Status == workflow.StatusRejected {
			continue
		}
		if w.WeekEndDate.Before(from) || w.WeekStartDate.After(to) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (m *memStore) UpdateWeeklyStatus(_ context.Context, id, from, to string, change StatusChange) error {
	w, ok := m.weekly[id]
	if !ok || w.Status != from {
		return workflow.ErrInvalidTransition
	}
	w.Status = to
	if to == workflow.StatusSubmitted {
		w.SubmittedAt = &change.At
	} else {
		w.ApprovedBy = change.Actor
		w.RejectionReason = change.Reason
		w.DecidedAt = &change.At
	}
	m.weekly[id] = w
	return nil
}

func (m *memStore) SaveWeeklyConversion(_ context.Context, id string, conversion Conversion) error {
	w, ok := m.weekly[id]
	if !ok {
		return ErrNotFound
	}
	w.Conversion = &conversion
	m.weekly[id] = w
	return nil
}

func (m *memStore) CreateBiWeekly(_ context.Context, b BiWeekly) (BiWeekly, error) {
	b.ID = m.nextID("biweekly")
	m.biweekly[b.ID] = b
	return b, nil
}

func (m *memStore) GetBiWeekly(_ context.Context, id string) (BiWeekly, error) {
	b, ok := m.biweekly[id]
	if !ok {
		return BiWeekly{}, ErrNotFound
	}
	return b, nil
}

func (m *memStore) ListBiWeekly(_ context.Context, _ string, _, _ int) ([]BiWeekly, int, error) {
	return nil, len(m.biweekly), nil
}

func (m *memStore) UpdateBiWeeklyStatus(_ context.Context, id, from, to string, change StatusChange) error {
	b, ok := m.biweekly[id]
	if !ok || b.Status != from {
		return workflow.ErrInvalidTransition
	}
	b.Status, b.ApprovedBy, b.RejectionReason = to, change.Actor, change.Reason
	m.biweekly[id] = b
	return nil
}

func (m *memStore) CreateMonthly(_ context.Context, mo Monthly) (Monthly, error) {
	for _, existing := range m.monthly {
		if existing.CandidateID == mo.CandidateID && existing.Year == mo.Year && existing.Month == mo.Month && existing.Status != workflow.StatusRejected {
			return Monthly{}, ErrPeriodExists
		}
	}
	mo.ID = m.nextID("monthly")
	m.monthly[mo.ID] = mo
	return mo, nil
}

func (m *memStore) GetMonthly(_ context.Context, id string) (Monthly, error) {
	mo, ok := m.monthly[id]
	if !ok {
		return Monthly{}, ErrNotFound
	}
	return mo, nil
}

func (m *memStore) ListMonthly(_ context.Context, _ string, _, _ int) ([]Monthly, int, error) {
	return nil, len(m.monthly), nil
}

func (m *memStore) UpdateMonthlyStatus(_ context.Context, id, from, to string, change StatusChange) error {
	mo, ok := m.monthly[id]
	if !ok || mo.Status != from {
		return workflow.ErrInvalidTransition
	}
	mo.Status, mo.ApprovedBy, mo.RejectionReason = to, change.Actor, change.Reason
	m.monthly[id] = mo
	return nil
}

func newTestService(opts Options) (*Service, *memStore) {
	store := newMemStore()
	resolver := fakeResolver{profiles: map[string]billing.Profile{
		"cand-1": subcontractProfile(),
		"cand-2": fulltimeProfile(),
	}}
	svc := NewService(store, resolver, opts)
	svc.now = func() time.Time { return date(2026, 3, 20) }
	return svc, store
}

func TestServiceWeeklyLifecycle(t *testing.T) {
	svc, _ := newTestService(Options{EnforceSubcontractLeave: true})
	ctx := context.Background()

	w, err := svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-1", WeekStartDate: date(2026, 3, 2), Days: standardWeek("5"), CreatedBy: "recruiter-1"})
	require.NoError(t, err)
	assert.Equal(t, "2250", w.Amounts.TotalAmount.String())

	_, err = svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-1", WeekStartDate: date(2026, 3, 2), Days: standardWeek("0")})
	assert.ErrorIs(t, err, ErrWeekAlreadyExists)

	w, err = svc.UpdateWeekly(ctx, w.ID, standardWeek("0"))
	require.NoError(t, err)
	assert.Equal(t, "2000", w.Amounts.TotalAmount.String())

	_, err = svc.TransitionWeekly(ctx, w.ID, workflow.StatusApproved, "finance-1", "")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	w, err = svc.TransitionWeekly(ctx, w.ID, workflow.StatusSubmitted, "recruiter-1", "")
	require.NoError(t, err)
	require.NotNil(t, w.SubmittedAt)

	_, err = svc.UpdateWeekly(ctx, w.ID, standardWeek("1"))
	assert.ErrorIs(t, err, ErrNotEditable)

	_, err = svc.TransitionWeekly(ctx, w.ID, workflow.StatusRejected, "finance-1", "")
	assert.ErrorIs(t, err, workflow.ErrReasonRequired)

	w, err = svc.TransitionWeekly(ctx, w.ID, workflow.StatusApproved, "finance-1", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "finance-1", w.ApprovedBy)
	assert.Empty(t, w.RejectionReason)
}

func TestServiceCreateWeeklyErrors(t *testing.T) {
	svc, _ := newTestService(Options{EnforceSubcontractLeave: true})
	ctx := context.Background()

	_, err := svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "nobody", WeekStartDate: date(2026, 3, 2)})
	assert.ErrorIs(t, err, billing.ErrNoBillingConfigured)

	_, err = svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-1", WeekStartDate: date(2026, 3, 4)})
	assert.ErrorIs(t, err, ErrWeekStartNotMonday)

	days := standardWeek("0")
	days[0].Regular = d("0")
	days[0].Sick = d("8")
	_, err = svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-1", WeekStartDate: date(2026, 3, 2), Days: days})
	assert.ErrorIs(t, err, ErrInvalidHours)

	lenient, _ := newTestService(Options{EnforceSubcontractLeave: false})
	w, err := lenient.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-1", WeekStartDate: date(2026, 3, 2), Days: days})
	require.NoError(t, err)
	assert.Equal(t, "8", w.Totals.TotalSickHours.String())
	assert.Equal(t, "32", w.Totals.TotalWeeklyHours.String())
}

func TestServiceGenerateBiWeekly(t *testing.T) {
	svc, store := newTestService(Options{})
	ctx := context.Background()

	w1, err := svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-1", WeekStartDate: date(2026, 3, 2), Days: standardWeek("0")})
	require.NoError(t, err)
	w2, err := svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-1", WeekStartDate: date(2026, 3, 9), Days: standardWeek("0")})
	require.NoError(t, err)

	b, err := svc.GenerateBiWeekly(ctx, w1.ID, w2.ID, "finance-1")
	require.NoError(t, err)
	assert.Equal(t, "80", b.Totals.TotalHours.String())
	assert.Equal(t, "finance-1", b.CreatedBy)
	assert.Equal(t, workflow.StatusDraft, store.weekly[w1.ID].Status)

	b, err = svc.TransitionBiWeekly(ctx, b.ID, workflow.StatusApproved, "finance-1", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, b.Status)

	_, err = svc.TransitionBiWeekly(ctx, b.ID, workflow.StatusRejected, "finance-1", "late")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	rejected := store.weekly[w2.ID]
	rejected.Status = workflow.StatusRejected
	store.weekly[w2.ID] = rejected
	_, err = svc.GenerateBiWeekly(ctx, w1.ID, w2.ID, "finance-1")
	assert.ErrorIs(t, err, ErrWeekRejected)
}

func TestServiceGenerateMonthlyUsesMode(t *testing.T) {
	ctx := context.Background()
	for mode, want := range map[string]string{ModeFull: "120", ModeProrated: "56"} {
		svc, _ := newTestService(Options{MonthlyMode: mode})
		for _, start := range []time.Time{date(2026, 2, 23), date(2026, 3, 2), date(2026, 3, 30)} {
			_, err := svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-1", WeekStartDate: start, Days: standardWeek("0")})
			require.NoError(t, err)
		}
		m, err := svc.GenerateMonthly(ctx, "cand-1", 2026, 3, "finance-1")
		require.NoError(t, err, mode)
		assert.Equal(t, want, m.Totals.TotalHours.String(), mode)
		assert.Equal(t, 3, m.TotalWeeks, mode)

		_, err = svc.GenerateMonthly(ctx, "cand-1", 2026, 3, "finance-1")
		assert.ErrorIs(t, err, ErrPeriodExists, mode)
	}

	svc, _ := newTestService(Options{})
	_, err := svc.GenerateMonthly(ctx, "cand-1", 2026, 4, "finance-1")
	assert.ErrorIs(t, err, ErrNoWeeks)
}

func TestServiceConvertAndLeaveUsage(t *testing.T) {
	svc, _ := newTestService(Options{EnforceSubcontractLeave: true})
	ctx := context.Background()

	days := standardWeek("0")
	days[0].Regular = d("0")
	days[0].Sick = d("8")
	w, err := svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-2", WeekStartDate: date(2026, 3, 2), Days: days})
	require.NoError(t, err)

	converted, err := svc.ConvertWeekly(ctx, w.ID, d("83"), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "1", converted.Conversion.ConversionRate.String())
	assert.Equal(t, date(2026, 3, 20), converted.Conversion.ConversionDate)

	usage, err := svc.LeaveUsage(ctx, "cand-2", 2026, date(2026, 3, 20))
	require.NoError(t, err)
	assert.Equal(t, "1", usage.SickDaysUsed.String())
	assert.Equal(t, 6, usage.SickAllotment)
}

func TestServiceConvertRespectsStatus(t *testing.T) {
	svc, _ := newTestService(Options{})
	ctx := context.Background()

	approved, err := svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-1", WeekStartDate: date(2026, 3, 2), Days: standardWeek("0")})
	require.NoError(t, err)
	_, err = svc.TransitionWeekly(ctx, approved.ID, workflow.StatusSubmitted, "cand-1", "")
	require.NoError(t, err)
	_, err = svc.TransitionWeekly(ctx, approved.ID, workflow.StatusApproved, "recruiter-1", "")
	require.NoError(t, err)
	converted, err := svc.ConvertWeekly(ctx, approved.ID, d("83"), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, converted.Status)
	require.NotNil(t, converted.Conversion)

	rejected, err := svc.CreateWeekly(ctx, WeeklyInput{CandidateID: "cand-1", WeekStartDate: date(2026, 3, 9), Days: standardWeek("0")})
	require.NoError(t, err)
	_, err = svc.TransitionWeekly(ctx, rejected.ID, workflow.StatusSubmitted, "cand-1", "")
	require.NoError(t, err)
	_, err = svc.TransitionWeekly(ctx, rejected.ID, workflow.StatusRejected, "recruiter-1", "hours disputed")
	require.NoError(t, err)
	_, err = svc.ConvertWeekly(ctx, rejected.ID, d("83"), time.Time{})
	assert.ErrorIs(t, err, ErrWeekRejected)
}
