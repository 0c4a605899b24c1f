package timesheet

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"staffing/internal/domain/billing"
	"staffing/internal/domain/money"
	"staffing/internal/domain/workflow"
)

// ProfileResolver supplies the billing terms in effect on a date.
type ProfileResolver interface {
	ResolveAt(ctx context.Context, candidateID string, date time.Time) (billing.Profile, error)
}

type Options struct {
	EnforceSubcontractLeave bool
	MonthlyMode             string
}

type Service struct {
	store   StoreAPI
	billing ProfileResolver
	opts    Options
	now     func() time.Time
}

func NewService(store StoreAPI, resolver ProfileResolver, opts Options) *Service {
	if opts.MonthlyMode == "" {
		opts.MonthlyMode = ModeFull
	}
	return &Service{store: store, billing: resolver, opts: opts, now: time.Now}
}

type WeeklyInput struct {
	CandidateID   string
	WeekStartDate time.Time
	Days          [DaysPerWeek]DayEntry
	CreatedBy     string
}

// CreateWeekly prices a new draft week with the profile in effect on its
// Monday.
func (s *Service) CreateWeekly(ctx context.Context, in WeeklyInput) (Weekly, error) {
	w, err := s.build(ctx, in.CandidateID, in.WeekStartDate, in.Days)
	if err != nil {
		return Weekly{}, err
	}
	w.CreatedBy = in.CreatedBy
	return s.store.CreateWeekly(ctx, w)
}

// UpdateWeekly replaces the hours of a draft week.
func (s *Service) UpdateWeekly(ctx context.Context, id string, days [DaysPerWeek]DayEntry) (Weekly, error) {
	current, err := s.store.GetWeekly(ctx, id)
	if err != nil {
		return Weekly{}, err
	}
	if current.Status != workflow.StatusDraft {
		return Weekly{}, ErrNotEditable
	}
	w, err := s.build(ctx, current.CandidateID, current.WeekStartDate, days)
	if err != nil {
		return Weekly{}, err
	}
	w.ID = current.ID
	return s.store.UpdateWeeklyDays(ctx, w)
}

func (s *Service) build(ctx context.Context, candidateID string, weekStart time.Time, days [DaysPerWeek]DayEntry) (Weekly, error) {
	weekStart = money.Date(weekStart)
	if weekStart.Weekday() != time.Monday {
		return Weekly{}, ErrWeekStartNotMonday
	}
	profile, err := s.billing.ResolveAt(ctx, candidateID, weekStart)
	if err != nil {
		return Weekly{}, err
	}
	if s.opts.EnforceSubcontractLeave {
		if err := CheckLeavePolicy(days, profile); err != nil {
			return Weekly{}, err
		}
	}
	return NewWeekly(candidateID, weekStart, days, profile)
}

func (s *Service) GetWeekly(ctx context.Context, id string) (Weekly, error) {
	return s.store.GetWeekly(ctx, id)
}

func (s *Service) ListWeekly(ctx context.Context, filter WeeklyFilter, limit, offset int) ([]Weekly, int, error) {
	return s.store.ListWeekly(ctx, filter, limit, offset)
}

// TransitionWeekly moves a week along draft, submitted, approved or
// rejected.
func (s *Service) TransitionWeekly(ctx context.Context, id, to, actor, reason string) (Weekly, error) {
	current, err := s.store.GetWeekly(ctx, id)
	if err != nil {
		return Weekly{}, err
	}
	if err := workflow.Weekly.Transition(current.Status, to, reason); err != nil {
		return Weekly{}, err
	}
	if to != workflow.StatusRejected {
		reason = ""
	}
	change := StatusChange{Actor: actor, Reason: reason, At: s.now().UTC()}
	if err := s.store.UpdateWeeklyStatus(ctx, id, current.Status, to, change); err != nil {
		return Weekly{}, err
	}
	return s.store.GetWeekly(ctx, id)
}

// ConvertWeekly stores the INR equivalent of a week's total at rate. The
// figure is informational and may be refreshed after approval; invoices
// keep the rate they were generated with. Rejected weeks are not converted.
func (s *Service) ConvertWeekly(ctx context.Context, id string, rate decimal.Decimal, on time.Time) (Weekly, error) {
	w, err := s.store.GetWeekly(ctx, id)
	if err != nil {
		return Weekly{}, err
	}
	if w.Status == workflow.StatusRejected {
		return Weekly{}, ErrWeekRejected
	}
	if on.IsZero() {
		on = s.now()
	}
	if err := w.ConvertToINR(rate, on); err != nil {
		return Weekly{}, err
	}
	if err := s.store.SaveWeeklyConversion(ctx, id, *w.Conversion); err != nil {
		return Weekly{}, err
	}
	return w, nil
}

// LeaveUsage reports a fulltime candidate's leave taken in year against the
// allotments of the profile in effect at asOf.
func (s *Service) LeaveUsage(ctx context.Context, candidateID string, year int, asOf time.Time) (LeaveUsage, error) {
	profile, err := s.billing.ResolveAt(ctx, candidateID, asOf)
	if err != nil {
		return LeaveUsage{}, err
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	weeks, err := s.store.WeeksInRange(ctx, candidateID, from, to)
	if err != nil {
		return LeaveUsage{}, err
	}
	totals := make([]WeeklyTotals, 0, len(weeks))
	for _, w := range weeks {
		totals = append(totals, w.Totals)
	}
	return ComputeLeaveUsage(totals, profile), nil
}

// GenerateBiWeekly aggregates two stored weeks into a period record.
func (s *Service) GenerateBiWeekly(ctx context.Context, week1ID, week2ID, actor string) (BiWeekly, error) {
	week1, err := s.store.GetWeekly(ctx, week1ID)
	if err != nil {
		return BiWeekly{}, err
	}
	week2, err := s.store.GetWeekly(ctx, week2ID)
	if err != nil {
		return BiWeekly{}, err
	}
	if week1.Status == workflow.StatusRejected || week2.Status == workflow.StatusRejected {
		return BiWeekly{}, ErrWeekRejected
	}
	b, err := AggregateBiWeekly(week1, week2)
	if err != nil {
		return BiWeekly{}, err
	}
	b.CreatedBy = actor
	return s.store.CreateBiWeekly(ctx, b)
}

func (s *Service) GetBiWeekly(ctx context.Context, id string) (BiWeekly, error) {
	return s.store.GetBiWeekly(ctx, id)
}

func (s *Service) ListBiWeekly(ctx context.Context, candidateID string, limit, offset int) ([]BiWeekly, int, error) {
	return s.store.ListBiWeekly(ctx, candidateID, limit, offset)
}

func (s *Service) TransitionBiWeekly(ctx context.Context, id, to, actor, reason string) (BiWeekly, error) {
	current, err := s.store.GetBiWeekly(ctx, id)
	if err != nil {
		return BiWeekly{}, err
	}
	change, err := s.periodChange(current.Status, to, actor, reason)
	if err != nil {
		return BiWeekly{}, err
	}
	if err := s.store.UpdateBiWeeklyStatus(ctx, id, current.Status, to, change); err != nil {
		return BiWeekly{}, err
	}
	return s.store.GetBiWeekly(ctx, id)
}

// GenerateMonthly aggregates the candidate's non-rejected weeks touching
// the month using the configured aggregation mode.
func (s *Service) GenerateMonthly(ctx context.Context, candidateID string, year, month int, actor string) (Monthly, error) {
	if month < 1 || month > 12 {
		return Monthly{}, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	weeks, err := s.store.WeeksInRange(ctx, candidateID, first, last)
	if err != nil {
		return Monthly{}, err
	}
	if len(weeks) == 0 {
		return Monthly{}, ErrNoWeeks
	}
	m, err := AggregateMonthly(candidateID, year, month, weeks, s.opts.MonthlyMode)
	if err != nil {
		return Monthly{}, err
	}
	m.CreatedBy = actor
	return s.store.CreateMonthly(ctx, m)
}

func (s *Service) GetMonthly(ctx context.Context, id string) (Monthly, error) {
	return s.store.GetMonthly(ctx, id)
}

func (s *Service) ListMonthly(ctx context.Context, candidateID string, limit, offset int) ([]Monthly, int, error) {
	return s.store.ListMonthly(ctx, candidateID, limit, offset)
}

func (s *Service) TransitionMonthly(ctx context.Context, id, to, actor, reason string) (Monthly, error) {
	current, err := s.store.GetMonthly(ctx, id)
	if err != nil {
		return Monthly{}, err
	}
	change, err := s.periodChange(current.Status, to, actor, reason)
	if err != nil {
		return Monthly{}, err
	}
	if err := s.store.UpdateMonthlyStatus(ctx, id, current.Status, to, change); err != nil {
		return Monthly{}, err
	}
	return s.store.GetMonthly(ctx, id)
}

func (s *Service) periodChange(from, to, actor, reason string) (StatusChange, error) {
	if err := workflow.Period.Transition(from, to, reason); err != nil {
		return StatusChange{}, err
	}
	if to != workflow.StatusRejected {
		reason = ""
	}
	return StatusChange{Actor: actor, Reason: reason, At: s.now().UTC()}, nil
}
