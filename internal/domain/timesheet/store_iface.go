package timesheet

import (
	"context"
	"time"
)

// StatusChange carries who moved a record and why.
type StatusChange struct {
	Actor  string
	Reason string
	At     time.Time
}

type StoreAPI interface {
	CreateWeekly(ctx context.Context, w Weekly) (Weekly, error)
	UpdateWeeklyDays(ctx context.Context, w Weekly) (Weekly, error)
	GetWeekly(ctx context.Context, id string) (Weekly, error)
	ListWeekly(ctx context.Context, filter WeeklyFilter, limit, offset int) ([]Weekly, int, error)
	WeeksInRange(ctx context.Context, candidateID string, from, to time.Time) ([]Weekly, error)
	UpdateWeeklyStatus(ctx context.Context, id, from, to string, change StatusChange) error
	SaveWeeklyConversion(ctx context.Context, id string, conversion Conversion) error

	CreateBiWeekly(ctx context.Context, b BiWeekly) (BiWeekly, error)
	GetBiWeekly(ctx context.Context, id string) (BiWeekly, error)
	ListBiWeekly(ctx context.Context, candidateID string, limit, offset int) ([]BiWeekly, int, error)
	UpdateBiWeeklyStatus(ctx context.Context, id, from, to string, change StatusChange) error

	CreateMonthly(ctx context.Context, m Monthly) (Monthly, error)
	GetMonthly(ctx context.Context, id string) (Monthly, error)
	ListMonthly(ctx context.Context, candidateID string, limit, offset int) ([]Monthly, int, error)
	UpdateMonthlyStatus(ctx context.Context, id, from, to string, change StatusChange) error
}
