package reports

import (
	"context"
	"fmt"

	"staffing/internal/domain/workflow"
	"staffing/internal/platform/querier"
)

type StoreAPI interface {
	WeeklyStatusCounts(ctx context.Context, candidateID string) (map[string]int, error)
	PendingPeriods(ctx context.Context, candidateID string) (int, error)
	InvoiceTotals(ctx context.Context, candidateID string) ([]InvoiceTotal, error)
	ApprovedHoursByMonth(ctx context.Context, candidateID string, year int) ([]MonthHours, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// candidateClause scopes a query to one candidate when candidateID is set.
func candidateClause(candidateID string, args []any) (string, []any) {
	if candidateID == "" {
		return "", args
	}
	args = append(args, candidateID)
	return fmt.Sprintf(" AND candidate_id = $%d", len(args)), args
}

func (s *Store) WeeklyStatusCounts(ctx context.Context, candidateID string) (map[string]int, error) {
	where, args := candidateClause(candidateID, nil)
	rows, err := s.DB.Query(ctx, `
    SELECT status, COUNT(1)
    FROM weekly_timesheets
    WHERE 1=1`+where+`
    GROUP BY status
  `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

func (s *Store) PendingPeriods(ctx context.Context, candidateID string) (int, error) {
	args := []any{workflow.StatusCalculated, workflow.StatusSubmitted}
	where, args := candidateClause(candidateID, args)
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM biweekly_timesheets WHERE status IN ($1,$2)`+where+`) +
      (SELECT COUNT(1) FROM monthly_timesheets WHERE status IN ($1,$2)`+where+`)
  `, args...).Scan(&total)
	return total, err
}

func (s *Store) InvoiceTotals(ctx context.Context, candidateID string) ([]InvoiceTotal, error) {
	where, args := candidateClause(candidateID, nil)
	rows, err := s.DB.Query(ctx, `
    SELECT status, currency, COUNT(1), COALESCE(SUM(total_with_gst), 0)
    FROM invoices
    WHERE 1=1`+where+`
    GROUP BY status, currency
    ORDER BY status, currency
  `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InvoiceTotal
	for rows.Next() {
		var t InvoiceTotal
		if err := rows.Scan(&t.Status, &t.Currency, &t.Count, &t.TotalWithGST); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ApprovedHoursByMonth(ctx context.Context, candidateID string, year int) ([]MonthHours, error) {
	args := []any{workflow.StatusApproved, year}
	where, args := candidateClause(candidateID, args)
	rows, err := s.DB.Query(ctx, `
    SELECT EXTRACT(MONTH FROM week_start_date)::int, currency,
      SUM(total_weekly_hours), SUM(total_amount)
    FROM weekly_timesheets
    WHERE status = $1 AND EXTRACT(YEAR FROM week_start_date)::int = $2`+where+`
    GROUP BY 1, 2
    ORDER BY 1, 2
  `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthHours
	for rows.Next() {
		var m MonthHours
		if err := rows.Scan(&m.Month, &m.Currency, &m.TotalHours, &m.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
