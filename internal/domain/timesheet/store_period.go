package timesheet

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"staffing/internal/domain/workflow"
	"staffing/internal/platform/querier"
)

const (
	biweeklyPeriodIndex = "biweekly_timesheets_period_idx"
	monthlyPeriodIndex  = "monthly_timesheets_period_idx"
)

const biweeklyColumns = `id, candidate_id, week1_id, week2_id, period_start, period_end, currency,
           totals_json, day_totals_json, week1_json, week2_json,
           status, rejection_reason, created_by, approved_by, decided_at, created_at`

const monthlyColumns = `id, candidate_id, year, month, mode, currency, total_weeks, week_ids_json,
           totals_json, day_totals_json,
           status, rejection_reason, created_by, approved_by, decided_at, created_at`

func (s *Store) CreateBiWeekly(ctx context.Context, b BiWeekly) (BiWeekly, error) {
	totalsJSON, err := json.Marshal(b.Totals)
	if err != nil {
		return BiWeekly{}, err
	}
	dayJSON, err := json.Marshal(b.DayTotals)
	if err != nil {
		return BiWeekly{}, err
	}
	week1JSON, err := json.Marshal(b.Week1)
	if err != nil {
		return BiWeekly{}, err
	}
	week2JSON, err := json.Marshal(b.Week2)
	if err != nil {
		return BiWeekly{}, err
	}
	row := s.DB.QueryRow(ctx, `
    INSERT INTO biweekly_timesheets (candidate_id, week1_id, week2_id, period_start, period_end, currency,
      totals_json, day_totals_json, week1_json, week2_json, total_hours, total_amount, net_amount, status, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    RETURNING `+biweeklyColumns,
		b.CandidateID, b.Week1ID, b.Week2ID, b.PeriodStart, b.PeriodEnd, b.Currency,
		totalsJSON, dayJSON, week1JSON, week2JSON, b.Totals.TotalHours, b.Totals.TotalAmount, b.Totals.NetAmount,
		b.Status, b.CreatedBy)
	created, err := scanBiWeekly(row)
	if querier.IsUniqueViolation(err, biweeklyPeriodIndex) {
		return BiWeekly{}, ErrPeriodExists
	}
	return created, err
}

func (s *Store) GetBiWeekly(ctx context.Context, id string) (BiWeekly, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+biweeklyColumns+" FROM biweekly_timesheets WHERE id = $1", id)
	b, err := scanBiWeekly(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return BiWeekly{}, ErrNotFound
	}
	return b, err
}

func (s *Store) ListBiWeekly(ctx context.Context, candidateID string, limit, offset int) ([]BiWeekly, int, error) {
	where, args := candidateWhere(candidateID)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM biweekly_timesheets"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := "SELECT " + biweeklyColumns + " FROM biweekly_timesheets" + where +
		fmt.Sprintf(" ORDER BY period_start DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []BiWeekly
	for rows.Next() {
		b, err := scanBiWeekly(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateBiWeeklyStatus(ctx context.Context, id, from, to string, change StatusChange) error {
	return s.updatePeriodStatus(ctx, "biweekly_timesheets", id, from, to, change)
}

func (s *Store) CreateMonthly(ctx context.Context, m Monthly) (Monthly, error) {
	weekIDsJSON, err := json.Marshal(m.WeekIDs)
	if err != nil {
		return Monthly{}, err
	}
	totalsJSON, err := json.Marshal(m.Totals)
	if err != nil {
		return Monthly{}, err
	}
	dayJSON, err := json.Marshal(m.DayTotals)
	if err != nil {
		return Monthly{}, err
	}
	row := s.DB.QueryRow(ctx, `
    INSERT INTO monthly_timesheets (candidate_id, year, month, mode, currency, total_weeks, week_ids_json,
      totals_json, day_totals_json, total_hours, total_amount, net_amount, status, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    RETURNING `+monthlyColumns,
		m.CandidateID, m.Year, m.Month, m.Mode, m.Currency, m.TotalWeeks, weekIDsJSON,
		totalsJSON, dayJSON, m.Totals.TotalHours, m.Totals.TotalAmount, m.Totals.NetAmount,
		m.Status, m.CreatedBy)
	created, err := scanMonthly(row)
	if querier.IsUniqueViolation(err, monthlyPeriodIndex) {
		return Monthly{}, ErrPeriodExists
	}
	return created, err
}

func (s *Store) GetMonthly(ctx context.Context, id string) (Monthly, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+monthlyColumns+" FROM monthly_timesheets WHERE id = $1", id)
	m, err := scanMonthly(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Monthly{}, ErrNotFound
	}
	return m, err
}

func (s *Store) ListMonthly(ctx context.Context, candidateID string, limit, offset int) ([]Monthly, int, error) {
	where, args := candidateWhere(candidateID)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM monthly_timesheets"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := "SELECT " + monthlyColumns + " FROM monthly_timesheets" + where +
		fmt.Sprintf(" ORDER BY year DESC, month DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Monthly
	for rows.Next() {
		m, err := scanMonthly(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateMonthlyStatus(ctx context.Context, id, from, to string, change StatusChange) error {
	return s.updatePeriodStatus(ctx, "monthly_timesheets", id, from, to, change)
}

// updatePeriodStatus moves a period row only if it is still in from.
// table is always one of the package's own constants.
func (s *Store) updatePeriodStatus(ctx context.Context, table, id, from, to string, change StatusChange) error {
	query := `
    UPDATE ` + table + `
    SET status = $3, approved_by = $4, rejection_reason = $5, decided_at = $6
    WHERE id = $1 AND status = $2
  `
	args := []any{id, from, to, change.Actor, change.Reason, change.At}
	if to == workflow.StatusSubmitted {
		query = "UPDATE " + table + " SET status = $3 WHERE id = $1 AND status = $2"
		args = args[:3]
	}
	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s is no longer %s", workflow.ErrInvalidTransition, id, from)
	}
	return nil
}

func candidateWhere(candidateID string) (string, []any) {
	if candidateID == "" {
		return "", nil
	}
	return " WHERE candidate_id = $1", []any{candidateID}
}

func scanBiWeekly(row pgx.Row) (BiWeekly, error) {
	var b BiWeekly
	var totalsJSON, dayJSON, week1JSON, week2JSON []byte
	if err := row.Scan(&b.ID, &b.CandidateID, &b.Week1ID, &b.Week2ID, &b.PeriodStart, &b.PeriodEnd, &b.Currency,
		&totalsJSON, &dayJSON, &week1JSON, &week2JSON,
		&b.Status, &b.RejectionReason, &b.CreatedBy, &b.ApprovedBy, &b.DecidedAt, &b.CreatedAt); err != nil {
		return BiWeekly{}, err
	}
	for _, part := range []struct {
		data []byte
		dst  any
	}{{totalsJSON, &b.Totals}, {dayJSON, &b.DayTotals}, {week1JSON, &b.Week1}, {week2JSON, &b.Week2}} {
		if err := json.Unmarshal(part.data, part.dst); err != nil {
			return BiWeekly{}, err
		}
	}
	return b, nil
}

func scanMonthly(row pgx.Row) (Monthly, error) {
	var m Monthly
	var weekIDsJSON, totalsJSON, dayJSON []byte
	if err := row.Scan(&m.ID, &m.CandidateID, &m.Year, &m.Month, &m.Mode, &m.Currency, &m.TotalWeeks, &weekIDsJSON,
		&totalsJSON, &dayJSON,
		&m.Status, &m.RejectionReason, &m.CreatedBy, &m.ApprovedBy, &m.DecidedAt, &m.CreatedAt); err != nil {
		return Monthly{}, err
	}
	if err := json.Unmarshal(weekIDsJSON, &m.WeekIDs); err != nil {
		return Monthly{}, err
	}
	if err := json.Unmarshal(totalsJSON, &m.Totals); err != nil {
		return Monthly{}, err
	}
	if err := json.Unmarshal(dayJSON, &m.DayTotals); err != nil {
		return Monthly{}, err
	}
	return m, nil
}
