package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"staffing/internal/domain/workflow"
	"staffing/internal/platform/querier"
)

const weeklyActiveIndex = "weekly_timesheets_active_week_idx"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const weeklyColumns = `id, candidate_id, billing_profile_id, week_start_date, week_end_date, days_json,
           total_weekly_hours, total_regular_hours, total_overtime_hours,
           total_sick_hours, total_paid_leave_hours, total_unpaid_leave_hours,
           hourly_rate, currency, employment_type, tds_rate, overtime_multiplier,
           regular_amount, overtime_amount, total_amount, tds_amount, net_amount,
           converted_amount, conversion_rate, conversion_date,
           status, rejection_reason, created_by, approved_by, submitted_at, decided_at, created_at`

func (s *Store) CreateWeekly(ctx context.Context, w Weekly) (Weekly, error) {
	daysJSON, err := json.Marshal(w.Days)
	if err != nil {
		return Weekly{}, err
	}
	row := s.DB.QueryRow(ctx, `
    INSERT INTO weekly_timesheets (candidate_id, billing_profile_id, week_start_date, week_end_date, days_json,
      total_weekly_hours, total_regular_hours, total_overtime_hours,
      total_sick_hours, total_paid_leave_hours, total_unpaid_leave_hours,
      hourly_rate, currency, employment_type, tds_rate, overtime_multiplier,
      regular_amount, overtime_amount, total_amount, tds_amount, net_amount,
      status, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
    RETURNING `+weeklyColumns,
		w.CandidateID, w.Rate.BillingProfileID, w.WeekStartDate, w.WeekEndDate, daysJSON,
		w.Totals.TotalWeeklyHours, w.Totals.TotalRegularHours, w.Totals.TotalOvertimeHours,
		w.Totals.TotalSickHours, w.Totals.TotalPaidLeaveHours, w.Totals.TotalUnpaidLeaveHours,
		w.Rate.HourlyRate, w.Rate.Currency, w.Rate.EmploymentType, w.Rate.TDSRate, w.Rate.OvertimeMultiplier,
		w.Amounts.RegularAmount, w.Amounts.OvertimeAmount, w.Amounts.TotalAmount, w.Amounts.TDSAmount, w.Amounts.NetAmount,
		w.Status, w.CreatedBy)
	created, err := scanWeekly(row)
	if querier.IsUniqueViolation(err, weeklyActiveIndex) {
		return Weekly{}, ErrWeekAlreadyExists
	}
	return created, err
}

func (s *Store) UpdateWeeklyDays(ctx context.Context, w Weekly) (Weekly, error) {
	daysJSON, err := json.Marshal(w.Days)
	if err != nil {
		return Weekly{}, err
	}
	row := s.DB.QueryRow(ctx, `
    UPDATE weekly_timesheets
    SET billing_profile_id = $2, days_json = $3,
        total_weekly_hours = $4, total_regular_hours = $5, total_overtime_hours = $6,
        total_sick_hours = $7, total_paid_leave_hours = $8, total_unpaid_leave_hours = $9,
        hourly_rate = $10, currency = $11, employment_type = $12, tds_rate = $13, overtime_multiplier = $14,
        regular_amount = $15, overtime_amount = $16, total_amount = $17, tds_amount = $18, net_amount = $19,
        converted_amount = NULL, conversion_rate = NULL, conversion_date = NULL,
        updated_at = now()
    WHERE id = $1 AND status = $20
    RETURNING `+weeklyColumns,
		w.ID, w.Rate.BillingProfileID, daysJSON,
		w.Totals.TotalWeeklyHours, w.Totals.TotalRegularHours, w.Totals.TotalOvertimeHours,
		w.Totals.TotalSickHours, w.Totals.TotalPaidLeaveHours, w.Totals.TotalUnpaidLeaveHours,
		w.Rate.HourlyRate, w.Rate.Currency, w.Rate.EmploymentType, w.Rate.TDSRate, w.Rate.OvertimeMultiplier,
		w.Amounts.RegularAmount, w.Amounts.OvertimeAmount, w.Amounts.TotalAmount, w.Amounts.TDSAmount, w.Amounts.NetAmount,
		workflow.StatusDraft)
	updated, err := scanWeekly(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Weekly{}, ErrNotEditable
	}
	return updated, err
}

func (s *Store) GetWeekly(ctx context.Context, id string) (Weekly, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+weeklyColumns+" FROM weekly_timesheets WHERE id = $1", id)
	w, err := scanWeekly(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Weekly{}, ErrNotFound
	}
	return w, err
}

func (s *Store) ListWeekly(ctx context.Context, filter WeeklyFilter, limit, offset int) ([]Weekly, int, error) {
	where, args := weeklyWhere(filter)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM weekly_timesheets"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + weeklyColumns + " FROM weekly_timesheets" + where +
		fmt.Sprintf(" ORDER BY week_start_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Weekly
	for rows.Next() {
		w, err := scanWeekly(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, w)
	}
	return out, total, rows.Err()
}

func weeklyWhere(filter WeeklyFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if filter.CandidateID != "" {
		args = append(args, filter.CandidateID)
		where += fmt.Sprintf(" AND candidate_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(" AND week_end_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(" AND week_start_date <= $%d", len(args))
	}
	return where, args
}

// WeeksInRange returns the candidate's non-rejected weeks overlapping
// [from, to].
func (s *Store) WeeksInRange(ctx context.Context, candidateID string, from, to time.Time) ([]Weekly, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+weeklyColumns+`
    FROM weekly_timesheets
    WHERE candidate_id = $1 AND week_end_date >= $2 AND week_start_date <= $3 AND status <> $4
    ORDER BY week_start_date
  `, candidateID, from, to, workflow.StatusRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Weekly
	for rows.Next() {
		w, err := scanWeekly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) UpdateWeeklyStatus(ctx context.Context, id, from, to string, change StatusChange) error {
	var tag pgconn.CommandTag
	var err error
	switch to {
	case workflow.StatusSubmitted:
		tag, err = s.DB.Exec(ctx, `
      UPDATE weekly_timesheets SET status = $3, submitted_at = $4, updated_at = now()
      WHERE id = $1 AND status = $2
    `, id, from, to, change.At)
	default:
		tag, err = s.DB.Exec(ctx, `
      UPDATE weekly_timesheets
      SET status = $3, approved_by = $4, rejection_reason = $5, decided_at = $6, updated_at = now()
      WHERE id = $1 AND status = $2
    `, id, from, to, change.Actor, change.Reason, change.At)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s is no longer %s", workflow.ErrInvalidTransition, id, from)
	}
	return nil
}

func (s *Store) SaveWeeklyConversion(ctx context.Context, id string, conversion Conversion) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE weekly_timesheets
    SET converted_amount = $2, conversion_rate = $3, conversion_date = $4, updated_at = now()
    WHERE id = $1
  `, id, conversion.ConvertedAmount, conversion.ConversionRate, conversion.ConversionDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWeekly(row pgx.Row) (Weekly, error) {
	var w Weekly
	var daysJSON []byte
	var converted, rate decimal.NullDecimal
	var convertedOn *time.Time
	if err := row.Scan(&w.ID, &w.CandidateID, &w.Rate.BillingProfileID, &w.WeekStartDate, &w.WeekEndDate, &daysJSON,
		&w.Totals.TotalWeeklyHours, &w.Totals.TotalRegularHours, &w.Totals.TotalOvertimeHours,
		&w.Totals.TotalSickHours, &w.Totals.TotalPaidLeaveHours, &w.Totals.TotalUnpaidLeaveHours,
		&w.Rate.HourlyRate, &w.Rate.Currency, &w.Rate.EmploymentType, &w.Rate.TDSRate, &w.Rate.OvertimeMultiplier,
		&w.Amounts.RegularAmount, &w.Amounts.OvertimeAmount, &w.Amounts.TotalAmount, &w.Amounts.TDSAmount, &w.Amounts.NetAmount,
		&converted, &rate, &convertedOn,
		&w.Status, &w.RejectionReason, &w.CreatedBy, &w.ApprovedBy, &w.SubmittedAt, &w.DecidedAt, &w.CreatedAt); err != nil {
		return Weekly{}, err
	}
	if err := json.Unmarshal(daysJSON, &w.Days); err != nil {
		return Weekly{}, err
	}
	for i, day := range w.Days {
		w.Totals.DayHours[i] = day.Worked()
	}
	if converted.Valid && rate.Valid && convertedOn != nil {
		w.Conversion = &Conversion{
			ConvertedAmount: converted.Decimal,
			ConversionRate:  rate.Decimal,
			ConversionDate:  *convertedOn,
		}
	}
	return w, nil
}
