package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"staffing/internal/domain/workflow"
	"staffing/internal/platform/querier"
)

const (
	numberConstraint   = "invoices_number_key"
	weeklyIndex        = "invoices_weekly_idx"
	biweeklyIndex      = "invoices_biweekly_idx"
	invoiceColumnsList = `id, invoice_number, candidate_id,
           COALESCE(weekly_timesheet_id::text, ''), COALESCE(biweekly_timesheet_id::text, ''),
           COALESCE(client_company_id::text, ''), COALESCE(end_user_id::text, ''),
           period_start, period_end, total_hours, hourly_rate, total_amount, currency,
           currency_conversion_rate, six_month_average_rate, original_inr_amount, usd_amount,
           gst_rate, gst_amount, total_with_gst, status, issued_date, due_date, paid_date,
           file_path, created_by, created_at`
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

func (s *Store) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := s.DB.QueryRow(ctx, "SELECT nextval('invoice_number_seq')").Scan(&seq)
	return seq, err
}

// ExistsForPeriod reports whether any invoice of the candidate overlaps
// [start, end].
func (s *Store) ExistsForPeriod(ctx context.Context, candidateID string, start, end time.Time) (bool, error) {
	return existsForPeriod(ctx, s.DB, candidateID, start, end)
}

func existsForPeriod(ctx context.Context, q querier.Querier, candidateID string, start, end time.Time) (bool, error) {
	var count int
	err := q.QueryRow(ctx, `
    SELECT COUNT(1) FROM invoices
    WHERE candidate_id = $1 AND period_start <= $3 AND period_end >= $2
  `, candidateID, start, end).Scan(&count)
	return count > 0, err
}

// Create inserts inv while holding a per-candidate advisory lock, so the
// overlap check and the insert cannot interleave with another invoice for
// the same candidate.
func (s *Store) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Invoice{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", inv.CandidateID); err != nil {
		return Invoice{}, err
	}
	exists, err := existsForPeriod(ctx, tx, inv.CandidateID, inv.PeriodStart, inv.PeriodEnd)
	if err != nil {
		return Invoice{}, err
	}
	if exists {
		return Invoice{}, ErrInvoiceAlreadyExists
	}

	created, err := insertInvoice(ctx, tx, inv)
	if err != nil {
		return Invoice{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Invoice{}, err
	}
	return created, nil
}

func insertInvoice(ctx context.Context, q querier.Querier, inv Invoice) (Invoice, error) {
	row := q.QueryRow(ctx, `
    INSERT INTO invoices (invoice_number, candidate_id, weekly_timesheet_id, biweekly_timesheet_id,
      client_company_id, end_user_id, period_start, period_end, total_hours, hourly_rate, total_amount, currency,
      currency_conversion_rate, six_month_average_rate, original_inr_amount, usd_amount,
      gst_rate, gst_amount, total_with_gst, status, issued_date, due_date, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
    RETURNING `+invoiceColumnsList,
		inv.InvoiceNumber, inv.CandidateID, nullIfEmpty(inv.WeeklyTimesheetID), nullIfEmpty(inv.BiWeeklyTimesheetID),
		nullIfEmpty(inv.ClientCompanyID), nullIfEmpty(inv.EndUserID), inv.PeriodStart, inv.PeriodEnd,
		inv.TotalHours, inv.HourlyRate, inv.TotalAmount, inv.Currency,
		inv.CurrencyConversionRate, inv.SixMonthAverageRate, inv.OriginalINRAmount, inv.USDAmount,
		inv.GSTRate, inv.GSTAmount, inv.TotalWithGST, inv.Status, inv.IssuedDate, inv.DueDate, inv.CreatedBy)
	created, err := scanInvoice(row)
	switch {
	case querier.IsUniqueViolation(err, numberConstraint):
		return Invoice{}, fmt.Errorf("%w: %s", ErrDuplicateInvoiceNumber, inv.InvoiceNumber)
	case querier.IsUniqueViolation(err, weeklyIndex), querier.IsUniqueViolation(err, biweeklyIndex):
		return Invoice{}, ErrInvoiceAlreadyExists
	}
	return created, err
}

func (s *Store) Get(ctx context.Context, id string) (Invoice, error) {
	inv, err := scanInvoice(s.DB.QueryRow(ctx, "SELECT "+invoiceColumnsList+" FROM invoices WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	return inv, err
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Invoice, int, error) {
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

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM invoices"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := "SELECT " + invoiceColumnsList + " FROM invoices" + where +
		fmt.Sprintf(" ORDER BY issued_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id, from, to string, paidDate *time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE invoices SET status = $3, paid_date = COALESCE($4, paid_date)
    WHERE id = $1 AND status = $2
  `, id, from, to, paidDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s is no longer %s", workflow.ErrInvalidTransition, id, from)
	}
	return nil
}

// MarkOverdue flags sent invoices whose due date has passed.
func (s *Store) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE invoices SET status = $1
    WHERE status = $2 AND due_date < $3
  `, workflow.StatusOverdue, workflow.StatusSent, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) SetFilePath(ctx context.Context, id, path string) error {
	_, err := s.DB.Exec(ctx, "UPDATE invoices SET file_path = $2 WHERE id = $1", id, path)
	return err
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.CandidateID,
		&inv.WeeklyTimesheetID, &inv.BiWeeklyTimesheetID, &inv.ClientCompanyID, &inv.EndUserID,
		&inv.PeriodStart, &inv.PeriodEnd, &inv.TotalHours, &inv.HourlyRate, &inv.TotalAmount, &inv.Currency,
		&inv.CurrencyConversionRate, &inv.SixMonthAverageRate, &inv.OriginalINRAmount, &inv.USDAmount,
		&inv.GSTRate, &inv.GSTAmount, &inv.TotalWithGST, &inv.Status, &inv.IssuedDate, &inv.DueDate, &inv.PaidDate,
		&inv.FilePath, &inv.CreatedBy, &inv.CreatedAt)
	return inv, err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
