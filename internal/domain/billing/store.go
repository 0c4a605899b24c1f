package billing

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"staffing/internal/platform/querier"
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

const profileColumns = `id, candidate_id, hourly_rate, currency, working_hours_per_week, working_days_per_week,
           employment_type, tds_rate, benefits_json, sick_leave_days, paid_leave_days, overtime_multiplier,
           effective_from, effective_to, is_active, created_by, created_at`

func (s *Store) CandidateExists(ctx context.Context, candidateID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM candidates WHERE id = $1", candidateID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListByCandidate(ctx context.Context, candidateID string) ([]Profile, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+profileColumns+`
    FROM billing_profiles
    WHERE candidate_id = $1
    ORDER BY effective_from DESC, created_at DESC
  `, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (s *Store) Create(ctx context.Context, profile Profile) (Profile, error) {
	return insertProfile(ctx, s.DB, profile)
}

func (s *Store) Supersede(ctx context.Context, currentID string, closeOn time.Time, next Profile) (Profile, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Profile{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE billing_profiles
    SET is_active = false, effective_to = $1
    WHERE id = $2 AND is_active = true
  `, closeOn, currentID)
	if err != nil {
		return Profile{}, err
	}
	if tag.RowsAffected() == 0 {
		return Profile{}, ErrNoBillingConfigured
	}

	created, err := insertProfile(ctx, tx, next)
	if err != nil {
		return Profile{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Profile{}, err
	}
	return created, nil
}

func insertProfile(ctx context.Context, q querier.Querier, p Profile) (Profile, error) {
	benefitsJSON, err := json.Marshal(p.Benefits)
	if err != nil {
		return Profile{}, err
	}
	row := q.QueryRow(ctx, `
    INSERT INTO billing_profiles (candidate_id, hourly_rate, currency, working_hours_per_week, working_days_per_week,
      employment_type, tds_rate, benefits_json, sick_leave_days, paid_leave_days, overtime_multiplier,
      effective_from, effective_to, is_active, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,true,$14)
    RETURNING `+profileColumns,
		p.CandidateID, p.HourlyRate, p.Currency, p.WorkingHoursPerWeek, p.WorkingDaysPerWeek,
		p.EmploymentType, p.TDSRate, benefitsJSON, p.SickLeaveDays, p.PaidLeaveDays, p.OvertimeMultiplier,
		p.EffectiveFrom, p.EffectiveTo, p.CreatedBy)
	return scanProfile(row)
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	var benefitsJSON []byte
	if err := row.Scan(&p.ID, &p.CandidateID, &p.HourlyRate, &p.Currency, &p.WorkingHoursPerWeek, &p.WorkingDaysPerWeek,
		&p.EmploymentType, &p.TDSRate, &benefitsJSON, &p.SickLeaveDays, &p.PaidLeaveDays, &p.OvertimeMultiplier,
		&p.EffectiveFrom, &p.EffectiveTo, &p.IsActive, &p.CreatedBy, &p.CreatedAt); err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal(benefitsJSON, &p.Benefits); err != nil {
		p.Benefits = []string{}
	}
	return p, nil
}
