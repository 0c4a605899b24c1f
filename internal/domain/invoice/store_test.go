package invoice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffing/internal/platform/querier"
)

type countRow int

func (c countRow) Scan(dest ...any) error {
	*dest[0].(*int) = int(c)
	return nil
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// recordingTx records statements; methods it does not override are unused.
type recordingTx struct {
	pgx.Tx
	overlapping int
	insertErr   error
	statements  []string
	committed   bool
	rolledBack  bool
}

func (t *recordingTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.statements = append(t.statements, sql)
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (t *recordingTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	t.statements = append(t.statements, sql)
	if strings.Contains(sql, "COUNT(1)") {
		return countRow(t.overlapping)
	}
	return errRow{err: t.insertErr}
}

func (t *recordingTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *recordingTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type txDB struct {
	querier.Querier
	tx *recordingTx
}

func (db txDB) Begin(context.Context) (pgx.Tx, error) {
	return db.tx, nil
}

func TestStoreCreateChecksOverlapUnderLock(t *testing.T) {
	tx := &recordingTx{overlapping: 1}
	store := NewStore(txDB{tx: tx})

	_, err := store.Create(context.Background(), Invoice{CandidateID: "cand-1", PeriodStart: day(2026, 3, 2), PeriodEnd: day(2026, 3, 15)})
	assert.ErrorIs(t, err, ErrInvoiceAlreadyExists)

	require.Len(t, tx.statements, 2)
	assert.Contains(t, tx.statements[0], "pg_advisory_xact_lock")
	assert.Contains(t, tx.statements[1], "period_start <= $3")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestStoreCreateMapsNumberCollision(t *testing.T) {
	tx := &recordingTx{insertErr: &pgconn.PgError{Code: "23505", ConstraintName: numberConstraint}}
	store := NewStore(txDB{tx: tx})

	_, err := store.Create(context.Background(), Invoice{InvoiceNumber: "INV-2026-00001", CandidateID: "cand-1"})
	assert.ErrorIs(t, err, ErrDuplicateInvoiceNumber)

	require.Len(t, tx.statements, 3)
	assert.Contains(t, tx.statements[0], "pg_advisory_xact_lock")
	assert.Contains(t, tx.statements[2], "INSERT INTO invoices")
	assert.False(t, tx.committed)
}

func TestStoreCreateDoesNotCommitFailedInsert(t *testing.T) {
	tx := &recordingTx{insertErr: errors.New("scan failed")}
	store := NewStore(txDB{tx: tx})

	_, err := store.Create(context.Background(), Invoice{CandidateID: "cand-1"})
	require.Error(t, err)
	assert.False(t, tx.committed)
}
