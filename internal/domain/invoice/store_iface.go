package invoice

import (
	"context"
	"time"
)

type StoreAPI interface {
	NextSequence(ctx context.Context) (int64, error)
	ExistsForPeriod(ctx context.Context, candidateID string, start, end time.Time) (bool, error)
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	Get(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Invoice, int, error)
	UpdateStatus(ctx context.Context, id, from, to string, paidDate *time.Time) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	SetFilePath(ctx context.Context, id, path string) error
}
