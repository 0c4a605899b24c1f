package billing

import (
	"context"
	"time"
)

type StoreAPI interface {
	CandidateExists(ctx context.Context, candidateID string) (bool, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]Profile, error)
	Create(ctx context.Context, profile Profile) (Profile, error)
	Supersede(ctx context.Context, currentID string, closeOn time.Time, next Profile) (Profile, error)
}
