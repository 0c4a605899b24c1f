package billing

import (
	"context"
	"time"

	"staffing/internal/domain/money"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, candidateID string) ([]Profile, error) {
	return s.store.ListByCandidate(ctx, candidateID)
}

// ResolveActive returns the candidate's single active billing profile.
func (s *Service) ResolveActive(ctx context.Context, candidateID string) (Profile, error) {
	profiles, err := s.store.ListByCandidate(ctx, candidateID)
	if err != nil {
		return Profile{}, err
	}
	return SelectActive(profiles)
}

// ResolveAt returns the profile in effect on date.
func (s *Service) ResolveAt(ctx context.Context, candidateID string, date time.Time) (Profile, error) {
	profiles, err := s.store.ListByCandidate(ctx, candidateID)
	if err != nil {
		return Profile{}, err
	}
	return SelectAt(profiles, date)
}

func (s *Service) Create(ctx context.Context, profile Profile) (Profile, error) {
	profile, err := Normalize(profile)
	if err != nil {
		return Profile{}, err
	}
	exists, err := s.store.CandidateExists(ctx, profile.CandidateID)
	if err != nil {
		return Profile{}, err
	}
	if !exists {
		return Profile{}, ErrCandidateNotFound
	}
	if _, err := s.ResolveActive(ctx, profile.CandidateID); err == nil {
		return Profile{}, ErrActiveProfileExists
	}
	profile.EffectiveTo = nil
	return s.store.Create(ctx, profile)
}

// Supersede closes the current profile the day before next takes effect
// and stores next as the active record. Issued invoices keep pointing at
// the rates they were computed with.
func (s *Service) Supersede(ctx context.Context, candidateID string, next Profile) (Profile, error) {
	next.CandidateID = candidateID
	next, err := Normalize(next)
	if err != nil {
		return Profile{}, err
	}
	current, err := s.ResolveActive(ctx, candidateID)
	if err != nil {
		return Profile{}, err
	}
	if !next.EffectiveFrom.After(current.EffectiveFrom) {
		return Profile{}, ErrEffectiveDateOrder
	}
	next.EffectiveTo = nil
	closeOn := money.Date(next.EffectiveFrom.AddDate(0, 0, -1))
	return s.store.Supersede(ctx, current.ID, closeOn, next)
}
