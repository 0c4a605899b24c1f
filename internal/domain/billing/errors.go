package billing

import "errors"

var (
	ErrNoBillingConfigured  = errors.New("no billing configured for candidate")
	ErrActiveProfileExists  = errors.New("candidate already has an active billing profile")
	ErrEffectiveDateOrder   = errors.New("new billing profile must take effect after the current one")
	ErrCandidateNotFound    = errors.New("candidate not found")
	ErrInvalidBillingConfig = errors.New("invalid billing configuration")
)
