package app

import (
	"context"
	"errors"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
)

// FactStatusDTO is the transport-friendly answer to a fact status query.
type FactStatusDTO struct {
	FactKey  string
	Exists   bool
	IsStable bool
}

// FactStatusProvider tells whether a fact exists and is stable.
type FactStatusProvider interface {
	ResolveFactStatus(ctx context.Context, key fact.Key, requester string) (oracle.Status, error)
}

// FactStatusService validates fact status queries and delegates them to the provider.
type FactStatusService struct {
	provider FactStatusProvider
}

// ResolveFactStatus returns the status of the fact under key. When the fact exists but
// is not stable yet, requester will receive a notice once it becomes stable.
func (s *FactStatusService) ResolveFactStatus(ctx context.Context, key, requester string) (*FactStatusDTO, error) {
	factKey := fact.Key(key)
	if err := factKey.Validate(); err != nil {
		return nil, NewIncorrectInputWithFieldError("fact_key")
	}

	status, err := s.provider.ResolveFactStatus(ctx, factKey, requester)
	if err != nil {
		return nil, NewFactStatusProviderError(err)
	}

	return &FactStatusDTO{
		FactKey:  key,
		Exists:   status.Exists,
		IsStable: status.IsStable,
	}, nil
}

// NewFactStatusService constructs a FactStatusService. Panics if the provider is nil.
func NewFactStatusService(provider FactStatusProvider) *FactStatusService {
	if provider == nil {
		panic("fact status provider is nil")
	}
	return &FactStatusService{provider: provider}
}

// NewFactStatusProviderError translates a provider failure into an application error.
func NewFactStatusProviderError(err error) Error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewContextCancellationError()
	case errors.Is(err, fact.ErrMalformedFact):
		return NewIncorrectInputError(err.Error(), "The submitted fact is malformed. Please verify the fact key and try again.")
	default:
		return NewProviderFailureError(err.Error(), "Unable to resolve the fact status due to an internal error. Please try again later or contact the support team.")
	}
}
