package app

import (
	"context"
	"errors"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
)

// FactPublicationDTO is the answer to a publication request.
type FactPublicationDTO struct {
	FactKey  string
	Exists   bool
	IsStable bool
	Queued   bool
}

// FactPublicationProvider publishes facts unless they already exist.
type FactPublicationProvider interface {
	RequestFactPublication(ctx context.Context, key fact.Key, payload fact.Payload, requester string) (oracle.PublicationStatus, error)
}

// FactPublicationService validates publication requests and delegates them to the provider.
type FactPublicationService struct {
	provider FactPublicationProvider
}

// RequestFactPublication asks the oracle to publish payload under key on behalf of requester.
func (s *FactPublicationService) RequestFactPublication(ctx context.Context, key string, payload map[string]any, requester string) (*FactPublicationDTO, error) {
	factKey := fact.Key(key)
	if err := factKey.Validate(); err != nil {
		return nil, NewIncorrectInputWithFieldError("fact_key")
	}
	if requester == "" {
		return nil, NewIncorrectInputWithFieldError("requester_id")
	}
	if err := fact.Payload(payload).Validate(); err != nil {
		return nil, NewIncorrectInputWithFieldError("payload")
	}

	status, err := s.provider.RequestFactPublication(ctx, factKey, payload, requester)
	if err != nil {
		return nil, NewFactPublicationProviderError(err)
	}

	return &FactPublicationDTO{
		FactKey:  key,
		Exists:   status.Exists,
		IsStable: status.IsStable,
		Queued:   status.Queued,
	}, nil
}

// NewFactPublicationService constructs a FactPublicationService. Panics if the provider is nil.
func NewFactPublicationService(provider FactPublicationProvider) *FactPublicationService {
	if provider == nil {
		panic("fact publication provider is nil")
	}
	return &FactPublicationService{provider: provider}
}

// NewFactPublicationProviderError translates a provider failure into an application error.
func NewFactPublicationProviderError(err error) Error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewContextCancellationError()
	case errors.Is(err, fact.ErrMalformedFact):
		return NewIncorrectInputError(err.Error(), "The submitted fact is malformed. Please verify the fact key and payload and try again.")
	case errors.Is(err, oracle.ErrQueueClosed):
		return NewProviderFailureError(err.Error(), "The oracle is shutting down and does not accept new publications.")
	default:
		return NewProviderFailureError(err.Error(), "Unable to process the publication request due to an internal error. Please try again later or contact the support team.")
	}
}
