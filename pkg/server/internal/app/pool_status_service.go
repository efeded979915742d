package app

import (
	"context"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
)

// PoolStatusProvider reports the resources and workload of the oracle.
type PoolStatusProvider interface {
	PoolStatus(ctx context.Context) (oracle.PoolStatus, error)
}

// PoolStatusService exposes the pool status to operators.
type PoolStatusService struct {
	provider PoolStatusProvider
}

// PoolStatus returns the current pool status.
func (s *PoolStatusService) PoolStatus(ctx context.Context) (*oracle.PoolStatus, error) {
	status, err := s.provider.PoolStatus(ctx)
	if err != nil {
		return nil, NewPoolStatusProviderError(err)
	}
	return &status, nil
}

// NewPoolStatusService constructs a PoolStatusService. Panics if the provider is nil.
func NewPoolStatusService(provider PoolStatusProvider) *PoolStatusService {
	if provider == nil {
		panic("pool status provider is nil")
	}
	return &PoolStatusService{provider: provider}
}

// NewPoolStatusProviderError translates a provider failure into an application error.
func NewPoolStatusProviderError(err error) Error {
	return NewProviderFailureError(err.Error(), "Unable to read the pool status due to an internal error. Please try again later or contact the support team.")
}
