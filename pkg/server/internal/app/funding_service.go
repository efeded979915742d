package app

import (
	"context"
	"errors"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
)

// FundingProvider records confirmed payments to the oracle address.
type FundingProvider interface {
	RegisterFunding(ctx context.Context, f oracle.Funding) error
}

// FundingService validates funding registrations and delegates them to the provider.
type FundingService struct {
	provider FundingProvider
}

// RegisterFunding records a funding output or fee credit. kind defaults to an output.
func (s *FundingService) RegisterFunding(ctx context.Context, kind, txid string, vout uint32, satoshis uint64) error {
	if satoshis == 0 {
		return NewIncorrectInputWithFieldError("satoshis")
	}

	f := oracle.Funding{
		Kind:     oracle.FundingKind(kind),
		Txid:     txid,
		Vout:     vout,
		Satoshis: satoshis,
	}
	switch f.Kind {
	case "":
		f.Kind = oracle.FundingOutput
		fallthrough
	case oracle.FundingOutput:
		if txid == "" {
			return NewIncorrectInputWithFieldError("txid")
		}
	case oracle.FundingCredit:
	default:
		return NewIncorrectInputWithFieldError("kind")
	}

	if err := s.provider.RegisterFunding(ctx, f); err != nil {
		return NewFundingProviderError(err)
	}
	return nil
}

// NewFundingService constructs a FundingService. Panics if the provider is nil.
func NewFundingService(provider FundingProvider) *FundingService {
	if provider == nil {
		panic("funding provider is nil")
	}
	return &FundingService{provider: provider}
}

// NewFundingProviderError translates a provider failure into an application error.
func NewFundingProviderError(err error) Error {
	if errors.Is(err, oracle.ErrInvalidFunding) {
		return NewIncorrectInputError(err.Error(), "The submitted funding cannot be recorded. Please verify the transaction ID and amount.")
	}
	return NewProviderFailureError(err.Error(), "Unable to record the funding due to an internal error. Please try again later or contact the support team.")
}
