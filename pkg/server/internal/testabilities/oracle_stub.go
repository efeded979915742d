package testabilities

import (
	"context"
	"errors"
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// ErrTestNoopOpFailure is a generic provider failure used across handler and service tests.
var ErrTestNoopOpFailure = errors.New("noop operation failure")

// TestOracleStubOption replaces one of the providers of the TestOracleStub.
type TestOracleStubOption func(*TestOracleStub)

// WithFactStatusProvider sets the provider answering fact status queries.
func WithFactStatusProvider(p *FactStatusProviderMock) TestOracleStubOption {
	return func(s *TestOracleStub) { s.factStatus = p }
}

// WithFactPublicationProvider sets the provider answering publication requests.
func WithFactPublicationProvider(p *FactPublicationProviderMock) TestOracleStubOption {
	return func(s *TestOracleStub) { s.factPublication = p }
}

// WithARCIngestProvider sets the provider handling merkle proofs.
func WithARCIngestProvider(p *ARCIngestProviderMock) TestOracleStubOption {
	return func(s *TestOracleStub) { s.arcIngest = p }
}

// WithPoolStatusProvider sets the provider reporting the pool status.
func WithPoolStatusProvider(p *PoolStatusProviderMock) TestOracleStubOption {
	return func(s *TestOracleStub) { s.poolStatus = p }
}

// WithFundingProvider sets the provider recording funding.
func WithFundingProvider(p *FundingProviderMock) TestOracleStubOption {
	return func(s *TestOracleStub) { s.funding = p }
}

// TestOracleStub routes every oracle operation to its provider mock. Providers that are
// not replaced by an option expect not to be called.
type TestOracleStub struct {
	t               *testing.T
	factStatus      *FactStatusProviderMock
	factPublication *FactPublicationProviderMock
	arcIngest       *ARCIngestProviderMock
	poolStatus      *PoolStatusProviderMock
	funding         *FundingProviderMock
}

func (s *TestOracleStub) ResolveFactStatus(ctx context.Context, key fact.Key, requester string) (oracle.Status, error) {
	s.t.Helper()
	return s.factStatus.ResolveFactStatus(ctx, key, requester)
}

func (s *TestOracleStub) RequestFactPublication(ctx context.Context, key fact.Key, payload fact.Payload, requester string) (oracle.PublicationStatus, error) {
	s.t.Helper()
	return s.factPublication.RequestFactPublication(ctx, key, payload, requester)
}

func (s *TestOracleStub) HandleNewMerkleProof(ctx context.Context, txid *chainhash.Hash, proof *transaction.MerklePath) error {
	s.t.Helper()
	return s.arcIngest.HandleNewMerkleProof(ctx, txid, proof)
}

func (s *TestOracleStub) PoolStatus(ctx context.Context) (oracle.PoolStatus, error) {
	s.t.Helper()
	return s.poolStatus.PoolStatus(ctx)
}

func (s *TestOracleStub) RegisterFunding(ctx context.Context, f oracle.Funding) error {
	s.t.Helper()
	return s.funding.RegisterFunding(ctx, f)
}

// AssertProvidersState verifies the call expectations of every provider.
func (s *TestOracleStub) AssertProvidersState() {
	s.t.Helper()

	s.factStatus.AssertCalled()
	s.factPublication.AssertCalled()
	s.arcIngest.AssertCalled()
	s.poolStatus.AssertCalled()
	s.funding.AssertCalled()
}

// NewTestOracleStub creates a TestOracleStub with the given providers.
func NewTestOracleStub(t *testing.T, opts ...TestOracleStubOption) *TestOracleStub {
	stub := &TestOracleStub{
		t:               t,
		factStatus:      NewFactStatusProviderMock(t, FactStatusProviderMockExpectations{}),
		factPublication: NewFactPublicationProviderMock(t, FactPublicationProviderMockExpectations{}),
		arcIngest:       NewARCIngestProviderMock(t, ARCIngestProviderMockExpectations{}),
		poolStatus:      NewPoolStatusProviderMock(t, PoolStatusProviderMockExpectations{}),
		funding:         NewFundingProviderMock(t, FundingProviderMockExpectations{}),
	}
	for _, opt := range opts {
		opt(stub)
	}
	return stub
}
