package adapters

import (
	"context"
	"errors"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// ErrOracleNotConfigured is returned by every operation of the NoopOracleProvider.
var ErrOracleNotConfigured = errors.New("oracle-not-configured")

// NoopOracleProvider stands in for the oracle when the server is started without one.
// Queries report unknown facts, every mutating operation fails.
type NoopOracleProvider struct{}

func (*NoopOracleProvider) ResolveFactStatus(ctx context.Context, key fact.Key, requester string) (oracle.Status, error) {
	return oracle.Status{}, nil
}

func (*NoopOracleProvider) RequestFactPublication(ctx context.Context, key fact.Key, payload fact.Payload, requester string) (oracle.PublicationStatus, error) {
	return oracle.PublicationStatus{}, ErrOracleNotConfigured
}

func (*NoopOracleProvider) HandleNewMerkleProof(ctx context.Context, txid *chainhash.Hash, proof *transaction.MerklePath) error {
	return ErrOracleNotConfigured
}

func (*NoopOracleProvider) PoolStatus(ctx context.Context) (oracle.PoolStatus, error) {
	return oracle.PoolStatus{}, nil
}

func (*NoopOracleProvider) RegisterFunding(ctx context.Context, f oracle.Funding) error {
	return ErrOracleNotConfigured
}

// NewNoopOracleProvider returns a new NoopOracleProvider.
func NewNoopOracleProvider() *NoopOracleProvider {
	return &NoopOracleProvider{}
}
