package testabilities

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/require"
)

type ARCIngestProviderMockExpectations struct {
	Error                    error
	HandleNewMerkleProofCall bool
}

type ARCIngestProviderMock struct {
	t            *testing.T
	expectations ARCIngestProviderMockExpectations
	called       bool
	calledTxID   *chainhash.Hash
	calledProof  *transaction.MerklePath
}

// HandleNewMerkleProof records the call and returns the error set in expectations.
func (a *ARCIngestProviderMock) HandleNewMerkleProof(ctx context.Context, txid *chainhash.Hash, proof *transaction.MerklePath) error {
	a.t.Helper()
	a.called = true
	a.calledTxID = txid
	a.calledProof = proof

	return a.expectations.Error
}

func (a *ARCIngestProviderMock) AssertCalled() {
	a.t.Helper()
	require.Equal(a.t, a.expectations.HandleNewMerkleProofCall, a.called, "Discrepancy between expected and actual HandleNewMerkleProof call")
}

// AssertCalledWith verifies the transaction id and block height passed to the provider.
func (a *ARCIngestProviderMock) AssertCalledWith(txID string, blockHeight uint32) {
	a.t.Helper()
	require.True(a.t, a.called, "HandleNewMerkleProof was not called")
	require.Equal(a.t, txID, a.calledTxID.String())
	require.Equal(a.t, blockHeight, a.calledProof.BlockHeight)
}

// NewARCIngestProviderMock creates a new ARCIngestProviderMock instance.
func NewARCIngestProviderMock(t *testing.T, expectations ARCIngestProviderMockExpectations) *ARCIngestProviderMock {
	return &ARCIngestProviderMock{
		t:            t,
		expectations: expectations,
	}
}
