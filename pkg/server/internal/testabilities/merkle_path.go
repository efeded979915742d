package testabilities

import (
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
	testvectors "github.com/bsv-blockchain/universal-test-vectors/pkg/testabilities"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

// DefaultBlockHeight is the block height of the merkle path returned by NewTestMerklePath.
const DefaultBlockHeight uint32 = 814435

// NewTestTx returns a dummy unit transaction for use in tests.
func NewTestTx(t *testing.T) *transaction.Transaction {
	t.Helper()

	return testvectors.GivenTX().
		WithInput(1000).
		WithP2PKHOutput(999).
		TX()
}

// NewTxID returns the hex encoded id of the transaction returned by NewTestTx.
func NewTxID(t *testing.T) string {
	t.Helper()
	return NewTestTx(t).TxID().String()
}

// NewTestMerklePath returns a hex encoded merkle path proving the transaction returned
// by NewTestTx at DefaultBlockHeight.
func NewTestMerklePath(t *testing.T) string {
	t.Helper()

	txid := NewTestTx(t).TxID()
	sibling := chainhash.DoubleHashH([]byte("sibling"))

	path := transaction.MerklePath{
		BlockHeight: DefaultBlockHeight,
		Path: [][]*transaction.PathElement{{
			{Offset: 0, Hash: txid, Txid: ptr.To(true)},
			{Offset: 1, Hash: &sibling},
		}},
	}

	_, err := path.ComputeRoot(txid)
	require.NoError(t, err)
	return path.Hex()
}
