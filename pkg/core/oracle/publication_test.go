package oracle_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/ledger"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/pool"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/storage"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/require"
)

// spendTrackingBroadcaster accepts a transaction only when none of its inputs was
// spent by an earlier one.
type spendTrackingBroadcaster struct {
	mu       sync.Mutex
	spent    map[string]string
	accepted int
	rejected int
}

func (b *spendTrackingBroadcaster) Broadcast(tx *transaction.Transaction) (*transaction.BroadcastSuccess, *transaction.BroadcastFailure) {
	time.Sleep(5 * time.Millisecond)

	b.mu.Lock()
	defer b.mu.Unlock()

	txid := tx.TxID().String()
	for _, in := range tx.Inputs {
		if _, ok := b.spent[outpoint(in)]; ok {
			b.rejected++
			return nil, &transaction.BroadcastFailure{Code: "409", Description: "double spend"}
		}
	}
	for _, in := range tx.Inputs {
		b.spent[outpoint(in)] = txid
	}
	b.accepted++
	return &transaction.BroadcastSuccess{Txid: txid, Message: "OK"}, nil
}

func (b *spendTrackingBroadcaster) Counts() (accepted, rejected int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accepted, b.rejected
}

func outpoint(in *transaction.TransactionInput) string {
	return fmt.Sprintf("%s:%d", in.SourceTXID, in.SourceTxOutIndex)
}

func TestOracle_FactsRequestedTogetherSpendDistinctOutputs(t *testing.T) {
	// given:
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage("file:" + filepath.Join(t.TempDir(), "oracle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	key, err := ec.NewPrivateKey()
	require.NoError(t, err)
	broadcaster := &spendTrackingBroadcaster{spent: make(map[string]string)}
	wallet, err := ledger.NewWallet(key, false, store, broadcaster)
	require.NoError(t, err)

	for i := range 3 {
		require.NoError(t, store.InsertFundingOutput(ctx, &ledger.SpendableOutput{
			Txid:     chainhash.DoubleHashH(fmt.Appendf(nil, "funding-%d", i)).String(),
			Address:  wallet.Address(),
			Amount:   1_000_000,
			IsStable: true,
		}))
	}

	alerter := &alerterFake{}
	o := oracle.New(oracle.QueueConfig{
		Address:    wallet.Address(),
		RetryDelay: time.Hour,
	}, oracle.Dependencies{
		Ledger:  wallet,
		Pool:    pool.NewManager(pool.Config{Address: wallet.Address(), UnitCost: 600}, store, alerter),
		Storage: store,
		Alerter: alerter,
		Devices: &devicesFake{},
	})
	t.Cleanup(o.Close)

	keys := []fact.Key{"TEAMA_TEAMB_01-01-2025", "TEAMC_TEAMD_01-01-2025", "TEAME_TEAMF_01-01-2025"}

	// when:
	for _, k := range keys {
		status, err := o.RequestFactPublication(ctx, k, fact.Payload{"_" + k.String(): "HOME"}, "deviceX")
		require.NoError(t, err)
		require.True(t, status.Queued)
	}

	// then:
	require.Eventually(t, func() bool {
		status, err := o.PoolStatus(ctx)
		return err == nil && status.Queue.Submitted == 3
	}, 5*time.Second, time.Millisecond)

	status, err := o.PoolStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, oracle.QueueStats{Attempts: 3, Submitted: 3}, status.Queue)
	require.Empty(t, alerter.Messages())

	accepted, rejected := broadcaster.Counts()
	require.Equal(t, 3, accepted)
	require.Zero(t, rejected)

	for _, k := range keys {
		got, err := o.ResolveFactStatus(ctx, k, "")
		require.NoError(t, err)
		require.Equal(t, oracle.Status{Exists: true}, got)
	}
}
