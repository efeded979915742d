package pool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/ledger"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/pool"
	"github.com/stretchr/testify/require"
)

const oracleAddress = "1OracleAddressForTests"

type storageStub struct {
	big      int
	small    uint64
	largest  uint64
	found    bool
	readErr  error
	reads    int
	minAsked uint64
}

func (s *storageStub) CountBigOutputs(_ context.Context, _ string, _ uint64) (int, error) {
	s.reads++
	return s.big, s.readErr
}

func (s *storageStub) SumSmallOutputsAndCredits(_ context.Context, _ string, _ uint64) (uint64, error) {
	return s.small, s.readErr
}

func (s *storageStub) LargestPayableOutput(_ context.Context, _ string, minAmount uint64) (uint64, bool, error) {
	s.minAsked = minAmount
	return s.largest, s.found, s.readErr
}

type alerterStub struct {
	messages []string
}

func (a *alerterStub) NotifyOperator(_ context.Context, msg string) {
	a.messages = append(a.messages, msg)
}

func newManager(storage *storageStub, alerter *alerterStub, threshold int) *pool.Manager {
	return pool.NewManager(pool.Config{
		Address:             oracleAddress,
		UnitCost:            600,
		MinAvailableOutputs: threshold,
	}, storage, alerter)
}

func TestSnapshot_PayableCount(t *testing.T) {
	tests := map[string]struct {
		snapshot pool.Snapshot
		expected int
	}{
		"big outputs only": {
			snapshot: pool.Snapshot{BigOutputCount: 7},
			expected: 7,
		},
		"small total rounds down": {
			snapshot: pool.Snapshot{BigOutputCount: 7, SmallOutputCreditTotal: 899},
			expected: 8,
		},
		"small total rounds up at half": {
			snapshot: pool.Snapshot{BigOutputCount: 7, SmallOutputCreditTotal: 900},
			expected: 9,
		},
		"empty": {
			expected: 0,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.snapshot.PayableCount(600))
		})
	}
}

func TestManager_PayableOutputCount_CachesAboveThreshold(t *testing.T) {
	// given:
	storage := &storageStub{big: 50, small: 1_200}
	m := newManager(storage, &alerterStub{}, 10)

	// when:
	first, err := m.PayableOutputCount(context.Background())
	require.NoError(t, err)
	second, err := m.PayableOutputCount(context.Background())
	require.NoError(t, err)

	// then:
	require.Equal(t, 52, first)
	require.Equal(t, 52, second)
	require.Equal(t, 1, storage.reads)
}

func TestManager_PayableOutputCount_RecomputesAfterInvalidate(t *testing.T) {
	// given:
	storage := &storageStub{big: 50}
	m := newManager(storage, &alerterStub{}, 10)
	_, err := m.PayableOutputCount(context.Background())
	require.NoError(t, err)

	// when:
	storage.big = 70
	m.Invalidate()
	count, err := m.PayableOutputCount(context.Background())

	// then:
	require.NoError(t, err)
	require.Equal(t, 70, count)
	require.Equal(t, 2, storage.reads)
}

func TestManager_PlanOutputs_AboveThreshold(t *testing.T) {
	// given:
	storage := &storageStub{big: 20}
	alerter := &alerterStub{}
	m := newManager(storage, alerter, 10)

	// when:
	outputs, err := m.PlanOutputs(context.Background())

	// then:
	require.NoError(t, err)
	require.Equal(t, []ledger.Output{{Amount: 0, Address: oracleAddress}}, outputs)
	require.Empty(t, alerter.messages)
}

func TestManager_PlanOutputs_SplitsLargestOutputAtThreshold(t *testing.T) {
	// given:
	storage := &storageStub{big: 10, largest: 50_001, found: true}
	alerter := &alerterStub{}
	m := newManager(storage, alerter, 10)

	// when:
	outputs, err := m.PlanOutputs(context.Background())

	// then:
	require.NoError(t, err)
	require.Equal(t, []ledger.Output{
		{Amount: 0, Address: oracleAddress},
		{Amount: 25_001, Address: oracleAddress},
	}, outputs)
	require.Equal(t, uint64(1_200), storage.minAsked)
	require.Empty(t, alerter.messages)
}

func TestManager_PlanOutputs_AlertsWhenNothingToSplit(t *testing.T) {
	// given:
	storage := &storageStub{big: 3}
	alerter := &alerterStub{}
	m := newManager(storage, alerter, 10)

	// when:
	outputs, err := m.PlanOutputs(context.Background())

	// then:
	require.NoError(t, err)
	require.Equal(t, []ledger.Output{{Amount: 0, Address: oracleAddress}}, outputs)
	require.Equal(t, []string{"only 3 spendable outputs left, and can't add more"}, alerter.messages)
}

func TestManager_PlanOutputs_DecrementsCachedCountPerPlan(t *testing.T) {
	// given: the estimate starts two above the threshold
	storage := &storageStub{big: 12, largest: 10_000, found: true}
	m := newManager(storage, &alerterStub{}, 10)

	// when:
	first, err := m.PlanOutputs(context.Background())
	require.NoError(t, err)
	second, err := m.PlanOutputs(context.Background())
	require.NoError(t, err)

	// then: both plans used the cached estimate and no split happened yet
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	require.Equal(t, 1, storage.reads)

	// when: the cached estimate reached the threshold, storage is consulted again
	third, err := m.PlanOutputs(context.Background())

	// then:
	require.NoError(t, err)
	require.Len(t, third, 2)
	require.Equal(t, 2, storage.reads)
}

func TestManager_PlanOutputs_StorageFailure(t *testing.T) {
	// given:
	storage := &storageStub{readErr: errors.New("disk failure")}
	m := newManager(storage, &alerterStub{}, 10)

	// when:
	outputs, err := m.PlanOutputs(context.Background())

	// then:
	require.ErrorIs(t, err, pool.ErrStorageRead)
	require.Nil(t, outputs)
}
