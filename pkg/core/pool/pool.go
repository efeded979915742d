// Package pool keeps the oracle from running out of payable outputs. It estimates how
// many publications the address can still pay for and, when the estimate drops to the
// configured threshold, plans an extra self-payment that splits the largest output.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/ledger"
	"github.com/gookit/slog"
)

const (
	// DefaultUnitCost is the typical cost of one publication, in satoshis.
	DefaultUnitCost = 600

	// DefaultMinAvailableOutputs is the payable output count at or below which outputs get split.
	DefaultMinAvailableOutputs = 10
)

// ErrStorageRead wraps failures of the underlying storage reads.
var ErrStorageRead = errors.New("storage-read-failure")

// Storage reads the output statistics of an address.
type Storage interface {
	CountBigOutputs(ctx context.Context, address string, unitCost uint64) (int, error)
	SumSmallOutputsAndCredits(ctx context.Context, address string, unitCost uint64) (uint64, error)
	LargestPayableOutput(ctx context.Context, address string, minAmount uint64) (uint64, bool, error)
}

// Alerter reports resource problems to the operator.
type Alerter interface {
	NotifyOperator(ctx context.Context, msg string)
}

// Config holds the pool policy.
type Config struct {
	Address             string `mapstructure:"-"`
	UnitCost            uint64 `mapstructure:"unit_cost"`
	MinAvailableOutputs int    `mapstructure:"min_available_outputs"`
}

// DefaultConfig returns the policy used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		UnitCost:            DefaultUnitCost,
		MinAvailableOutputs: DefaultMinAvailableOutputs,
	}
}

// Snapshot is a derived, non-persistent view of the payable resources of the address.
type Snapshot struct {
	BigOutputCount         int    `json:"big_output_count"`
	SmallOutputCreditTotal uint64 `json:"small_output_credit_total"`
}

// PayableCount converts the snapshot into a number of payable publications:
// big outputs plus the small total divided by unitCost, rounded to the nearest integer.
func (s Snapshot) PayableCount(unitCost uint64) int {
	if unitCost == 0 {
		return s.BigOutputCount
	}
	return s.BigOutputCount + int((s.SmallOutputCreditTotal+unitCost/2)/unitCost) //nolint:gosec // bounded by supply
}

// payableCache holds the last payable count, decremented once per planned publication.
type payableCache struct {
	count int
	valid bool
}

// Manager sizes the outputs of every publication.
type Manager struct {
	cfg     Config
	storage Storage
	alerter Alerter

	mu    sync.Mutex
	cache payableCache
}

// NewManager creates a pool manager for the address in cfg.
func NewManager(cfg Config, storage Storage, alerter Alerter) *Manager {
	if storage == nil {
		panic("pool storage is nil")
	}
	if alerter == nil {
		panic("pool alerter is nil")
	}
	if cfg.Address == "" {
		panic("pool address is empty")
	}
	if cfg.UnitCost == 0 {
		cfg.UnitCost = DefaultUnitCost
	}
	return &Manager{cfg: cfg, storage: storage, alerter: alerter}
}

// Threshold returns the configured minimum of available payable outputs.
func (m *Manager) Threshold() int { return m.cfg.MinAvailableOutputs }

// Snapshot reads the current resource statistics from storage.
func (m *Manager) Snapshot(ctx context.Context) (Snapshot, error) {
	big, err := m.storage.CountBigOutputs(ctx, m.cfg.Address, m.cfg.UnitCost)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: counting big outputs: %w", ErrStorageRead, err)
	}
	small, err := m.storage.SumSmallOutputsAndCredits(ctx, m.cfg.Address, m.cfg.UnitCost)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: summing small outputs: %w", ErrStorageRead, err)
	}
	return Snapshot{BigOutputCount: big, SmallOutputCreditTotal: small}, nil
}

// PayableOutputCount returns the estimated number of publications the address can pay for.
// The cached estimate is reused while it stays above the threshold; otherwise it is
// recomputed from storage.
func (m *Manager) PayableOutputCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payableOutputCount(ctx)
}

func (m *Manager) payableOutputCount(ctx context.Context) (int, error) {
	if m.cache.valid && m.cache.count > m.cfg.MinAvailableOutputs {
		return m.cache.count, nil
	}

	snap, err := m.Snapshot(ctx)
	if err != nil {
		m.cache = payableCache{}
		return 0, err
	}
	m.cache = payableCache{count: snap.PayableCount(m.cfg.UnitCost), valid: true}
	return m.cache.count, nil
}

// Invalidate forces the next estimate to be read from storage, e.g. after new
// outputs of the address became stable.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = payableCache{}
}

// PlanOutputs returns the outputs of the next publication. The plan always holds a
// zero-amount self-payment; when the payable estimate is at or below the threshold the
// largest output worth at least twice the unit cost is split by paying half of it back
// to the address.
func (m *Manager) PlanOutputs(ctx context.Context) ([]ledger.Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	outputs := []ledger.Output{{Amount: 0, Address: m.cfg.Address}}

	count, err := m.payableOutputCount(ctx)
	if err != nil {
		return nil, err
	}
	m.cache.count--

	if count > m.cfg.MinAvailableOutputs {
		return outputs, nil
	}

	amount, found, err := m.storage.LargestPayableOutput(ctx, m.cfg.Address, 2*m.cfg.UnitCost)
	if err != nil {
		return nil, fmt.Errorf("%w: finding output to split: %w", ErrStorageRead, err)
	}
	if !found {
		m.alerter.NotifyOperator(ctx, fmt.Sprintf("only %d spendable outputs left, and can't add more", count))
		return outputs, nil
	}

	half := (amount + 1) / 2
	slog.Infof("[ResourcePool] only %d spendable outputs left, splitting an output of %d", count, amount)
	return append(outputs, ledger.Output{Amount: half, Address: m.cfg.Address}), nil
}
