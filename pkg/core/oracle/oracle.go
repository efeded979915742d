// Package oracle publishes facts onto the ledger exactly once and notifies every
// requester once the publication is stable.
//
// A request first goes through the Resolver. Facts that do not exist yet are handed to
// the Queue, which sizes the transaction with the resource pool, submits it and retries
// on failure. Accepted facts wait in the StabilityRegistry until the
// ConfirmationNotifier sees their unit become stable.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/ledger"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

var (
	// ErrInvalidFunding is returned for funding registrations that cannot be recorded.
	ErrInvalidFunding = errors.New("invalid-funding")
	// ErrInvalidProof is returned for merkle proofs that do not prove the given transaction.
	ErrInvalidProof = errors.New("invalid-proof")
)

// Storage is the persistence the oracle needs besides the ledger itself.
type Storage interface {
	PublicationStore
	StabilityStore
	InsertFundingOutput(ctx context.Context, o *ledger.SpendableOutput) error
	InsertFeeCredit(ctx context.Context, address string, amount uint64) error
}

// ResourcePool sizes publications and reports the payable capacity of the address.
type ResourcePool interface {
	OutputPlanner
	PayableOutputCount(ctx context.Context) (int, error)
	Threshold() int
	Invalidate()
}

// Dependencies are the collaborators of the Oracle.
type Dependencies struct {
	Ledger  Ledger
	Pool    ResourcePool
	Storage Storage
	Alerter Alerter
	Devices DeviceNotifier
}

// PublicationStatus is the answer to a publication request.
type PublicationStatus struct {
	Status
	Queued bool `json:"queued"`
}

// FundingKind tells whether a funding registration is an output or a fee credit.
type FundingKind string

const (
	FundingOutput FundingKind = "output"
	FundingCredit FundingKind = "credit"
)

// Funding is a confirmed payment to the oracle address made outside of the oracle.
type Funding struct {
	Kind     FundingKind
	Txid     string
	Vout     uint32
	Satoshis uint64
}

// PoolStatus summarizes the resources and the workload of the oracle.
type PoolStatus struct {
	Address           string     `json:"address"`
	PayableOutputs    int        `json:"payable_outputs"`
	Threshold         int        `json:"threshold"`
	AwaitingStability int        `json:"awaiting_stability"`
	Notices           uint64     `json:"notices"`
	RetryingNotices   int        `json:"retrying_notices"`
	Queue             QueueStats `json:"queue"`
}

// Oracle is the entry point used by requester-facing and operator-facing surfaces.
type Oracle struct {
	address  string
	pool     ResourcePool
	storage  Storage
	registry *StabilityRegistry
	queue    *Queue
	resolver *Resolver
	notifier *ConfirmationNotifier

	// requests serializes resolve-then-enqueue so two requests for an unknown fact
	// cannot both decide to publish it.
	requests sync.Mutex
}

// New wires the oracle components around the single address in cfg.
func New(cfg QueueConfig, deps Dependencies, opts ...QueueOption) *Oracle {
	registry := NewStabilityRegistry()
	queue := NewQueue(cfg, deps.Ledger, deps.Pool, deps.Alerter, registry, opts...)

	return &Oracle{
		address:  cfg.Address,
		pool:     deps.Pool,
		storage:  deps.Storage,
		registry: registry,
		queue:    queue,
		resolver: NewResolver(cfg.Address, queue, deps.Storage, registry),
		notifier: NewConfirmationNotifier(deps.Storage, registry, deps.Devices, WithNoticeRetryDelay(cfg.RetryDelay)),
	}
}

// Address returns the controlling address of the oracle.
func (o *Oracle) Address() string { return o.address }

// ResolveFactStatus tells whether key exists and is stable. Requesters of facts that
// exist but are not stable yet will receive a completion notice.
func (o *Oracle) ResolveFactStatus(ctx context.Context, key fact.Key, requester string) (Status, error) {
	return o.resolver.Resolve(ctx, key, requester)
}

// RequestFactPublication publishes payload under key unless the fact already exists.
// Either way requester is notified once the fact becomes stable, unless it already is.
func (o *Oracle) RequestFactPublication(ctx context.Context, key fact.Key, payload fact.Payload, requester string) (PublicationStatus, error) {
	if err := payload.Validate(); err != nil {
		return PublicationStatus{}, err
	}

	o.requests.Lock()
	defer o.requests.Unlock()

	status, err := o.resolver.Resolve(ctx, key, requester)
	if err != nil {
		return PublicationStatus{}, err
	}
	if status.Exists {
		return PublicationStatus{Status: status}, nil
	}

	if err := o.queue.Enqueue(key, payload, requester); err != nil {
		return PublicationStatus{}, err
	}
	return PublicationStatus{Queued: true}, nil
}

// ConfirmUnits handles units that became stable at blockHeight: waiters are notified
// and the resource pool estimate is refreshed on the next publication.
func (o *Oracle) ConfirmUnits(ctx context.Context, blockHeight uint32, unitIDs ...string) error {
	if err := o.notifier.Confirm(ctx, blockHeight, unitIDs); err != nil {
		return err
	}
	o.pool.Invalidate()
	return nil
}

// HandleNewMerkleProof confirms the unit txid once proof shows it was mined.
func (o *Oracle) HandleNewMerkleProof(ctx context.Context, txid *chainhash.Hash, proof *transaction.MerklePath) error {
	if txid == nil || proof == nil {
		return fmt.Errorf("%w: txid and proof are required", ErrInvalidProof)
	}
	if _, err := proof.ComputeRoot(txid); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProof, err)
	}
	return o.ConfirmUnits(ctx, proof.BlockHeight, txid.String())
}

// RegisterFunding records a confirmed payment to the oracle address.
func (o *Oracle) RegisterFunding(ctx context.Context, f Funding) error {
	if f.Satoshis == 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidFunding)
	}

	switch f.Kind {
	case FundingOutput:
		if _, err := chainhash.NewHashFromHex(f.Txid); err != nil {
			return fmt.Errorf("%w: invalid txid: %w", ErrInvalidFunding, err)
		}
		if err := o.storage.InsertFundingOutput(ctx, &ledger.SpendableOutput{
			Txid:     f.Txid,
			Vout:     f.Vout,
			Address:  o.address,
			Amount:   f.Satoshis,
			IsStable: true,
		}); err != nil {
			return fmt.Errorf("failed to record funding output: %w", err)
		}
	case FundingCredit:
		if err := o.storage.InsertFeeCredit(ctx, o.address, f.Satoshis); err != nil {
			return fmt.Errorf("failed to record fee credit: %w", err)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidFunding, f.Kind)
	}

	o.pool.Invalidate()
	return nil
}

// PoolStatus reports the payable capacity of the address and the queue counters.
func (o *Oracle) PoolStatus(ctx context.Context) (PoolStatus, error) {
	count, err := o.pool.PayableOutputCount(ctx)
	if err != nil {
		return PoolStatus{}, err
	}
	return PoolStatus{
		Address:           o.address,
		PayableOutputs:    count,
		Threshold:         o.pool.Threshold(),
		AwaitingStability: o.registry.Len(),
		Notices:           o.notifier.Notices(),
		RetryingNotices:   o.notifier.Retrying(),
		Queue:             o.queue.Stats(),
	}, nil
}

// Close stops the retry loops of the queue and the redelivery of failed notices.
func (o *Oracle) Close() {
	o.queue.Close()
	o.notifier.Close()
}
