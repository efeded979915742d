package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/ledger"
)

// ErrStorageRead wraps storage failures surfaced to the caller.
var ErrStorageRead = errors.New("storage-read-failure")

// PublicationStore finds prior publications of a fact by an address.
// It returns ledger.ErrNotFound when the fact was never published.
type PublicationStore interface {
	FindPublication(ctx context.Context, address string, key fact.Key) (stable bool, err error)
}

// PendingIndex is the part of the publish queue the resolver consults.
type PendingIndex interface {
	AddWaiter(key fact.Key, requester string) bool
}

// Status tells a requester whether a fact was published and whether it is stable.
type Status struct {
	Exists   bool `json:"exists"`
	IsStable bool `json:"is_stable"`
}

// Resolver decides whether a fact already exists without ever triggering a publication.
// Any requester told that a fact exists but is not stable is registered for a
// completion notice.
type Resolver struct {
	address  string
	queue    PendingIndex
	store    PublicationStore
	registry *StabilityRegistry
}

// NewResolver creates a resolver for publications authored by address.
func NewResolver(address string, queue PendingIndex, store PublicationStore, registry *StabilityRegistry) *Resolver {
	if queue == nil || store == nil || registry == nil {
		panic("resolver dependencies must not be nil")
	}
	return &Resolver{address: address, queue: queue, store: store, registry: registry}
}

// Resolve checks the queue first, then storage. Unstable facts register requester as a waiter.
func (r *Resolver) Resolve(ctx context.Context, key fact.Key, requester string) (Status, error) {
	if err := key.Validate(); err != nil {
		return Status{}, err
	}

	var status Status
	err := r.registry.Subscribe(func() error {
		if r.queue.AddWaiter(key, requester) {
			status = Status{Exists: true}
			return nil
		}

		stable, err := r.store.FindPublication(ctx, r.address, key)
		if errors.Is(err, ledger.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: looking up fact %s: %w", ErrStorageRead, key, err)
		}

		if !stable {
			r.registry.Register(key, requester)
		}
		status = Status{Exists: true, IsStable: stable}
		return nil
	})
	return status, err
}
