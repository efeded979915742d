package oracle

import (
	"sync"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
)

// StabilityRegistry maps facts that were submitted but are not yet stable to the
// requesters waiting for them. The queue and the resolver only append to it; entries
// are removed by the ConfirmationNotifier once the waiters have been notified.
//
// Waiter registration runs under Subscribe and stability transitions under Settle, so a
// registration can never slip in between a unit becoming stable and its fan-out.
type StabilityRegistry struct {
	gate sync.RWMutex

	mu      sync.Mutex
	entries map[fact.Key]*fact.Waiters
}

// NewStabilityRegistry returns an empty registry.
func NewStabilityRegistry() *StabilityRegistry {
	return &StabilityRegistry{entries: make(map[fact.Key]*fact.Waiters)}
}

// Subscribe runs fn while no stability transition is in progress. Calls may overlap.
func (r *StabilityRegistry) Subscribe(fn func() error) error {
	r.gate.RLock()
	defer r.gate.RUnlock()
	return fn()
}

// Settle runs fn exclusively: no Subscribe or other Settle call runs at the same time.
func (r *StabilityRegistry) Settle(fn func() error) error {
	r.gate.Lock()
	defer r.gate.Unlock()
	return fn()
}

// Register adds requesters to the waiters of key.
func (r *StabilityRegistry) Register(key fact.Key, requesters ...string) {
	r.Merge(key, fact.NewWaiters(requesters...))
}

// Merge appends the waiters to the entry of key, creating the entry when needed.
func (r *StabilityRegistry) Merge(key fact.Key, waiters *fact.Waiters) {
	if waiters == nil || waiters.Len() == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		entry = fact.NewWaiters()
		r.entries[key] = entry
	}
	entry.Merge(waiters)
}

// Take removes the entry of key and returns its waiters.
func (r *StabilityRegistry) Take(key fact.Key) (*fact.Waiters, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	return entry, ok
}

// Waiters returns a copy of the requesters registered for key.
func (r *StabilityRegistry) Waiters(key fact.Key) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[key]; ok {
		return entry.IDs()
	}
	return nil
}

// Len returns the number of facts with registered waiters.
func (r *StabilityRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
