package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/gookit/slog"
	"go.uber.org/atomic"
)

// DefaultNoticeRetryDelay is the delay before a failed completion notice is sent again.
const DefaultNoticeRetryDelay = time.Minute

// StabilityStore maps units to the facts they carried and persists their stability.
type StabilityStore interface {
	MarkUnitsStable(ctx context.Context, units []string, blockHeight uint32) (int64, error)
	FactKeysForUnits(ctx context.Context, units []string) ([]fact.Key, error)
}

// DeviceNotifier delivers completion notices to requesters.
type DeviceNotifier interface {
	NotifyFactConfirmed(ctx context.Context, key fact.Key, requester string) error
}

// NotifierOption configures optional ConfirmationNotifier settings.
type NotifierOption func(*ConfirmationNotifier)

// WithNoticeRetryDelay sets the delay between two deliveries of a failed notice.
func WithNoticeRetryDelay(d time.Duration) NotifierOption {
	return func(n *ConfirmationNotifier) {
		if d > 0 {
			n.retryDelay = d
		}
	}
}

// notice is one completion notice owed to a requester.
type notice struct {
	key       fact.Key
	requester string
}

// ConfirmationNotifier fans out completion notices once the units carrying facts
// become stable. It owns the deletion of StabilityRegistry entries. Notices are sent
// after the registry gate is released; a notice that fails is sent again until it is
// delivered or the notifier is closed.
type ConfirmationNotifier struct {
	store      StabilityStore
	registry   *StabilityRegistry
	devices    DeviceNotifier
	retryDelay time.Duration

	mu     sync.Mutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	notices  atomic.Uint64
	retrying atomic.Int64
}

// NewConfirmationNotifier creates a notifier delivering notices through devices.
func NewConfirmationNotifier(store StabilityStore, registry *StabilityRegistry, devices DeviceNotifier, opts ...NotifierOption) *ConfirmationNotifier {
	if store == nil || registry == nil || devices == nil {
		panic("confirmation notifier dependencies must not be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &ConfirmationNotifier{
		store:      store,
		registry:   registry,
		devices:    devices,
		retryDelay: DefaultNoticeRetryDelay,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Confirm records the units as stable at blockHeight and notifies the waiters of
// every fact they carried.
func (n *ConfirmationNotifier) Confirm(ctx context.Context, blockHeight uint32, unitIDs []string) error {
	var owed []notice
	err := n.registry.Settle(func() error {
		if _, err := n.store.MarkUnitsStable(ctx, unitIDs, blockHeight); err != nil {
			return fmt.Errorf("failed to mark units stable: %w", err)
		}
		var err error
		owed, err = n.takeWaiters(ctx, unitIDs)
		return err
	})
	if err != nil {
		return err
	}
	n.send(ctx, owed)
	return nil
}

// OnUnitsStable notifies the waiters of the facts carried by units already known to be stable.
func (n *ConfirmationNotifier) OnUnitsStable(ctx context.Context, unitIDs []string) error {
	var owed []notice
	err := n.registry.Settle(func() error {
		var err error
		owed, err = n.takeWaiters(ctx, unitIDs)
		return err
	})
	if err != nil {
		return err
	}
	n.send(ctx, owed)
	return nil
}

// Notices returns how many completion notices were delivered.
func (n *ConfirmationNotifier) Notices() uint64 { return n.notices.Load() }

// Retrying returns how many failed notices wait for another delivery.
func (n *ConfirmationNotifier) Retrying() int { return int(n.retrying.Load()) }

// Close stops the redelivery of failed notices and waits for it to return.
func (n *ConfirmationNotifier) Close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	n.cancel()
	n.wg.Wait()
}

// takeWaiters removes the registry entries of the facts carried by unitIDs and
// returns the notices owed to their waiters.
func (n *ConfirmationNotifier) takeWaiters(ctx context.Context, unitIDs []string) ([]notice, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}

	keys, err := n.store.FactKeysForUnits(ctx, unitIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: looking up facts of stable units: %w", ErrStorageRead, err)
	}

	var owed []notice
	for _, key := range keys {
		waiters, ok := n.registry.Take(key)
		if !ok {
			continue
		}
		for _, requester := range waiters.IDs() {
			owed = append(owed, notice{key: key, requester: requester})
		}
		slog.Infof("[ConfirmationNotifier] fact %s is stable, notifying %d requester(s)", key, waiters.Len())
	}
	return owed, nil
}

func (n *ConfirmationNotifier) send(ctx context.Context, owed []notice) {
	for _, nt := range owed {
		if err := n.devices.NotifyFactConfirmed(ctx, nt.key, nt.requester); err != nil {
			slog.Errorf("[ConfirmationNotifier] failed to notify %s about fact %s: %v", nt.requester, nt.key, err)
			n.resend(nt)
			continue
		}
		n.notices.Inc()
	}
}

// resend delivers nt in the background, retrying until it succeeds or Close is called.
func (n *ConfirmationNotifier) resend(nt notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		slog.Warnf("[ConfirmationNotifier] dropping notice to %s about fact %s: notifier closed", nt.requester, nt.key)
		return
	}

	n.retrying.Inc()
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer n.retrying.Dec()

		for attempt := 2; ; attempt++ {
			timer := time.NewTimer(n.retryDelay)
			select {
			case <-n.ctx.Done():
				timer.Stop()
				slog.Warnf("[ConfirmationNotifier] gave up notifying %s about fact %s: notifier closed", nt.requester, nt.key)
				return
			case <-timer.C:
			}

			err := n.devices.NotifyFactConfirmed(n.ctx, nt.key, nt.requester)
			if err == nil {
				n.notices.Inc()
				slog.Infof("[ConfirmationNotifier] notified %s about fact %s after %d attempts", nt.requester, nt.key, attempt)
				return
			}
			slog.Errorf("[ConfirmationNotifier] attempt %d to notify %s about fact %s failed: %v", attempt, nt.requester, nt.key, err)
		}
	}()
}
