package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/ledger"
	"github.com/gookit/slog"
	"go.uber.org/atomic"
)

const (
	// DefaultRetryDelay is the base delay between two submission attempts of the same fact.
	DefaultRetryDelay = 5 * time.Minute

	// DefaultRetryJitter bounds the random delay added to DefaultRetryDelay.
	DefaultRetryJitter = 3 * time.Second
)

// ErrQueueClosed is returned by Enqueue after Close was called.
var ErrQueueClosed = errors.New("queue-closed")

// Ledger composes and broadcasts publication units. ledger.Wallet implements it.
type Ledger interface {
	Compose(ctx context.Context, c ledger.Composition) (*ledger.Unit, error)
	Broadcast(ctx context.Context, unit *ledger.Unit) error
}

// OutputPlanner sizes the outputs of the next publication. pool.Manager implements it.
type OutputPlanner interface {
	PlanOutputs(ctx context.Context) ([]ledger.Output, error)
}

// Alerter reports problems that need the operator's attention.
type Alerter interface {
	NotifyOperator(ctx context.Context, msg string)
}

// QueueConfig holds the publishing policy of the queue.
type QueueConfig struct {
	Address       string
	RetryDelay    time.Duration
	RetryJitter   time.Duration
	PostTimestamp bool
}

// QueueStats are the counters of the queue since it was created.
type QueueStats struct {
	Pending   int    `json:"pending"`
	Attempts  uint64 `json:"attempts"`
	Submitted uint64 `json:"submitted"`
	Failed    uint64 `json:"failed"`
}

// QueueOption configures optional Queue settings.
type QueueOption func(*Queue)

// WithClock sets the time source used for embedded timestamps.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// pendingPublication is a fact queued for publishing together with its waiters.
// waiters is guarded by Queue.mu.
type pendingPublication struct {
	key     fact.Key
	payload fact.Payload
	waiters *fact.Waiters
}

// Queue is the in-memory index of facts being published. Each pending fact is driven
// by exactly one goroutine, so at most one submission per fact is ever in flight.
// Submissions of different facts run one after another.
// A fact leaves the index as soon as its unit was accepted; its waiters then move to
// the StabilityRegistry.
type Queue struct {
	cfg      QueueConfig
	ledger   Ledger
	planner  OutputPlanner
	alerter  Alerter
	registry *StabilityRegistry
	now      func() time.Time

	mu      sync.Mutex
	pending map[fact.Key]*pendingPublication
	closed  bool

	// submitting is held from output planning until the broadcast returns. The
	// address pays every publication, so two submissions would select the same inputs.
	submitting sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	attempts  atomic.Uint64
	submitted atomic.Uint64
	failed    atomic.Uint64
}

// NewQueue creates a publish queue paying from and signing with cfg.Address.
func NewQueue(cfg QueueConfig, l Ledger, planner OutputPlanner, alerter Alerter, registry *StabilityRegistry, opts ...QueueOption) *Queue {
	if l == nil || planner == nil || alerter == nil || registry == nil {
		panic("publish queue dependencies must not be nil")
	}
	if cfg.Address == "" {
		panic("publish queue address is empty")
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		cfg:      cfg,
		ledger:   l,
		planner:  planner,
		alerter:  alerter,
		registry: registry,
		now:      time.Now,
		pending:  make(map[fact.Key]*pendingPublication),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Enqueue schedules the publication of key. When key is already pending the requester
// only joins its waiters and no new attempt is started.
func (q *Queue) Enqueue(key fact.Key, payload fact.Payload, requester string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if p, ok := q.pending[key]; ok {
		p.waiters.Add(requester)
		return nil
	}

	p := &pendingPublication{
		key:     key,
		payload: payload,
		waiters: fact.NewWaiters(requester),
	}
	q.pending[key] = p

	q.wg.Add(1)
	go q.publish(p)

	slog.Infof("[PublishQueue] queued fact %s", key)
	return nil
}

// AddWaiter joins requester to the waiters of key if key is pending.
// It reports whether key was pending.
func (q *Queue) AddWaiter(key fact.Key, requester string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	p, ok := q.pending[key]
	if ok {
		p.waiters.Add(requester)
	}
	return ok
}

// IsPending reports whether key is waiting to be submitted.
func (q *Queue) IsPending(key fact.Key) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[key]
	return ok
}

// Stats returns the queue counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	pending := len(q.pending)
	q.mu.Unlock()

	return QueueStats{
		Pending:   pending,
		Attempts:  q.attempts.Load(),
		Submitted: q.submitted.Load(),
		Failed:    q.failed.Load(),
	}
}

// Close stops the retry loops and waits for them to return. Facts that were not
// submitted yet stay unpublished.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

func (q *Queue) publish(p *pendingPublication) {
	defer q.wg.Done()

	for attempt := 1; ; attempt++ {
		err := q.submit(q.ctx, p)
		if err == nil {
			q.submitted.Inc()
			slog.Infof("[PublishQueue] submitted fact %s after %d attempt(s)", p.key, attempt)
			return
		}
		if q.ctx.Err() != nil {
			return
		}

		q.failed.Inc()
		q.alerter.NotifyOperator(q.ctx, fmt.Sprintf("posting data feed %s failed: %v", p.key, err))

		delay := q.retryDelay()
		slog.WithFields(slog.M{
			"fact_key": p.key.String(),
			"attempt":  attempt,
			"retry_in": delay.String(),
		}).Warnf("[PublishQueue] submission failed: %v", err)

		timer := time.NewTimer(delay)
		select {
		case <-q.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (q *Queue) submit(ctx context.Context, p *pendingPublication) error {
	q.submitting.Lock()
	defer q.submitting.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	q.attempts.Inc()

	outputs, err := q.planner.PlanOutputs(ctx)
	if err != nil {
		return err
	}

	payload := p.payload
	if q.cfg.PostTimestamp {
		payload = payload.WithTimestamp(q.now())
	}
	msg, err := fact.NewDataFeedMessage(payload)
	if err != nil {
		return err
	}

	unit, err := q.ledger.Compose(ctx, ledger.Composition{
		PayingAddresses: []string{q.cfg.Address},
		Outputs:         outputs,
		Messages:        []fact.Message{msg},
		Signer:          q.cfg.Address,
		FactKey:         p.key,
	})
	if err != nil {
		return err
	}

	return q.registry.Subscribe(func() error {
		if err := q.ledger.Broadcast(ctx, unit); err != nil {
			return err
		}

		q.mu.Lock()
		defer q.mu.Unlock()

		q.registry.Merge(p.key, p.waiters)
		delete(q.pending, p.key)
		return nil
	})
}

func (q *Queue) retryDelay() time.Duration {
	if q.cfg.RetryJitter <= 0 {
		return q.cfg.RetryDelay
	}
	return q.cfg.RetryDelay + rand.N(q.cfg.RetryJitter) //nolint:gosec // jitter only
}
