package oracle_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/ledger"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/stretchr/testify/require"
)

const oracleAddress = "1OracleAddressForTests"

var errBroadcast = fmt.Errorf("%w: 503 service unavailable", ledger.ErrBroadcastFailed)

type publication struct {
	unit   string
	stable bool
}

// storeFake keeps publications and funding in memory.
type storeFake struct {
	mu           sync.Mutex
	publications map[fact.Key]publication
	unitFacts    map[string][]fact.Key
	funding      []*ledger.SpendableOutput
	credits      []uint64
	readErr      error
}

func newStoreFake() *storeFake {
	return &storeFake{
		publications: make(map[fact.Key]publication),
		unitFacts:    make(map[string][]fact.Key),
	}
}

func (s *storeFake) publish(unit string, key fact.Key, stable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publications[key] = publication{unit: unit, stable: stable}
	s.unitFacts[unit] = append(s.unitFacts[unit], key)
}

func (s *storeFake) FindPublication(_ context.Context, _ string, key fact.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return false, s.readErr
	}
	p, ok := s.publications[key]
	if !ok {
		return false, ledger.ErrNotFound
	}
	return p.stable, nil
}

func (s *storeFake) MarkUnitsStable(_ context.Context, units []string, _ uint32) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, u := range units {
		for _, key := range s.unitFacts[u] {
			p := s.publications[key]
			if !p.stable {
				p.stable = true
				s.publications[key] = p
				changed++
			}
		}
	}
	return changed, nil
}

func (s *storeFake) FactKeysForUnits(_ context.Context, units []string) ([]fact.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	var keys []fact.Key
	for _, u := range units {
		keys = append(keys, s.unitFacts[u]...)
	}
	return keys, nil
}

func (s *storeFake) InsertFundingOutput(_ context.Context, o *ledger.SpendableOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funding = append(s.funding, o)
	return nil
}

func (s *storeFake) InsertFeeCredit(_ context.Context, _ string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = append(s.credits, amount)
	return nil
}

// ledgerFake composes units without signing and records them on broadcast.
// The first failures broadcasts fail. When gate is set, Broadcast signals entered
// and blocks until gate is closed.
type ledgerFake struct {
	store *storeFake

	mu           sync.Mutex
	failures     int
	compositions []ledger.Composition
	broadcasts   int
	accepted     []*ledger.Unit
	inFlight     map[fact.Key]int
	maxInFlight  int

	entered chan struct{}
	gate    chan struct{}
}

func newLedgerFake(store *storeFake) *ledgerFake {
	return &ledgerFake{store: store, inFlight: make(map[fact.Key]int)}
}

func (l *ledgerFake) Compose(_ context.Context, c ledger.Composition) (*ledger.Unit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.compositions = append(l.compositions, c)
	unit := &ledger.Unit{ID: fmt.Sprintf("unit-%d", len(l.compositions)), Author: c.Signer}
	for _, msg := range c.Messages {
		for name, value := range msg.Payload {
			unit.DataFeeds = append(unit.DataFeeds, ledger.DataFeed{FactKey: c.FactKey, Name: name, Value: fmt.Sprint(value)})
		}
	}
	return unit, nil
}

func (l *ledgerFake) Broadcast(_ context.Context, unit *ledger.Unit) error {
	key := unit.DataFeeds[0].FactKey

	l.mu.Lock()
	l.broadcasts++
	l.inFlight[key]++
	l.maxInFlight = max(l.maxInFlight, l.inFlight[key])
	fail := l.failures > 0
	if fail {
		l.failures--
	}
	entered, gate := l.entered, l.gate
	l.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight[key]--
	if fail {
		return errBroadcast
	}
	l.accepted = append(l.accepted, unit)
	l.store.publish(unit.ID, key, false)
	return nil
}

func (l *ledgerFake) Accepted() []*ledger.Unit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*ledger.Unit(nil), l.accepted...)
}

func (l *ledgerFake) Compositions() []ledger.Composition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ledger.Composition(nil), l.compositions...)
}

func (l *ledgerFake) Broadcasts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.broadcasts
}

// poolFake always plans the change slot only.
type poolFake struct {
	mu          sync.Mutex
	planErr     error
	invalidated int
}

func (p *poolFake) PlanOutputs(_ context.Context) ([]ledger.Output, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.planErr != nil {
		return nil, p.planErr
	}
	return []ledger.Output{{Amount: 0, Address: oracleAddress}}, nil
}

func (p *poolFake) PayableOutputCount(_ context.Context) (int, error) { return 42, nil }

func (p *poolFake) Threshold() int { return 10 }

func (p *poolFake) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated++
}

type alerterFake struct {
	mu       sync.Mutex
	messages []string
}

func (a *alerterFake) NotifyOperator(_ context.Context, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, msg)
}

func (a *alerterFake) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

type notice struct {
	key       fact.Key
	requester string
}

// devicesFake records notices. Notices to failFor fail the first failures times.
type devicesFake struct {
	mu       sync.Mutex
	notices  []notice
	failFor  string
	failures int
}

func (d *devicesFake) NotifyFactConfirmed(_ context.Context, key fact.Key, requester string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if requester == d.failFor && d.failures > 0 {
		d.failures--
		return errors.New("device unreachable")
	}
	d.notices = append(d.notices, notice{key: key, requester: requester})
	return nil
}

func (d *devicesFake) Notices() []notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notice(nil), d.notices...)
}

type oracleFixture struct {
	store   *storeFake
	ledger  *ledgerFake
	pool    *poolFake
	alerter *alerterFake
	devices *devicesFake
	oracle  *oracle.Oracle
}

func newOracleFixture(t *testing.T, opts ...func(*oracle.QueueConfig)) *oracleFixture {
	t.Helper()

	store := newStoreFake()
	f := &oracleFixture{
		store:   store,
		ledger:  newLedgerFake(store),
		pool:    &poolFake{},
		alerter: &alerterFake{},
		devices: &devicesFake{},
	}

	cfg := oracle.QueueConfig{Address: oracleAddress, RetryDelay: time.Millisecond}
	for _, o := range opts {
		o(&cfg)
	}
	f.oracle = oracle.New(cfg, oracle.Dependencies{
		Ledger:  f.ledger,
		Pool:    f.pool,
		Storage: store,
		Alerter: f.alerter,
		Devices: f.devices,
	}, oracle.WithClock(func() time.Time { return time.UnixMilli(1735689600000) }))
	t.Cleanup(f.oracle.Close)
	return f
}

func (f *oracleFixture) waitForAccepted(t *testing.T, n int) []*ledger.Unit {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.ledger.Accepted()) == n }, 2*time.Second, time.Millisecond)
	return f.ledger.Accepted()
}

func (f *oracleFixture) waitForQueueDrained(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		status, err := f.oracle.PoolStatus(context.Background())
		return err == nil && status.Queue.Pending == 0
	}, 2*time.Second, time.Millisecond)
}
