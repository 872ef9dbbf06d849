package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"defiprice/pkg/models"

	"github.com/sirupsen/logrus"
)

const DefaultInterval = 30 * time.Second

// PriceSource fetches one snapshot for a set of coin ids.
type PriceSource interface {
	FetchPrices(ctx context.Context, ids []string) (models.Snapshot, error)
}

// Poller keeps the feed state current by fetching on start, on every tick
// and on demand. Starting a fetch cancels the one in flight; only the most
// recently started fetch commits its result.
type Poller struct {
	source   PriceSource
	coinIDs  []string
	interval time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	mu          sync.RWMutex
	state       models.FeedState
	generation  uint64
	cancelFetch context.CancelFunc
	subscribers []Subscriber
	baseCtx     context.Context
	cancelBase  context.CancelFunc

	started  bool
	stopped  bool
	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPoller creates a poller for coinIDs. A non-positive interval uses DefaultInterval.
func NewPoller(source PriceSource, coinIDs []string, interval time.Duration, log logrus.FieldLogger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	ids := make([]string, len(coinIDs))
	copy(ids, coinIDs)
	baseCtx, cancel := context.WithCancel(context.Background())
	return &Poller{
		source:     source,
		coinIDs:    ids,
		interval:   interval,
		log:        log.WithField("component", "feed"),
		now:        time.Now,
		state:      models.FeedState{Loading: true},
		baseCtx:    baseCtx,
		cancelBase: cancel,
		stopChan:   make(chan struct{}),
	}
}

// Interval returns the refresh period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// State returns a copy of the current feed state.
func (p *Poller) State() models.FeedState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Clone()
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (p *Poller) Subscribe() Subscriber {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(Subscriber, 100)
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (p *Poller) Unsubscribe(ch Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, sub := range p.subscribers {
		if sub == ch {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (p *Poller) notify(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, sub := range p.subscribers {
		select {
		case sub <- event:
		default:
			p.log.WithField("event", event.Type).Warn("subscriber is full, dropping event")
		}
	}
}

// Fetch runs one fetch cycle and returns the resulting state.
func (p *Poller) Fetch(ctx context.Context) (result models.FeedState) {
	fetchCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancelFetch != nil {
		p.cancelFetch()
	}
	p.generation++
	gen := p.generation
	p.cancelFetch = cancel
	next := p.state.Clone()
	next.Loading = true
	next.Error = ""
	p.state = next
	p.mu.Unlock()

	p.notify(Event{Type: EventFetchStarted, State: next.Clone()})
	p.log.WithFields(logrus.Fields{"generation": gen, "coin_count": len(p.coinIDs)}).Debug("fetching prices")

	var snap models.Snapshot
	var err error
	defer func() {
		cancel()
		result = p.finish(ctx, gen, snap, err)
	}()

	snap, err = p.source.FetchPrices(fetchCtx, p.coinIDs)
	return
}

// finish commits the outcome of fetch gen. Loading is always released unless
// a newer fetch has taken ownership of the state.
func (p *Poller) finish(ctx context.Context, gen uint64, snap models.Snapshot, err error) models.FeedState {
	p.mu.Lock()
	if gen != p.generation {
		current := p.state.Clone()
		p.mu.Unlock()
		p.log.WithField("generation", gen).Debug("fetch superseded")
		return current
	}
	p.cancelFetch = nil

	next := p.state.Clone()
	next.Loading = false
	event := EventPricesUpdated
	switch {
	case err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// Torn down while fetching: release loading, record nothing.
		event = EventFetchFailed
	case err != nil:
		next.Error = err.Error()
		event = EventFetchFailed
	default:
		next.Snapshot = snap
		next.LastUpdated = p.now()
	}
	p.state = next
	p.mu.Unlock()

	if err != nil {
		p.log.WithError(err).Warn("price fetch failed")
	} else {
		p.log.WithField("quotes", len(snap)).Info("prices updated")
	}
	p.notify(Event{Type: event, State: next.Clone()})
	return next.Clone()
}

// Refresh starts an asynchronous fetch, as for a user "Refresh" or "Retry".
func (p *Poller) Refresh() {
	// The stopped check and Add share the lock with Stop so Add never races Wait.
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()
	go func() {
		defer p.wg.Done()
		p.Fetch(p.baseCtx)
	}()
}

// Start fetches immediately and then on every interval until Stop is called
// or ctx is cancelled. Calling Start more than once has no effect.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.pollingLoop(ctx)
	}()
}

// Stop cancels the ticker and any fetch in flight, then waits for them to exit.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		close(p.stopChan)
		p.cancelBase()
	})
	p.wg.Wait()
}

func (p *Poller) pollingLoop(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(p.baseCtx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-loopCtx.Done():
		}
	}()

	// Initial fetch
	p.Fetch(loopCtx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Fetch(loopCtx)
		case <-p.stopChan:
			return
		case <-loopCtx.Done():
			return
		}
	}
}
