package transcript

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"openchat/internal/clock"
)

type FeedState int

const (
	FeedDisconnected FeedState = iota
	FeedSubscribing
	FeedLive
)

func (s FeedState) String() string {
	switch s {
	case FeedSubscribing:
		return "subscribing"
	case FeedLive:
		return "live"
	default:
		return "disconnected"
	}
}

const (
	defaultMinBackoff   = 250 * time.Millisecond
	defaultMaxBackoff   = 10 * time.Second
	defaultReadyTimeout = 10 * time.Second
)

var errReadyTimeout = errors.New("subscription was not acknowledged in time")

// Feed keeps one subscription per table alive and hands every change to
// the dispatcher in delivery order. When a subscription drops it
// resubscribes with capped exponential backoff and, once live again,
// calls resync so changes missed during the gap are recovered.
type Feed struct {
	backend  Backend
	tables   []string
	dispatch ChangeHandler
	resync   func(context.Context)
	clock    clock.Clock
	logger   *zap.Logger

	MinBackoff   time.Duration
	MaxBackoff   time.Duration
	ReadyTimeout time.Duration

	mu    sync.Mutex
	state FeedState
	watch func(FeedState)
}

func NewFeed(backend Backend, tables []string, dispatch ChangeHandler, resync func(context.Context), clk clock.Clock, logger *zap.Logger) *Feed {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		backend:      backend,
		tables:       tables,
		dispatch:     dispatch,
		resync:       resync,
		clock:        clk,
		logger:       logger,
		MinBackoff:   defaultMinBackoff,
		MaxBackoff:   defaultMaxBackoff,
		ReadyTimeout: defaultReadyTimeout,
	}
}

func (f *Feed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// OnState registers a callback for state transitions. It must be set
// before Run.
func (f *Feed) OnState(fn func(FeedState)) {
	f.mu.Lock()
	f.watch = fn
	f.mu.Unlock()
}

func (f *Feed) setState(s FeedState) {
	f.mu.Lock()
	if f.state == s {
		f.mu.Unlock()
		return
	}
	f.state = s
	watch := f.watch
	f.mu.Unlock()
	if watch != nil {
		watch(s)
	}
}

// Run blocks until ctx is cancelled. Subscriptions are released before it
// returns.
func (f *Feed) Run(ctx context.Context) {
	defer f.setState(FeedDisconnected)

	attempt := 0
	for {
		f.setState(FeedSubscribing)
		err := f.session(ctx, attempt > 0)
		if ctx.Err() != nil {
			return
		}
		f.setState(FeedDisconnected)

		var live *liveError
		if errors.As(err, &live) {
			attempt = 0
			err = live.err
		}
		delay := f.backoff(attempt)
		attempt++
		f.logger.Warn("realtime feed dropped",
			zap.Error(err),
			zap.Duration("retry_in", delay),
			zap.Int("attempt", attempt),
		)

		select {
		case <-ctx.Done():
			return
		case <-f.clock.After(delay):
		}
	}
}

// liveError marks a drop that happened after the feed reached Live, which
// resets the backoff sequence.
type liveError struct{ err error }

func (e *liveError) Error() string { return e.err.Error() }

func (f *Feed) session(ctx context.Context, resubscribed bool) error {
	subs := make([]Subscription, 0, len(f.tables))
	defer func() {
		for _, s := range subs {
			if err := s.Unsubscribe(); err != nil {
				f.logger.Debug("unsubscribe failed", zap.Error(err))
			}
		}
	}()

	for _, table := range f.tables {
		sub, err := f.backend.Subscribe(ctx, table, f.dispatch)
		if err != nil {
			return &SubscriptionError{Table: table, Err: err}
		}
		subs = append(subs, sub)
	}

	timeout := f.clock.After(f.ReadyTimeout)
	for i, sub := range subs {
		select {
		case <-sub.Ready():
			continue
		default:
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return &SubscriptionError{Table: f.tables[i], Err: err}
		case <-timeout:
			return &SubscriptionError{Table: f.tables[i], Err: errReadyTimeout}
		case <-sub.Ready():
		}
	}

	f.setState(FeedLive)
	f.logger.Debug("realtime feed live", zap.Strings("tables", f.tables), zap.Bool("resubscribed", resubscribed))
	if resubscribed && f.resync != nil {
		f.resync(ctx)
	}

	dropped := make(chan error, len(subs))
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(table string, sub Subscription) {
			defer wg.Done()
			select {
			case err := <-sub.Err():
				if err == nil {
					err = fmt.Errorf("channel closed")
				}
				dropped <- &SubscriptionError{Table: table, Err: err}
			case <-stop:
			}
		}(f.tables[i], sub)
	}
	defer func() {
		close(stop)
		wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-dropped:
		return &liveError{err: err}
	}
}

func (f *Feed) backoff(attempt int) time.Duration {
	d := f.MinBackoff
	for i := 0; i < attempt && d < f.MaxBackoff; i++ {
		d *= 2
	}
	if d > f.MaxBackoff {
		d = f.MaxBackoff
	}
	return d
}
