package transcript

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openchat/internal/clock"
)

func TestFeedBackoffIsCapped(t *testing.T) {
	f := NewFeed(newFakeBackend(), nil, nil, nil, clock.Fake(epoch), nil)

	var got []time.Duration
	for attempt := 0; attempt < 8; attempt++ {
		got = append(got, f.backoff(attempt))
	}
	assert.Equal(t, []time.Duration{
		250 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}, got)
}

func TestFeedSubscribesToEveryTable(t *testing.T) {
	b := newFakeBackend()
	var (
		mu     sync.Mutex
		states []FeedState
	)
	f := NewFeed(b, []string{TableMessages, TableReactions}, func(Change) {}, nil, clock.Fake(epoch), nil)
	f.OnState(func(s FeedState) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx)
	}()

	require.Eventually(t, func() bool { return f.State() == FeedLive }, time.Second, time.Millisecond)
	assert.Equal(t, 2, b.activeSubs())

	cancel()
	<-done
	assert.Equal(t, FeedDisconnected, f.State())
	assert.Zero(t, b.activeSubs())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []FeedState{FeedSubscribing, FeedLive, FeedDisconnected}, states)
}

func TestSessionResubscribesAndResyncsAfterDrop(t *testing.T) {
	b := newFakeBackend(msg("m1", 0, "one"))
	s, clk := mountSession(t, b, WithBackoff(100*time.Millisecond, time.Second))
	waitLive(t, s)
	require.Equal(t, 1, b.fetchCount())

	// m2 is written while the channel is down, so no event will carry it
	b.mu.Lock()
	b.messages = append(b.messages, msg("m2", time.Second, "missed"))
	b.mu.Unlock()
	b.drop(errors.New("websocket: close 1006 (abnormal closure)"))

	require.Eventually(t, func() bool {
		clk.Advance(100 * time.Millisecond)
		return b.subscribeCount() >= 4 && s.FeedState() == FeedLive && len(s.Transcript()) == 2
	}, time.Second, time.Millisecond)

	assert.Equal(t, 2, b.activeSubs())
	assert.Equal(t, 2, b.fetchCount())
	assert.Equal(t, []string{"m1", "m2"}, keys(s.Transcript()))
}

func TestFeedRetriesFailedSubscribe(t *testing.T) {
	b := &flakyBackend{fakeBackend: newFakeBackend(), failures: 2}
	clk := clock.Fake(epoch)
	var resyncs int
	var mu sync.Mutex
	f := NewFeed(b, []string{TableMessages}, func(Change) {}, func(context.Context) {
		mu.Lock()
		resyncs++
		mu.Unlock()
	}, clk, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		clk.Advance(250 * time.Millisecond)
		return f.State() == FeedLive
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, resyncs)
}

type flakyBackend struct {
	*fakeBackend

	mu       sync.Mutex
	failures int
}

func (b *flakyBackend) Subscribe(ctx context.Context, table string, handler ChangeHandler) (Subscription, error) {
	b.mu.Lock()
	if b.failures > 0 {
		b.failures--
		b.mu.Unlock()
		return nil, errors.New("dial tcp: connection refused")
	}
	b.mu.Unlock()
	return b.fakeBackend.Subscribe(ctx, table, handler)
}
