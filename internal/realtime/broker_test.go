package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"openchat/internal/metrics"
	"openchat/internal/transcript"
	"openchat/internal/utils"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// loopback delivers published payloads to its listener like a single
// redis node would.
type loopback struct {
	mu         sync.Mutex
	publishErr error
	listeners  []chan []byte
	listening  chan struct{}
}

func newLoopback() *loopback {
	return &loopback{listening: make(chan struct{}, 1)}
}

func (l *loopback) Publish(_ context.Context, _ string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.publishErr != nil {
		return l.publishErr
	}
	for _, ch := range l.listeners {
		ch <- payload
	}
	return nil
}

func (l *loopback) Listen(ctx context.Context, _ string, fn func([]byte)) error {
	ch := make(chan []byte, 16)
	l.mu.Lock()
	l.listeners = append(l.listeners, ch)
	l.mu.Unlock()
	l.listening <- struct{}{}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-ch:
			fn(p)
		}
	}
}

func collect(bus *utils.EventBus) func() []transcript.Change {
	var (
		mu  sync.Mutex
		got []transcript.Change
	)
	bus.Subscribe(utils.AllTables, func(c transcript.Change) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})
	return func() []transcript.Change {
		mu.Lock()
		defer mu.Unlock()
		return append([]transcript.Change(nil), got...)
	}
}

func TestBrokerRoutesThroughRedis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	bus := utils.NewEventBus()
	got := collect(bus)
	tr := newLoopback()
	m := metrics.New()
	b := NewBroker(tr, bus, m, zap.NewNop())

	wg.Add(2)
	go func() { defer wg.Done(); bus.Run(ctx) }()
	go func() { defer wg.Done(); b.Run(ctx) }()
	<-tr.listening

	change, err := NewChange(transcript.TableMessages, transcript.ChangeInsert, map[string]string{"id": "m1"}, nil)
	require.NoError(t, err)
	b.Publish(ctx, change)

	require.Eventually(t, func() bool { return len(got()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, transcript.TableMessages, got()[0].Table)
	assert.JSONEq(t, `{"id":"m1"}`, string(got()[0].New))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChangesPublished.WithLabelValues("messages", "redis")))
}

func TestBrokerFallsBackToLocalBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	bus := utils.NewEventBus()
	got := collect(bus)
	tr := newLoopback()
	tr.publishErr = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
	m := metrics.New()
	b := NewBroker(tr, bus, m, zap.NewNop())

	wg.Add(1)
	go func() { defer wg.Done(); bus.Run(ctx) }()

	b.Publish(ctx, transcript.Change{Table: transcript.TableReactions, Type: transcript.ChangeDelete})

	require.Eventually(t, func() bool { return len(got()) == 1 }, time.Second, time.Millisecond)
	assert.False(t, got()[0].CommitTimestamp.IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChangesPublished.WithLabelValues("message_reactions", "local")))
}

func TestBrokerWithoutTransportIsLocal(t *testing.T) {
	bus := utils.NewEventBus()
	b := NewBroker(nil, bus, nil, zap.NewNop())
	b.Run(context.Background())

	b.Publish(context.Background(), transcript.Change{Table: transcript.TableMessages, Type: transcript.ChangeInsert})
}

func TestReceiveDropsMalformedPayload(t *testing.T) {
	bus := utils.NewEventBus()
	b := NewBroker(nil, bus, nil, zap.NewNop())

	b.receive([]byte("{not json"))
	payload, _ := json.Marshal(transcript.Change{Table: transcript.TableMessages})
	b.receive(payload)

	ctx, cancel := context.WithCancel(context.Background())
	got := collect(bus)
	done := make(chan struct{})
	go func() { defer close(done); bus.Run(ctx) }()
	require.Eventually(t, func() bool { return len(got()) == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
