package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"openchat/internal/metrics"
	"openchat/internal/transcript"
	"openchat/internal/utils"
)

// Channel is the redis channel every instance publishes changes on.
const Channel = "openchat:changes"

// Publisher is what services use to announce row changes.
type Publisher interface {
	Publish(ctx context.Context, change transcript.Change)
}

// Transport carries encoded changes between instances.
type Transport interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Listen delivers payloads to fn until ctx is done or the
	// subscription fails.
	Listen(ctx context.Context, channel string, fn func([]byte)) error
}

// Broker publishes changes through redis so every instance's hub sees
// them. When redis is unavailable changes are delivered to the local bus
// only.
type Broker struct {
	transport  Transport
	bus        *utils.EventBus
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger
	retryDelay time.Duration
}

func NewBroker(transport Transport, bus *utils.EventBus, m *metrics.Metrics, logger *zap.Logger) *Broker {
	return &Broker{
		transport:  transport,
		bus:        bus,
		metrics:    m,
		logger:     logger.Sugar(),
		retryDelay: time.Second,
	}
}

func (b *Broker) Publish(ctx context.Context, change transcript.Change) {
	if change.CommitTimestamp.IsZero() {
		change.CommitTimestamp = time.Now().UTC()
	}

	if b.transport != nil {
		payload, err := json.Marshal(change)
		if err == nil {
			err = b.transport.Publish(ctx, Channel, payload)
		}
		if err == nil {
			b.count(change.Table, "redis")
			return
		}
		b.logger.Warnw("Change publish over redis failed, delivering locally",
			"table", change.Table,
			"type", change.Type,
			"error", err,
		)
	}

	if !b.bus.Publish(change) {
		b.logger.Errorw("Event bus full, change dropped", "table", change.Table, "type", change.Type)
		return
	}
	b.count(change.Table, "local")
}

// Run feeds changes received from redis into the local bus until ctx is
// done. Subscription failures are retried.
func (b *Broker) Run(ctx context.Context) {
	if b.transport == nil {
		return
	}
	for {
		err := b.transport.Listen(ctx, Channel, b.receive)
		if ctx.Err() != nil {
			return
		}
		b.logger.Warnw("Redis change subscription ended", "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(b.retryDelay):
		}
	}
}

func (b *Broker) receive(payload []byte) {
	var change transcript.Change
	if err := json.Unmarshal(payload, &change); err != nil {
		b.logger.Warnw("Dropping malformed change", "error", err)
		return
	}
	if !b.bus.Publish(change) {
		b.logger.Errorw("Event bus full, change dropped", "table", change.Table, "type", change.Type)
	}
}

func (b *Broker) count(table, path string) {
	if b.metrics != nil {
		b.metrics.ChangesPublished.WithLabelValues(table, path).Inc()
	}
}

// NewChange encodes row images into a change frame. Either image may be nil.
func NewChange(table string, typ transcript.ChangeType, newRow, oldRow interface{}) (transcript.Change, error) {
	change := transcript.Change{
		Table:           table,
		Type:            typ,
		CommitTimestamp: time.Now().UTC(),
	}
	if newRow != nil {
		raw, err := json.Marshal(newRow)
		if err != nil {
			return change, fmt.Errorf("encode new row: %w", err)
		}
		change.New = raw
	}
	if oldRow != nil {
		raw, err := json.Marshal(oldRow)
		if err != nil {
			return change, fmt.Errorf("encode old row: %w", err)
		}
		change.Old = raw
	}
	return change, nil
}
