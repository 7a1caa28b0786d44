package realtime

import (
	"context"
	"errors"

	redisprovider "openchat/internal/providers/redis"
)

type redisTransport struct {
	provider *redisprovider.RedisProvider
}

// NewRedisTransport adapts the redis provider to Transport.
func NewRedisTransport(provider *redisprovider.RedisProvider) Transport {
	return &redisTransport{provider: provider}
}

func (t *redisTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	return t.provider.Publish(ctx, channel, payload).Err()
}

func (t *redisTransport) Listen(ctx context.Context, channel string, fn func([]byte)) error {
	pubsub := t.provider.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			fn([]byte(msg.Payload))
		}
	}
}
