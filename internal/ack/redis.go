package ack

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parking-gate-backend/config"
)

// RedisBroker implements Listener and Publisher over Redis Pub/Sub. Each
// waiter gets a dedicated subscription on a channel named by the
// correlation id, so concurrent commands for different reservations cannot
// cross-deliver.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker creates a broker on an existing client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// NewRedisClient builds the shared Redis client from configuration and
// verifies connectivity.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

// Listen opens a subscription on the correlation channel and blocks until
// the broker has confirmed it before returning the waiter.
func (b *RedisBroker) Listen(ctx context.Context, correlationID string) (Waiter, error) {
	sub := b.client.Subscribe(ctx, correlationID)

	// Receive waits for the subscription confirmation; only after it
	// returns is the channel guaranteed to observe subsequent publishes.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to ack channel %s: %w", correlationID, err)
	}

	msgs := make(chan string, 1)
	go func() {
		defer close(msgs)
		for m := range sub.Channel() {
			select {
			case msgs <- m.Payload:
			default:
				// One-shot: extra messages are dropped.
			}
		}
	}()

	return newOneShot(msgs, func() { _ = sub.Close() }), nil
}

// Publish forwards a device ack onto its correlation channel.
func (b *RedisBroker) Publish(ctx context.Context, correlationID, payload string) error {
	if err := b.client.Publish(ctx, correlationID, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish ack to channel %s: %w", correlationID, err)
	}
	return nil
}
