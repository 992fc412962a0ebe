// Package ack correlates gate commands with the asynchronous device
// acknowledgments that come back on a per-reservation pub/sub channel.
//
// The contract is subscribe-before-publish: a command may only be sent while
// holding an established Waiter, otherwise a device that answers faster than
// the subscription is set up would silently lose its ack.
package ack

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned when no ack arrives within the wait window.
var ErrTimeout = errors.New("timeout waiting for device ack")

// ErrClosed is returned when the subscription was torn down before a
// message arrived.
var ErrClosed = errors.New("ack subscription closed")

// Listener establishes one-shot subscriptions keyed by correlation id.
type Listener interface {
	// Listen returns only once the subscription is confirmed established;
	// a command published after Listen returns cannot outrun it.
	Listen(ctx context.Context, correlationID string) (Waiter, error)
}

// Publisher forwards an inbound device ack onto its correlation channel.
// Acks published with no waiter listening are dropped.
type Publisher interface {
	Publish(ctx context.Context, correlationID, payload string) error
}

// Waiter is an established one-shot subscription. Wait resolves with the
// first message observed, and the subscription is torn down exactly once
// whether it resolves, times out, or is abandoned via Close.
type Waiter interface {
	Wait(ctx context.Context, timeout time.Duration) (string, error)
	Close()
}

// oneShot implements Waiter over a message channel and a teardown func.
type oneShot struct {
	msgs    <-chan string
	release func()
	once    sync.Once
}

func newOneShot(msgs <-chan string, release func()) *oneShot {
	return &oneShot{msgs: msgs, release: release}
}

func (w *oneShot) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	defer w.Close()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-w.msgs:
		if !ok {
			return "", ErrClosed
		}
		return msg, nil
	case <-timer.C:
		return "", ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (w *oneShot) Close() {
	w.once.Do(w.release)
}
