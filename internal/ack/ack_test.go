package ack

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneShot_DeliversFirstMessage(t *testing.T) {
	msgs := make(chan string, 1)
	var released atomic.Int32
	w := newOneShot(msgs, func() { released.Add(1) })

	msgs <- "success"

	payload, err := w.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "success", payload)
	assert.Equal(t, int32(1), released.Load())
}

func TestOneShot_MessageBufferedBeforeWait(t *testing.T) {
	// A device that answers the instant the subscription exists: the
	// message sits in the channel before Wait is ever called and must not
	// be lost.
	msgs := make(chan string, 1)
	msgs <- "success"
	w := newOneShot(msgs, func() {})

	payload, err := w.Wait(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "success", payload)
}

func TestOneShot_Timeout(t *testing.T) {
	msgs := make(chan string, 1)
	var released atomic.Int32
	w := newOneShot(msgs, func() { released.Add(1) })

	start := time.Now()
	_, err := w.Wait(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.WithinDuration(t, start.Add(50*time.Millisecond), time.Now(), 200*time.Millisecond)
	assert.Equal(t, int32(1), released.Load(), "subscription must be released on timeout")
}

func TestOneShot_CloseReleasesExactlyOnce(t *testing.T) {
	msgs := make(chan string, 1)
	var released atomic.Int32
	w := newOneShot(msgs, func() { released.Add(1) })

	w.Close()
	w.Close()
	assert.Equal(t, int32(1), released.Load())
}

func TestOneShot_ClosedChannel(t *testing.T) {
	msgs := make(chan string)
	close(msgs)
	w := newOneShot(msgs, func() {})

	_, err := w.Wait(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOneShot_ContextCancellation(t *testing.T) {
	msgs := make(chan string, 1)
	w := newOneShot(msgs, func() {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Wait(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
