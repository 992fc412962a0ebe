// Package presence tracks the gate device's heartbeat and answers liveness
// queries against a configurable window.
package presence

import (
	"sync"
	"time"
)

// Tracker keeps the last-heartbeat timestamp for the single gate device.
// It is written only by the command bus's inbound router and read from
// arbitrary request goroutines.
type Tracker struct {
	mu       sync.RWMutex
	lastSeen time.Time
	window   time.Duration
	now      func() time.Time
}

// NewTracker creates a tracker with the given liveness window.
func NewTracker(window time.Duration) *Tracker {
	return &Tracker{window: window, now: time.Now}
}

// NewTrackerWithClock creates a tracker with an injectable clock for tests.
func NewTrackerWithClock(window time.Duration, now func() time.Time) *Tracker {
	return &Tracker{window: window, now: now}
}

// RecordHeartbeat stamps the current time as the device's last-seen moment.
func (t *Tracker) RecordHeartbeat() {
	now := t.now()
	t.mu.Lock()
	t.lastSeen = now
	t.mu.Unlock()
}

// Online reports whether a heartbeat was recorded within the liveness
// window. A device that never sent a heartbeat is offline.
func (t *Tracker) Online() bool {
	t.mu.RLock()
	lastSeen := t.lastSeen
	t.mu.RUnlock()

	if lastSeen.IsZero() {
		return false
	}
	return t.now().Sub(lastSeen) < t.window
}

// LastSeen returns the most recent heartbeat time, zero if none.
func (t *Tracker) LastSeen() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastSeen
}
