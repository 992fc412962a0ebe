package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Liveness(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tracker := NewTrackerWithClock(10*time.Second, clock)

	// Offline before any heartbeat.
	assert.False(t, tracker.Online())
	assert.True(t, tracker.LastSeen().IsZero())

	// Online immediately after one.
	tracker.RecordHeartbeat()
	assert.True(t, tracker.Online())

	// Still online just inside the window.
	now = now.Add(9 * time.Second)
	assert.True(t, tracker.Online())

	// Offline once the window has elapsed with no further heartbeat.
	now = now.Add(2 * time.Second)
	assert.False(t, tracker.Online())

	// A fresh heartbeat brings it back.
	tracker.RecordHeartbeat()
	assert.True(t, tracker.Online())
}

func TestTracker_WindowBoundaryIsExclusive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tracker := NewTrackerWithClock(10*time.Second, clock)
	tracker.RecordHeartbeat()

	// now - lastSeen == window is already offline.
	now = now.Add(10 * time.Second)
	assert.False(t, tracker.Online())
}
