// Package gate implements the gate-open use case: precondition checks,
// geofence enforcement, command dispatch, and correlation of the device's
// asynchronous acknowledgment under a hard timeout.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/ack"
	"parking-gate-backend/internal/geo"
	"parking-gate-backend/internal/model"
	"parking-gate-backend/internal/store"
)

// Terminal failures of a gate-open attempt. Every failure is reported to
// the caller and never retried here; a retry is a fresh request that
// re-validates all preconditions.
var (
	ErrNotFound      = errors.New("reservation not found")
	ErrTooEarly      = errors.New("too early to open gate")
	ErrAlreadyOpened = errors.New("gate already opened")
	ErrTooFar        = errors.New("requester is outside the gate geofence")
	ErrInFlight      = errors.New("a gate-open attempt for this reservation is already in progress")
	ErrBadLocation   = errors.New("invalid location coordinates")

	// ErrAckTimeout means the device never answered within the window.
	// The gate state is left unopened.
	ErrAckTimeout = errors.New("timeout waiting for device ack")
)

// DeviceError means the device answered negatively; Payload carries its
// diagnostic token.
type DeviceError struct {
	Payload string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device responded with error: %s", e.Payload)
}

// ackSuccess is the device payload confirming the gate physically opened.
const ackSuccess = "success"

// ReservationStore is the slice of the data layer the orchestrator needs.
type ReservationStore interface {
	Reservation(ctx context.Context, id string) (*model.Reservation, error)
	MarkGateOpened(ctx context.Context, id string) error
}

// CommandPublisher dispatches the open command over the command bus.
type CommandPublisher interface {
	PublishGateOpen(ctx context.Context, reservationID string) error
}

// Notifier receives the id of a reservation whose gate just opened.
type Notifier interface {
	Dispatch(reservationID string)
}

// OpenRequest carries one gate-open attempt.
type OpenRequest struct {
	ReservationID string
	Latitude      float64
	Longitude     float64
}

// Orchestrator sequences a gate-open attempt end to end. One instance is
// shared by all requests; per-reservation attempts are serialized through
// the in-flight set.
type Orchestrator struct {
	store     ReservationStore
	listener  ack.Listener
	publisher CommandPublisher
	notifier  Notifier
	cfg       config.GateConfig
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates the orchestrator. notifier may be nil.
func New(s ReservationStore, l ack.Listener, p CommandPublisher, n Notifier, cfg config.GateConfig) *Orchestrator {
	return &Orchestrator{
		store:     s,
		listener:  l,
		publisher: p,
		notifier:  n,
		cfg:       cfg,
		now:       time.Now,
		inflight:  make(map[string]struct{}),
	}
}

// SetClock overrides the orchestrator's clock. Intended for tests.
func (o *Orchestrator) SetClock(now func() time.Time) { o.now = now }

// Open runs the gate-open state machine for one request. It returns nil
// only when the device confirmed the open and the reservation was marked
// opened. The calling goroutine is suspended for the duration of the ack
// wait.
func (o *Orchestrator) Open(ctx context.Context, req OpenRequest) error {
	res, err := o.store.Reservation(ctx, req.ReservationID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load reservation %s: %w", req.ReservationID, err)
	}

	now := o.now()
	if now.Before(res.StartTime.Add(-o.cfg.EarlyOpenWindow)) {
		return ErrTooEarly
	}
	if res.GateOpened {
		return ErrAlreadyOpened
	}

	distance, err := geo.DistanceMeters(req.Latitude, req.Longitude, o.cfg.Latitude, o.cfg.Longitude)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadLocation, err)
	}
	if !geo.WithinRange(distance, o.cfg.MaxDistanceMeters) {
		return ErrTooFar
	}

	// Serialize attempts per reservation so two concurrent requests cannot
	// both pass the gateOpened check and double-dispatch the command.
	if !o.acquire(res.ID) {
		return ErrInFlight
	}
	defer o.release(res.ID)

	// The snapshot above may predate an attempt that finished while this
	// request raced for the marker. Re-read the flag under it so a command
	// is never re-dispatched for a reservation opened in the meantime.
	res, err = o.store.Reservation(ctx, res.ID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to reload reservation %s: %w", req.ReservationID, err)
	}
	if res.GateOpened {
		return ErrAlreadyOpened
	}

	// Subscribe before publishing. The device may answer faster than a
	// subscription could otherwise be established.
	waiter, err := o.listener.Listen(ctx, res.ID)
	if err != nil {
		return fmt.Errorf("failed to open ack subscription for %s: %w", res.ID, err)
	}

	if err := o.publisher.PublishGateOpen(ctx, res.ID); err != nil {
		waiter.Close()
		return err
	}

	payload, err := waiter.Wait(ctx, o.cfg.AckTimeout)
	if errors.Is(err, ack.ErrTimeout) {
		return ErrAckTimeout
	}
	if err != nil {
		return fmt.Errorf("ack wait failed for %s: %w", res.ID, err)
	}

	log.Printf("[gate] ack received for reservation %s: %s", res.ID, payload)
	if payload != ackSuccess {
		return &DeviceError{Payload: payload}
	}

	if err := o.store.MarkGateOpened(ctx, res.ID); err != nil {
		if errors.Is(err, store.ErrAlreadyOpened) {
			// A concurrent confirmation won the compare-and-set; the gate
			// is open either way.
			log.Printf("[gate] reservation %s was already marked opened", res.ID)
		} else {
			return fmt.Errorf("gate opened but failed to persist state for %s: %w", res.ID, err)
		}
	}

	if o.notifier != nil {
		o.notifier.Dispatch(res.ID)
	}
	return nil
}

func (o *Orchestrator) acquire(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[id]; busy {
		return false
	}
	o.inflight[id] = struct{}{}
	return true
}

func (o *Orchestrator) release(id string) {
	o.mu.Lock()
	delete(o.inflight, id)
	o.mu.Unlock()
}
