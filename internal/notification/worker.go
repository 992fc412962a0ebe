package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"parking-gate-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool sends gate-opened pushes off the request path. Jobs carry the
// reservation id; workers resolve the owner's subscriptions and notify them.
type WorkerPool struct {
	size    int
	jobs    chan string
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case reservationID := <-wp.jobs:
			wp.notifyGateOpened(ctx, reservationID)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a gate-opened notification for a reservation. It drops
// the job when the queue is full rather than delaying the gate response.
func (wp *WorkerPool) Dispatch(reservationID string) {
	select {
	case wp.jobs <- reservationID:
	default:
		log.Printf("Notification queue full, dropping job for reservation %s", reservationID)
	}
}

func (wp *WorkerPool) notifyGateOpened(ctx context.Context, reservationID string) {
	res, err := wp.store.Reservation(ctx, reservationID)
	if err != nil {
		log.Printf("Error loading reservation %s for notification: %v", reservationID, err)
		return
	}

	subscriptions, err := wp.store.SubscriptionsByUser(ctx, res.UserID)
	if err != nil {
		log.Printf("Error fetching subscriptions for user %s: %v", res.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	message := fmt.Sprintf("Gate opened for slot %s. Drive safe!", res.Slot)
	for _, sub := range subscriptions {
		wpSub := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256DH,
				Auth:   sub.Auth,
			},
		}

		resp, err := wp.sender.Send([]byte(message), wpSub, wp.webpush)
		if err != nil {
			log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
			continue
		}
		resp.Body.Close()

		// Handle expired subscriptions
		if resp.StatusCode == http.StatusGone {
			log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
			if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
				log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
			}
		}
	}
}
