// Package cleanup prunes expired slot reservations on a schedule.
package cleanup

import (
	"context"
	"log"
	"time"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/store"
)

// Job deletes slot reservations whose end time has passed.
type Job struct {
	cfg   *config.CleanupConfig
	store store.Store
}

// NewJob creates a cleanup job.
func NewJob(cfg *config.CleanupConfig, s store.Store) *Job {
	return &Job{cfg: cfg, store: s}
}

// Run executes the cleanup on the configured interval until ctx is done.
func (j *Job) Run(ctx context.Context) {
	if !j.cfg.Enabled {
		log.Println("Reservation cleanup is disabled. Not starting.")
		return
	}
	log.Println("Starting reservation cleanup job...")

	timer := time.NewTimer(j.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reservation cleanup shutting down.")
			return
		case <-timer.C:
			j.RunOnce(ctx)
			timer.Reset(j.cfg.Interval)
		}
	}
}

// RunOnce performs a single cleanup pass.
func (j *Job) RunOnce(ctx context.Context) {
	now := time.Now().UTC()
	deleted, err := j.store.DeleteExpiredSlotReservations(ctx, now)
	if err != nil {
		log.Printf("Reservation cleanup failed: %v", err)
		return
	}
	log.Printf("Expired reservations cleaned. Removed rows: %d", deleted)
}
