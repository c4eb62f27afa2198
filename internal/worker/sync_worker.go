package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// OrderSyncer runs one external order sync.
type OrderSyncer interface {
	SyncOrders(ctx context.Context, opts service.SyncOptions) (*service.SyncResult, error)
}

// ScheduleSource reports whether scheduled sync is enabled and how often it runs.
type ScheduleSource interface {
	SyncSchedule() service.SyncSchedule
}

// SyncWorker periodically syncs external orders when enabled in settings.
// The schedule is re-read on every tick, so admin changes apply without a
// restart.
type SyncWorker struct {
	syncer   OrderSyncer
	schedule ScheduleSource
	tick     time.Duration
	now      func() time.Time
	lastRun  time.Time
}

// NewSyncWorker constructs a SyncWorker that checks the schedule every tick.
func NewSyncWorker(syncer OrderSyncer, schedule ScheduleSource, tick time.Duration) *SyncWorker {
	if tick <= 0 {
		tick = time.Minute
	}
	return &SyncWorker{
		syncer:   syncer,
		schedule: schedule,
		tick:     tick,
		now:      time.Now,
	}
}

// Start begins the periodic sync loop and listens for context cancellation.
func (w *SyncWorker) Start(ctx context.Context) {
	log.Info().Dur("tick", w.tick).Msg("Starting order sync worker")

	// Run immediately on start
	w.runIfDue(ctx)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runIfDue(ctx)
		case <-ctx.Done():
			log.Info().Msg("Order sync worker stopped")
			return
		}
	}
}

// runIfDue syncs when scheduling is active and the interval has elapsed since
// the last attempt. It reports whether a sync was attempted.
func (w *SyncWorker) runIfDue(ctx context.Context) bool {
	sched := w.schedule.SyncSchedule()
	if !sched.Active {
		return false
	}
	now := w.now()
	if !w.lastRun.IsZero() && now.Sub(w.lastRun) < sched.Interval {
		return false
	}
	w.lastRun = now

	log.Info().Dur("interval", sched.Interval).Msg("Running scheduled order sync")
	res, err := w.syncer.SyncOrders(ctx, service.SyncOptions{})
	switch {
	case errors.Is(err, utils.ErrSyncInProgress):
		log.Info().Msg("Order sync already running, skipping scheduled run")
	case errors.Is(err, utils.ErrValidation):
		log.Warn().Err(err).Msg("Scheduled order sync skipped")
	case err != nil:
		log.Error().Err(err).Msg("Scheduled order sync failed")
	default:
		log.Info().Int("created", res.Created).Int("updated", res.Updated).Int("errors", res.Errors).Msg("Scheduled order sync completed")
	}
	return true
}
