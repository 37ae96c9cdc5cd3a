package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/markdave123-py/Penpal/internal/logger"
)

// SyncWorker periodically replays entry writes that did not reach the
// remote store.
type SyncWorker struct {
	scheduler gocron.Scheduler
	store     *EntryStore
	log       *logger.Logger
	timeout   time.Duration
}

func NewSyncWorker(store *EntryStore, interval time.Duration, log *logger.Logger) (*SyncWorker, error) {
	if interval <= 0 {
		interval = time.Minute
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	w := &SyncWorker{
		scheduler: s,
		store:     store,
		log:       log.With("service", "SyncWorker"),
		timeout:   interval,
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.RunOnce, context.Background()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule resync: %w", err)
	}
	return w, nil
}

func (w *SyncWorker) Start() {
	w.scheduler.Start()
	w.log.Info("sync worker started")
}

func (w *SyncWorker) Shutdown() error {
	return w.scheduler.Shutdown()
}

// RunOnce replays pending writes once, bounded by the job interval.
func (w *SyncWorker) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	rep, err := w.store.Resync(ctx)
	if err != nil {
		w.log.Warn("resync failed", "error", err)
		return
	}
	if rep.Pushed+rep.Deleted+rep.Failed > 0 {
		w.log.Info("resync done", "pushed", rep.Pushed, "deleted", rep.Deleted, "failed", rep.Failed)
	}
}
