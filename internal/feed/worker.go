package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/go-bazi/internal/config"
)

// Worker re-runs a synchronization on a fixed schedule and hands each
// successful feed to Publish.
type Worker struct {
	Generator *Generator
	Config    SyncConfig

	// Interval between runs. Zero or less runs once.
	Interval time.Duration

	Publish func(ics []byte)
}

// Run performs a first synchronization immediately, then one per Interval,
// until ctx is cancelled. A failed run is logged and the previous feed stays
// published.
func (w *Worker) Run(ctx context.Context) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	w.SyncOnce(ctx)
	if w.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, w.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return

		case <-ticker.C:
			w.SyncOnce(ctx)
		}
	}
}

// SyncOnce runs one synchronization and reports whether it was published.
func (w *Worker) SyncOnce(ctx context.Context) bool {
	res, err := w.Generator.RunSync(ctx, w.Config)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error(config.MsgSyncFailed,
				config.LogKeyComponent, config.CompWorker,
				config.LogKeyError, err)
		}
		return false
	}

	if w.Publish != nil {
		w.Publish(res.ICS)
	}
	slog.Info(config.MsgSyncFinished,
		config.LogKeyComponent, config.CompWorker,
		config.LogKeyCount, len(res.Charts),
		config.LogKeyFailed, res.Failed)
	return true
}
