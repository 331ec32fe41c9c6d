package worker

import (
	"context"
	"log/slog"
	"time"
)

const staleJobMessage = "backfill interrupted: job exceeded its running window"

type StaleJobRepository interface {
	FailStale(ctx context.Context, startedBefore time.Time, message string) ([]string, error)
}

// StaleJobReaper fails backfill jobs left running by a crashed or killed process.
// A live job runs inside one request, so anything older than staleAfter is dead.
type StaleJobReaper struct {
	repo         StaleJobRepository
	staleAfter   time.Duration
	tickInterval time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

func NewStaleJobReaper(repo StaleJobRepository, staleAfter, tickInterval time.Duration, logger *slog.Logger) *StaleJobReaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaleJobReaper{
		repo:         repo,
		staleAfter:   staleAfter,
		tickInterval: tickInterval,
		logger:       logger,
		now:          time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (w *StaleJobReaper) Start(ctx context.Context) {
	w.logger.Info("stale job reaper started",
		slog.Duration("stale_after", w.staleAfter),
		slog.Duration("interval", w.tickInterval),
	)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.reap(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stale job reaper stopped")
			return
		case <-ticker.C:
			w.reap(ctx)
		}
	}
}

func (w *StaleJobReaper) reap(ctx context.Context) {
	ids, err := w.repo.FailStale(ctx, w.now().Add(-w.staleAfter), staleJobMessage)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("reap stale backfill jobs", slog.Any("err", err))
		}
		return
	}
	for _, id := range ids {
		w.logger.Warn("stale backfill job marked failed", slog.String("job_id", id))
	}
}
