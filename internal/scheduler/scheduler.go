package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on each tick until ctx is done.
// Errors are logged; the task is not retried early.
func Every(ctx context.Context, log *slog.Logger, interval time.Duration, name string, task Task) {
	if log == nil {
		log = slog.Default()
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	run := func() {
		if err := task(ctx); err != nil && ctx.Err() == nil {
			log.Error("scheduled task failed", "task", name, "err", err)
		}
	}

	// run immediately
	go run()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
