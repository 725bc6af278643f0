package games

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSweeper runs cache.Sweep every interval until the returned scheduler
// is shut down.
func StartSweeper(cache *Cache, interval time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create sweeper scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n := cache.Sweep(); n > 0 {
				logger.Debug("swept expired game cache entries", slog.Int("removed", n))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule cache sweep: %w", err)
	}

	sched.Start()
	return sched, nil
}
