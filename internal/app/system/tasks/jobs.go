// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CalorieResetter zeroes the running daily calorie counter on accounts
// that have not been reset since the given day boundary.
type CalorieResetter interface {
	ResetDailyCalories(ctx context.Context, dayStart time.Time) (int64, error)
}

// EventFinisher closes out ongoing events whose end time has passed.
type EventFinisher interface {
	FinishDueEvents(ctx context.Context, now time.Time) (int, error)
}

// CalorieResetJob returns the periodic job that rolls daily calorie
// counters over at UTC midnight. The reset itself is guarded by the
// per-user last reset timestamp, so the interval only bounds how stale
// a counter can get after midnight.
func CalorieResetJob(users CalorieResetter, interval time.Duration, log *zap.Logger) Job {
	return Job{
		Name:     "calorie_reset",
		Interval: interval,
		Run: func(ctx context.Context) error {
			now := time.Now().UTC()
			dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			reset, err := users.ResetDailyCalories(ctx, dayStart)
			if err != nil {
				return err
			}
			if reset > 0 {
				log.Info("reset daily calorie counters", zap.Int64("users", reset))
			}
			return nil
		},
	}
}

// EventSweepJob returns the periodic job that finishes overdue events
// and pays out their points.
func EventSweepJob(events EventFinisher, interval time.Duration, log *zap.Logger) Job {
	return Job{
		Name:     "event_sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			finished, err := events.FinishDueEvents(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if finished > 0 {
				log.Info("finished overdue events", zap.Int("events", finished))
			}
			return nil
		},
	}
}
