// internal/app/system/tasks/tasks.go
package tasks

import (
	"context"
	"time"
)

// Job is a named unit of periodic background work. Run receives a context
// bounded by the runner; returning an error logs it without stopping the
// schedule.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}
