// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aktivio/aktivio-server/internal/app/system/tasks"
	"github.com/aktivio/aktivio-server/internal/app/system/timeouts"
)

// Runner drives one periodic job on its own goroutine.
type Runner struct {
	job    tasks.Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewRunner(job tasks.Job, logger *zap.Logger) *Runner {
	return &Runner{
		job:    job,
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Start begins the background loop.
func (r *Runner) Start() {
	r.wg.Add(1)
	go r.run()
	r.log.Info("worker started",
		zap.String("job", r.job.Name),
		zap.Duration("interval", r.job.Interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.log.Info("worker stopped", zap.String("job", r.job.Name))
}

func (r *Runner) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	start := time.Now()
	if err := r.job.Run(ctx); err != nil {
		r.log.Error("job run failed",
			zap.String("job", r.job.Name),
			zap.Error(err))
		return
	}
	r.log.Debug("job run completed",
		zap.String("job", r.job.Name),
		zap.Duration("took", time.Since(start)))
}
