// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/system/tasks"
	"go.uber.org/zap"
)

// Runner runs one tasks.Job on a fixed interval until stopped.
type Runner struct {
	job      tasks.Job
	log      *zap.Logger
	runFirst bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRunner creates a worker for job. When runFirst is true the job runs
// once immediately on Start instead of waiting a full interval.
func NewRunner(job tasks.Job, logger *zap.Logger, runFirst bool) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		job:      job,
		log:      logger.With(zap.String("job", job.Name)),
		runFirst: runFirst,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Runner) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("worker started", zap.Duration("interval", w.job.Interval))
}

// Stop signals the worker to stop and waits for any in-flight run to finish.
// It is safe to call more than once.
func (w *Runner) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("worker stopped")
	})
}

func (w *Runner) run() {
	defer w.wg.Done()

	if w.runFirst {
		w.runOnce()
	}

	ticker := time.NewTicker(w.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runOnce()
		}
	}
}

// jobContext bounds a run by the job's Timeout, if it has one.
func (w *Runner) jobContext() (context.Context, context.CancelFunc) {
	if w.job.Timeout > 0 {
		return context.WithTimeout(context.Background(), w.job.Timeout)
	}
	return context.WithCancel(context.Background())
}

func (w *Runner) runOnce() {
	ctx, cancel := w.jobContext()
	defer cancel()

	// Abort the run promptly on Stop.
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	if err := w.job.Run(ctx); err != nil {
		w.log.Error("job failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	w.log.Debug("job finished", zap.Duration("took", time.Since(start)))
}
