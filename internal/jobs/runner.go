package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/server"
)

// Job is a periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	// Immediate runs the job once before the first tick.
	Immediate bool
	Run       func(ctx context.Context) error
}

// Runner ticks every job in its own goroutine until the context ends.
type Runner struct {
	log  *slog.Logger
	jobs []Job
	wg   sync.WaitGroup
}

func NewRunner(log *slog.Logger, jobs ...Job) *Runner {
	return &Runner{log: log, jobs: jobs}
}

// Start launches the jobs and returns immediately. Jobs with a non-positive
// interval are skipped.
func (r *Runner) Start(ctx context.Context) {
	for _, job := range r.jobs {
		if job.Interval <= 0 {
			r.log.Warn("job disabled", "job", job.Name)
			continue
		}
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
}

// Wait blocks until every job loop has exited.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	if job.Immediate {
		r.runOnce(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx, job)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		r.log.Error("job failed", "job", job.Name, "err", err)
		return
	}
	r.log.Debug("job done", "job", job.Name, "took", time.Since(start))
}

// QuotaResetter zeroes the daily candidate quotas.
type QuotaResetter interface {
	ResetDailyQuotas(ctx context.Context) (int64, error)
}

// QuotaReset resets every user's daily candidate quota.
func QuotaReset(log *slog.Logger, r QuotaResetter, interval time.Duration) Job {
	return Job{
		Name:     "quota-reset",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := r.ResetDailyQuotas(ctx)
			if err != nil {
				return err
			}
			log.Info("daily quotas reset", "profiles", n)
			return nil
		},
	}
}

// SkipPurge deletes skips older than retention so those profiles can show up
// again. Likes are kept.
func SkipPurge(appCtx *app.AppContext, retention, interval time.Duration) Job {
	prefs := repository.NewPreferenceRepository(appCtx.DB)
	return Job{
		Name:      "skip-purge",
		Interval:  interval,
		Immediate: true,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-retention)
			n, err := prefs.PurgeSkipsBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if n > 0 {
				appCtx.Logger.Info("stale skips purged", "rows", n, "cutoff", cutoff)
			}
			return nil
		},
	}
}

// HealthRefresh re-runs the dependency checks behind the gRPC health service.
func HealthRefresh(h *server.Health, interval time.Duration) Job {
	return Job{
		Name:      "health-refresh",
		Interval:  interval,
		Immediate: true,
		Run: func(ctx context.Context) error {
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()
			h.Refresh(checkCtx)
			return nil
		},
	}
}
