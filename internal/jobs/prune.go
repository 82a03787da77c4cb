// Package jobs holds the background maintenance workers run by river.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

type PruneDailyArgs struct {
	RetentionDays int `json:"retention_days"`
}

func (PruneDailyArgs) Kind() string { return "prune_daily_activity" }

// Pruner deletes daily activity records for days before a day key.
type Pruner interface {
	PruneBefore(ctx context.Context, day int) (int64, error)
}

type Calendar interface {
	DaysAgo(n int) int
}

// PruneDailyWorker drops daily activity records older than the retention
// window. Records for today are never touched, so the once-per-day credit
// guard is unaffected.
type PruneDailyWorker struct {
	river.WorkerDefaults[PruneDailyArgs]
	pruner Pruner
	cal    Calendar
	log    *slog.Logger
}

func NewPruneDailyWorker(p Pruner, cal Calendar, log *slog.Logger) *PruneDailyWorker {
	if log == nil {
		log = slog.Default()
	}
	return &PruneDailyWorker{pruner: p, cal: cal, log: log}
}

func (w *PruneDailyWorker) Work(ctx context.Context, job *river.Job[PruneDailyArgs]) error {
	days := job.Args.RetentionDays
	if days <= 0 {
		return nil
	}
	cutoff := w.cal.DaysAgo(days)
	n, err := w.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune daily activity before %d: %w", cutoff, err)
	}
	w.log.Info("pruned daily activity", "before", cutoff, "deleted", n)
	return nil
}

// PeriodicJobs schedules the prune job every interval. It returns nil when
// retention is disabled.
func PeriodicJobs(retentionDays int, interval time.Duration) []*river.PeriodicJob {
	if retentionDays <= 0 {
		return nil
	}
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return PruneDailyArgs{RetentionDays: retentionDays}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}
