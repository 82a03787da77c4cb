package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riverqueue/river"

	"github.com/adsgram/backend/internal/daily"
)

type stubPruner struct {
	before []int
	err    error
}

func (s *stubPruner) PruneBefore(_ context.Context, day int) (int64, error) {
	s.before = append(s.before, day)
	return 7, s.err
}

func fixedCalendar() *daily.Calendar {
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	return daily.NewFixedCalendar(time.UTC, func() time.Time { return now })
}

func TestPruneDailyWorker(t *testing.T) {
	p := &stubPruner{}
	w := NewPruneDailyWorker(p, fixedCalendar(), nil)

	if err := w.Work(context.Background(), &river.Job[PruneDailyArgs]{Args: PruneDailyArgs{RetentionDays: 30}}); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if len(p.before) != 1 || p.before[0] != 20260208 {
		t.Errorf("expected cutoff 20260208, got %v", p.before)
	}
}

func TestPruneDailyWorker_DisabledAndErrors(t *testing.T) {
	p := &stubPruner{}
	w := NewPruneDailyWorker(p, fixedCalendar(), nil)

	if err := w.Work(context.Background(), &river.Job[PruneDailyArgs]{Args: PruneDailyArgs{}}); err != nil {
		t.Fatalf("disabled retention: %v", err)
	}
	if len(p.before) != 0 {
		t.Error("zero retention must not prune")
	}

	p.err = errors.New("db down")
	if err := w.Work(context.Background(), &river.Job[PruneDailyArgs]{Args: PruneDailyArgs{RetentionDays: 1}}); err == nil {
		t.Error("expected error to be returned for retry")
	}
}

func TestPeriodicJobs(t *testing.T) {
	if jobs := PeriodicJobs(0, time.Hour); jobs != nil {
		t.Errorf("expected no periodic jobs when retention disabled, got %d", len(jobs))
	}
	if jobs := PeriodicJobs(14, time.Hour); len(jobs) != 1 {
		t.Errorf("expected one periodic job, got %d", len(jobs))
	}
	if (PruneDailyArgs{}).Kind() != "prune_daily_activity" {
		t.Error("job kind changed; queued jobs would be orphaned")
	}
}
