package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/adsgram/backend/internal/daily"
	"github.com/adsgram/backend/internal/models"
	"github.com/adsgram/backend/internal/testutil"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type memTasks struct {
	mu          sync.Mutex
	tasks       map[uuid.UUID]*models.Task
	completions map[uuid.UUID]*models.TaskCompletion
}

func newMemTasks() *memTasks {
	return &memTasks{
		tasks:       make(map[uuid.UUID]*models.Task),
		completions: make(map[uuid.UUID]*models.TaskCompletion),
	}
}

func (m *memTasks) add(t models.Task) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	m.tasks[t.ID] = &t
	return t.ID
}

func (m *memTasks) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) ListActive(_ context.Context, limit int) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, t := range m.tasks {
		if t.Status == models.TaskStatusActive && len(out) < limit {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTasks) InsertCompletion(_ context.Context, _ pgx.Tx, c *models.TaskCompletion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.completions[c.ID] = &cp
	return nil
}

func (m *memTasks) Decide(_ context.Context, _ pgx.Tx, id uuid.UUID, status models.CompletionStatus, by string, at time.Time) (*Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.completions[id]
	if !ok || c.Status != models.CompletionPending {
		return nil, ErrInvalidState
	}
	c.Status = status
	c.DecidedAt = &at
	c.DecidedBy = &by
	return &Decision{
		CompletionID: id,
		UserID:       c.UserID,
		TaskID:       c.TaskID,
		RewardCents:  m.tasks[c.TaskID].RewardCents,
		Status:       status,
	}, nil
}

func (m *memTasks) IncrementCompletions(_ context.Context, _ pgx.Tx, taskID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[taskID].CompletionsCount++
	return nil
}

func (m *memTasks) completion(id uuid.UUID) models.TaskCompletion {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.completions[id]
}

type fixture struct {
	tasks  *memTasks
	daily  *testutil.Daily
	ledger *testutil.Ledger
	svc    *Service
	today  int
}

func newFixture() *fixture {
	now := time.Date(2026, time.June, 3, 9, 0, 0, 0, time.UTC)
	f := &fixture{
		tasks:  newMemTasks(),
		daily:  testutil.NewDaily(),
		ledger: testutil.NewLedger(),
		today:  20260603,
	}
	cal := daily.NewFixedCalendar(time.UTC, func() time.Time { return now })
	f.svc = NewService(&testutil.Pool{}, f.tasks, f.daily, f.ledger, cal)
	return f
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSubmitAndApprove(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	taskID := f.tasks.add(models.Task{Title: "join", RewardCents: 250, Status: models.TaskStatusActive})
	u := uuid.New()
	f.ledger.AddUser(u, 0)

	c, err := f.svc.Submit(ctx, u, taskID, "  @someone  ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.Status != models.CompletionPending || c.Proof == nil || *c.Proof != "@someone" {
		t.Fatalf("unexpected completion %+v", c)
	}
	if acc, _ := f.ledger.Snapshot(u); acc.Available != 0 {
		t.Fatalf("submission must not credit, available = %d", acc.Available)
	}

	if err := f.svc.Decide(ctx, c.ID, true, "admin"); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	acc, _ := f.ledger.Snapshot(u)
	if acc.Available != 250 || acc.XP != models.XPPerApproval {
		t.Errorf("after approval available=%d xp=%d", acc.Available, acc.XP)
	}
	got := f.tasks.completion(c.ID)
	if got.Status != models.CompletionApproved || got.DecidedBy == nil || *got.DecidedBy != "admin" || got.DecidedAt == nil {
		t.Errorf("decision metadata not stamped: %+v", got)
	}
	if f.tasks.tasks[taskID].CompletionsCount != 1 {
		t.Errorf("completions_count = %d, want 1", f.tasks.tasks[taskID].CompletionsCount)
	}
}

func TestDecide_Terminal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	taskID := f.tasks.add(models.Task{Title: "visit", RewardCents: 100, Status: models.TaskStatusActive})
	u := uuid.New()
	f.ledger.AddUser(u, 0)

	c, err := f.svc.Submit(ctx, u, taskID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.svc.Decide(ctx, c.ID, false, "admin"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	for _, approve := range []bool{true, false} {
		if err := f.svc.Decide(ctx, c.ID, approve, "admin"); !errors.Is(err, ErrInvalidState) {
			t.Errorf("re-decide approve=%v: expected ErrInvalidState, got %v", approve, err)
		}
	}
	if acc, _ := f.ledger.Snapshot(u); acc.Available != 0 || acc.XP != 0 {
		t.Errorf("rejected completion must not credit: %+v", acc)
	}
	if err := f.svc.Decide(ctx, uuid.New(), true, "admin"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("unknown completion: expected ErrInvalidState, got %v", err)
	}
}

func TestDecide_ConcurrentApprovalsCreditOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	taskID := f.tasks.add(models.Task{Title: "signup", RewardCents: 300, Status: models.TaskStatusActive})
	u := uuid.New()
	f.ledger.AddUser(u, 0)
	c, err := f.svc.Submit(ctx, u, taskID, "done")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.Decide(ctx, c.ID, true, "admin")
		}()
	}
	wg.Wait()

	if acc, _ := f.ledger.Snapshot(u); acc.Available != 300 || acc.XP != models.XPPerApproval {
		t.Errorf("expected a single credit, got %+v", acc)
	}
}

func TestSubmit_TaskMustBeActive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := uuid.New()

	if _, err := f.svc.Submit(ctx, u, uuid.New(), ""); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("missing task: expected ErrTaskNotFound, got %v", err)
	}
	inactive := f.tasks.add(models.Task{Title: "old", Status: models.TaskStatusFinished})
	if _, err := f.svc.Submit(ctx, u, inactive, ""); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("finished task: expected ErrTaskNotFound, got %v", err)
	}
}

func TestSubmit_RepeatsAllowedAndRecordedDaily(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	taskID := f.tasks.add(models.Task{Title: "join", RewardCents: 10, Status: models.TaskStatusActive})
	u := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Submit(ctx, u, taskID, ""); err != nil {
			t.Fatalf("Submit #%d: %v", i, err)
		}
	}
	if n := len(f.tasks.completions); n != 3 {
		t.Errorf("expected 3 pending completions, got %d", n)
	}
	ids, _ := f.daily.AttemptedTasks(ctx, u, f.today)
	if len(ids) != 1 || ids[0] != taskID {
		t.Errorf("daily task set = %v, want [%s]", ids, taskID)
	}

	list, err := f.svc.ListActive(ctx, u)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(list) != 1 || !list[0].AttemptedToday || list[0].Type != "join_telegram" {
		t.Errorf("unexpected listing %+v", list)
	}
}

func TestNormalizeProof(t *testing.T) {
	if normalizeProof("   ") != nil {
		t.Error("blank proof should be nil")
	}
	long := strings.Repeat("a", MaxProofBytes-1) + "é" + "tail"
	p := normalizeProof(long)
	if p == nil {
		t.Fatal("long proof should be kept")
	}
	if len(*p) > MaxProofBytes || !utf8.ValidString(*p) {
		t.Fatalf("proof not truncated cleanly: len=%d", len(*p))
	}
	if len(*p) != MaxProofBytes-1 {
		t.Errorf("expected split rune to be dropped, len=%d", len(*p))
	}
}
