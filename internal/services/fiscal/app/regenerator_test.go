package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/cabinet/internal/services/fiscal/storage"
)

type fakeRunStore struct {
	storage.RunStore
	stale []storage.RunRecord
	err   error
	limit int
}

func (f *fakeRunStore) ListStaleRuns(_ context.Context, limit int) ([]storage.RunRecord, error) {
	f.limit = limit
	return f.stale, f.err
}

type fakeRegenerator struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (f *fakeRegenerator) RegenerateRun(_ context.Context, runID string) (storage.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, runID)
	if f.fail[runID] {
		return storage.RunRecord{}, errors.New("entity snapshot unreadable")
	}
	return storage.RunRecord{ID: runID}, nil
}

type logRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (l *logRecorder) logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *logRecorder) contains(part string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, part) {
			return true
		}
	}
	return false
}

func TestRegeneratorRunOnceSkipsFailures(t *testing.T) {
	runs := &fakeRunStore{stale: []storage.RunRecord{
		{ID: "run-1", EntityID: "ent-1", FiscalYear: 2024},
		{ID: "run-2", EntityID: "ent-2", FiscalYear: 2024},
		{ID: "run-3", EntityID: "ent-3", FiscalYear: 2025},
	}}
	service := &fakeRegenerator{fail: map[string]bool{"run-2": true}}
	logs := &logRecorder{}

	loop := NewRegenerator(service, runs, RegeneratorConfig{BatchSize: 3}, logs.logf)
	done, err := loop.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if done != 2 {
		t.Fatalf("done = %d, want 2", done)
	}
	if got := strings.Join(service.calls, ","); got != "run-1,run-2,run-3" {
		t.Fatalf("calls = %s", got)
	}
	if runs.limit != 3 {
		t.Fatalf("limit = %d, want 3", runs.limit)
	}
	if !logs.contains("regenerate run run-2 (entity ent-2, fiscal year 2024)") {
		t.Fatalf("missing failure log: %v", logs.lines)
	}
}

func TestRegeneratorRunOnceListError(t *testing.T) {
	runs := &fakeRunStore{err: errors.New("database is locked")}
	loop := NewRegenerator(&fakeRegenerator{}, runs, RegeneratorConfig{}, func(string, ...any) {})
	if _, err := loop.RunOnce(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
	if runs.limit != defaultBatchSize {
		t.Fatalf("limit = %d, want default %d", runs.limit, defaultBatchSize)
	}
}

func TestRegeneratorRunStopsOnCancel(t *testing.T) {
	runs := &fakeRunStore{stale: []storage.RunRecord{{ID: "run-1"}}}
	service := &fakeRegenerator{}
	loop := NewRegenerator(service, runs, RegeneratorConfig{PollInterval: time.Hour}, func(string, ...any) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		service.mu.Lock()
		n := len(service.calls)
		service.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected initial pass before first tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestRegeneratorAgainstStore(t *testing.T) {
	svc, store := newTestService(t, Options{})
	ctx := context.Background()
	entity := corporateEntity(t, svc)
	if _, err := svc.CreateRun(ctx, entity.ID, 2024); err != nil {
		t.Fatalf("create run 2024: %v", err)
	}
	if _, err := svc.CreateRun(ctx, entity.ID, 2025); err != nil {
		t.Fatalf("create run 2025: %v", err)
	}
	if _, err := svc.ImportRules(ctx, "rules.hcl", []byte(salesTaxRules)); err != nil {
		t.Fatalf("import rules: %v", err)
	}

	loop := NewRegenerator(svc, store, RegeneratorConfig{}, func(string, ...any) {})
	done, err := loop.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if done != 2 {
		t.Fatalf("done = %d, want 2", done)
	}
	stale, err := store.ListStaleRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list stale runs: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("stale runs left: %v", stale)
	}
}
