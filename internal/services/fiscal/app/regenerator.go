package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/cabinet/internal/platform/timeouts"
	"github.com/louisbranch/cabinet/internal/services/fiscal/storage"
)

const (
	defaultPollInterval = time.Minute
	defaultBatchSize    = 50
)

// RegeneratorConfig controls the stale run loop.
type RegeneratorConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

func (c RegeneratorConfig) normalized() RegeneratorConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	return c
}

type runRegenerator interface {
	RegenerateRun(ctx context.Context, runID string) (storage.RunRecord, error)
}

// Regenerator recomputes runs marked stale by definition changes.
type Regenerator struct {
	service runRegenerator
	runs    storage.RunStore
	cfg     RegeneratorConfig
	logf    func(string, ...any)
}

// NewRegenerator builds a loop over runs. A nil logf logs with log.Printf.
func NewRegenerator(service runRegenerator, runs storage.RunStore, cfg RegeneratorConfig, logf func(string, ...any)) *Regenerator {
	if logf == nil {
		logf = log.Printf
	}
	return &Regenerator{
		service: service,
		runs:    runs,
		cfg:     cfg.normalized(),
		logf:    logf,
	}
}

// Run regenerates stale runs immediately and then every PollInterval until
// ctx is cancelled.
func (r *Regenerator) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.pass(ctx)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Regenerator) pass(ctx context.Context) {
	batchCtx, cancel := context.WithTimeout(ctx, timeouts.RegenerationBatch)
	defer cancel()
	if _, err := r.RunOnce(batchCtx); err != nil && ctx.Err() == nil {
		r.logf("regenerate stale runs: %v", err)
	}
}

// RunOnce regenerates one batch of stale runs and returns how many
// succeeded. A failing run is logged and skipped.
func (r *Regenerator) RunOnce(ctx context.Context) (int, error) {
	stale, err := r.runs.ListStaleRuns(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale runs: %w", err)
	}
	done := 0
	for _, run := range stale {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := r.service.RegenerateRun(ctx, run.ID); err != nil {
			r.logf("regenerate run %s (entity %s, fiscal year %d): %v", run.ID, run.EntityID, run.FiscalYear, err)
			continue
		}
		done++
	}
	if done > 0 {
		r.logf("regenerated %d of %d stale runs", done, len(stale))
	}
	return done, nil
}
