// Package storage defines persistence contracts for entities, rule
// definitions and generated fiscal-year runs.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/decisiongraph"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/rules"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/snapshot"
	"github.com/louisbranch/cabinet/internal/services/fiscal/storage/taskfilter"
)

var (
	// ErrNotFound indicates a requested entity or run is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a run already exists for the entity and fiscal year.
	ErrConflict = errors.New("record conflict")
)

// EntityRecord is one client business entity and its current fiscal profile.
type EntityRecord struct {
	ID        string
	Name      string
	Snapshot  snapshot.Snapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GraphRecord is the stored decision graph.
type GraphRecord struct {
	Graph     decisiongraph.Graph
	UpdatedAt time.Time
}

// RunRecord is one generated fiscal-year obligation calendar.
type RunRecord struct {
	ID         string
	EntityID   string
	FiscalYear int
	Strategy   string
	// StaleAt is set when definitions changed after the run was generated.
	StaleAt   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stale reports whether the run must be regenerated.
func (r RunRecord) Stale() bool {
	return !r.StaleAt.IsZero()
}

// TaskRecord is one persisted obligation of a run, in generation order.
type TaskRecord struct {
	RunID    string
	Position int
	obligation.Obligation
}

// EntityStore persists client entities.
type EntityStore interface {
	PutEntity(ctx context.Context, entity EntityRecord) error
	GetEntity(ctx context.Context, id string) (EntityRecord, error)
	ListEntities(ctx context.Context) ([]EntityRecord, error)
}

// DefinitionStore persists the rule list and the decision graph. Replacing
// either marks every run stale.
type DefinitionStore interface {
	ReplaceRules(ctx context.Context, list []rules.Rule) error
	ListRules(ctx context.Context) ([]rules.Rule, error)
	PutGraph(ctx context.Context, g decisiongraph.Graph) error
	// GetGraph returns an empty record when no graph is stored.
	GetGraph(ctx context.Context) (GraphRecord, error)
	ClearGraph(ctx context.Context) error
}

// RunStore persists runs and their tasks.
type RunStore interface {
	// CreateRun writes the run and its tasks in one transaction.
	CreateRun(ctx context.Context, run RunRecord, tasks []obligation.Obligation) error
	GetRun(ctx context.Context, id string) (RunRecord, error)
	// ReplaceRunTasks swaps the run tasks in one transaction. The stale mark
	// is cleared unless definitions changed after generatedAt.
	ReplaceRunTasks(ctx context.Context, runID, strategy string, tasks []obligation.Obligation, generatedAt time.Time) error
	ListRunTasks(ctx context.Context, runID string, filter taskfilter.Condition) ([]TaskRecord, error)
	MarkRunsStale(ctx context.Context, at time.Time) (int64, error)
	// ListStaleRuns returns stale runs, oldest stale mark first.
	ListStaleRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// Store is the full fiscal persistence surface.
type Store interface {
	EntityStore
	DefinitionStore
	RunStore
	Close() error
}
