// Package app wires the fiscal obligation engine to persistence and runs the
// fiscal service process.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/cabinet/internal/platform/errors"
	"github.com/louisbranch/cabinet/internal/platform/id"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/generator"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/legacy"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/snapshot"
	"github.com/louisbranch/cabinet/internal/services/fiscal/rulefile"
	"github.com/louisbranch/cabinet/internal/services/fiscal/storage"
	"github.com/louisbranch/cabinet/internal/services/fiscal/storage/taskfilter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	minFiscalYear = 1900
	maxFiscalYear = 2999
)

var tracer = otel.Tracer("github.com/louisbranch/cabinet/internal/services/fiscal/app")

// Options tunes a Service.
type Options struct {
	// DisableLegacy rejects generation when neither a graph nor active rules
	// are stored, instead of falling back to the built-in legacy rules.
	DisableLegacy bool
	// Clock defaults to time.Now.
	Clock func() time.Time
	// IDGenerator defaults to id.New.
	IDGenerator func(id.Kind) (string, error)
}

// Service manages entities, rule definitions and generated runs.
type Service struct {
	store         storage.Store
	disableLegacy bool
	clock         func() time.Time
	idGenerator   func(id.Kind) (string, error)
}

// NewService builds a Service on top of store.
func NewService(store storage.Store, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = id.New
	}
	return &Service{
		store:         store,
		disableLegacy: opts.DisableLegacy,
		clock:         opts.Clock,
		idGenerator:   opts.IDGenerator,
	}
}

// PutEntity creates or updates an entity. A blank ID creates a new entity.
func (s *Service) PutEntity(ctx context.Context, entity storage.EntityRecord) (storage.EntityRecord, error) {
	entity.ID = strings.TrimSpace(entity.ID)
	entity.Name = strings.TrimSpace(entity.Name)
	if entity.Name == "" {
		return storage.EntityRecord{}, apperrors.New(apperrors.CodeEntityEmptyName, "entity name is required")
	}
	if entity.ID == "" {
		newID, err := s.idGenerator(id.Entity)
		if err != nil {
			return storage.EntityRecord{}, fmt.Errorf("generate entity id: %w", err)
		}
		entity.ID = newID
	}
	if err := s.store.PutEntity(ctx, entity); err != nil {
		return storage.EntityRecord{}, fmt.Errorf("put entity: %w", err)
	}
	return s.store.GetEntity(ctx, entity.ID)
}

// ListEntities lists stored entities by name.
func (s *Service) ListEntities(ctx context.Context) ([]storage.EntityRecord, error) {
	list, err := s.store.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return list, nil
}

// MarkAllStale flags every run for regeneration, e.g. after an upgrade
// changed the built-in legacy rules.
func (s *Service) MarkAllStale(ctx context.Context) (int64, error) {
	n, err := s.store.MarkRunsStale(ctx, s.clock().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark runs stale: %w", err)
	}
	return n, nil
}

// ImportRules parses an HCL rule file and replaces the stored rule list.
func (s *Service) ImportRules(ctx context.Context, filename string, src []byte) (int, error) {
	list, err := rulefile.ParseRules(filename, src)
	if err != nil {
		return 0, definitionError(err)
	}
	if err := s.store.ReplaceRules(ctx, list); err != nil {
		return 0, fmt.Errorf("replace rules: %w", err)
	}
	return len(list), nil
}

// ImportGraph parses a JSON decision graph and stores it. An empty graph
// clears the stored one.
func (s *Service) ImportGraph(ctx context.Context, data []byte) (int, error) {
	g, err := rulefile.ParseGraphJSON(data)
	if err != nil {
		return 0, definitionError(err)
	}
	if g.Empty() {
		if err := s.store.ClearGraph(ctx); err != nil {
			return 0, fmt.Errorf("clear graph: %w", err)
		}
		return 0, nil
	}
	if err := s.store.PutGraph(ctx, g); err != nil {
		return 0, fmt.Errorf("put graph: %w", err)
	}
	return len(g.Nodes), nil
}

// Preview generates obligations with the stored definitions without
// persisting anything.
func (s *Service) Preview(ctx context.Context, snap snapshot.Snapshot, fiscalYear int) (generator.Result, error) {
	if err := validateFiscalYear(fiscalYear); err != nil {
		return generator.Result{}, err
	}
	src, err := s.sources(ctx)
	if err != nil {
		return generator.Result{}, err
	}
	return s.generate(ctx, src, snap, fiscalYear)
}

// CreateRun generates and stores the obligations of an entity for one
// fiscal year.
func (s *Service) CreateRun(ctx context.Context, entityID string, fiscalYear int) (storage.RunRecord, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return storage.RunRecord{}, apperrors.New(apperrors.CodeEntityEmptyID, "entity id is required")
	}
	if err := validateFiscalYear(fiscalYear); err != nil {
		return storage.RunRecord{}, err
	}

	entity, err := s.store.GetEntity(ctx, entityID)
	if err != nil {
		return storage.RunRecord{}, notFound(err, "entity", "get entity")
	}
	src, err := s.sources(ctx)
	if err != nil {
		return storage.RunRecord{}, err
	}
	result, err := s.generate(ctx, src, entity.Snapshot, fiscalYear)
	if err != nil {
		return storage.RunRecord{}, err
	}

	runID, err := s.idGenerator(id.Run)
	if err != nil {
		return storage.RunRecord{}, fmt.Errorf("generate run id: %w", err)
	}
	now := s.clock().UTC()
	run := storage.RunRecord{
		ID:         runID,
		EntityID:   entity.ID,
		FiscalYear: fiscalYear,
		Strategy:   result.Strategy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateRun(ctx, run, result.Obligations); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return storage.RunRecord{}, apperrors.WithMetadata(apperrors.CodeRunAlreadyExists,
				"run already exists", map[string]string{"fiscal_year": strconv.Itoa(fiscalYear)})
		case errors.Is(err, storage.ErrNotFound):
			return storage.RunRecord{}, notFound(err, "entity", "create run")
		}
		return storage.RunRecord{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// RegenerateRun recomputes a run from the current entity snapshot and
// definitions, replacing its tasks atomically.
func (s *Service) RegenerateRun(ctx context.Context, runID string) (storage.RunRecord, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return storage.RunRecord{}, apperrors.New(apperrors.CodeRunEmptyID, "run id is required")
	}
	// Taken before definitions are read: a change landing during
	// regeneration keeps the run stale.
	generatedAt := s.clock().UTC()

	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return storage.RunRecord{}, notFound(err, "run", "get run")
	}
	entity, err := s.store.GetEntity(ctx, run.EntityID)
	if err != nil {
		return storage.RunRecord{}, notFound(err, "entity", "get entity")
	}
	src, err := s.sources(ctx)
	if err != nil {
		return storage.RunRecord{}, err
	}
	result, err := s.generate(ctx, src, entity.Snapshot, run.FiscalYear)
	if err != nil {
		return storage.RunRecord{}, err
	}
	if err := s.store.ReplaceRunTasks(ctx, run.ID, result.Strategy, result.Obligations, generatedAt); err != nil {
		return storage.RunRecord{}, notFound(err, "run", "replace run tasks")
	}
	return s.store.GetRun(ctx, run.ID)
}

// GetRun loads one run.
func (s *Service) GetRun(ctx context.Context, runID string) (storage.RunRecord, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return storage.RunRecord{}, apperrors.New(apperrors.CodeRunEmptyID, "run id is required")
	}
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return storage.RunRecord{}, notFound(err, "run", "get run")
	}
	return run, nil
}

// ListRunTasks lists the tasks of a run narrowed by an AIP-160 filter such
// as `category = "TVA" AND due_date < timestamp("2025-01-01T00:00:00Z")`.
func (s *Service) ListRunTasks(ctx context.Context, runID, filter string) ([]storage.TaskRecord, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	cond, err := taskfilter.Parse(filter)
	if err != nil {
		return nil, apperrors.WithMetadata(apperrors.CodeRunInvalidTaskFilter,
			err.Error(), map[string]string{"reason": err.Error()})
	}
	tasks, err := s.store.ListRunTasks(ctx, run.ID, cond)
	if err != nil {
		return nil, fmt.Errorf("list run tasks: %w", err)
	}
	return tasks, nil
}

func (s *Service) sources(ctx context.Context) (generator.Sources, error) {
	graph, err := s.store.GetGraph(ctx)
	if err != nil {
		return generator.Sources{}, fmt.Errorf("get graph: %w", err)
	}
	list, err := s.store.ListRules(ctx)
	if err != nil {
		return generator.Sources{}, fmt.Errorf("list rules: %w", err)
	}
	return generator.Sources{Graph: graph.Graph, Rules: list}, nil
}

func (s *Service) generate(ctx context.Context, src generator.Sources, snap snapshot.Snapshot, fiscalYear int) (generator.Result, error) {
	_, span := tracer.Start(ctx, "fiscal.generate", trace.WithAttributes(
		attribute.Int("fiscal.year", fiscalYear),
	))
	defer span.End()

	strategy := generator.Select(src)
	if s.disableLegacy && strategy.Name() == legacy.Name {
		err := apperrors.New(apperrors.CodeRunGenerationDisabled, "no stored definitions and legacy generation is disabled")
		span.SetStatus(codes.Error, err.Error())
		return generator.Result{}, err
	}
	result := generator.Result{
		Strategy:    strategy.Name(),
		Obligations: strategy.Generate(snap, fiscalYear),
	}
	span.SetAttributes(
		attribute.String("fiscal.strategy", result.Strategy),
		attribute.Int("fiscal.obligations", len(result.Obligations)),
		attribute.Int("fiscal.undated", countUndated(result.Obligations)),
	)
	return result, nil
}

func countUndated(list []obligation.Obligation) int {
	n := 0
	for _, o := range list {
		if o.DueDate == nil {
			n++
		}
	}
	return n
}

func validateFiscalYear(fiscalYear int) error {
	if fiscalYear < minFiscalYear || fiscalYear > maxFiscalYear {
		return apperrors.WithMetadata(apperrors.CodeRunInvalidFiscalYear,
			fmt.Sprintf("fiscal year %d out of range", fiscalYear),
			map[string]string{"fiscal_year": strconv.Itoa(fiscalYear)})
	}
	return nil
}

func definitionError(err error) error {
	domainErr := apperrors.Wrap(apperrors.CodeDefinitionInvalid, err.Error(), err)
	domainErr.Metadata = map[string]string{"reason": err.Error()}
	return domainErr
}

func notFound(err error, resource, op string) error {
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	domainErr := apperrors.Wrap(apperrors.CodeNotFound, resource+" not found", err)
	domainErr.Metadata = map[string]string{"resource": resource}
	return domainErr
}
