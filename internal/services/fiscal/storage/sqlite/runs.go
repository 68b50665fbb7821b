package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
	"github.com/louisbranch/cabinet/internal/services/fiscal/storage"
	"github.com/louisbranch/cabinet/internal/services/fiscal/storage/taskfilter"
)

// CreateRun persists a run with its generated tasks.
func (s *Store) CreateRun(ctx context.Context, run storage.RunRecord, tasks []obligation.Obligation) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	run.ID = strings.TrimSpace(run.ID)
	run.EntityID = strings.TrimSpace(run.EntityID)
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if run.EntityID == "" {
		return fmt.Errorf("entity id is required")
	}
	if run.Strategy == "" {
		return fmt.Errorf("strategy is required")
	}
	now := s.now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = run.CreatedAt
	}

	return s.inTx(ctx, "create run", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, entity_id, fiscal_year, strategy, stale_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
			run.ID,
			run.EntityID,
			run.FiscalYear,
			run.Strategy,
			toMillis(run.StaleAt),
			toMillis(run.CreatedAt),
			toMillis(run.UpdatedAt),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return storage.ErrConflict
			}
			if isForeignKeyConstraintError(err) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("insert run: %w", err)
		}
		return insertTasks(ctx, tx, run.ID, tasks)
	})
}

// GetRun loads one run.
func (s *Store) GetRun(ctx context.Context, id string) (storage.RunRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.RunRecord{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.RunRecord{}, fmt.Errorf("run id is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, entity_id, fiscal_year, strategy, stale_at, created_at, updated_at
FROM runs
WHERE id = ?
`, id)
	run, err := scanRun(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RunRecord{}, storage.ErrNotFound
		}
		return storage.RunRecord{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ReplaceRunTasks swaps the tasks of a run after regeneration.
func (s *Store) ReplaceRunTasks(ctx context.Context, runID, strategy string, tasks []obligation.Obligation, generatedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if strategy == "" {
		return fmt.Errorf("strategy is required")
	}
	now := s.now().UTC()

	return s.inTx(ctx, "replace run tasks", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
UPDATE runs SET
	strategy = ?,
	stale_at = CASE WHEN stale_at > ? THEN stale_at ELSE 0 END,
	updated_at = ?
WHERE id = ?
`, strategy, toMillis(generatedAt), toMillis(now), runID)
		if err != nil {
			return fmt.Errorf("update run: %w", err)
		}
		if updated, _ := result.RowsAffected(); updated == 0 {
			return storage.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM run_tasks WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("clear run tasks: %w", err)
		}
		return insertTasks(ctx, tx, runID, tasks)
	})
}

// ListRunTasks lists run tasks in generation order, narrowed by filter.
func (s *Store) ListRunTasks(ctx context.Context, runID string, filter taskfilter.Condition) ([]storage.TaskRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}

	query := `
SELECT run_id, position, name, category, form_reference, due_date
FROM run_tasks
WHERE run_id = ?`
	args := []any{runID}
	if !filter.Empty() {
		query += " AND " + filter.Clause
		args = append(args, filter.Params...)
	}
	query += "\nORDER BY position"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list run tasks: %w", err)
	}
	defer rows.Close()

	var tasks []storage.TaskRecord
	for rows.Next() {
		var task storage.TaskRecord
		var dueDate sql.NullInt64
		if err := rows.Scan(&task.RunID, &task.Position, &task.Name, &task.Category, &task.FormReference, &dueDate); err != nil {
			return nil, fmt.Errorf("scan run task: %w", err)
		}
		if dueDate.Valid {
			due := dueDate.Int64
			task.DueDate = &due
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run tasks: %w", err)
	}
	return tasks, nil
}

// MarkRunsStale flags every run for regeneration.
func (s *Store) MarkRunsStale(ctx context.Context, at time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if at.IsZero() {
		at = s.now()
	}
	result, err := s.sqlDB.ExecContext(ctx, `UPDATE runs SET stale_at = ?`, toMillis(at))
	if err != nil {
		return 0, fmt.Errorf("mark runs stale: %w", err)
	}
	return result.RowsAffected()
}

// ListStaleRuns lists runs awaiting regeneration, oldest stale mark first.
func (s *Store) ListStaleRuns(ctx context.Context, limit int) ([]storage.RunRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, entity_id, fiscal_year, strategy, stale_at, created_at, updated_at
FROM runs
WHERE stale_at > 0
ORDER BY stale_at, id
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale runs: %w", err)
	}
	defer rows.Close()

	runs := make([]storage.RunRecord, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale runs: %w", err)
	}
	return runs, nil
}

func insertTasks(ctx context.Context, execer sqlExecer, runID string, tasks []obligation.Obligation) error {
	for i, task := range tasks {
		var dueDate sql.NullInt64
		if task.DueDate != nil {
			dueDate = sql.NullInt64{Int64: *task.DueDate, Valid: true}
		}
		if _, err := execer.ExecContext(ctx, `
INSERT INTO run_tasks (run_id, position, name, category, form_reference, due_date)
VALUES (?, ?, ?, ?, ?, ?)
`, runID, i, task.Name, task.Category, task.FormReference, dueDate); err != nil {
			return fmt.Errorf("insert run task %d: %w", i, err)
		}
	}
	return nil
}

func scanRun(scan scanner) (storage.RunRecord, error) {
	var run storage.RunRecord
	var staleAt, createdAt, updatedAt int64
	if err := scan(&run.ID, &run.EntityID, &run.FiscalYear, &run.Strategy, &staleAt, &createdAt, &updatedAt); err != nil {
		return storage.RunRecord{}, err
	}
	run.StaleAt = fromMillis(staleAt)
	run.CreatedAt = fromMillis(createdAt)
	run.UpdatedAt = fromMillis(updatedAt)
	return run, nil
}
