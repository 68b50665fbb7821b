package api

import (
	"time"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
	"github.com/louisbranch/cabinet/internal/services/fiscal/storage"
)

// CreateRunRequest asks for a new run of an entity and fiscal year.
type CreateRunRequest struct {
	EntityID   string `json:"entityId"`
	FiscalYear int    `json:"fiscalYear"`
}

// RunRequest addresses one run.
type RunRequest struct {
	RunID string `json:"runId"`
}

// ListRunTasksRequest lists the tasks of a run, narrowed by an AIP-160 filter.
type ListRunTasksRequest struct {
	RunID  string `json:"runId"`
	Filter string `json:"filter,omitempty"`
}

// Run is the wire form of a run.
type Run struct {
	ID         string     `json:"id"`
	EntityID   string     `json:"entityId"`
	FiscalYear int        `json:"fiscalYear"`
	Strategy   string     `json:"strategy"`
	StaleAt    *time.Time `json:"staleAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Task is the wire form of a run task.
type Task struct {
	Position int `json:"position"`
	obligation.Obligation
}

// ListRunTasksResponse holds run tasks in generation order.
type ListRunTasksResponse struct {
	Tasks []Task `json:"tasks"`
}

func runFromRecord(r storage.RunRecord) Run {
	out := Run{
		ID:         r.ID,
		EntityID:   r.EntityID,
		FiscalYear: r.FiscalYear,
		Strategy:   r.Strategy,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Stale() {
		staleAt := r.StaleAt
		out.StaleAt = &staleAt
	}
	return out
}

func tasksFromRecords(list []storage.TaskRecord) []Task {
	out := make([]Task, len(list))
	for i, t := range list {
		out[i] = Task{Position: t.Position, Obligation: t.Obligation}
	}
	return out
}
