package repository

import (
	"context"
	"errors"
	"time"

	"todolist/internal/models/todo"
)

// ErrNotFound reports that no row matched the requested id (or id set).
var ErrNotFound = errors.New("todo not found")

// AssigneeStats is the per-assignee rollup used by the assignee chart.
// Counts use substring containment against the raw delimited assignee
// field, so a name that is a substring of another name over-counts.
// That matches the public API and is intentional.
type AssigneeStats struct {
	Total       int `json:"total_todos"`
	Pending     int `json:"total_pending_todos"`
	TimeTracked int `json:"total_timetracked_todos"`
}

// TodoRepository is the persistence contract of the todo service.
// Implementations: postgres (pgx pool) and inmemory (tests, dev).
type TodoRepository interface {
	// Create assigns the id and created/updated timestamps on success.
	Create(ctx context.Context, t *todo.Todo) error
	GetByID(ctx context.Context, id int64) (*todo.Todo, error)
	// List applies an optional case-insensitive title substring search and
	// sorts by an already-validated field/direction pair.
	List(ctx context.Context, search, sortBy, direction string) ([]*todo.Todo, error)
	// Update writes the full row by id, refreshing updated_at on t.
	// ErrNotFound when the row no longer exists.
	Update(ctx context.Context, t *todo.Todo) error
	// Delete removes the row and returns it, so callers can report the
	// pre-deletion title. ErrNotFound when absent.
	Delete(ctx context.Context, id int64) (*todo.Todo, error)
	// DeleteMany removes every row whose id is in ids, returning the
	// actual deleted count (zero is not an error at this layer).
	DeleteMany(ctx context.Context, ids []int64) (int64, error)

	// ListFiltered returns rows matching the filter, due date ascending.
	ListFiltered(ctx context.Context, f todo.Filter) ([]*todo.Todo, error)
	CountByStatus(ctx context.Context) (map[todo.Status]int, error)
	CountByPriority(ctx context.Context) (map[todo.Priority]int, error)
	// AssigneeFields returns the raw non-empty assignee column values.
	AssigneeFields(ctx context.Context) ([]string, error)
	AssigneeStats(ctx context.Context, name string) (AssigneeStats, error)
	// ListDueBefore returns non-completed todos due strictly before the
	// deadline, capped at limit. Used by the overdue worker.
	ListDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*todo.Todo, error)

	HealthCheck(ctx context.Context) error
}
