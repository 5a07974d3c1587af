package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"todolist/internal/models/todo"
	repo "todolist/internal/repository"
)

// Storage is a mutex-guarded map implementation of the repository,
// used by unit tests and the inmemory repository mode.
type Storage struct {
	mu     sync.RWMutex
	todos  map[int64]*todo.Todo
	nextID int64
}

func NewStorage() *Storage {
	return &Storage{
		todos:  make(map[int64]*todo.Todo),
		nextID: 1,
	}
}

func clone(t *todo.Todo) *todo.Todo {
	c := *t
	if t.Priority != nil {
		p := *t.Priority
		c.Priority = &p
	}
	if t.Type != nil {
		tt := *t.Type
		c.Type = &tt
	}
	if t.EstimatedSP != nil {
		v := *t.EstimatedSP
		c.EstimatedSP = &v
	}
	if t.ActualSP != nil {
		v := *t.ActualSP
		c.ActualSP = &v
	}
	return &c
}

func (s *Storage) Create(ctx context.Context, t *todo.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.nextID
	s.nextID++
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.todos[t.ID] = clone(t)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*todo.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.todos[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return clone(t), nil
}

func (s *Storage) List(ctx context.Context, search, sortBy, direction string) ([]*todo.Todo, error) {
	s.mu.RLock()
	todos := make([]*todo.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(search)) {
			continue
		}
		todos = append(todos, clone(t))
	}
	s.mu.RUnlock()

	asc := strings.EqualFold(direction, "asc")
	sort.SliceStable(todos, func(i, j int) bool {
		less := lessBy(sortBy, todos[i], todos[j])
		if asc {
			return less
		}
		return lessBy(sortBy, todos[j], todos[i])
	})
	return todos, nil
}

func lessBy(field string, a, b *todo.Todo) bool {
	switch field {
	case "title":
		return a.Title < b.Title
	case "due_date":
		return a.DueDate.Before(b.DueDate)
	case "status":
		return a.Status < b.Status
	case "priority":
		return derefEnum(a.Priority) < derefEnum(b.Priority)
	case "type":
		return derefType(a.Type) < derefType(b.Type)
	case "estimated_sp":
		return derefInt(a.EstimatedSP) < derefInt(b.EstimatedSP)
	case "actual_sp":
		return derefInt(a.ActualSP) < derefInt(b.ActualSP)
	default:
		return a.ID < b.ID
	}
}

func derefEnum(p *todo.Priority) string {
	if p == nil {
		return ""
	}
	return string(*p)
}

func derefType(p *todo.TodoType) string {
	if p == nil {
		return ""
	}
	return string(*p)
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func (s *Storage) Update(ctx context.Context, t *todo.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.todos[t.ID]
	if !ok {
		return repo.ErrNotFound
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now()
	s.todos[t.ID] = clone(t)
	return nil
}

func (s *Storage) Delete(ctx context.Context, id int64) (*todo.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	delete(s.todos, id)
	return clone(t), nil
}

func (s *Storage) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, id := range ids {
		if _, ok := s.todos[id]; ok {
			delete(s.todos, id)
			count++
		}
	}
	return count, nil
}

func (s *Storage) ListFiltered(ctx context.Context, f todo.Filter) ([]*todo.Todo, error) {
	s.mu.RLock()
	todos := []*todo.Todo{}
	for _, t := range s.todos {
		if f.Matches(t) {
			todos = append(todos, clone(t))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(todos, func(i, j int) bool {
		return todos[i].DueDate.Before(todos[j].DueDate)
	})
	return todos, nil
}

func (s *Storage) CountByStatus(ctx context.Context) (map[todo.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[todo.Status]int{}
	for _, t := range s.todos {
		counts[t.Status]++
	}
	return counts, nil
}

func (s *Storage) CountByPriority(ctx context.Context) (map[todo.Priority]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[todo.Priority]int{}
	for _, t := range s.todos {
		if t.Priority != nil {
			counts[*t.Priority]++
		}
	}
	return counts, nil
}

func (s *Storage) AssigneeFields(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields := []string{}
	for _, t := range s.todos {
		if t.Assignee != "" {
			fields = append(fields, t.Assignee)
		}
	}
	return fields, nil
}

func (s *Storage) AssigneeStats(ctx context.Context, name string) (repo.AssigneeStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Containment against the raw field, mirroring the postgres ILIKE.
	needle := strings.ToLower(name)
	var stats repo.AssigneeStats
	for _, t := range s.todos {
		if !strings.Contains(strings.ToLower(t.Assignee), needle) {
			continue
		}
		stats.Total++
		if t.Status == todo.StatusPending {
			stats.Pending++
		}
		stats.TimeTracked += t.TimeTracked
	}
	return stats, nil
}

func (s *Storage) ListDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*todo.Todo, error) {
	s.mu.RLock()
	todos := []*todo.Todo{}
	for _, t := range s.todos {
		if t.Status != todo.StatusCompleted && t.DueDate.Before(deadline) {
			todos = append(todos, clone(t))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(todos, func(i, j int) bool {
		return todos[i].DueDate.Before(todos[j].DueDate)
	})
	if limit > 0 && len(todos) > limit {
		todos = todos[:limit]
	}
	return todos, nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return nil
}
