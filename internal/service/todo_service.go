package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"todolist/internal/events"
	"todolist/internal/logger"
	"todolist/internal/models/todo"
	"todolist/internal/repository"
)

// Publisher is the relay surface the service needs. Publish must not
// block on subscriber delivery.
type Publisher interface {
	Publish(kind string, payload any)
}

// TodoService owns the CRUD contract and the normalization rules of a
// todo record. It is the sole writer; every committed mutation is
// published through the relay.
type TodoService struct {
	repo  repository.TodoRepository
	relay Publisher
	now   func() time.Time
}

func NewTodoService(repo repository.TodoRepository, relay Publisher) *TodoService {
	return &TodoService{
		repo:  repo,
		relay: relay,
		now:   time.Now,
	}
}

// sortableFields is the List sort allow-list.
var sortableFields = map[string]bool{
	"id":           true,
	"title":        true,
	"due_date":     true,
	"status":       true,
	"priority":     true,
	"type":         true,
	"estimated_sp": true,
	"actual_sp":    true,
}

func (s *TodoService) Create(ctx context.Context, in CreateInput) (*todo.Todo, error) {
	if violations := in.Validate(s.now()); len(violations) > 0 {
		logger.Warn("Service: create validation failed", zap.Int("violations", len(violations)))
		return nil, NewValidationError(violations)
	}

	t := &todo.Todo{
		Title:       "New Task",
		DueDate:     todo.DateOnly(s.now()),
		Status:      todo.StatusPending,
		TimeTracked: 0,
	}
	if in.Title != nil && *in.Title != "" {
		t.Title = *in.Title
	}
	if in.Assignee != nil {
		t.Assignee = *in.Assignee
	}
	if in.DueDate != nil {
		t.DueDate = todo.DateOnly(*in.DueDate)
	}
	if in.TimeTracked != nil {
		t.TimeTracked = *in.TimeTracked
	}
	if in.Status != nil && *in.Status != "" {
		t.Status = todo.Status(*in.Status)
	}
	if in.Priority != nil && *in.Priority != "" {
		p := todo.Priority(*in.Priority)
		t.Priority = &p
	}
	if in.Type != nil && *in.Type != "" {
		tt := todo.TodoType(*in.Type)
		t.Type = &tt
	}
	t.EstimatedSP = in.EstimatedSP
	t.ActualSP = in.ActualSP

	if err := s.repo.Create(ctx, t); err != nil {
		logger.Error("Service: create failed", err)
		return nil, NewPersistenceError("Failed to create todo list", err)
	}

	s.relay.Publish(events.TodoCreated, t)

	logger.Info("Service: todo created", zap.Int64("todo_id", t.ID))
	return t, nil
}

func (s *TodoService) List(ctx context.Context, search, sortBy, direction string) ([]todo.ListItem, error) {
	if sortBy == "" {
		sortBy = "id"
	}
	if direction == "" {
		direction = "desc"
	}

	var violations []Violation
	if !sortableFields[sortBy] {
		violations = append(violations, Violation{Field: "sort_by", Reason: "must be one of: id, title, due_date, status, priority, type, estimated_sp, actual_sp"})
	}
	if direction != "asc" && direction != "desc" {
		violations = append(violations, Violation{Field: "order_direction", Reason: "must be asc or desc"})
	}
	if len(violations) > 0 {
		return nil, NewValidationError(violations)
	}

	todos, err := s.repo.List(ctx, search, sortBy, direction)
	if err != nil {
		logger.Error("Service: list failed", err)
		return nil, NewPersistenceError("Failed to retrieve todo lists", err)
	}

	return todo.NewListItems(todos), nil
}

func (s *TodoService) Get(ctx context.Context, id int64) (*todo.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: todo not found", zap.Int64("todo_id", id))
			return nil, NewNotFound("Todo list not found")
		}
		logger.Error("Service: get failed", err)
		return nil, NewPersistenceError("Failed to retrieve todo list", err)
	}
	return t, nil
}

func (s *TodoService) Update(ctx context.Context, id int64, in UpdateInput) (*todo.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: todo not found", zap.Int64("todo_id", id))
			return nil, NewNotFound("Todo list not found")
		}
		logger.Error("Service: get failed", err)
		return nil, NewPersistenceError("Failed to update todo list", err)
	}

	if violations := in.Validate(s.now()); len(violations) > 0 {
		logger.Warn("Service: update validation failed",
			zap.Int64("todo_id", id),
			zap.Int("violations", len(violations)))
		return nil, NewValidationError(violations)
	}

	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Assignee != nil {
		t.Assignee = *in.Assignee
	}
	if in.DueDate != nil {
		t.DueDate = todo.DateOnly(*in.DueDate)
	}
	if in.Status != nil {
		t.Status = todo.Status(*in.Status)
	}
	if in.Priority != nil {
		if *in.Priority == "" {
			t.Priority = nil
		} else {
			p := todo.Priority(*in.Priority)
			t.Priority = &p
		}
	}
	if in.Type != nil {
		if *in.Type == "" {
			t.Type = nil
		} else {
			tt := todo.TodoType(*in.Type)
			t.Type = &tt
		}
	}
	if in.EstimatedSP != nil {
		t.EstimatedSP = in.EstimatedSP
	}
	if in.ActualSP != nil {
		t.ActualSP = in.ActualSP
	}

	if err := s.repo.Update(ctx, t); err != nil {
		// the row can vanish between the read and the write
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("Todo list not found")
		}
		logger.Error("Service: update failed", err)
		return nil, NewPersistenceError("Failed to update todo list", err)
	}

	s.relay.Publish(events.TodoUpdated, t)

	logger.Info("Service: todo updated", zap.Int64("todo_id", t.ID))
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, id int64) (int64, error) {
	t, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: todo not found", zap.Int64("todo_id", id))
			return 0, NewNotFound("Todo list not found")
		}
		logger.Error("Service: delete failed", err)
		return 0, NewPersistenceError("Failed to delete todo list", err)
	}

	s.relay.Publish(events.TodoDeleted, events.DeletedPayload{ID: t.ID, Title: t.Title})

	logger.Info("Service: todo deleted", zap.Int64("todo_id", t.ID))
	return t.ID, nil
}

func (s *TodoService) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, NewValidationError([]Violation{{Field: "ids", Reason: "must contain at least one id"}})
	}

	count, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		logger.Error("Service: bulk delete failed", err)
		return 0, NewPersistenceError("Failed to delete todo lists", err)
	}
	if count == 0 {
		logger.Info("Service: bulk delete matched nothing", zap.Int("requested", len(ids)))
		return 0, NewNotFound("No todo lists found to delete")
	}

	s.relay.Publish(events.TodoBulkDeleted, events.BulkDeletedPayload{IDs: ids, Count: count})

	logger.Info("Service: todos bulk deleted",
		zap.Int("requested", len(ids)),
		zap.Int64("deleted", count))
	return count, nil
}

func (s *TodoService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
