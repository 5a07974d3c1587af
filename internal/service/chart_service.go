package service

import (
	"context"

	"todolist/internal/logger"
	"todolist/internal/models/todo"
	"todolist/internal/repository"
)

// ChartService computes the group-by summaries behind the chart endpoint.
type ChartService struct {
	repo repository.TodoRepository
}

func NewChartService(repo repository.TodoRepository) *ChartService {
	return &ChartService{repo: repo}
}

// StatusSummary returns a count for every declared status, zero-filled.
// The output always has exactly five keys.
func (s *ChartService) StatusSummary(ctx context.Context) (map[todo.Status]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		logger.Error("Service: status summary failed", err)
		return nil, NewPersistenceError("An error occurred while generating chart data", err)
	}

	summary := make(map[todo.Status]int, len(todo.AllStatuses))
	for _, status := range todo.AllStatuses {
		summary[status] = counts[status]
	}
	return summary, nil
}

// PrioritySummary mirrors StatusSummary over the five priority values.
// Records without a priority fall into no bucket.
func (s *ChartService) PrioritySummary(ctx context.Context) (map[todo.Priority]int, error) {
	counts, err := s.repo.CountByPriority(ctx)
	if err != nil {
		logger.Error("Service: priority summary failed", err)
		return nil, NewPersistenceError("An error occurred while generating chart data", err)
	}

	summary := make(map[todo.Priority]int, len(todo.AllPriorities))
	for _, priority := range todo.AllPriorities {
		summary[priority] = counts[priority]
	}
	return summary, nil
}

// AssigneeSummary derives the distinct assignee set from the delimited
// fields, then counts per name by substring containment against the raw
// field. "Ana" therefore also counts rows assigned to "Ana Banana"; that
// matches the public API and stays.
func (s *ChartService) AssigneeSummary(ctx context.Context) ([]map[string]repository.AssigneeStats, error) {
	fields, err := s.repo.AssigneeFields(ctx)
	if err != nil {
		logger.Error("Service: assignee summary failed", err)
		return nil, NewPersistenceError("An error occurred while generating chart data", err)
	}

	seen := map[string]bool{}
	names := []string{}
	for _, field := range fields {
		for _, name := range todo.SplitAssignees(field) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	summary := make([]map[string]repository.AssigneeStats, 0, len(names))
	for _, name := range names {
		stats, err := s.repo.AssigneeStats(ctx, name)
		if err != nil {
			logger.Error("Service: assignee stats failed", err)
			return nil, NewPersistenceError("An error occurred while generating chart data", err)
		}
		summary = append(summary, map[string]repository.AssigneeStats{name: stats})
	}
	return summary, nil
}
