package service

import (
	"fmt"
	"time"

	"todolist/internal/models/todo"
)

const maxTextLength = 255

// CreateInput carries the optional creation fields. Nil means absent and
// triggers the documented default during normalization.
type CreateInput struct {
	Title       *string
	Assignee    *string
	DueDate     *time.Time
	TimeTracked *int
	Status      *string
	Priority    *string
	Type        *string
	EstimatedSP *int
	ActualSP    *int
}

// UpdateInput carries the partial-update fields. Nil means "leave
// untouched". The original API does not expose time_tracked on update.
type UpdateInput struct {
	Title       *string
	Assignee    *string
	DueDate     *time.Time
	Status      *string
	Priority    *string
	Type        *string
	EstimatedSP *int
	ActualSP    *int
}

// Validate checks the supplied fields only. now anchors the past-date rule
// (today is allowed, yesterday is not).
func (in CreateInput) Validate(now time.Time) []Violation {
	var violations []Violation

	violations = append(violations, validateText("task", in.Title)...)
	violations = append(violations, validateText("developer", in.Assignee)...)
	violations = append(violations, validateDueDate("due_date", in.DueDate, now)...)
	violations = append(violations, validateNonNegative("time_tracked", in.TimeTracked)...)
	violations = append(violations, validateEnums(in.Status, in.Priority, in.Type)...)
	violations = append(violations, validateNonNegative("estimated_sp", in.EstimatedSP)...)
	violations = append(violations, validateNonNegative("actual_sp", in.ActualSP)...)

	return violations
}

func (in UpdateInput) Validate(now time.Time) []Violation {
	var violations []Violation

	violations = append(violations, validateText("task", in.Title)...)
	violations = append(violations, validateText("developer", in.Assignee)...)
	violations = append(violations, validateDueDate("date", in.DueDate, now)...)
	violations = append(violations, validateEnums(in.Status, in.Priority, in.Type)...)
	violations = append(violations, validateNonNegative("estimated_sp", in.EstimatedSP)...)
	violations = append(violations, validateNonNegative("actual_sp", in.ActualSP)...)

	return violations
}

func validateText(field string, v *string) []Violation {
	if v != nil && len(*v) > maxTextLength {
		return []Violation{{Field: field, Reason: fmt.Sprintf("must not exceed %d characters", maxTextLength)}}
	}
	return nil
}

func validateDueDate(field string, v *time.Time, now time.Time) []Violation {
	if v != nil && todo.DateOnly(*v).Before(todo.DateOnly(now)) {
		return []Violation{{Field: field, Reason: "cannot be in the past, choose today or a future date"}}
	}
	return nil
}

func validateNonNegative(field string, v *int) []Violation {
	if v != nil && *v < 0 {
		return []Violation{{Field: field, Reason: "must not be negative"}}
	}
	return nil
}

func validateEnums(status, priority, todoType *string) []Violation {
	var violations []Violation
	if status != nil && !todo.ValidStatus(todo.Status(*status)) {
		violations = append(violations, Violation{Field: "status", Reason: "must be one of: pending, open, in_progress, stuck, completed"})
	}
	if priority != nil && *priority != "" && !todo.ValidPriority(todo.Priority(*priority)) {
		violations = append(violations, Violation{Field: "priority", Reason: "must be one of: low, medium, high, critical, best_effort"})
	}
	if todoType != nil && *todoType != "" && !todo.ValidType(todo.TodoType(*todoType)) {
		violations = append(violations, Violation{Field: "type", Reason: "must be one of: feature_enhancements, bug, other"})
	}
	return violations
}
