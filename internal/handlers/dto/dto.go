package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"todolist/internal/models/todo"
	"todolist/internal/service"
)

const dateLayout = "2006-01-02"

type CreateTodoRequest struct {
	Task        *string `json:"task"`
	Developer   *string `json:"developer"`
	DueDate     *string `json:"due_date"`
	TimeTracked *int    `json:"time_tracked"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Type        *string `json:"type"`
	EstimatedSP *int    `json:"estimated_sp"`
	ActualSP    *int    `json:"actual_sp"`
}

// ToInput converts the request into a service input, parsing the due
// date. A malformed date is a field violation, not a decode error.
func (r CreateTodoRequest) ToInput() (service.CreateInput, []service.Violation) {
	in := service.CreateInput{
		Title:       r.Task,
		Assignee:    r.Developer,
		TimeTracked: r.TimeTracked,
		Status:      r.Status,
		Priority:    r.Priority,
		Type:        r.Type,
		EstimatedSP: r.EstimatedSP,
		ActualSP:    r.ActualSP,
	}

	if r.DueDate != nil && *r.DueDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, *r.DueDate, time.Local)
		if err != nil {
			return in, []service.Violation{{Field: "due_date", Reason: fmt.Sprintf("must be a date in %s format", dateLayout)}}
		}
		in.DueDate = &parsed
	}
	return in, nil
}

// UpdateTodoRequest mirrors the partial-update body. Developer accepts
// either a comma-delimited string or a list of names.
type UpdateTodoRequest struct {
	Task        *string         `json:"task"`
	Developer   json.RawMessage `json:"developer"`
	Date        *string         `json:"date"`
	Status      *string         `json:"status"`
	Priority    *string         `json:"priority"`
	Type        *string         `json:"type"`
	EstimatedSP *int            `json:"estimated_sp"`
	ActualSP    *int            `json:"actual_sp"`
}

func (r UpdateTodoRequest) ToInput() (service.UpdateInput, []service.Violation) {
	in := service.UpdateInput{
		Title:       r.Task,
		Status:      r.Status,
		Priority:    r.Priority,
		Type:        r.Type,
		EstimatedSP: r.EstimatedSP,
		ActualSP:    r.ActualSP,
	}

	if len(r.Developer) > 0 && string(r.Developer) != "null" {
		assignee, err := decodeDeveloper(r.Developer)
		if err != nil {
			return in, []service.Violation{{Field: "developer", Reason: "must be a string or a list of names"}}
		}
		in.Assignee = &assignee
	}

	if r.Date != nil && *r.Date != "" {
		parsed, err := time.ParseInLocation(dateLayout, *r.Date, time.Local)
		if err != nil {
			return in, []service.Violation{{Field: "date", Reason: fmt.Sprintf("must be a date in %s format", dateLayout)}}
		}
		in.DueDate = &parsed
	}
	return in, nil
}

func decodeDeveloper(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", err
	}
	return todo.JoinAssignees(list), nil
}

type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}
