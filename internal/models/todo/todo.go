package todo

import (
	"strings"
	"time"
)

// Todo is the stored task record. Assignee keeps the original
// comma-delimited text form; AssigneeList derives the list view from it.
type Todo struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Assignee    string    `json:"assigne" db:"assigne"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	TimeTracked int       `json:"time_tracked" db:"time_tracked"`
	Status      Status    `json:"status" db:"status"`
	Priority    *Priority `json:"priority" db:"priority"`
	Type        *TodoType `json:"type" db:"type"`
	EstimatedSP *int      `json:"estimated_sp" db:"estimated_sp"`
	ActualSP    *int      `json:"actual_sp" db:"actual_sp"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Status string
type Priority string
type TodoType string

const (
	StatusPending    Status = "pending"
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusStuck      Status = "stuck"
	StatusCompleted  Status = "completed"
)

const (
	PriorityLow        Priority = "low"
	PriorityMedium     Priority = "medium"
	PriorityHigh       Priority = "high"
	PriorityCritical   Priority = "critical"
	PriorityBestEffort Priority = "best_effort"
)

const (
	TypeFeatureEnhancements TodoType = "feature_enhancements"
	TypeBug                 TodoType = "bug"
	TypeOther               TodoType = "other"
)

// AllStatuses is ordered the way the chart summaries report them.
var AllStatuses = []Status{
	StatusPending,
	StatusOpen,
	StatusInProgress,
	StatusStuck,
	StatusCompleted,
}

var AllPriorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
	PriorityBestEffort,
}

var AllTypes = []TodoType{
	TypeFeatureEnhancements,
	TypeBug,
	TypeOther,
}

func ValidStatus(s Status) bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func ValidPriority(p Priority) bool {
	for _, v := range AllPriorities {
		if p == v {
			return true
		}
	}
	return false
}

func ValidType(t TodoType) bool {
	for _, v := range AllTypes {
		if t == v {
			return true
		}
	}
	return false
}

func (t *Todo) AssigneeList() []string {
	return SplitAssignees(t.Assignee)
}

// SplitAssignees splits the delimited assignee text on commas, trimming
// whitespace and dropping empty tokens. Duplicates and order are kept.
func SplitAssignees(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinAssignees is the inverse of SplitAssignees for list-shaped input.
func JoinAssignees(names []string) string {
	if len(names) == 0 {
		return ""
	}
	trimmed := make([]string, len(names))
	for i, n := range names {
		trimmed[i] = strings.TrimSpace(n)
	}
	return strings.Join(trimmed, ",")
}

// FormatEnum renders an enum value human-readable: "in_progress" -> "In Progress".
func FormatEnum(value string) string {
	if value == "" {
		return ""
	}
	words := strings.Split(value, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// FormatDate renders a due date as "02 Jan, 2006".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan, 2006")
}

// DateOnly truncates a timestamp to its calendar date in local time.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ListItem is the projection List responses are shaped into. Field names
// follow the public API: task/developer/date rather than the storage names.
type ListItem struct {
	ID          int64    `json:"id"`
	Task        string   `json:"task"`
	Developer   []string `json:"developer"`
	Date        string   `json:"date"`
	TimeTracked int      `json:"time_tracked"`
	Status      string   `json:"status"`
	StatusRaw   Status   `json:"status_raw"`
	Priority    string   `json:"priority"`
	Type        string   `json:"type"`
	EstimatedSP *int     `json:"estimated_sp"`
	ActualSP    *int     `json:"actual_sp"`
}

func NewListItem(t *Todo) ListItem {
	item := ListItem{
		ID:          t.ID,
		Task:        t.Title,
		Developer:   t.AssigneeList(),
		Date:        FormatDate(t.DueDate),
		TimeTracked: t.TimeTracked,
		Status:      FormatEnum(string(t.Status)),
		StatusRaw:   t.Status,
		EstimatedSP: t.EstimatedSP,
		ActualSP:    t.ActualSP,
	}
	if t.Priority != nil {
		item.Priority = FormatEnum(string(*t.Priority))
	}
	if t.Type != nil {
		item.Type = FormatEnum(string(*t.Type))
	}
	return item
}

func NewListItems(todos []*Todo) []ListItem {
	items := make([]ListItem, len(todos))
	for i, t := range todos {
		items[i] = NewListItem(t)
	}
	return items
}
