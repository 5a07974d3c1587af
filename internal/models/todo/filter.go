package todo

import (
	"strings"
	"time"
)

// Filter carries the optional report/export criteria. Every field is
// independent; criteria combine with AND, the assignee terms with OR.
// A range with a missing bound is ignored entirely rather than treated
// as one-sided.
type Filter struct {
	Title    string
	Assignee string // comma-separated substrings
	Start    *time.Time
	End      *time.Time
	MinTime  *int
	MaxTime  *int
	Status   string // comma-separated status values
	Priority string // comma-separated priority values
}

func (f Filter) AssigneeTerms() []string { return splitTerms(f.Assignee) }
func (f Filter) Statuses() []string      { return splitTerms(f.Status) }
func (f Filter) Priorities() []string    { return splitTerms(f.Priority) }

func (f Filter) HasDateRange() bool { return f.Start != nil && f.End != nil }
func (f Filter) HasTimeRange() bool { return f.MinTime != nil && f.MaxTime != nil }

// Matches evaluates the filter against a record in memory. The postgres
// repository compiles the same struct to SQL; both must agree.
func (f Filter) Matches(t *Todo) bool {
	if f.Title != "" && !containsFold(t.Title, f.Title) {
		return false
	}

	if terms := f.AssigneeTerms(); len(terms) > 0 {
		matched := false
		for _, term := range terms {
			if containsFold(t.Assignee, term) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.HasDateRange() {
		due := DateOnly(t.DueDate)
		if due.Before(DateOnly(*f.Start)) || due.After(DateOnly(*f.End)) {
			return false
		}
	}

	if f.HasTimeRange() {
		if t.TimeTracked < *f.MinTime || t.TimeTracked > *f.MaxTime {
			return false
		}
	}

	if statuses := f.Statuses(); len(statuses) > 0 {
		if !containsString(statuses, string(t.Status)) {
			return false
		}
	}

	if priorities := f.Priorities(); len(priorities) > 0 {
		if t.Priority == nil || !containsString(priorities, string(*t.Priority)) {
			return false
		}
	}

	return true
}

func splitTerms(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
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

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
