package domain

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// FilterKind enumerates the supported task predicates.
type FilterKind int

const (
	FilterSearch FilterKind = iota + 1
	FilterStatus
	FilterPriority
	FilterCompleted
)

// Filter is one predicate over a task. Only the value matching Kind is meaningful.
type Filter struct {
	Kind      FilterKind
	Search    string
	Status    Status
	Priority  Priority
	Completed bool
}

// Match reports whether task satisfies the filter at instant now.
func (f Filter) Match(task *Task, now time.Time) bool {
	switch f.Kind {
	case FilterSearch:
		return containsFold(task.Title, f.Search)
	case FilterStatus:
		return task.StatusAt(now) == f.Status
	case FilterPriority:
		return task.Priority == f.Priority
	case FilterCompleted:
		return task.Completed == f.Completed
	default:
		return true
	}
}

// TaskQuery is a conjunction of filters. The zero value matches every task.
type TaskQuery struct {
	Filters []Filter
}

// TaskQueryParams holds raw query string values. Empty values mean "no constraint".
type TaskQueryParams struct {
	Search    string
	Status    string
	Priority  string
	Completed string
}

// ParseTaskQuery validates raw parameters. Unknown status, priority or completed
// values are rejected with the offending field named.
func ParseTaskQuery(params TaskQueryParams) (TaskQuery, error) {
	var (
		query  TaskQuery
		fields = map[string]string{}
	)

	if params.Search != "" {
		query.Filters = append(query.Filters, Filter{Kind: FilterSearch, Search: params.Search})
	}
	if params.Status != "" {
		status, ok := ParseStatus(params.Status)
		if !ok {
			fields["status"] = "must be one of completed, active, overdue"
		} else {
			query.Filters = append(query.Filters, Filter{Kind: FilterStatus, Status: status})
		}
	}
	if params.Priority != "" {
		priority, ok := ParsePriority(params.Priority)
		if !ok {
			fields["priority"] = "must be one of L, M, H, U"
		} else {
			query.Filters = append(query.Filters, Filter{Kind: FilterPriority, Priority: priority})
		}
	}
	if params.Completed != "" {
		completed, err := strconv.ParseBool(strings.TrimSpace(params.Completed))
		if err != nil {
			fields["completed"] = "must be a boolean"
		} else {
			query.Filters = append(query.Filters, Filter{Kind: FilterCompleted, Completed: completed})
		}
	}

	if len(fields) > 0 {
		return TaskQuery{}, NewValidationError(fields)
	}
	return query, nil
}

// Match reports whether task satisfies every filter of the query.
func (q TaskQuery) Match(task *Task, now time.Time) bool {
	for _, f := range q.Filters {
		if !f.Match(task, now) {
			return false
		}
	}
	return true
}

// Apply returns the matching tasks, preserving input order.
func (q TaskQuery) Apply(tasks []Task, now time.Time) []Task {
	if len(q.Filters) == 0 {
		return tasks
	}
	matched := make([]Task, 0, len(tasks))
	for i := range tasks {
		if q.Match(&tasks[i], now) {
			matched = append(matched, tasks[i])
		}
	}
	return matched
}

func containsFold(s, substr string) bool {
	folder := cases.Fold()
	return strings.Contains(folder.String(s), folder.String(substr))
}
