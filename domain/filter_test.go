package domain

import (
	"testing"
	"time"
)

var refNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func fixtureTasks() []Task {
	return []Task{
		{ID: "done-past", Title: "Pay rent", Completed: true, Priority: PriorityHigh, DueDate: at(refNow.Add(-time.Hour)), Position: 0},
		{ID: "done-none", Title: "Buy MILK", Completed: true, Priority: PriorityLow, Position: 1},
		{ID: "open-past", Title: "User1 Todo 1", Priority: PriorityUrgent, DueDate: at(refNow.Add(-time.Minute)), Position: 2},
		{ID: "open-future", Title: "Write report", Priority: PriorityMedium, DueDate: at(refNow.Add(time.Hour)), Position: 3},
		{ID: "open-none", Title: "Call mom", Priority: PriorityMedium, Position: 4},
		{ID: "open-now", Title: "Exactly due", Priority: PriorityLow, DueDate: at(refNow), Position: 5},
	}
}

func ids(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStatusPartitionsTasks(t *testing.T) {
	tasks := fixtureTasks()
	seen := map[string]int{}
	for _, status := range []string{"completed", "active", "overdue"} {
		q, err := ParseTaskQuery(TaskQueryParams{Status: status})
		if err != nil {
			t.Fatalf("ParseTaskQuery(%s) failed: %v", status, err)
		}
		for _, task := range q.Apply(tasks, refNow) {
			seen[task.ID]++
		}
	}
	for _, task := range tasks {
		if seen[task.ID] != 1 {
			t.Errorf("task %s matched %d statuses, want exactly 1", task.ID, seen[task.ID])
		}
	}
}

func TestTaskQueryApply(t *testing.T) {
	tests := []struct {
		name   string
		params TaskQueryParams
		want   []string
	}{
		{"no filters", TaskQueryParams{}, []string{"done-past", "done-none", "open-past", "open-future", "open-none", "open-now"}},
		{"completed status", TaskQueryParams{Status: "completed"}, []string{"done-past", "done-none"}},
		{"overdue excludes completed", TaskQueryParams{Status: "overdue"}, []string{"open-past"}},
		{"active includes no due date and due now", TaskQueryParams{Status: "active"}, []string{"open-future", "open-none", "open-now"}},
		{"status is case-insensitive", TaskQueryParams{Status: "Overdue"}, []string{"open-past"}},
		{"priority code", TaskQueryParams{Priority: "M"}, []string{"open-future", "open-none"}},
		{"priority name", TaskQueryParams{Priority: "urgent"}, []string{"open-past"}},
		{"completed flag", TaskQueryParams{Completed: "false"}, []string{"open-past", "open-future", "open-none", "open-now"}},
		{"search case-insensitive", TaskQueryParams{Search: "user1"}, []string{"open-past"}},
		{"search upper query", TaskQueryParams{Search: "milk"}, []string{"done-none"}},
		{"conjunction", TaskQueryParams{Status: "active", Priority: "L"}, []string{"open-now"}},
		{"conjunction without match", TaskQueryParams{Status: "completed", Completed: "0"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseTaskQuery(tt.params)
			if err != nil {
				t.Fatalf("ParseTaskQuery failed: %v", err)
			}
			got := ids(q.Apply(fixtureTasks(), refNow))
			if !equalIDs(got, tt.want) {
				t.Errorf("Apply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTaskQueryRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name   string
		params TaskQueryParams
		fields []string
	}{
		{"status", TaskQueryParams{Status: "pending"}, []string{"status"}},
		{"priority", TaskQueryParams{Priority: "critical"}, []string{"priority"}},
		{"completed", TaskQueryParams{Completed: "maybe"}, []string{"completed"}},
		{"all at once", TaskQueryParams{Status: "x", Priority: "y", Completed: "z"}, []string{"status", "priority", "completed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaskQuery(tt.params)
			if !IsDomainError(err, ErrCodeInvalid) {
				t.Fatalf("err = %v, want INVALID", err)
			}
			fields := FieldsOf(err)
			if len(fields) != len(tt.fields) {
				t.Errorf("fields = %v, want keys %v", fields, tt.fields)
			}
			for _, f := range tt.fields {
				if _, ok := fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, fields)
				}
			}
		})
	}
}

func TestSearchUsesUnicodeFolding(t *testing.T) {
	task := Task{Title: "Straße reparieren"}
	q, _ := ParseTaskQuery(TaskQueryParams{Search: "STRASSE"})
	if !q.Match(&task, refNow) {
		t.Errorf("search %q should match %q", "STRASSE", task.Title)
	}
}
