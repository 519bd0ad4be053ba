package domain

import (
	"strings"
	"testing"
	"time"
)

func TestStatusAt(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want Status
	}{
		{"completed wins over overdue", Task{Completed: true, DueDate: at(refNow.Add(-time.Hour))}, StatusCompleted},
		{"past due", Task{DueDate: at(refNow.Add(-time.Nanosecond))}, StatusOverdue},
		{"due now is active", Task{DueDate: at(refNow)}, StatusActive},
		{"no due date", Task{}, StatusActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.StatusAt(refNow); got != tt.want {
				t.Errorf("StatusAt = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	tests := map[string]Priority{
		"L": PriorityLow, "low": PriorityLow,
		"m": PriorityMedium, "Medium": PriorityMedium,
		"H": PriorityHigh, " HIGH ": PriorityHigh,
		"U": PriorityUrgent, "urgent": PriorityUrgent,
	}
	for raw, want := range tests {
		got, ok := ParsePriority(raw)
		if !ok || got != want {
			t.Errorf("ParsePriority(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}
	if _, ok := ParsePriority("critical"); ok {
		t.Error("ParsePriority(critical) should fail")
	}
}

func TestTaskDraftBuild(t *testing.T) {
	due := refNow.Add(24 * time.Hour)
	task, err := TaskDraft{Title: "  Buy milk ", Priority: "low", DueDate: &due}.Build("owner-1", refNow)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if task.ID == "" {
		t.Error("ID should be assigned")
	}
	if task.Title != "Buy milk" {
		t.Errorf("Title = %q, want %q", task.Title, "Buy milk")
	}
	if task.Priority != PriorityLow {
		t.Errorf("Priority = %q, want L", task.Priority)
	}
	if task.Position != 0 || task.Completed {
		t.Errorf("Position/Completed = %d/%v, want 0/false", task.Position, task.Completed)
	}
	if task.UserID != "owner-1" || !task.CreatedAt.Equal(refNow) {
		t.Errorf("UserID/CreatedAt = %s/%v", task.UserID, task.CreatedAt)
	}

	defaulted, err := TaskDraft{Title: "x"}.Build("owner-1", refNow)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if defaulted.Priority != DefaultPriority {
		t.Errorf("Priority = %q, want default %q", defaulted.Priority, DefaultPriority)
	}
}

func TestTaskDraftBuildReportsEveryField(t *testing.T) {
	neg := -1
	_, err := TaskDraft{Title: "   ", Priority: "nope", Position: &neg}.Build("owner", refNow)
	fields := FieldsOf(err)
	for _, f := range []string{"title", "priority", "position"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("missing field %q in %v", f, fields)
		}
	}

	_, err = TaskDraft{Title: strings.Repeat("x", MaxTitleLength+1)}.Build("owner", refNow)
	if _, ok := FieldsOf(err)["title"]; !ok {
		t.Errorf("overlong title should be rejected, got %v", err)
	}
}

func TestPositionBounds(t *testing.T) {
	tests := []struct {
		name     string
		position int
		valid    bool
	}{
		{"zero", 0, true},
		{"max", MaxPosition, true},
		{"negative", -1, false},
		{"past column width", MaxPosition + 1, false},
		{"far past column width", 3000000000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := tt.position
			_, err := TaskDraft{Title: "x", Position: &pos}.Build("owner", refNow)
			if _, rejected := FieldsOf(err)["position"]; rejected == tt.valid {
				t.Errorf("Build(position=%d) err = %v, valid = %v", pos, err, tt.valid)
			}

			task := Task{ID: "t1", Title: "Keep", Priority: PriorityLow, Position: 7}
			err = (TaskPatch{Position: &pos}).Apply(&task)
			if _, rejected := FieldsOf(err)["position"]; rejected == tt.valid {
				t.Errorf("Apply(position=%d) err = %v, valid = %v", pos, err, tt.valid)
			}
			if !tt.valid && task.Position != 7 {
				t.Errorf("Position = %d after rejected patch, want 7", task.Position)
			}
		})
	}
}

func TestTaskPatchApply(t *testing.T) {
	due := refNow.Add(time.Hour)
	base := Task{ID: "t1", UserID: "u1", Title: "Old", Priority: PriorityMedium, DueDate: &due, Position: 3, CreatedAt: refNow}

	title := "New"
	done := true
	task := base
	if err := (TaskPatch{Title: &title, Completed: &done, ClearDueDate: true}).Apply(&task); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if task.Title != "New" || !task.Completed || task.DueDate != nil {
		t.Errorf("task = %+v", task)
	}
	if task.ID != base.ID || task.UserID != base.UserID || task.Position != 3 || task.Priority != PriorityMedium {
		t.Errorf("untouched fields changed: %+v", task)
	}
}

func TestTaskPatchApplyIsAtomic(t *testing.T) {
	base := Task{ID: "t1", Title: "Keep", Priority: PriorityHigh}
	title := "Changed"
	bad := "extreme"

	task := base
	err := (TaskPatch{Title: &title, Priority: &bad}).Apply(&task)
	if !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("err = %v, want INVALID", err)
	}
	if task != base {
		t.Errorf("task modified on failed patch: %+v", task)
	}
}
