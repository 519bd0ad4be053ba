package domain

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTitleLength bounds task titles.
const MaxTitleLength = 200

// MaxPosition matches the storage column width.
const MaxPosition = math.MaxInt32

// Priority is the importance of a task, stored as its one-letter code.
type Priority string

const (
	PriorityLow    Priority = "L"
	PriorityMedium Priority = "M"
	PriorityHigh   Priority = "H"
	PriorityUrgent Priority = "U"
)

// DefaultPriority is applied when a task is created without one.
const DefaultPriority = PriorityMedium

// ParsePriority accepts a priority code ("H") or its name ("high"), case-insensitively.
func ParsePriority(raw string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "l", "low":
		return PriorityLow, true
	case "m", "medium":
		return PriorityMedium, true
	case "h", "high":
		return PriorityHigh, true
	case "u", "urgent":
		return PriorityUrgent, true
	default:
		return "", false
	}
}

// Label returns the human readable priority name.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	default:
		return ""
	}
}

// Status is the classification derived from completed and due_date. It is never stored.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusActive    Status = "active"
	StatusOverdue   Status = "overdue"
)

// ParseStatus validates a status filter value.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusCompleted, StatusActive, StatusOverdue:
		return s, true
	default:
		return "", false
	}
}

// Task represents a user-owned activity item.
type Task struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	Priority  Priority   `json:"priority"`
	DueDate   *time.Time `json:"due_date"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
}

// StatusAt derives the task status at the given instant.
func (t *Task) StatusAt(now time.Time) Status {
	switch {
	case t.Completed:
		return StatusCompleted
	case t.DueDate != nil && t.DueDate.Before(now):
		return StatusOverdue
	default:
		return StatusActive
	}
}

// ParseTaskID normalizes a task identifier to its canonical form.
func ParseTaskID(raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// TaskDraft carries the caller-supplied fields of a new task.
type TaskDraft struct {
	Title     string
	Completed bool
	Priority  string
	DueDate   *time.Time
	Position  *int
}

// Build validates the draft and returns a task owned by ownerID. Every invalid
// field is reported at once.
func (d TaskDraft) Build(ownerID string, now time.Time) (*Task, error) {
	fields := map[string]string{}

	title := strings.TrimSpace(d.Title)
	if reason := validateTitle(title); reason != "" {
		fields["title"] = reason
	}

	priority := DefaultPriority
	if d.Priority != "" {
		p, ok := ParsePriority(d.Priority)
		if !ok {
			fields["priority"] = "must be one of L, M, H, U"
		}
		priority = p
	}

	position := 0
	if d.Position != nil {
		if reason := validatePosition(*d.Position); reason != "" {
			fields["position"] = reason
		}
		position = *d.Position
	}

	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}

	return &Task{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		Title:     title,
		Completed: d.Completed,
		Priority:  priority,
		DueDate:   d.DueDate,
		Position:  position,
		CreatedAt: now,
	}, nil
}

// TaskPatch is a partial update. Nil fields are left untouched; ClearDueDate
// removes the due date.
type TaskPatch struct {
	Title        *string
	Completed    *bool
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
	Position     *int
}

// Apply validates the patch and writes it onto task. The task is left untouched
// when validation fails.
func (p TaskPatch) Apply(task *Task) error {
	fields := map[string]string{}
	next := *task

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if reason := validateTitle(title); reason != "" {
			fields["title"] = reason
		}
		next.Title = title
	}
	if p.Completed != nil {
		next.Completed = *p.Completed
	}
	if p.Priority != nil {
		priority, ok := ParsePriority(*p.Priority)
		if !ok {
			fields["priority"] = "must be one of L, M, H, U"
		}
		next.Priority = priority
	}
	switch {
	case p.ClearDueDate:
		next.DueDate = nil
	case p.DueDate != nil:
		due := *p.DueDate
		next.DueDate = &due
	}
	if p.Position != nil {
		if reason := validatePosition(*p.Position); reason != "" {
			fields["position"] = reason
		}
		next.Position = *p.Position
	}

	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	*task = next
	return nil
}

func validateTitle(title string) string {
	switch {
	case title == "":
		return "this field is required"
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return "must be at most 200 characters"
	default:
		return ""
	}
}

func validatePosition(position int) string {
	switch {
	case position < 0:
		return "must be a non-negative integer"
	case position > MaxPosition:
		return "must be at most 2147483647"
	default:
		return ""
	}
}
