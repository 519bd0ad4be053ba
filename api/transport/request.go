package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fastygo/todo/domain"
)

// Optional distinguishes an absent JSON key from an explicit null.
// UnmarshalJSON only runs when the key is present.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

type TaskCreateRequest struct {
	Title     string  `json:"title"`
	Completed bool    `json:"completed"`
	Priority  string  `json:"priority"`
	DueDate   *string `json:"due_date"`
	Position  *int    `json:"position"`
}

func (r TaskCreateRequest) ToDraft() (domain.TaskDraft, error) {
	draft := domain.TaskDraft{
		Title:     r.Title,
		Completed: r.Completed,
		Priority:  r.Priority,
		Position:  r.Position,
	}
	if r.DueDate != nil && *r.DueDate != "" {
		due, err := parseDueDate(*r.DueDate)
		if err != nil {
			return domain.TaskDraft{}, err
		}
		draft.DueDate = &due
	}
	return draft, nil
}

type TaskPatchRequest struct {
	Title     Optional[string] `json:"title"`
	Completed Optional[bool]   `json:"completed"`
	Priority  Optional[string] `json:"priority"`
	DueDate   Optional[string] `json:"due_date"`
	Position  Optional[int]    `json:"position"`
}

// ToPatch converts the request. due_date is the only field that accepts null.
func (r TaskPatchRequest) ToPatch() (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	fields := map[string]string{}

	if r.Title.Set {
		if r.Title.Null {
			fields["title"] = "must not be null"
		} else {
			patch.Title = &r.Title.Value
		}
	}
	if r.Completed.Set {
		if r.Completed.Null {
			fields["completed"] = "must not be null"
		} else {
			patch.Completed = &r.Completed.Value
		}
	}
	if r.Priority.Set {
		if r.Priority.Null {
			fields["priority"] = "must not be null"
		} else {
			patch.Priority = &r.Priority.Value
		}
	}
	if r.Position.Set {
		if r.Position.Null {
			fields["position"] = "must not be null"
		} else {
			patch.Position = &r.Position.Value
		}
	}
	if r.DueDate.Set {
		if r.DueDate.Null || r.DueDate.Value == "" {
			patch.ClearDueDate = true
		} else if due, err := parseDueDate(r.DueDate.Value); err != nil {
			fields["due_date"] = domain.FieldsOf(err)["due_date"]
		} else {
			patch.DueDate = &due
		}
	}

	if len(fields) > 0 {
		return domain.TaskPatch{}, domain.NewValidationError(fields)
	}
	return patch, nil
}

// ReorderRequest keeps order elements raw so non-string ids can be reported
// by index instead of failing the whole decode.
type ReorderRequest struct {
	Order *[]json.RawMessage `json:"order"`
}

func (r ReorderRequest) ToOrder() ([]string, error) {
	if r.Order == nil {
		return nil, domain.FieldError("order", "is required")
	}
	ids := make([]string, 0, len(*r.Order))
	for i, raw := range *r.Order {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, domain.FieldError(fmt.Sprintf("order[%d]", i),
				fmt.Sprintf("%s is not a valid task id", bytes.TrimSpace(raw)))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (r RegisterRequest) ToRegistration() domain.Registration {
	return domain.Registration{Username: r.Username, Password: r.Password, Email: r.Email}
}

type ProfileUpdateRequest struct {
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
}

func (r ProfileUpdateRequest) ToPatch() domain.ProfilePatch {
	return domain.ProfilePatch{Email: r.Email, Bio: r.Bio, Location: r.Location}
}

type TokenObtainRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenRefreshRequest struct {
	Refresh string `json:"refresh"`
}

func parseDueDate(raw string) (time.Time, error) {
	due, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.FieldError("due_date", "must be an RFC 3339 timestamp")
	}
	return due.UTC(), nil
}
