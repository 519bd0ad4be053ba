package transport

import (
	"encoding/json"
	"testing"

	"github.com/fastygo/todo/domain"
)

func TestTaskPatchRequestDistinguishesNullFromAbsent(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantClear bool
		wantDue   bool
	}{
		{"absent", `{"title":"x"}`, false, false},
		{"null", `{"due_date":null}`, true, false},
		{"empty string", `{"due_date":""}`, true, false},
		{"timestamp", `{"due_date":"2024-05-01T10:00:00+02:00"}`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req TaskPatchRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			patch, err := req.ToPatch()
			if err != nil {
				t.Fatalf("ToPatch failed: %v", err)
			}
			if patch.ClearDueDate != tt.wantClear {
				t.Errorf("ClearDueDate = %v, want %v", patch.ClearDueDate, tt.wantClear)
			}
			if (patch.DueDate != nil) != tt.wantDue {
				t.Errorf("DueDate = %v, want set=%v", patch.DueDate, tt.wantDue)
			}
		})
	}
}

func TestTaskPatchRequestRejectsNullFields(t *testing.T) {
	var req TaskPatchRequest
	if err := json.Unmarshal([]byte(`{"title":null,"priority":null,"due_date":"soon"}`), &req); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	_, err := req.ToPatch()
	fields := domain.FieldsOf(err)
	for _, f := range []string{"title", "priority", "due_date"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("fields = %v, want %q", fields, f)
		}
	}
}

func TestReorderRequestToOrder(t *testing.T) {
	var req ReorderRequest
	if err := json.Unmarshal([]byte(`{"order":["a", 12, "c"]}`), &req); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	_, err := req.ToOrder()
	if reason := domain.FieldsOf(err)["order[1]"]; reason != "12 is not a valid task id" {
		t.Errorf("order[1] reason = %q", reason)
	}

	var missing ReorderRequest
	json.Unmarshal([]byte(`{}`), &missing)
	if _, err := missing.ToOrder(); domain.FieldsOf(err)["order"] == "" {
		t.Errorf("missing order err = %v, want field order", err)
	}

	var empty ReorderRequest
	json.Unmarshal([]byte(`{"order":[]}`), &empty)
	ids, err := empty.ToOrder()
	if err != nil || len(ids) != 0 {
		t.Errorf("empty order = %v, %v; want no ids", ids, err)
	}
}
