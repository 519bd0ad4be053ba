package task

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/internal/infrastructure/boltdb"
	boltRepo "github.com/fastygo/todo/repository/bolt"
)

func newUseCase(t *testing.T, cfg Config) *UseCase {
	t.Helper()
	store, err := boltdb.Open(filepath.Join(t.TempDir(), "tasks.db"), time.Second)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(boltRepo.NewTaskRepository(store), cfg, nil)
}

func create(t *testing.T, uc *UseCase, owner, title string) *domain.Task {
	t.Helper()
	task, err := uc.CreateTask(context.Background(), owner, domain.TaskDraft{Title: title})
	if err != nil {
		t.Fatalf("CreateTask(%s) failed: %v", title, err)
	}
	return task
}

func TestCreateListDelete(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t, Config{})
	owner := uuid.NewString()
	create(t, uc, owner, "Existing")

	milk, err := uc.CreateTask(ctx, owner, domain.TaskDraft{Title: "Buy milk", Priority: "L"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if milk.Position != 0 || milk.Priority != domain.PriorityLow {
		t.Errorf("created = %+v, want position 0 priority L", milk)
	}

	page, err := uc.ListTasks(ctx, owner, domain.TaskQuery{}, PageRequest{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if page.Count != 2 {
		t.Fatalf("Count = %d, want 2", page.Count)
	}

	if err := uc.DeleteTask(ctx, owner, milk.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	page, _ = uc.ListTasks(ctx, owner, domain.TaskQuery{}, PageRequest{})
	if page.Count != 1 {
		t.Errorf("Count after delete = %d, want 1", page.Count)
	}
	for _, task := range page.Tasks {
		if task.ID == milk.ID {
			t.Error("deleted task still listed")
		}
	}
}

func TestNonOwnerSeesNotFound(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t, Config{})
	owner := uuid.NewString()
	intruder := uuid.NewString()
	task := create(t, uc, owner, "private")

	if _, err := uc.GetTask(ctx, intruder, task.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("GetTask err = %v, want NOT_FOUND", err)
	}
	title := "mine now"
	if _, err := uc.UpdateTask(ctx, intruder, task.ID, domain.TaskPatch{Title: &title}); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("UpdateTask err = %v, want NOT_FOUND", err)
	}
	if err := uc.DeleteTask(ctx, intruder, task.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("DeleteTask err = %v, want NOT_FOUND", err)
	}
}

func TestReorder(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t, Config{})
	owner := uuid.NewString()
	a := create(t, uc, owner, "A")
	b := create(t, uc, owner, "B")
	c := create(t, uc, owner, "C")
	d := create(t, uc, owner, "D")
	if err := uc.Reorder(ctx, owner, []string{a.ID, b.ID, c.ID}); err != nil {
		t.Fatalf("initial Reorder failed: %v", err)
	}
	pos := func() map[string]int {
		page, err := uc.ListTasks(ctx, owner, domain.TaskQuery{}, PageRequest{})
		if err != nil {
			t.Fatalf("ListTasks failed: %v", err)
		}
		out := map[string]int{}
		for _, task := range page.Tasks {
			out[task.ID] = task.Position
		}
		return out
	}
	dBefore := pos()[d.ID]

	if err := uc.Reorder(ctx, owner, []string{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	got := pos()
	if got[c.ID] != 0 || got[a.ID] != 1 || got[b.ID] != 2 {
		t.Errorf("positions = C:%d A:%d B:%d, want 0 1 2", got[c.ID], got[a.ID], got[b.ID])
	}
	if got[d.ID] != dBefore {
		t.Errorf("unlisted task moved from %d to %d", dBefore, got[d.ID])
	}
}

func TestReorderRejections(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t, Config{})
	owner := uuid.NewString()
	a := create(t, uc, owner, "A")
	b := create(t, uc, owner, "B")
	foreign := create(t, uc, uuid.NewString(), "X")

	tests := []struct {
		name  string
		order []string
	}{
		{"foreign task", []string{b.ID, a.ID, foreign.ID}},
		{"unknown task", []string{b.ID, uuid.NewString()}},
		{"duplicate", []string{b.ID, a.ID, b.ID}},
		{"malformed id", []string{b.ID, "7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := uc.Reorder(ctx, owner, tt.order); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
				t.Fatalf("Reorder err = %v, want INVALID", err)
			}
			gotA, _ := uc.GetTask(ctx, owner, a.ID)
			gotB, _ := uc.GetTask(ctx, owner, b.ID)
			if gotA.Position != 0 || gotB.Position != 0 {
				t.Errorf("positions changed: A=%d B=%d", gotA.Position, gotB.Position)
			}
		})
	}

	if err := uc.Reorder(ctx, owner, []string{}); err != nil {
		t.Errorf("empty Reorder err = %v, want nil", err)
	}
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t, Config{DefaultPageSize: 2, MaxPageSize: 3})
	owner := uuid.NewString()
	for _, title := range []string{"1", "2", "3", "4", "5"} {
		create(t, uc, owner, title)
	}

	tests := []struct {
		name      string
		req       PageRequest
		wantLen   int
		wantSize  int
		wantPages int
		hasNext   bool
		hasPrev   bool
	}{
		{"default size", PageRequest{}, 2, 2, 3, true, false},
		{"capped size", PageRequest{PageSize: 50}, 3, 3, 2, true, false},
		{"last page", PageRequest{Page: 3}, 1, 2, 3, false, true},
		{"past the end", PageRequest{Page: 9}, 0, 2, 3, false, true},
		{"page near int max", PageRequest{Page: math.MaxInt}, 0, 2, 3, false, true},
		{"page near int max with size", PageRequest{Page: math.MaxInt / 2, PageSize: 3}, 0, 3, 2, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := uc.ListTasks(ctx, owner, domain.TaskQuery{}, tt.req)
			if err != nil {
				t.Fatalf("ListTasks failed: %v", err)
			}
			if len(page.Tasks) != tt.wantLen || page.PageSize != tt.wantSize || page.TotalPages != tt.wantPages {
				t.Errorf("len/size/pages = %d/%d/%d, want %d/%d/%d",
					len(page.Tasks), page.PageSize, page.TotalPages, tt.wantLen, tt.wantSize, tt.wantPages)
			}
			if page.HasNext != tt.hasNext || page.HasPrev != tt.hasPrev {
				t.Errorf("next/prev = %v/%v, want %v/%v", page.HasNext, page.HasPrev, tt.hasNext, tt.hasPrev)
			}
			if page.Count != 5 {
				t.Errorf("Count = %d, want 5", page.Count)
			}
		})
	}

	if _, err := uc.ListTasks(ctx, owner, domain.TaskQuery{}, PageRequest{Page: -1}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Errorf("negative page err = %v, want INVALID", err)
	}
}

func TestListFiltersWithFixedNow(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t, Config{})
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }
	owner := uuid.NewString()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	overdue, _ := uc.CreateTask(ctx, owner, domain.TaskDraft{Title: "late", DueDate: &past})
	uc.CreateTask(ctx, owner, domain.TaskDraft{Title: "soon", DueDate: &future})
	uc.CreateTask(ctx, owner, domain.TaskDraft{Title: "done", Completed: true, DueDate: &past})

	query, _ := domain.ParseTaskQuery(domain.TaskQueryParams{Status: "overdue"})
	page, err := uc.ListTasks(ctx, owner, query, PageRequest{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if page.Count != 1 || page.Tasks[0].ID != overdue.ID {
		t.Errorf("overdue = %+v, want only %q", page.Tasks, "late")
	}
}
