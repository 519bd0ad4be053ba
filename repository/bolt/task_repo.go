package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/internal/infrastructure/boltdb"
	"github.com/fastygo/todo/repository"
)

// taskRecord is the persisted form of a task.
type taskRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	Priority  string     `json:"priority"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
}

func newTaskRecord(t *domain.Task) taskRecord {
	return taskRecord{
		ID:        t.ID,
		UserID:    t.UserID,
		Title:     t.Title,
		Completed: t.Completed,
		Priority:  string(t.Priority),
		DueDate:   t.DueDate,
		Position:  t.Position,
		CreatedAt: t.CreatedAt,
	}
}

func (r taskRecord) toDomain() domain.Task {
	return domain.Task{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Completed: r.Completed,
		Priority:  domain.Priority(r.Priority),
		DueDate:   r.DueDate,
		Position:  r.Position,
		CreatedAt: r.CreatedAt,
	}
}

type taskRepository struct {
	db *bbolt.DB
}

// NewTaskRepository returns a BoltDB-backed TaskRepository. Tasks live in one
// bucket keyed by id; a nested bucket per owner indexes the owner's task ids.
func NewTaskRepository(store *boltdb.Store) repository.TaskRepository {
	return &taskRepository{db: store.DB()}
}

func (r *taskRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var task domain.Task
	err := r.db.View(func(tx *bbolt.Tx) error {
		rec, err := getTask(tx, id)
		if err != nil {
			return err
		}
		if rec.UserID != ownerID {
			return domain.ErrTaskNotFound
		}
		task = rec.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var tasks []domain.Task
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		tasks, err = ownerTasks(tx, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	err := r.db.Update(func(tx *bbolt.Tx) error {
		if err := putTask(tx, newTaskRecord(task)); err != nil {
			return err
		}
		owner, err := tx.Bucket([]byte(boltdb.BucketOwnerTasks)).CreateBucketIfNotExists([]byte(task.UserID))
		if err != nil {
			return err
		}
		return owner.Put([]byte(task.ID), []byte{})
	})
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		existing, err := getTask(tx, task.ID)
		if err != nil {
			return err
		}
		if existing.UserID != task.UserID {
			return domain.ErrTaskNotFound
		}
		rec := newTaskRecord(task)
		rec.CreatedAt = existing.CreatedAt
		return putTask(tx, rec)
	})
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		existing, err := getTask(tx, id)
		if err != nil {
			return err
		}
		if existing.UserID != ownerID {
			return domain.ErrTaskNotFound
		}
		if err := tx.Bucket([]byte(boltdb.BucketTasks)).Delete([]byte(id)); err != nil {
			return err
		}
		if owner := tx.Bucket([]byte(boltdb.BucketOwnerTasks)).Bucket([]byte(ownerID)); owner != nil {
			return owner.Delete([]byte(id))
		}
		return nil
	})
}

// Reorder runs inside a single write transaction; bbolt allows one writer at a
// time, so concurrent reorders serialize and the last commit wins.
func (r *taskRepository) Reorder(ctx context.Context, ownerID string, plan repository.ReorderPlanner) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		current, err := ownerTasks(tx, ownerID)
		if err != nil {
			return err
		}
		changes, err := plan(current)
		if err != nil {
			return err
		}
		for _, change := range changes {
			rec, err := getTask(tx, change.TaskID)
			if err != nil {
				return err
			}
			if rec.UserID != ownerID {
				return domain.ErrTaskNotFound
			}
			rec.Position = change.Position
			if err := putTask(tx, *rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func getTask(tx *bbolt.Tx, id string) (*taskRecord, error) {
	raw := tx.Bucket([]byte(boltdb.BucketTasks)).Get([]byte(id))
	if raw == nil {
		return nil, domain.ErrTaskNotFound
	}
	var rec taskRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", id, err)
	}
	return &rec, nil
}

func putTask(tx *bbolt.Tx, rec taskRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(boltdb.BucketTasks)).Put([]byte(rec.ID), payload)
}

func ownerTasks(tx *bbolt.Tx, ownerID string) ([]domain.Task, error) {
	tasks := []domain.Task{}
	owner := tx.Bucket([]byte(boltdb.BucketOwnerTasks)).Bucket([]byte(ownerID))
	if owner == nil {
		return tasks, nil
	}
	err := owner.ForEach(func(k, _ []byte) error {
		rec, err := getTask(tx, string(k))
		if err != nil {
			return err
		}
		tasks = append(tasks, rec.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	domain.SortByPosition(tasks)
	return tasks, nil
}
