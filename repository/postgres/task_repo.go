package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const taskColumns = `id, user_id, title, completed, priority, due_date, position, created_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	if !isUUID(id) {
		return nil, domain.ErrTaskNotFound
	}
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1 AND user_id = $2
	`
	row := r.pool.QueryRow(ctx, query, id, ownerID)
	return scanTask(row)
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	ORDER BY position ASC, created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	return collectTasks(rows)
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, completed, priority, due_date, position, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
	RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Completed,
		string(task.Priority),
		nullableTime(task.DueDate),
		task.Position,
		nullTime(task.CreatedAt),
	).Scan(&task.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $3,
		completed = $4,
		priority = $5,
		due_date = $6,
		position = $7
	WHERE id = $1 AND user_id = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Completed,
		string(task.Priority),
		nullableTime(task.DueDate),
		task.Position,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id string) error {
	if !isUUID(id) {
		return domain.ErrTaskNotFound
	}
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Reorder locks the owner's rows for the duration of the transaction so
// concurrent reorders by the same user serialize; the last commit wins.
func (r *taskRepository) Reorder(ctx context.Context, ownerID string, plan repository.ReorderPlanner) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const selectQuery = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	ORDER BY position ASC, created_at ASC, id ASC
	FOR UPDATE
	`
	rows, err := tx.Query(ctx, selectQuery, ownerID)
	if err != nil {
		return fmt.Errorf("lock tasks: %w", err)
	}
	current, err := collectTasks(rows)
	if err != nil {
		return err
	}

	changes, err := plan(current)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return tx.Commit(ctx)
	}

	ids := make([]string, len(changes))
	positions := make([]int32, len(changes))
	for i, change := range changes {
		ids[i] = change.TaskID
		positions[i] = int32(change.Position)
	}

	const updateQuery = `
	UPDATE tasks AS t
	SET position = v.position
	FROM unnest($1::text[], $2::int4[]) AS v(id, position)
	WHERE t.id = v.id::uuid AND t.user_id = $3
	`
	tag, err := tx.Exec(ctx, updateQuery, ids, positions, ownerID)
	if err != nil {
		return fmt.Errorf("update positions: %w", err)
	}
	if int(tag.RowsAffected()) != len(changes) {
		return fmt.Errorf("update positions: %d of %d rows changed", tag.RowsAffected(), len(changes))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task     domain.Task
		priority string
		due      *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Completed,
		&priority,
		&due,
		&task.Position,
		&task.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Priority = domain.Priority(priority)
	task.DueDate = due
	return &task, nil
}
