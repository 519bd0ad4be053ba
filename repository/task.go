package repository

import (
	"context"

	"github.com/fastygo/todo/domain"
)

// ReorderPlanner receives every task of the owner, read inside the reorder
// transaction, and returns the position writes to apply. Returning an error
// aborts the transaction without writing anything.
type ReorderPlanner func(current []domain.Task) ([]domain.PositionChange, error)

// TaskRepository persists tasks. Every method is scoped to a single owner: a task
// belonging to someone else is reported as domain.ErrTaskNotFound.
type TaskRepository interface {
	GetByID(ctx context.Context, ownerID, id string) (*domain.Task, error)
	// ListByOwner returns the owner's tasks ordered by position.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, ownerID, id string) error
	// Reorder runs plan and applies its changes in one atomic write.
	Reorder(ctx context.Context, ownerID string, plan ReorderPlanner) error
}
