package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/repository"
)

// Config bounds list pagination.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

// PageRequest selects one page of a list. Zero values fall back to defaults.
type PageRequest struct {
	Page     int
	PageSize int
}

// Page is one page of filtered tasks plus the numbers needed to navigate.
type Page struct {
	Tasks      []domain.Task
	Count      int
	Page       int
	PageSize   int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

type UseCase struct {
	tasks  repository.TaskRepository
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, cfg Config, logger *zap.Logger) *UseCase {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

// ListTasks returns the owner's tasks matching query, in position order, paginated.
func (uc *UseCase) ListTasks(ctx context.Context, ownerID string, query domain.TaskQuery, req PageRequest) (*Page, error) {
	if err := uc.validatePage(req); err != nil {
		return nil, err
	}

	tasks, err := uc.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	matched := query.Apply(tasks, uc.now())
	return uc.paginate(matched, req), nil
}

func (uc *UseCase) GetTask(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, ownerID, id)
}

func (uc *UseCase) CreateTask(ctx context.Context, ownerID string, draft domain.TaskDraft) (*domain.Task, error) {
	task, err := draft.Build(ownerID, uc.now().UTC())
	if err != nil {
		return nil, err
	}
	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Debug("task created",
		zap.String("task_id", created.ID),
		zap.String("user_id", ownerID))
	return created, nil
}

// UpdateTask applies a partial update. Tasks of other owners are reported as not found.
func (uc *UseCase) UpdateTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(task); err != nil {
		return nil, err
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, ownerID, id string) error {
	if err := uc.tasks.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Debug("task deleted",
		zap.String("task_id", id),
		zap.String("user_id", ownerID))
	return nil
}

// Reorder moves order[i] to position i for every listed task of the owner.
// Unlisted tasks keep their positions. Any invalid, duplicate or foreign id
// rejects the whole request and nothing is written.
func (uc *UseCase) Reorder(ctx context.Context, ownerID string, order []string) error {
	ids, err := domain.NormalizeOrder(order)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	var written int
	err = uc.tasks.Reorder(ctx, ownerID, func(current []domain.Task) ([]domain.PositionChange, error) {
		changes, err := domain.PlanReorder(current, ids)
		written = len(changes)
		return changes, err
	})
	if err != nil {
		return err
	}

	logger.WithRequestID(ctx, uc.logger).Info("tasks reordered",
		zap.String("user_id", ownerID),
		zap.Int("requested", len(ids)),
		zap.Int("changed", written))
	return nil
}

func (uc *UseCase) validatePage(req PageRequest) error {
	fields := map[string]string{}
	if req.Page < 0 {
		fields["page"] = "must be a positive integer"
	}
	if req.PageSize < 0 {
		fields["page_size"] = "must be a positive integer"
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}

func (uc *UseCase) paginate(tasks []domain.Task, req PageRequest) *Page {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = uc.cfg.DefaultPageSize
	}
	if size > uc.cfg.MaxPageSize {
		size = uc.cfg.MaxPageSize
	}

	count := len(tasks)
	totalPages := (count + size - 1) / size

	// Bound page before multiplying so huge page numbers cannot overflow.
	start := count
	if page-1 <= count/size {
		start = (page - 1) * size
		if start > count {
			start = count
		}
	}
	end := start + size
	if end > count {
		end = count
	}

	return &Page{
		Tasks:      tasks[start:end],
		Count:      count,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
