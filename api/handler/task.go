package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
	taskUC "github.com/fastygo/todo/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	args := ctx.QueryArgs()
	query, err := domain.ParseTaskQuery(domain.TaskQueryParams{
		Search:    string(args.Peek("search")),
		Status:    string(args.Peek("status")),
		Priority:  string(args.Peek("priority")),
		Completed: string(args.Peek("completed")),
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	pageReq, err := parsePageRequest(args)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	page, err := h.uc.ListTasks(stdCtx, principal.UserID, query, pageReq)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(page.Tasks, transport.PageMeta{
		Count:      page.Count,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
	}))
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, principal.UserID, taskID(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var req transport.TaskCreateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	draft, err := req.ToDraft()
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	created, err := h.uc.CreateTask(stdCtx, principal.UserID, draft)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var req transport.TaskPatchRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patch, err := req.ToPatch()
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	updated, err := h.uc.UpdateTask(stdCtx, principal.UserID, taskID(ctx), patch)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, principal.UserID, taskID(ctx)); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondNoContent(ctx)
}

// @Summary Reorder tasks
// @Tags tasks
// @Router /api/v1/tasks/reorder [post]
func (h *TaskHandler) ReorderTasks(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var req transport.ReorderRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	order, err := req.ToOrder()
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if err := h.uc.Reorder(stdCtx, principal.UserID, order); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.ReorderResponse{Status: "reordered"})
}

// taskID returns the canonical id from the path. Malformed ids are passed
// through and resolve to not found in the store.
func taskID(ctx *fasthttp.RequestCtx) string {
	raw, _ := ctx.UserValue("id").(string)
	if id, ok := domain.ParseTaskID(raw); ok {
		return id
	}
	return raw
}

func parsePageRequest(args *fasthttp.Args) (taskUC.PageRequest, error) {
	var req taskUC.PageRequest
	fields := map[string]string{}
	if raw := string(args.Peek("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			fields["page"] = "must be a positive integer"
		}
		req.Page = v
	}
	if raw := string(args.Peek("page_size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			fields["page_size"] = "must be a positive integer"
		}
		req.PageSize = v
	}
	if len(fields) > 0 {
		return taskUC.PageRequest{}, domain.NewValidationError(fields)
	}
	return req, nil
}
