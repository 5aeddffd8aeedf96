package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/jw164/MP3/api/transport"
	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/pkg/httpcontext"
	taskUC "github.com/jw164/MP3/usecase/task"
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

// @Summary List or count tasks
// @Tags tasks
// @Router /api/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	q, err := transport.ParseQuery(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if q.Count {
		n, err := h.uc.CountTasks(stdCtx, q.Filter)
		if err != nil {
			h.respondError(ctx, err)
			return
		}
		h.respondData(ctx, http.StatusOK, n)
		return
	}

	tasks, err := h.uc.ListTasks(stdCtx, q)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, tasks)
}

// @Summary Create task
// @Tags tasks
// @Router /api/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	var req transport.CreateTaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError("name and deadline are required"))
		return
	}

	deadline, err := transport.ParseDeadline(req.Deadline)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.CreateTask(stdCtx, taskUC.CreateInput{
		Name:         req.Name,
		Description:  req.Description,
		Deadline:     deadline,
		Completed:    req.Completed,
		AssignedUser: req.AssignedUser,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusCreated, task)
}

// @Summary Get task by id
// @Tags tasks
// @Router /api/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	projection, err := transport.ParseProjection(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, h.pathID(ctx), projection)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, task)
}

// @Summary Update task
// @Tags tasks
// @Router /api/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	var req transport.UpdateTaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError("invalid request body"))
		return
	}

	in := taskUC.UpdateInput{
		Name:         req.Name,
		Description:  req.Description,
		Completed:    req.Completed,
		AssignedUser: req.AssignedUser,
	}
	if req.Deadline != nil {
		var deadline time.Time
		if *req.Deadline != "" {
			parsed, err := transport.ParseDeadline(*req.Deadline)
			if err != nil {
				h.respondError(ctx, err)
				return
			}
			deadline = parsed
		}
		in.Deadline = &deadline
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.UpdateTask(stdCtx, h.pathID(ctx), in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, task)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	id := h.pathID(ctx)
	if id == "" {
		h.respondError(ctx, domain.ErrTaskNotFound)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondNoContent(ctx)
}
