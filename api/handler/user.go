package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/jw164/MP3/api/transport"
	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/pkg/httpcontext"
	userUC "github.com/jw164/MP3/usecase/user"
)

type UserHandler struct {
	baseHandler
	uc *userUC.UseCase
}

func NewUserHandler(uc *userUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List or count users
// @Tags users
// @Router /api/users [get]
func (h *UserHandler) GetUsers(ctx *fasthttp.RequestCtx) {
	q, err := transport.ParseQuery(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if q.Count {
		n, err := h.uc.CountUsers(stdCtx, q.Filter)
		if err != nil {
			h.respondError(ctx, err)
			return
		}
		h.respondData(ctx, http.StatusOK, n)
		return
	}

	users, err := h.uc.ListUsers(stdCtx, q)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, users)
}

// @Summary Create user
// @Tags users
// @Router /api/users [post]
func (h *UserHandler) CreateUser(ctx *fasthttp.RequestCtx) {
	var req transport.CreateUserRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError("name and email are required"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.CreateUser(stdCtx, userUC.CreateInput{
		Name:         req.Name,
		Email:        req.Email,
		PendingTasks: req.PendingTasks,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusCreated, user)
}

// @Summary Get user by id
// @Tags users
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUser(ctx *fasthttp.RequestCtx) {
	projection, err := transport.ParseProjection(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetUser(stdCtx, h.pathID(ctx), projection)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, user)
}

// @Summary Update user
// @Tags users
// @Router /api/users/{id} [put]
func (h *UserHandler) UpdateUser(ctx *fasthttp.RequestCtx) {
	var req transport.UpdateUserRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError("invalid request body"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.UpdateUser(stdCtx, h.pathID(ctx), userUC.UpdateInput{
		Name:         req.Name,
		Email:        req.Email,
		PendingTasks: req.PendingTasks,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, user)
}

// @Summary Delete user
// @Tags users
// @Router /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(ctx *fasthttp.RequestCtx) {
	id := h.pathID(ctx)
	if id == "" {
		h.respondError(ctx, domain.ErrUserNotFound)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteUser(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondNoContent(ctx)
}
