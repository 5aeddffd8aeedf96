package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/jw164/MP3/api/transport"
	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/pkg/httpcontext"
)

type baseHandler struct {
	adapter  *httpcontext.Adapter
	logger   *zap.Logger
	validate *validator.Validate
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{
		adapter:  adapter,
		logger:   logger,
		validate: validator.New(),
	}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondData(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(http.StatusText(status), data))
}

func (h baseHandler) respondNoContent(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(http.StatusNoContent)
	ctx.ResetBody()
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, message := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	h.respondJSON(ctx, status, transport.NewError(message))
}

func (h baseHandler) pathID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

// mapError translates the domain taxonomy into status codes. Store failures
// and anything unanticipated surface as a generic 500 with a non-leaking
// message; the cause is logged by the caller.
func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, err.Error()
	case domain.IsDomainError(err, domain.ErrCodeValidation),
		domain.IsDomainError(err, domain.ErrCodeConflict),
		domain.IsDomainError(err, domain.ErrCodeReference),
		domain.IsDomainError(err, domain.ErrCodeQuery):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "unexpected server error"
	}
}
