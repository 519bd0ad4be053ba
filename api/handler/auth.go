package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
	authUC "github.com/fastygo/todo/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Obtain an access/refresh token pair
// @Tags auth
// @Router /api/v1/token [post]
func (h *AuthHandler) Obtain(ctx *fasthttp.RequestCtx) {
	var req transport.TokenObtainRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if req.Username == "" || req.Password == "" {
		fields := map[string]string{}
		if req.Username == "" {
			fields["username"] = "is required"
		}
		if req.Password == "" {
			fields["password"] = "is required"
		}
		h.respondError(ctx, stdCtx, domain.NewValidationError(fields))
		return
	}

	pair, err := h.uc.Login(stdCtx, req.Username, req.Password, sessionMetadata(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tokenResponse(pair))
}

// @Summary Refresh the access token
// @Tags auth
// @Router /api/v1/token/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	var req transport.TokenRefreshRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if req.Refresh == "" {
		h.respondError(ctx, stdCtx, domain.FieldError("refresh", "is required"))
		return
	}

	pair, err := h.uc.Refresh(stdCtx, req.Refresh)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tokenResponse(pair))
}

// @Summary Revoke the current session
// @Tags auth
// @Router /api/v1/token/revoke [post]
func (h *AuthHandler) Revoke(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Revoke(stdCtx, principal.SessionID); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondNoContent(ctx)
}

func sessionMetadata(ctx *fasthttp.RequestCtx) map[string]string {
	meta := map[string]string{}
	if addr := ctx.RemoteAddr(); addr != nil {
		meta["remote_addr"] = addr.String()
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		meta["user_agent"] = ua
	}
	return meta
}

func tokenResponse(pair *authUC.TokenPair) transport.TokenResponse {
	return transport.TokenResponse{
		Access:           pair.Access,
		Refresh:          pair.Refresh,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
