package router

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Account *apiHandler.AccountHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, authMiddleware Middleware, log *zap.Logger) *router.Router {
	if log == nil {
		log = zap.NewNop()
	}
	r := router.New()
	r.PanicHandler = recoverPanic(log)

	r.GET("/health", handlers.Health.Check)

	v1 := r.Group("/api/v1")

	// Anonymous routes
	v1.POST("/users", handlers.Account.Register)
	v1.POST("/token", handlers.Auth.Obtain)
	v1.POST("/token/refresh", handlers.Auth.Refresh)

	// Protected routes
	v1.POST("/token/revoke", authMiddleware(handlers.Auth.Revoke))
	v1.GET("/users/me", authMiddleware(handlers.Account.GetProfile))
	v1.PATCH("/users/me", authMiddleware(handlers.Account.UpdateProfile))

	v1.GET("/tasks", authMiddleware(handlers.Task.ListTasks))
	v1.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	v1.POST("/tasks/reorder", authMiddleware(handlers.Task.ReorderTasks))
	v1.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	v1.PATCH("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	v1.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	return r
}

// recoverPanic keeps one failing request from taking the server down.
func recoverPanic(log *zap.Logger) func(*fasthttp.RequestCtx, interface{}) {
	return func(ctx *fasthttp.RequestCtx, rcv interface{}) {
		log.Error("handler panicked",
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())),
			zap.String("panic", fmt.Sprint(rcv)),
			zap.Stack("stack"))

		ctx.ResetBody()
		ctx.Response.Header.SetContentType("application/json")
		ctx.SetStatusCode(http.StatusInternalServerError)
		body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeInternal), "internal server error", nil))
		ctx.SetBody(body)
	}
}

// Chain wraps h so that the first middleware runs outermost.
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
