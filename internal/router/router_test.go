package router

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/todo/api/transport"
)

func TestPanickingHandlerAnswersInternalError(t *testing.T) {
	panicking := func(fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(*fasthttp.RequestCtx) {
			panic("slice bounds out of range")
		}
	}
	r := New(Handlers{}, panicking, nil)

	var req fasthttp.Request
	req.Header.SetMethod("GET")
	req.SetRequestURI("/api/v1/tasks")
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)

	r.Handler(&ctx)

	if got := ctx.Response.StatusCode(); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got)
	}
	var env transport.Envelope
	if err := json.Unmarshal(ctx.Response.Body(), &env); err != nil {
		t.Fatalf("decode body %q: %v", ctx.Response.Body(), err)
	}
	if env.Status != "error" || env.Code != "INTERNAL" {
		t.Errorf("envelope = %+v, want error/INTERNAL", env)
	}
	if env.Error != "internal server error" {
		t.Errorf("error = %v, want generic message", env.Error)
	}
}

func TestChainOrder(t *testing.T) {
	var calls []string
	mark := func(name string) Middleware {
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
			return func(ctx *fasthttp.RequestCtx) {
				calls = append(calls, name)
				next(ctx)
			}
		}
	}
	h := Chain(func(*fasthttp.RequestCtx) { calls = append(calls, "handler") }, mark("outer"), mark("inner"))

	var ctx fasthttp.RequestCtx
	h(&ctx)

	want := []string{"outer", "inner", "handler"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}
