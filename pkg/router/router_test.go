package router

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func do(h fasthttp.RequestHandler, method, path string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	h(&ctx)
	return &ctx
}

func TestRouting(t *testing.T) {
	r := New()
	r.GET("/", func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString("root") })
	r.GET("/v1/items/{id}", func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString("get " + PathParam(ctx, "id")) })
	r.DELETE("/v1/items/{id}", func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString("del " + PathParam(ctx, "id")) })

	var order []string
	r.Use(func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) { order = append(order, "outer"); next(ctx) }
	})
	r.Use(func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) { order = append(order, "inner"); next(ctx) }
	})
	h := r.Handler()

	cases := []struct {
		method, path string
		status       int
		body         string
	}{
		{"GET", "/", 200, "root"},
		{"GET", "/v1/items/7", 200, "get 7"},
		{"GET", "/v1/items/7/", 200, "get 7"},
		{"DELETE", "/v1/items/x", 200, "del x"},
		{"GET", "/v1/items", 404, ""},
		{"GET", "/v1/items/7/more", 404, ""},
	}
	for _, tc := range cases {
		ctx := do(h, tc.method, tc.path)
		if ctx.Response.StatusCode() != tc.status {
			t.Fatalf("%s %s: status %d, want %d", tc.method, tc.path, ctx.Response.StatusCode(), tc.status)
		}
		if tc.body != "" {
			assert.Equal(t, tc.body, string(ctx.Response.Body()))
		}
	}
	assert.Equal(t, []string{"outer", "inner"}, order[:2])
}

func TestMethodNotAllowed(t *testing.T) {
	r := New()
	r.GET("/x", func(*fasthttp.RequestCtx) {})
	r.PUT("/x", func(*fasthttp.RequestCtx) {})

	ctx := do(r.Handler(), "POST", "/x")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())
	assert.Equal(t, "GET, PUT", string(ctx.Response.Header.Peek("Allow")))

	var body map[string]string
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, "method not allowed", body["error"])
}
