package router

import (
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"
)

// WriteJSON writes data as a JSON response with the current status code.
func WriteJSON(ctx *fasthttp.RequestCtx, data any) error {
	ctx.Response.Header.SetContentType("application/json")
	return json.NewEncoder(ctx).Encode(data)
}

// WriteJSONStatus is WriteJSON with an explicit status.
func WriteJSONStatus(ctx *fasthttp.RequestCtx, status int, data any) error {
	ctx.SetStatusCode(status)
	return WriteJSON(ctx, data)
}

// WriteJSONError writes {"error": message}.
func WriteJSONError(ctx *fasthttp.RequestCtx, status int, message string) {
	ctx.SetStatusCode(status)
	ctx.Response.Header.SetContentType("application/json")
	_ = json.NewEncoder(ctx).Encode(map[string]string{"error": message})
}

// WriteJSONOk writes {"ok": true} merged with data.
func WriteJSONOk(ctx *fasthttp.RequestCtx, data map[string]any) {
	out := map[string]any{"ok": true}
	for k, v := range data {
		out[k] = v
	}
	_ = WriteJSON(ctx, out)
}

// PathParam returns a {name} value matched by the router.
func PathParam(ctx *fasthttp.RequestCtx, param string) string {
	if v := ctx.UserValue(param); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

// DecodeBody unmarshals the request body into v, answering 400 on failure.
func DecodeBody(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
