package api

import (
	"fmt"
	"net"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/router"
)

const requestIDHeader = "X-Request-Id"

// GatewayConfig configures the middleware in front of every route.
type GatewayConfig struct {
	RPS            float64
	Burst          int
	AllowedOrigins []string
}

// Gateway assigns request ids, logs, answers CORS preflights, rate limits
// per client address and turns panics into 500s.
type Gateway struct {
	cfg      GatewayConfig
	limiters *limiterPool
}

type gatewayOptions struct {
	clock clock.Clock
}

type GatewayOption func(*gatewayOptions)

// WithGatewayClock replaces the clock the rate limiter reads, for tests.
func WithGatewayClock(c clock.Clock) GatewayOption {
	return func(o *gatewayOptions) { o.clock = c }
}

func NewGateway(cfg GatewayConfig, opts ...GatewayOption) *Gateway {
	g := &Gateway{cfg: cfg}
	o := gatewayOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	g.limiters = newLimiterPool(cfg.RPS, cfg.Burst, o.clock)
	return g
}

// Close stops the limiter sweep.
func (g *Gateway) Close() {
	g.limiters.Shutdown()
}

func (g *Gateway) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := string(ctx.Request.Header.Peek(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Response.Header.Set(requestIDHeader, id)
		logger.LogRequestFast(ctx, id)

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("handler_panic", "request_id", id, "path", string(ctx.Path()), "panic", fmt.Sprint(rec))
				router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "internal error")
			}
		}()

		origin := string(ctx.Request.Header.Peek("Origin"))
		if origin != "" && originAllowed(origin, g.cfg.AllowedOrigins) {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
			ctx.Response.Header.Set("Vary", "Origin")
			ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			ctx.Response.Header.Set("Access-Control-Max-Age", "600")
			ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type,"+requestIDHeader)
			ctx.Response.Header.Set("Access-Control-Expose-Headers", requestIDHeader)
		}
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		if !publicPath(ctx) {
			ip := clientIP(ctx)
			if !g.limiters.Allow(ip) {
				router.WriteJSONError(ctx, fasthttp.StatusTooManyRequests, "rate limit exceeded")
				logger.Warn("rate_limited", "ip", ip, "path", string(ctx.Path()))
				return
			}
		}

		next(ctx)
	}
}

func clientIP(ctx *fasthttp.RequestCtx) string {
	host := ctx.RemoteAddr().String()
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	return h
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// publicPath is exempt from rate limiting.
func publicPath(ctx *fasthttp.RequestCtx) bool {
	if string(ctx.Method()) != fasthttp.MethodGet {
		return false
	}
	switch string(ctx.Path()) {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return false
}
