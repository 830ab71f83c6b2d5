package api

import (
	"net/http"
	"runtime"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/attachments"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/history"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/persist"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/preview"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/router"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/telemetry"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/wire"
)

var (
	gcPauseTotal = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_gc_pause_total_ns",
			Help: "Total GC pause time in nanoseconds.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.PauseTotalNs)
		},
	)

	heapAlloc = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_heap_alloc_bytes",
			Help: "Current heap allocation in bytes.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.HeapAlloc)
		},
	)
)

func init() {
	prometheus.MustRegister(gcPauseTotal)
	prometheus.MustRegister(heapAlloc)
}

// wrapHTTPHandler wraps an http.Handler to work with fasthttp.
func wrapHTTPHandler(h http.Handler) func(ctx *fasthttp.RequestCtx) {
	return fasthttpadaptor.NewFastHTTPHandler(h)
}

// Deps is everything the handlers act on. Backend may be nil, in which case
// the remote routes answer 503.
type Deps struct {
	Store       *editor.Store
	History     *history.History
	Preview     *preview.Preview
	Attachments *attachments.Store
	Commands    *editor.ActionStore
	Persist     *persist.Adapter
	Backend     wire.Backend
	Tracer      *telemetry.Tracer
	DefaultCron string
	Clock       clock.Clock
	// Ready reports why the server cannot take traffic, or nil.
	Ready func() error
}

// Server holds the route handlers.
type Server struct {
	d Deps
}

func NewServer(d Deps) *Server {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	return &Server{d: d}
}

// RegisterRoutes wires all API routes onto the provided router.
func (s *Server) RegisterRoutes(r *router.Router) {
	// document
	r.GET("/v1/message", s.GetMessage)
	r.PUT("/v1/message", s.PutMessage)
	r.DELETE("/v1/message", s.ClearMessage)
	r.POST("/v1/message/reset", s.ResetMessage)
	r.POST("/v1/message/ops", s.ApplyOp)
	r.PUT("/v1/message/components-v2", s.SetComponentsV2)
	r.GET("/v1/message/export", s.ExportMessage)
	r.POST("/v1/message/import", s.ImportMessage)
	r.GET("/v1/message/preview", s.GetPreview)
	r.GET("/v1/message/validate", s.ValidateMessage)

	// history
	r.POST("/v1/message/undo", s.Undo)
	r.POST("/v1/message/redo", s.Redo)
	r.GET("/v1/message/history", s.GetHistory)

	// side stores
	r.GET("/v1/attachments", s.ListAttachments)
	r.POST("/v1/attachments", s.AddAttachment)
	r.DELETE("/v1/attachments/{id}", s.DeleteAttachment)
	r.GET("/v1/send-settings", s.GetSendSettings)
	r.PUT("/v1/send-settings", s.PutSendSettings)
	r.GET("/v1/collapsed-states", s.GetCollapsedStates)
	r.PUT("/v1/collapsed-states", s.PutCollapsedStates)
	r.GET("/v1/commands", s.GetCommands)

	// backend
	r.POST("/v1/restore", s.Restore)
	r.POST("/v1/send", s.Send)
	r.POST("/v1/saved-messages", s.SaveMessage)
	r.POST("/v1/saved-messages/{id}/load", s.LoadSavedMessage)
	r.POST("/v1/scheduled-messages", s.ScheduleMessage)

	// ops
	r.GET("/healthz", s.Health)
	r.GET("/readyz", s.Readiness)
	r.GET("/metrics", wrapHTTPHandler(promhttp.Handler()))
}

// Handler returns the fasthttp handler for the editing API.
func Handler(s *Server, g *Gateway) fasthttp.RequestHandler {
	r := router.New()
	if g != nil {
		r.Use(g.Middleware)
	}
	s.RegisterRoutes(r)
	return r.Handler()
}

func (s *Server) Health(ctx *fasthttp.RequestCtx) {
	router.WriteJSONOk(ctx, map[string]any{"status": "ok"})
}

func (s *Server) Readiness(ctx *fasthttp.RequestCtx) {
	if s.d.Ready != nil {
		if err := s.d.Ready(); err != nil {
			router.WriteJSONError(ctx, fasthttp.StatusServiceUnavailable, err.Error())
			return
		}
	}
	router.WriteJSONOk(ctx, map[string]any{"status": "ready"})
}
