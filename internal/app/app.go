package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/valyala/fasthttp"

	"github.com/merlinfuchs/embed-generator-sub000/internal/retention"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/api"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/attachments"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/config"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/history"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/persist"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/preview"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/schema"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/sensor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/state"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/store"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/telemetry"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/wire"
)

const (
	stateStarting     = "starting"
	stateRunning      = "running"
	stateShuttingDown = "shutting_down"
	stateStopped      = "stopped"
)

// App groups the editor components and the server in front of them.
type App struct {
	eff     config.EffectiveConfigResult
	version string
	state   atomic.Value

	db       *store.DB
	store    *editor.Store
	commands *editor.ActionStore
	history  *history.History
	preview  *preview.Preview
	mirror   *persist.Mirror
	tracer   *telemetry.Tracer
	gateway  *api.Gateway
	sensor   *sensor.Sensor
	pruner   *retention.Manager

	srvFast *fasthttp.Server
}

// New opens storage and restores the last session. It does not start the
// server; call Run for that. state.Init must have run first.
func New(eff config.EffectiveConfigResult, version string) (*App, error) {
	if state.PathsVar.Store == "" {
		return nil, errors.New("state paths not initialized")
	}
	cfg := eff.Config

	db, err := store.Open(state.PathsVar.Store, store.Options{
		DisableWAL: cfg.Storage.DisableWAL,
		Sync:       cfg.Storage.Sync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", state.PathsVar.Store, err)
	}

	a := &App{eff: eff, version: version, db: db}
	a.state.Store(stateStarting)

	gen := ids.New()
	adapter := persist.New(db, gen)
	limits := schema.LimitsForPlan(cfg.Editor.Plan)

	a.store = editor.New(gen, adapter.LoadMessage(), editor.WithLimits(limits))
	a.commands = editor.NewActionStore(gen, adapter.LoadCustomCommands())
	a.history = history.New(a.store,
		history.WithWindow(cfg.Editor.HistoryWindow.Duration()),
		history.WithLimit(cfg.Editor.HistoryLimit),
	)
	a.preview = preview.New(a.store, preview.EscapeRenderer{}, preview.WithDelay(cfg.Editor.PreviewDelay.Duration()))

	a.mirror = adapter.NewMirror()
	a.mirror.Message(a.store)
	a.mirror.CustomCommands(a.commands)

	if cfg.Telemetry.Traces {
		a.tracer, err = telemetry.NewTracer(telemetry.TracerConfig{
			Dir:           state.PathsVar.Traces,
			QueueSize:     cfg.Telemetry.QueueCapacity,
			FlushInterval: cfg.Telemetry.FlushInterval.Duration(),
			MaxFileBytes:  cfg.Telemetry.FileMaxSize.Int64(),
		})
		if err != nil {
			a.closeComponents()
			return nil, fmt.Errorf("failed to start tracer: %w", err)
		}
	}

	var backend wire.Backend
	if cfg.Backend.URL != "" {
		backend = wire.NewClient(wire.ClientOptions{
			BaseURL: cfg.Backend.URL,
			Token:   cfg.Backend.Token,
			Timeout: cfg.Backend.Timeout.Duration(),
			Gen:     gen,
		})
	}

	a.sensor = sensor.NewSensor(sensor.MonitorConfig{
		Path:           state.PathsVar.Store,
		PollInterval:   cfg.Sensor.PollInterval.Duration(),
		DiskHighPct:    cfg.Sensor.DiskHighPct,
		DiskLowPct:     cfg.Sensor.DiskLowPct,
		RecoveryWindow: cfg.Sensor.RecoveryWindow.Duration(),
	})

	if cfg.Retention.Enabled {
		period, err := retention.ParsePeriod(cfg.Retention.Period)
		if err != nil {
			a.closeComponents()
			return nil, fmt.Errorf("invalid retention period: %w", err)
		}
		a.pruner, err = retention.New(retention.Config{
			Dirs:   []string{state.PathsVar.Traces, state.PathsVar.Crash},
			Cron:   cfg.Retention.Cron,
			Period: period,
			DryRun: cfg.Retention.DryRun,
		})
		if err != nil {
			a.closeComponents()
			return nil, err
		}
	}

	a.gateway = api.NewGateway(api.GatewayConfig{
		RPS:            cfg.Server.RateLimit.RPS,
		Burst:          cfg.Server.RateLimit.Burst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	srv := api.NewServer(api.Deps{
		Store:       a.store,
		History:     a.history,
		Preview:     a.preview,
		Attachments: attachments.New(gen, limits),
		Commands:    a.commands,
		Persist:     adapter,
		Backend:     backend,
		Tracer:      a.tracer,
		DefaultCron: cfg.Scheduling.DefaultCron,
		Ready:       a.ready,
	})
	a.srvFast = &fasthttp.Server{
		Handler:            api.Handler(srv, a.gateway),
		Name:               "embedgen",
		MaxRequestBodySize: int(cfg.Server.MaxBodySize.Int64()),
		ReadTimeout:        cfg.Server.ReadTimeout.Duration(),
	}

	logger.Info("session_restored",
		"revision", a.store.Revision(),
		"embeds", len(a.store.Snapshot().Embeds),
		"commands", len(a.commands.Keys()),
		"plan", cfg.Editor.Plan,
	)
	return a, nil
}

func (a *App) ready() error {
	if s := a.state.Load(); s != stateRunning {
		return fmt.Errorf("app is %v", s)
	}
	return a.sensor.Healthy()
}

// Run starts the http server and blocks until ctx is cancelled or the server
// fails.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()
	a.sensor.Start()
	if a.pruner != nil {
		a.pruner.Start()
	}
	errCh := a.startHTTP()
	a.state.Store(stateRunning)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
