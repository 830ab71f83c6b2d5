package app

import (
	"context"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/state/shutdown"
)

// Shutdown stops the server, writes the last document state and closes
// storage. Editor listeners are detached before the mirror drains so no
// write races the store close.
func (a *App) Shutdown(ctx context.Context) error {
	a.state.Store(stateShuttingDown)
	logger.Info("shutdown_requested")

	if a.srvFast != nil {
		shutdown.Step("http", func() error {
			done := make(chan error, 1)
			go func() { done <- a.srvFast.Shutdown() }()
			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	a.closeComponents()

	a.state.Store(stateStopped)
	logger.Info("shutdown_complete")
	return nil
}

func (a *App) closeComponents() {
	if a.pruner != nil {
		shutdown.Step("retention", func() error { a.pruner.Stop(); return nil })
	}
	if a.sensor != nil {
		shutdown.Step("sensor", func() error { a.sensor.Stop(); return nil })
	}
	if a.gateway != nil {
		shutdown.Step("gateway", func() error { a.gateway.Close(); return nil })
	}
	if a.history != nil {
		shutdown.Step("history", func() error { a.history.Close(); return nil })
	}
	if a.preview != nil {
		shutdown.Step("preview", func() error { a.preview.Close(); return nil })
	}
	if a.mirror != nil {
		shutdown.Step("persist_mirror", func() error { a.mirror.Close(); return nil })
	}
	if a.tracer != nil {
		shutdown.Step("tracer", func() error { a.tracer.Close(); return nil })
	}
	if a.db != nil {
		shutdown.Step("store", a.db.Close)
	}
}
