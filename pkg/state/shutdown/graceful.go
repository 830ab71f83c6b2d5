package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/state"
)

// AbortDelay is how long Abort waits before exiting so logs can drain.
var AbortDelay = 3 * time.Second

// Abort logs a fatal startup error, writes a crash dump under dbPath and
// exits with status 2.
func Abort(contextMsg string, err error, dbPath string) {
	logger.Error("startup_fatal", "msg", contextMsg, "error", err)
	fmt.Fprintf(os.Stderr, "%s: %v\n", contextMsg, err)

	crashDir := "./crash"
	if dbPath != "" {
		crashDir = state.PathsFor(dbPath).Crash
	}
	if path, derr := state.WriteCrashDump(crashDir, contextMsg, err); derr != nil {
		logger.Error("crash_dump_failed", "error", derr)
	} else {
		logger.Error("startup_fatal_crashdump", "path", path)
		fmt.Fprintf(os.Stderr, "CRASH DUMP WRITTEN: %s\n", path)
	}

	time.Sleep(AbortDelay)
	logger.Sync()
	os.Exit(2)
}

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM. A
// SIGPIPE dumps every goroutine stack to the log before cancelling.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM, syscall.SIGPIPE)
	go func() {
		defer signal.Stop(sigc)
		select {
		case s := <-sigc:
			if s == syscall.SIGPIPE {
				buf := make([]byte, 1<<20)
				n := runtime.Stack(buf, true)
				logger.Info("goroutine_stack_dump", "dump", string(buf[:n]))
			}
			logger.Info("signal_received", "signal", s.String(), "msg", "shutdown requested")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Step runs one named teardown step, logging how long it took and any error.
func Step(name string, fn func() error) {
	start := time.Now()
	logger.Info("shutdown_step", "step", name)
	if err := fn(); err != nil {
		logger.Error("shutdown_step_failed", "step", name, "error", err, "took", time.Since(start))
		return
	}
	logger.Debug("shutdown_step_done", "step", name, "took", time.Since(start))
}
