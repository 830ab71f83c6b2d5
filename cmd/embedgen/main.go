package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/merlinfuchs/embed-generator-sub000/internal/app"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/config"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/state"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/state/shutdown"
)

// set build metadata
var (
	version = "dev"
)

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	// packaged builds keep the database under the artifact root unless told otherwise
	if root := state.ArtifactPath("database"); root != "" {
		if _, ok := os.LookupEnv("EMBEDGEN_DB_PATH"); !ok {
			_ = os.Setenv("EMBEDGEN_DB_PATH", root)
		}
	}

	eff, err := config.Load(os.Args[1:])
	if err != nil {
		shutdown.Abort("invalid configuration", err, eff.DBPath)
	}

	logger.Init(eff.Config.Logging.Level)
	defer logger.Sync()
	logger.Info("effective_config_loaded", "source", eff.Source, "addr", eff.Addr, "db_path", eff.DBPath)

	if err := state.Init(eff.DBPath); err != nil {
		shutdown.Abort("failed to ensure state directories under "+eff.DBPath, err, eff.DBPath)
	}

	a, err := app.New(eff, version)
	if err != nil {
		shutdown.Abort("failed to initialize app", err, eff.DBPath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	runErr := a.Run(ctx)

	// bounded so teardown cannot hang forever
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer shutdownCancel()
	_ = a.Shutdown(shutdownCtx)

	if runErr != nil {
		logger.Error("app_run_failed", "error", runErr)
		logger.Sync()
		os.Exit(1)
	}
}
