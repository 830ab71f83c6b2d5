package app

import (
	"os"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/config/banner"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
)

// printBanner prints the startup banner and the effective config.
func (a *App) printBanner() {
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	banner.Print(os.Stdout, a.eff, ver)
}

// startHTTP starts the fasthttp server, returning a channel that delivers
// its error if it stops on its own.
func (a *App) startHTTP() <-chan error {
	errCh := make(chan error, 1)
	addr := a.eff.Addr
	go func() {
		logger.Info("http_listen", "addr", addr)
		if err := a.srvFast.ListenAndServe(addr); err != nil {
			logger.Error("http_server_failed", "addr", addr, "error", err)
			errCh <- err
		}
	}()
	return errCh
}
