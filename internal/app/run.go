package app

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.Int64("event-id", a.cfg.EventID),
		zap.Int64s("market-ids", a.cfg.MarketIDs),
		zap.String("threshold", a.cfg.Threshold.String()),
		zap.String("qty-per-leg", a.cfg.Qty.String()),
		zap.String("fee-rate", a.cfg.FeeRate.String()),
		zap.Bool("write-db", a.cfg.WriteDB),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	a.logger.Info("application-started",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.WSURL))

	return a.waitForShutdown()
}

func (a *App) startComponents() {
	a.wg.Add(1)
	go a.runHTTPServer()

	a.wg.Add(1)
	go a.runStreamClient()

	a.wg.Add(1)
	go a.runCoordinator()
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runStreamClient() {
	defer a.wg.Done()
	a.client.Run(a.ctx)
}

func (a *App) runCoordinator() {
	defer a.wg.Done()
	a.coordinator.Loop(a.ctx, a.client.Frames())
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
