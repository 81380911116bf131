package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/cricket-live/internal/app"
	"github.com/riskibarqy/cricket-live/internal/config"
	"github.com/riskibarqy/cricket-live/internal/observability"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker, err := app.NewWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("build worker", "error", err)
		os.Exit(1)
	}

	opsServer, err := observability.StartOpsServer(cfg, logger, func() any { return worker.Status() })
	if err != nil {
		logger.Error("start ops server", "error", err)
		os.Exit(1)
	}

	exitCode := 0
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker stopped", "error", err)
		exitCode = 1
	}
	stop()

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	if err := worker.Shutdown(cfg.ShutdownTimeout); err != nil {
		logger.Error("worker shutdown", "error", err)
		exitCode = 1
	}
	if err := observability.StopOpsServer(opsServer, logger, 5*time.Second); err != nil {
		logger.Warn("stop ops server", "error", err)
	}
	if err := stopProfiler(); err != nil {
		logger.Warn("stop pyroscope", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("shutdown uptrace", "error", err)
	}

	logger.Info("worker stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
