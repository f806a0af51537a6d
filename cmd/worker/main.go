// Command worker runs the call evaluation Temporal worker.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/pennie-hq/eavesly/internal/configuration"
	"github.com/pennie-hq/eavesly/internal/worker"
)

func main() {
	cfg, err := configuration.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Observability.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	acts, resolver, err := worker.InitializeActivities(cfg, logger)
	if err != nil {
		logger.Error("worker initialization failed", "error", err)
		os.Exit(1)
	}

	// A missing template should stop the deploy, not the first evaluation.
	verifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := worker.VerifyTemplates(verifyCtx, resolver, logger); err != nil {
		cancel()
		logger.Error("template verification failed", "error", err)
		os.Exit(1)
	}
	cancel()

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		logger.Error("temporal connection failed",
			"host_port", cfg.Temporal.HostPort, "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := sdkworker.New(temporalClient, cfg.Worker.TaskQueue, sdkworker.Options{
		MaxConcurrentActivityExecutionSize: cfg.Worker.MaxConcurrentEvaluations,
	})
	worker.RegisterAll(w, acts)

	logger.Info("worker starting",
		"task_queue", cfg.Worker.TaskQueue,
		"namespace", cfg.Temporal.Namespace,
		"max_concurrent", cfg.Worker.MaxConcurrentEvaluations)
	if err := w.Run(sdkworker.InterruptCh()); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
