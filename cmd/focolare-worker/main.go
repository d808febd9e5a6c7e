package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"focolare/internal/access"
	"focolare/internal/cache"
	"focolare/internal/config"
	"focolare/internal/events"
	applog "focolare/internal/log"
	"focolare/internal/reports"
	"focolare/internal/storage"
	"focolare/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	applog.Setup(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting focolare-worker")

	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	gate := access.NewGate(repo)
	reportCache := reports.NewCache(cfg.CacheSize, cfg.CacheTTL)
	janitor := cache.NewJanitor()
	janitor.Register(reportCache)
	janitor.Start(cfg.CacheTTL)
	defer janitor.Stop()
	reportService := reports.NewService(gate, repo, repo, reportCache)
	w := worker.NewWorker(reportService, repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// AMQP is optional; without it the worker only runs the budget rollover
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		go func() {
			if err := client.ConsumeMutations(ctx, w.HandleMutation); err != nil {
				if err != context.Canceled {
					slog.Error("Message consumption failed", "error", err)
				}
				cancel()
			}
		}()
	} else {
		slog.Info("AMQP disabled - skipping mutation consumption")
	}

	go w.RunRollover(ctx, cfg.RolloverInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context cancelled")
	}

	slog.Info("Shutting down worker...")
	cancel()

	// Give in-flight handlers a moment to finish
	time.Sleep(2 * time.Second)
	slog.Info("Worker shutdown complete")
}
