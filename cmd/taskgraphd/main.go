// Command taskgraphd runs the task dependency graph server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davenhall/taskgraph/internal/config"
	"github.com/davenhall/taskgraph/internal/engine"
	"github.com/davenhall/taskgraph/internal/events"
	"github.com/davenhall/taskgraph/internal/server"
	"github.com/davenhall/taskgraph/internal/store/postgres"
	tgsync "github.com/davenhall/taskgraph/internal/sync"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			store.Close()
			return err
		}
		publisher = pub
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		publisher = &events.NoopPublisher{}
		logger.Info("events disabled (TASKGRAPH_NATS_URL not set)")
	}

	eng := engine.New(store, publisher, engine.Options{
		WarnFanout: cfg.WarnFanout,
		WarnChain:  cfg.WarnChain,
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.NewServer(eng).NewHTTPHandler(cfg.AuthToken),
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "err", err)
		}
	}()

	// Start sync scheduler if a destination is configured.
	var scheduler *tgsync.Scheduler
	if cfg.SyncInterval > 0 && cfg.SyncS3Bucket != "" {
		s3Dest, err := tgsync.NewS3Destination(
			context.Background(),
			cfg.SyncS3Bucket,
			cfg.SyncS3Key,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			scheduler = tgsync.NewScheduler(store, []tgsync.Destination{s3Dest}, cfg.SyncInterval, logger)
			scheduler.Start()
			logger.Info("sync scheduler started", "bucket", cfg.SyncS3Bucket, "interval", cfg.SyncInterval)
		}
	}

	logger.Info("taskgraph server started", "http_addr", cfg.HTTPAddr)

	// Wait for SIGINT or SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	if scheduler != nil {
		scheduler.Stop()
		logger.Info("sync scheduler stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}
	logger.Info("HTTP server stopped")

	if err := publisher.Close(); err != nil {
		logger.Error("error closing publisher", "err", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("error closing store", "err", err)
	}

	logger.Info("shutdown complete")
	return nil
}
