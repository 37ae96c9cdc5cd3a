package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/markdave123-py/Penpal/internal/app"
	"github.com/markdave123-py/Penpal/internal/config"
	"github.com/markdave123-py/Penpal/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	application, err := app.NewApp(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("startup failed", "error", err)
	}
	defer application.Close()

	application.SyncWorker.Start()

	errCh := make(chan error, 1)
	go func() { errCh <- application.Server.Start() }()

	lg.Info("Penpal is running", "port", cfg.Port, "cache", cfg.CacheDriver, "sync_interval", cfg.SyncInterval.String())

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			lg.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		lg.Warn("graceful shutdown failed", "error", err)
	}
	lg.Info("shutting down")
}
