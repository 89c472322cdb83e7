package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stockfeed/internal/app"
	"stockfeed/internal/config"
	"stockfeed/internal/httpapi"
	"stockfeed/internal/observability"
)

func main() {
	cfg := config.Load()

	logger, err := observability.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer a.Close()

	observability.Start(cfg.MetricsPort)

	h := &httpapi.Handler{
		Ingest:  a.Ingest,
		Catalog: a.Catalog,
		Runs:    a.Runs,
		Logger:  logger.Named("api"),
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("stock feed API listening", zap.String("port", cfg.Port), zap.String("metrics_port", cfg.MetricsPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("stock feed API stopped")
}
