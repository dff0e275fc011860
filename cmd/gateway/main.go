package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pairwell/provider-gateway/internal/api/admin"
	"github.com/pairwell/provider-gateway/internal/config"
	"github.com/pairwell/provider-gateway/internal/gateway"
	"github.com/pairwell/provider-gateway/internal/registration"
	"github.com/pairwell/provider-gateway/internal/secrets"
	"github.com/pairwell/provider-gateway/internal/storage/sqlite"
	"github.com/pairwell/provider-gateway/internal/telemetry"
	"github.com/pairwell/provider-gateway/internal/transport"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdownTracer, err := telemetry.InitTracer("provider-gateway", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	registration.RegisterBuiltins()

	store, err := sqlite.New(cfg.Storage.SQLite.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	if cfg.Secrets.MasterKey == "" {
		log.Fatal("Secrets master key is not configured; generate one with cmd/keygen")
	}
	vault, err := secrets.NewVault(cfg.Secrets.MasterKey, store)
	if err != nil {
		log.Fatalf("Failed to open credential vault: %v", err)
	}

	registry := gateway.New(store, vault, transport.NewHTTP(),
		gateway.WithLogger(logger),
		gateway.WithProbeTimeout(cfg.ProbeTimeout()),
		gateway.WithFallbackCostPerToken(cfg.Providers.Defaults.FallbackCostPerToken),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := registry.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize provider registry: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           admin.NewServer(registry, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("admin API listening", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received, stopping gateway...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Gateway shutdown complete")
}
