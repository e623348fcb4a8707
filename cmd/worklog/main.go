package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"worklog/internal/backend"
	"worklog/internal/cli"
	apphttp "worklog/internal/http"
	"worklog/internal/services"
	"worklog/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.DataBackend == "sqlite" {
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			logger.Error("Failed to run database migrations", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err, "valid_backends", backend.GetBackendTypes())
		os.Exit(1)
	}
	if err := backendCfg.Validate(); err != nil {
		logger.Error("Backend configuration validation failed", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	svc := services.NewWorkLogService(result.Store, result.Publisher)

	srv := apphttp.NewServer(":"+cfg.Port, svc)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if result.Cleanup != nil {
			result.Cleanup()
		}
	})

	logger.Info("Starting worklog server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
