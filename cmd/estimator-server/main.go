package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"it10bb/internal/cache"
	"it10bb/internal/cli"
	apphttp "it10bb/internal/http"
	"it10bb/internal/log"
	"it10bb/internal/services"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger("info", log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	exporter, err := cli.NewExporter(context.Background(), cfg, logger.WithComponent(log.ComponentSheets))
	if err != nil {
		logger.Error("Failed to initialize export backend", log.FieldError, err, "backend", cfg.ExportBackend)
		os.Exit(1)
	}

	svc := services.NewEstimateService(services.Options{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
		Exporter:  exporter,
		Logger:    logger,
	})

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(svc.Cache())
	cacheManager.StartCleanup(cfg.CacheTTL)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:              ":" + cfg.Port,
		Service:           svc,
		RequestsPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:    cfg.TrustedProxies,
		Logger:            logger,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
	})

	go func() {
		logger.Info("Starting estimator server",
			"port", cfg.Port,
			"export_backend", cfg.ExportBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
