package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"it10bb/internal/amqp"
	"it10bb/internal/cache"
	"it10bb/internal/cli"
	"it10bb/internal/log"
	"it10bb/internal/services"
	"it10bb/internal/worker"
)

const statsInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger("info", log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)

	logger.Info("Starting estimator-worker", log.FieldOperation, log.OpStartup, "queue", cfg.AMQPQueue)

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

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		amqp.WithLogger(logger),
		amqp.WithPrefetch(cfg.WorkerPrefetch))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(svc.Cache())
	cacheManager.StartCleanup(cfg.CacheTTL)

	estimateWorker := worker.NewEstimateWorker(svc, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		cacheManager.Stop()
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeEstimateRequests(gctx, estimateWorker.HandleEstimateRequest)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				stats := svc.CacheStats()
				logger.Debug("Estimate cache stats",
					"hits", stats.Hits,
					"misses", stats.Misses,
					"evictions", stats.Evictions,
					"size", stats.Size)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Worker shutdown complete")
}
