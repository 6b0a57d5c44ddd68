package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/souqly/souqly-backend/internal/estimates"
	"github.com/souqly/souqly-backend/pkg/config"
	"github.com/souqly/souqly-backend/pkg/db"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/metrics"
	"github.com/souqly/souqly-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "metrics-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "metrics-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	reader, err := estimates.NewSampleReader(dbClient.Conn())
	if err != nil {
		logg.Error(context.Background(), "failed to create sample reader", err)
		os.Exit(1)
	}

	estimator, err := estimates.NewEstimator(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create estimator", err)
		os.Exit(1)
	}

	job, err := estimates.NewJob(estimates.JobParams{
		Logger:    logg,
		Reader:    reader,
		Cache:     redisClient,
		Estimator: estimator,
		Metrics:   metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Lookback:  cfg.Estimator.Lookback,
		CacheTTL:  cfg.Estimator.CacheTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create estimates job", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Estimator.Interval.String(),
	})
	logg.Info(ctx, "starting metrics worker")

	if err := run(ctx, logg, job, cfg.Estimator); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "metrics worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "metrics worker shutting down gracefully")
}

func run(ctx context.Context, logg *logger.Logger, job *estimates.Job, cfg config.EstimatorConfig) error {
	runOnce := func() {
		jobCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if err := job.Run(jobCtx); err != nil {
			logCtx := logg.WithFields(ctx, pkgerrors.Dump(err).LogFields())
			logg.Error(logCtx, "estimates job failed", err)
		}
	}

	runOnce()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runOnce()
		}
	}
}
