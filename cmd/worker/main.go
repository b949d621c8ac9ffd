package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/bravola/insights/internal/config"
	"github.com/bravola/insights/internal/feedback"
	"github.com/bravola/insights/internal/pkg/logger"
	"github.com/bravola/insights/internal/predictor"
	"github.com/bravola/insights/internal/repository/postgres"
	"github.com/bravola/insights/internal/worker"
)

func main() {
	cfg, err := appconfig.LoadFromEnv(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("database unavailable", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	// The retrain queue lives in redis, so unlike the API server the worker
	// cannot run without it.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		logger.Error("redis unavailable", "addr", cfg.Redis.Addr, "error", err.Error())
		os.Exit(1)
	}
	pingCancel()

	registry := predictor.NewRegistry(ctx, cfg.Artifacts)
	outcomes := postgres.NewFeedbackRepo(db)
	checker := feedback.NewDriftChecker(outcomes, registry.Metadata().BaselineAccuracy, cfg.Drift)
	monitor := worker.NewDriftMonitor(checker, redisClient, cfg.Drift)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-done
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	monitor.Start(ctx)
}

func openDatabase(ctx context.Context, cfg appconfig.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}
