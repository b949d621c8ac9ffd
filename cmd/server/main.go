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

	"github.com/bravola/insights/internal/api"
	"github.com/bravola/insights/internal/benchmark"
	appconfig "github.com/bravola/insights/internal/config"
	"github.com/bravola/insights/internal/discovery"
	"github.com/bravola/insights/internal/features"
	"github.com/bravola/insights/internal/feedback"
	"github.com/bravola/insights/internal/pkg/logger"
	"github.com/bravola/insights/internal/predictor"
	"github.com/bravola/insights/internal/repository/postgres"
	"github.com/bravola/insights/internal/strategy"
)

func main() {
	cfg, err := appconfig.LoadFromEnv(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("database unavailable", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	redisClient := openRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry := predictor.NewRegistry(ctx, cfg.Artifacts)

	merchants := postgres.NewMerchantRepo(db)
	rules := postgres.NewRuleRepo(db)
	outcomes := postgres.NewFeedbackRepo(db)

	store := features.NewStore(
		features.NewExtractor(merchants),
		features.NewCache(redisClient, cfg.Features.CacheTTL()),
	)

	benchmarks := benchmark.NewEngine(store, registry.Clusterer(), registry.Benchmarks(), registry.Version())
	profiles := discovery.NewEngine(store, registry.Persona(), registry.Maturity(), registry, registry.Version())
	strategies := strategy.NewOrchestrator(store, registry.Ranker(), rules, profiles, benchmarks,
		registry.Templates(), cfg.Strategy)
	outcomeEngine := feedback.NewEngine(outcomes)
	driftChecker := feedback.NewDriftChecker(outcomes, registry.Metadata().BaselineAccuracy, cfg.Drift)

	handlers := api.NewHandlers(benchmarks, profiles, strategies, outcomeEngine, driftChecker, store, rules, registry)
	server := api.NewServer(cfg.Server, handlers)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("insights server listening", "addr", server.Addr(), "models_loaded", registry.Ready())
		errCh <- server.ListenAndServe()
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server stopped", "error", err.Error())
		os.Exit(1)
	case sig := <-done:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err.Error())
	}
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

// openRedis connects to the feature cache. A failed connection is not fatal;
// feature reads fall back to direct extraction.
func openRedis(ctx context.Context, cfg appconfig.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, feature cache disabled", "addr", cfg.Addr, "error", err.Error())
		client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", cfg.Addr)
	return client
}
