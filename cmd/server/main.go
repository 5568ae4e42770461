// Package main provides the entry point for the board evaluation service.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/cache"
	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/provider"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/scheduler"
	"github.com/yourusername/prop-edge/internal/server"
	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/stream"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(context.Background(), cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"sports":      len(cfg.Sports),
	}).Info("Prop Edge service starting")

	metrics.InitRegistry()

	// Snapshot persistence is optional
	var db *database.DB
	var snapshots repository.SnapshotRepository
	if cfg.Database.Enabled() {
		db, err = database.Initialize(context.Background(), cfg)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()
		snapshots = repository.NewPostgresSnapshotRepository(db)
		appLog.Info("Snapshot persistence enabled")
	}

	store, err := buildCacheStore(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize cache store")
	}

	source := provider.NewClient(provider.ClientConfig{
		BaseURL:      cfg.Provider.BaseURL,
		APIKey:       cfg.Provider.APIKey,
		Regions:      cfg.Provider.Regions,
		OddsFormat:   cfg.Provider.OddsFormat,
		Timeout:      time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		MaxRetries:   cfg.Provider.MaxRetries,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		RateLimit:    cfg.Provider.RateLimit,
	}, appLog)

	evaluator := service.NewEvaluator(cfg, source, store, snapshots, appLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := stream.NewHub(appLog)
	go hub.Run(ctx)

	if cfg.Scheduler.Enabled {
		sched := scheduler.NewScheduler(evaluator, hub, appLog)
		for _, sport := range cfg.Sports {
			if err := sched.ScheduleBoardRefresh(sport.Label, service.ScopeAll, cfg.Scheduler.RefreshIntervalSeconds); err != nil {
				appLog.WithError(err).Fatal("Failed to schedule board refresh")
			}
		}
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
		defer sched.Stop()
	}

	srv := server.New(cfg, evaluator, hub, db, appLog)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLog.WithField("signal", sig.String()).Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			appLog.WithError(err).Error("HTTP server failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Graceful shutdown failed")
	}

	appLog.Info("Prop Edge service stopped")
}

func buildCacheStore(cfg *config.Config, appLog *logrus.Logger) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, err
		}
		appLog.WithField("addr", cfg.Cache.RedisAddr).Info("Using Redis result cache")
		return cache.NewRedisStore(client, "", nil, appLog), nil
	default:
		return cache.NewMemoryStore(cfg.Cache.TTL(), nil), nil
	}
}
