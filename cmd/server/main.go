// Package main provides the entry point for the safe-legs recommendation service.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/safe-legs/internal/config"
	"github.com/yourusername/safe-legs/internal/database"
	"github.com/yourusername/safe-legs/internal/estimator"
	"github.com/yourusername/safe-legs/internal/health"
	"github.com/yourusername/safe-legs/internal/logger"
	"github.com/yourusername/safe-legs/internal/metrics"
	"github.com/yourusername/safe-legs/internal/parlay"
	"github.com/yourusername/safe-legs/internal/pipeline"
	"github.com/yourusername/safe-legs/internal/provider"
	"github.com/yourusername/safe-legs/internal/repository"
	"github.com/yourusername/safe-legs/internal/scheduler"
	"github.com/yourusername/safe-legs/internal/server"
	"github.com/yourusername/safe-legs/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// The pool is refreshed Monday and Thursday; a snapshot older than this
// means at least one scheduled fetch was missed.
const maxSnapshotAge = 5 * 24 * time.Hour

func main() {
	configPath := os.Getenv("SAFE_LEGS_CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
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
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up logging
	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("Safe Legs service starting")

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	// Initialize database connection when persistence is enabled
	var (
		db    *database.DB
		repos *repository.Repositories
	)
	if cfg.Features.PersistenceEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err = database.Initialize(ctx, cfg, appLog)
		cancel()
		if err != nil {
			appLog.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		repos, err = repository.NewRepositories(db)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to initialize repositories")
		}
		appLog.Info("Database connection established")
	} else {
		appLog.Info("Persistence disabled; running in-memory only")
	}

	// Probability estimator
	est := loadEstimator(cfg, appLog)
	appLog.WithField("estimator", est.Name()).Info("Probability estimator loaded")

	// Pipeline engine
	engine := pipeline.NewEngine(est, parlay.NewBuilder(cfg.Parlay), cfg.Pipeline, appLog)

	// Odds provider
	httpClient := provider.NewRateLimitedHTTPClient(provider.HTTPClientConfig{
		Timeout:           cfg.ProviderTimeout(),
		MaxRetries:        cfg.OddsProvider.RetryAttempts,
		RetryWaitMin:      100 * time.Millisecond,
		RetryWaitMax:      10 * time.Second,
		RateLimit:         cfg.OddsProvider.RequestsPerSecond,
		CircuitBreakerMax: 5,
	}, appLog)
	oddsClient := provider.NewOddsAPIClient(
		httpClient,
		cfg.OddsProvider.BaseURL,
		cfg.OddsProvider.APIKey,
		cfg.OddsProvider.Regions,
		cfg.ProviderCacheTTL(),
		true,
		appLog,
	)

	var (
		candidateRepo repository.CandidateRepository
		runRepo       repository.RunRepository
	)
	if repos != nil {
		candidateRepo = repos.Candidate
		runRepo = repos.Run
	}
	fetchSvc := service.NewFetchService(oddsClient, engine, candidateRepo, runRepo, cfg.OddsProvider.Sports, appLog)

	// Warm the pool from the last persisted snapshot so the API can serve
	// recommendations before the first scheduled fetch.
	if repos != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := fetchSvc.RestoreSnapshot(ctx); err != nil {
			appLog.WithError(err).Warn("Could not restore candidate snapshot from database")
		}
		cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduled fetches
	var sched *scheduler.Scheduler
	if cfg.Features.ScheduledFetchEnabled {
		location, err := time.LoadLocation(cfg.Fetch.Timezone)
		if err != nil {
			appLog.WithError(err).Fatal("Invalid fetch timezone")
		}
		sched = scheduler.NewScheduler(fetchSvc, location, appLog)
		if err := sched.ScheduleFetch(cfg.Fetch.Schedules); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule odds fetches")
		}
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
		appLog.WithFields(logrus.Fields{
			"schedules": cfg.Fetch.Schedules,
			"timezone":  cfg.Fetch.Timezone,
			"next_run":  sched.NextRun(),
		}).Info("Fetch scheduler started")
	}

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg, appLog)
	}

	// Health endpoints
	healthCfg := health.Config{
		ServiceName:    cfg.App.Name,
		Version:        Version,
		Commit:         GitCommit,
		Port:           healthPort(cfg),
		Logger:         appLog,
		Snapshot:       engine,
		MaxSnapshotAge: maxSnapshotAge,
	}
	if db != nil {
		healthCfg.DB = db
	}
	healthSrv := health.NewServer(healthCfg)
	if err := healthSrv.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	// HTTP API
	apiSrv := server.NewServer(cfg.Server, engine, fetchSvc, appLog)
	apiErr := make(chan error, 1)
	go func() {
		apiErr <- apiSrv.Start(ctx)
	}()

	healthSrv.SetReady(true)
	appLog.WithField("port", cfg.Server.Port).Info("Safe Legs service is running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		appLog.WithField("signal", sig).Info("Shutdown signal received")
	case err := <-apiErr:
		if err != nil {
			appLog.WithError(err).Error("API server failed")
		}
	}

	// Graceful shutdown
	healthSrv.SetReady(false)
	cancel()
	if sched != nil {
		sched.Stop()
	}
	if err := healthSrv.Shutdown(); err != nil {
		appLog.WithError(err).Error("Health server shutdown error")
	}

	appLog.Info("Safe Legs service shut down successfully")
}

// loadEstimator loads the ensemble artifact, falling back to the heuristic
// estimator when configured to.
func loadEstimator(cfg *config.Config, appLog *logrus.Logger) estimator.Estimator {
	if cfg.Estimator.ModelPath != "" {
		est, err := estimator.LoadEnsemble(cfg.Estimator.ModelPath, appLog)
		if err == nil {
			return est
		}
		if !cfg.Estimator.HeuristicFallback {
			appLog.WithError(err).Fatal("Failed to load estimator model")
		}
		appLog.WithError(err).Warn("Model artifact unavailable; using heuristic estimator")
	}
	return estimator.NewHeuristicEstimator(appLog)
}

func serveMetrics(cfg *config.Config, appLog *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	appLog.WithField("addr", addr).Info("Metrics server starting")
	if err := http.ListenAndServe(addr, mux); err != nil {
		appLog.WithError(err).Error("Metrics server failed")
	}
}

func healthPort(cfg *config.Config) string {
	if cfg.Health.Port == 0 {
		return ""
	}
	return fmt.Sprintf("%d", cfg.Health.Port)
}
