// Package main provides a CLI for one-off odds fetches and snapshot upkeep.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/safe-legs/internal/config"
	"github.com/yourusername/safe-legs/internal/database"
	"github.com/yourusername/safe-legs/internal/estimator"
	"github.com/yourusername/safe-legs/internal/logger"
	"github.com/yourusername/safe-legs/internal/parlay"
	"github.com/yourusername/safe-legs/internal/pipeline"
	"github.com/yourusername/safe-legs/internal/provider"
	"github.com/yourusername/safe-legs/internal/repository"
	"github.com/yourusername/safe-legs/internal/service"
)

var (
	configFile    string
	retentionDays int

	appLog   *logrus.Logger
	cfg      *config.Config
	db       *database.DB
	fetchSvc *service.FetchService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	pruneCmd.Flags().IntVar(&retentionDays, "retention-days", 30, "Delete candidates fetched more than this many days ago")
	rootCmd.AddCommand(pruneCmd)
}

var rootCmd = &cobra.Command{
	Use:   "fetch-odds",
	Short: "Fetch upcoming odds and refresh the candidate snapshot",
	Long:  `Pulls upcoming event odds from the configured provider, validates them into bet candidates and persists the snapshot.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, err := fetchSvc.FetchUpcoming(ctx)
		if err != nil {
			return fmt.Errorf("odds fetch failed: %w", err)
		}
		fmt.Printf("Fetched %d candidates\n", count)
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete persisted candidates past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		if db == nil {
			return fmt.Errorf("prune requires persistence_enabled")
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		retention := time.Duration(retentionDays) * 24 * time.Hour
		if err := fetchSvc.PruneStale(ctx, retention); err != nil {
			return fmt.Errorf("prune failed: %w", err)
		}
		fmt.Printf("Pruned candidates older than %d days\n", retentionDays)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		if err := config.LoadSecretsFromAWS(cfg, os.Getenv("AWS_REGION"), os.Getenv("AWS_SECRET_NAME")); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog = logger.NewLogger(cfg.App.LogLevel)

	var (
		candidateRepo repository.CandidateRepository
		runRepo       repository.RunRepository
	)
	if cfg.Features.PersistenceEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err = database.Initialize(ctx, cfg, appLog)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		repos, err := repository.NewRepositories(db)
		if err != nil {
			return err
		}
		candidateRepo = repos.Candidate
		runRepo = repos.Run
	}

	engine := pipeline.NewEngine(loadEstimator(), parlay.NewBuilder(cfg.Parlay), cfg.Pipeline, appLog)

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

	fetchSvc = service.NewFetchService(oddsClient, engine, candidateRepo, runRepo, cfg.OddsProvider.Sports, appLog)
	return nil
}

func loadEstimator() estimator.Estimator {
	if cfg.Estimator.ModelPath != "" {
		if est, err := estimator.LoadEnsemble(cfg.Estimator.ModelPath, appLog); err == nil {
			return est
		} else if !cfg.Estimator.HeuristicFallback {
			appLog.WithError(err).Fatal("Failed to load estimator model")
		}
	}
	return estimator.NewHeuristicEstimator(appLog)
}
