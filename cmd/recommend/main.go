// Package main provides a CLI for printing pipeline recommendations.
package main

import (
	"context"
	"encoding/json"
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
	"github.com/yourusername/safe-legs/internal/models"
	"github.com/yourusername/safe-legs/internal/parlay"
	"github.com/yourusername/safe-legs/internal/pipeline"
	"github.com/yourusername/safe-legs/internal/provider"
	"github.com/yourusername/safe-legs/internal/repository"
	"github.com/yourusername/safe-legs/internal/service"
)

var (
	configFile string
	legLimit   int
	sportName  string
	targetOdds float64
	maxLegs    int

	appLog *logrus.Logger
	cfg    *config.Config
	db     *database.DB
	engine *pipeline.Engine
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	legsCmd.Flags().IntVar(&legLimit, "limit", 20, "Maximum legs to print")
	valueBetsCmd.Flags().IntVar(&legLimit, "limit", 20, "Maximum bets to print")
	valueBetsCmd.Flags().StringVar(&sportName, "sport", "", "Restrict to one sport")
	parlayCmd.Flags().Float64Var(&targetOdds, "target-odds", 2.0, "Combined odds to approximate")
	parlayCmd.Flags().IntVar(&maxLegs, "max-legs", 4, "Maximum legs in the parlay")
	rootCmd.AddCommand(legsCmd, valueBetsCmd, parlayCmd, summaryCmd)
}

var rootCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Run the safe-legs pipeline and print recommendations",
	Long:  `Loads the most recent candidate snapshot, runs the scoring and filtering pipeline and prints the results as JSON.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var legsCmd = &cobra.Command{
	Use:   "legs",
	Short: "Print the ranked recommended legs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(engine.RecommendedLegs(legLimit))
	},
}

var valueBetsCmd = &cobra.Command{
	Use:   "value-bets",
	Short: "Print positive-edge candidates ordered by expected value",
	RunE: func(cmd *cobra.Command, args []string) error {
		sport := models.Sport(sportName)
		if sportName != "" && !sport.IsSupported() {
			return fmt.Errorf("unsupported sport %q", sportName)
		}
		return printJSON(engine.ValueBets(sport, legLimit))
	},
}

var parlayCmd = &cobra.Command{
	Use:   "parlay",
	Short: "Search the recommended legs for a parlay near a target price",
	RunE: func(cmd *cobra.Command, args []string) error {
		built, err := engine.BuildParlay(targetOdds, maxLegs)
		if err != nil {
			return err
		}
		if built == nil {
			return fmt.Errorf("no feasible parlay for target odds %.2f with %d legs", targetOdds, maxLegs)
		}
		return printJSON(built)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the weekly recommendation summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(engine.WeeklySummary())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
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
	appLog.SetLevel(logrus.WarnLevel)

	est := loadEstimator()
	engine = pipeline.NewEngine(est, parlay.NewBuilder(cfg.Parlay), cfg.Pipeline, appLog)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Prefer the persisted snapshot; fetch live odds when running without a
	// database or when nothing has been persisted yet.
	if cfg.Features.PersistenceEnabled {
		db, err = database.Initialize(ctx, cfg, appLog)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		repos, err := repository.NewRepositories(db)
		if err != nil {
			return err
		}
		fetchSvc := service.NewFetchService(nil, engine, repos.Candidate, nil, cfg.OddsProvider.Sports, appLog)
		if err := fetchSvc.RestoreSnapshot(ctx); err != nil {
			return fmt.Errorf("failed to restore candidate snapshot: %w", err)
		}
		return nil
	}

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
	fetchSvc := service.NewFetchService(oddsClient, engine, nil, nil, cfg.OddsProvider.Sports, appLog)
	if _, err := fetchSvc.FetchUpcoming(ctx); err != nil {
		return fmt.Errorf("odds fetch failed: %w", err)
	}
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
