// Package main provides the entry point for the leaderboard service.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Infuseting/SAE301-sub004/internal/api"
	"github.com/Infuseting/SAE301-sub004/internal/config"
	"github.com/Infuseting/SAE301-sub004/internal/database"
	"github.com/Infuseting/SAE301-sub004/internal/health"
	"github.com/Infuseting/SAE301-sub004/internal/logger"
	"github.com/Infuseting/SAE301-sub004/internal/metrics"
	"github.com/Infuseting/SAE301-sub004/internal/models"
	"github.com/Infuseting/SAE301-sub004/internal/registry"
	"github.com/Infuseting/SAE301-sub004/internal/repository"
	"github.com/Infuseting/SAE301-sub004/internal/scheduler"
	"github.com/Infuseting/SAE301-sub004/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	importCmd.Flags().Int64Var(&importRaceID, "race", 0, "Race ID the file belongs to")
	importCmd.Flags().StringVar(&importKind, "kind", "individual", "Result kind: individual or team")
	importCmd.Flags().StringVar(&importFile, "file", "", "Path to the CSV file")
	importCmd.Flags().Int64Var(&importActor, "actor", 0, "Operator ID for the audit trail")
	importCmd.MarkFlagRequired("race")
	importCmd.MarkFlagRequired("file")

	exportCmd.Flags().Int64Var(&exportRaceID, "race", 0, "Race ID to export")
	exportCmd.Flags().StringVar(&exportKind, "kind", "individual", "Result kind: individual or team")
	exportCmd.Flags().StringVar(&exportFile, "output", "", "Output file (default stdout)")
	exportCmd.MarkFlagRequired("race")

	rootCmd.AddCommand(serveCmd, importCmd, exportCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Race leaderboard service",
	Long:  `Stores race results, serves ranked leaderboards and handles CSV import/export for the club management platform.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
			region := os.Getenv("AWS_REGION")
			secretName := os.Getenv("AWS_SECRET_NAME")
			if region == "" || secretName == "" {
				return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
			}
			if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		appLog = logger.NewLogger(cfg.App.LogLevel)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("leaderboard %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var (
	importRaceID int64
	importKind   string
	importFile   string
	importActor  int64
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a CSV of results for one race",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport()
	},
}

var (
	exportRaceID int64
	exportKind   string
	exportFile   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one race's leaderboard as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport()
	},
}

func runServe() error {
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("Leaderboard service starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	regs, remoteChecker := buildRegistries()
	svc := service.NewLeaderboardService(repos, regs, appLog)

	metrics.InitRegistry()
	if cfg.Metrics.Enabled {
		startMetricsServer()
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        fmt.Sprintf("%d", cfg.Server.HealthPort),
		Logger:      appLog,
		DB:          db,
		Registry:    remoteChecker,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	var sched *scheduler.Scheduler
	if cfg.Reconcile.Enabled {
		sched = scheduler.NewScheduler(svc, appLog)
		if err := sched.ScheduleReconciliation(cfg.Reconcile.Schedule); err != nil {
			return fmt.Errorf("failed to schedule reconciliation: %w", err)
		}
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	apiServer := api.NewServer(cfg, svc, appLog)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	healthServer.SetReady(true)
	appLog.WithField("port", cfg.Server.Port).Info("Leaderboard service ready")

	select {
	case <-ctx.Done():
		appLog.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			appLog.WithError(err).Error("API server failed")
		}
	}

	healthServer.SetReady(false)

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdownTimeout == 0 {
		shutdownTimeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Error("Scheduler shutdown failed")
		}
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("API server shutdown failed")
	}

	appLog.Info("Leaderboard service shut down")
	return nil
}

func runImport() error {
	kind, err := parseKind(importKind)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	regs, _ := buildRegistries()
	svc := service.NewLeaderboardService(repos, regs, appLog)

	file, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", importFile, err)
	}
	defer file.Close()

	var summary *models.ImportSummary
	if kind == models.KindTeam {
		summary, err = svc.ImportTeam(ctx, importActor, importRaceID, file)
	} else {
		summary, err = svc.ImportIndividual(ctx, importActor, importRaceID, file)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d/%d rows (batch %s)\n", summary.Success, summary.Total, summary.BatchID)
	for _, rowErr := range summary.Errors {
		fmt.Printf("  row %d: %s\n", rowErr.Row, rowErr.Message)
	}
	if summary.Success < summary.Total {
		return fmt.Errorf("%d rows failed", summary.Total-summary.Success)
	}
	return nil
}

func runExport() error {
	kind, err := parseKind(exportKind)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	regs, _ := buildRegistries()
	svc := service.NewLeaderboardService(repos, regs, appLog)

	out := os.Stdout
	if exportFile != "" {
		out, err = os.Create(exportFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportFile, err)
		}
		defer out.Close()
	}

	return svc.ExportCSV(ctx, 0, exportRaceID, kind, out)
}

// buildRegistries returns the registries per the configured mode and, for the
// remote mode, the checker the health server probes.
func buildRegistries() (*registry.Registries, health.RegistryChecker) {
	if cfg.Registry.Mode != "remote" {
		appLog.Warn("Running with in-memory registries; identities must be seeded by the embedding process")
		return registry.NewMemoryRegistries().Registries(), nil
	}

	clientCfg := registry.DefaultHTTPClientConfig()
	if cfg.Registry.TimeoutSeconds > 0 {
		clientCfg.Timeout = time.Duration(cfg.Registry.TimeoutSeconds) * time.Second
	}
	if cfg.Registry.RateLimit > 0 {
		clientCfg.RateLimit = cfg.Registry.RateLimit
	}
	if cfg.Registry.MaxRetries > 0 {
		clientCfg.MaxRetries = cfg.Registry.MaxRetries
	}

	client := registry.NewRateLimitedHTTPClient(clientCfg, appLog)
	remote := registry.NewRemoteRegistries(client, strings.TrimRight(cfg.Registry.BaseURL, "/"), cfg.Registry.APIKey, appLog)

	regs := remote.Registries()
	if cfg.Registry.CacheTTLSeconds > 0 {
		regs = registry.CachedRegistries(regs, time.Duration(cfg.Registry.CacheTTLSeconds)*time.Second)
	}
	return regs, remote
}

func startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}
	go func() {
		appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Error("Metrics server error")
		}
	}()
}

func parseKind(raw string) (models.ResultKind, error) {
	kind := models.ResultKind(raw)
	if !kind.Valid() {
		return "", fmt.Errorf("invalid kind %q: must be individual or team", raw)
	}
	return kind, nil
}
