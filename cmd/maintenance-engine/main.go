package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/sales440/ivy-ai-platform/internal/api"
	"github.com/sales440/ivy-ai-platform/internal/campaign"
	"github.com/sales440/ivy-ai-platform/internal/chat"
	"github.com/sales440/ivy-ai-platform/internal/config"
	"github.com/sales440/ivy-ai-platform/internal/core"
	"github.com/sales440/ivy-ai-platform/internal/db"
	"github.com/sales440/ivy-ai-platform/internal/health"
	"github.com/sales440/ivy-ai-platform/internal/llm"
	"github.com/sales440/ivy-ai-platform/internal/logging"
	"github.com/sales440/ivy-ai-platform/internal/maintenance"
	"github.com/sales440/ivy-ai-platform/internal/metrics"
	"github.com/sales440/ivy-ai-platform/internal/model"
	"github.com/sales440/ivy-ai-platform/internal/orchestrator"
	"github.com/sales440/ivy-ai-platform/internal/remediation"
	"github.com/sales440/ivy-ai-platform/internal/webintel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate("maintenance-engine"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	migrator := db.NewMigrator(cfg.DatabaseURL, cfg.MigrationsDir)
	migrateCtx, migrateCancel := context.WithTimeout(ctx, cfg.MigrationTimeout)
	if err := migrator.Apply(migrateCtx); err != nil {
		migrateCancel()
		logger.Fatal().Err(err).Msg("startup migrations failed")
	}
	migrateCancel()

	services := core.NewServices(pool)
	reg := prometheus.DefaultRegisterer
	metrics.RegisterPgxPoolMetrics(reg, pool)

	monitor := health.NewMonitor(logger, reg,
		health.NewDatabaseProbe(pool),
		health.NewRuntimeProbe(time.Now()),
		health.NewAgentPoolProbe(services.Communication),
		health.NewCampaignProbe(services.ScheduledTask),
	)
	healer := health.NewHealer(logger, reg, services.Agent, services.Notification)
	orch := orchestrator.New(logger, reg)

	catalog, err := campaign.LoadCatalog(cfg.CampaignTemplatesPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CampaignTemplatesPath).Msg("campaign template catalog failed to load")
	}
	workflows := campaign.NewWorkflowScheduler(logger, reg, services.ScheduledTask, catalog)
	generator := campaign.NewGenerator(logger, reg, services.Company, services.ScheduledTask, workflows)

	syncer := maintenance.NewSyncer(logger, services.Agent, services.ScheduledTask, orch)
	cleaner := maintenance.NewCleaner(logger, services.Notification, services.Communication)

	remediationClient := remediation.NewClient(cfg.RemediationURL, cfg.RemediationAPIKey)
	webClient := webintel.NewClient(cfg.WebIntelURL)
	llmClient := llm.NewClient(logger, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, 2*time.Minute)

	auditor := maintenance.NewAuditor(logger, monitor, healer, remediationClient, orch, migrator,
		syncer, cleaner, cfg.ExternalCallTimeout, cfg.MigrationTimeout)

	chatDeps := chat.Deps{
		Tasks:     orch,
		Monitor:   monitor,
		Healer:    healer,
		Campaigns: workflows,
		Agents:    services.Agent,
		Web:       webClient,
	}
	registry := chat.NewRegistry(chatDeps)
	conversation := chat.NewConversation(logger, llmClient, registry, services.PlatformConfig)
	chatRouter := chat.NewRouter(logger, chatDeps, conversation)

	if err := registerExecutors(orch, executorDeps{
		remediation: remediationClient,
		web:         webClient,
		monitor:     monitor,
		healer:      healer,
		auditor:     auditor,
		generator:   generator,
		agents:      services.Agent,
		comms:       services.Communication,
		chat:        chatRouter,
		callTimeout: cfg.ExternalCallTimeout,
	}); err != nil {
		logger.Fatal().Err(err).Msg("executor registration failed")
	}

	scheduler := maintenance.NewScheduler(logger, reg)
	scheduler.AddCycle("audit", cfg.AuditInterval, func(ctx context.Context) error {
		auditor.Run(ctx)
		return nil
	})
	scheduler.AddCycle("data-sync", cfg.SyncInterval, func(ctx context.Context) error {
		_, err := syncer.Run(ctx)
		if _, repairErr := workflows.MonitorAndRepair(ctx); repairErr != nil && err == nil {
			err = repairErr
		}
		return err
	})
	scheduler.AddCycle("health-check", cfg.HealthInterval, func(ctx context.Context) error {
		snap := monitor.Check(ctx)
		if snap.Status != model.HealthHealthy {
			healer.Heal(ctx, snap)
		}
		return nil
	})
	scheduler.AddCycle("campaign-generator", cfg.GeneratorInterval, generator.Run)
	scheduler.Start(ctx)

	apiServer := api.NewServer(logger, pool, orch, monitor, workflows, chatRouter)
	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      apiServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsServer := metrics.NewServer(cfg.MetricsListenAddr, pool)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting API server")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
		case <-gctx.Done():
		}

		scheduler.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		metricsServer.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
