package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"hr-interview-bot/internal/admin"
	"hr-interview-bot/internal/analyzer"
	"hr-interview-bot/internal/config"
	"hr-interview-bot/internal/httpapi"
	"hr-interview-bot/internal/interview"
	botlog "hr-interview-bot/internal/logger"
	"hr-interview-bot/internal/metrics"
	"hr-interview-bot/internal/storage"
	"hr-interview-bot/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot and the HTTP server",
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger, err := botlog.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}
		defer logger.Sync()

		if err := serve(ctx, logger); err != nil {
			logger.Fatal("bot stopped with error", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("mode", "", "update delivery mode: polling or webhook (overrides TELEGRAM_MODE)")
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides HTTP_PORT)")

	viper.BindPFlag("telegram_mode", serveCmd.Flags().Lookup("mode"))
	viper.BindPFlag("http_port", serveCmd.Flags().Lookup("port"))
}

func serve(ctx context.Context, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting the hr-interview-bot",
		zap.String("version", version),
		zap.String("mode", cfg.Telegram.Mode),
		zap.String("oracle_provider", cfg.Oracle.Provider),
		zap.Int("admins", cfg.Admin.IDs.Len()),
	)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("loading questions: %w", err)
	}

	repo, closeRepo, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer closeRepo()

	limiter, closeLimiter, err := openLimiter(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening rate limiter: %w", err)
	}
	defer closeLimiter()

	oracle, err := newOracle(ctx, cfg.Oracle)
	if err != nil {
		return fmt.Errorf("creating oracle client: %w", err)
	}

	m := metrics.NewMetrics()
	oracleLogger := botlog.WithOracle(logger, cfg.Oracle.Provider, cfg.Oracle.Model())
	evaluator := analyzer.NewEvaluator(oracle, catalog, cfg.Oracle.Timeout, oracleLogger, m)

	// HTTP таймаут клиента с запасом над long polling
	client := telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.PollTimeout+15*time.Second)
	notifier := telegram.NewNotifier(client)

	machine := interview.NewMachine(repo, catalog, evaluator, notifier, interview.Options{
		MaxFollowUps:     cfg.Interview.MaxFollowUps,
		InterviewTimeout: cfg.Interview.Timeout,
		ResultsRecipient: cfg.Telegram.ResultsChat,
		Company: interview.CompanyInfo{
			Name:           cfg.Company.Name,
			Website:        cfg.Company.Website,
			CareersChannel: cfg.Company.CareersChannel,
		},
		Archive: storage.NewArchive(cfg.Storage.ResultsDir, catalog),
		Metrics: m,
	}, logger)

	reports := admin.NewReports(repo, catalog, cfg.Admin.IDs, logger)
	handler := telegram.NewHandler(client, machine, reports, limiter, m, cfg.Company.Name, logger)
	dispatcher := telegram.NewDispatcher(handler, logger)

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	routerOpts := httpapi.Options{
		AdminKey: cfg.Admin.APIKey,
		Reports:  reports,
		Metrics:  m,
		Logger:   logger,
	}
	if cfg.Telegram.Mode == config.ModeWebhook {
		routerOpts.Updates = dispatcher
		routerOpts.WebhookSecret = cfg.Telegram.WebhookSecret
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpapi.NewRouter(routerOpts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	go machine.RunExpiry(ctx, cfg.Interview.ExpiryScanPeriod)

	pollerDone := make(chan struct{})
	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		close(pollerDone)
		if err := client.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			return fmt.Errorf("setting webhook: %w", err)
		}
		logger.Info("telegram webhook registered", zap.String("url", cfg.Telegram.WebhookURL))
	default:
		if err := client.DeleteWebhook(ctx, false); err != nil {
			logger.Warn("failed to delete webhook before polling", zap.Error(err))
		}
		poller := telegram.NewPoller(client, dispatcher, cfg.Telegram.PollTimeout, logger)
		go func() {
			defer close(pollerDone)
			poller.Run(ctx)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("http server failed", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", zap.Error(err))
	}

	<-pollerDone
	// начатые ответы оракула и отправки в Telegram дорабатывают до конца
	dispatcher.Wait()
	logger.Info("bot stopped")
	return nil
}
