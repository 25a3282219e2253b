package main

import (
	"context"
	"os"

	"blocket-watcher/config"
	"blocket-watcher/crawler"
	"blocket-watcher/notifier"
	"blocket-watcher/pipeline"
	"blocket-watcher/services"
	"blocket-watcher/storage"
	"blocket-watcher/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Rental watcher starting ===")
	logger.Info("Config: region: %s | price ceiling: %d | max pages: %d | detail wave: %d",
		cfg.Region, cfg.PriceCeiling, cfg.MaxPages, cfg.DetailWaveSize)

	store, err := storage.NewPostgresStore(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer store.Close()

	phones := crawler.NewChromePhoneRevealer(cfg, logger)
	cr := crawler.New(cfg, logger, phones)

	shortener := notifier.NewShortener(cfg.BitlyToken, logger)
	sms := notifier.NewGatewaySMS(cfg, shortener, logger)
	email := notifier.NewSMTPEmail(cfg, logger)
	matcher := services.NewMatcher(logger)
	not := notifier.New(matcher, sms, email, cfg.DispatchWaveSize, logger)
	leads := notifier.NewLeadForwarder(cfg, logger)

	p := pipeline.New(
		cfg,
		cr,
		services.NewClassifier(),
		services.NewReconciler(store, logger),
		not,
		leads,
		store,
		logger,
	)

	report, err := p.Run(context.Background())
	if err != nil {
		logger.Error("Pipeline run failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Run %s complete: %d stubs, %d new, %d updated, %d removed, %d notified recipient(s)",
		report.RunID, report.Stubs,
		report.Reconciled.Created, report.Reconciled.Updated, report.Reconciled.Removed,
		report.Dispatched.Recipients)
}
