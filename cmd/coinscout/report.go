package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/coinscout/config"
	"github.com/alejandrodnm/coinscout/internal/adapters/notify"
	"github.com/alejandrodnm/coinscout/internal/adapters/storage"
)

func runReport(ctx context.Context, cfg *config.Config, notifier *notify.Console) {
	ledger, err := storage.NewLedgerFiles(cfg.Storage.PortfolioDir, cfg.Execution.InitialCashUSD)
	if err != nil {
		slog.Error("failed to open ledger", "err", err, "dir", cfg.Storage.PortfolioDir)
		os.Exit(1)
	}

	port, err := ledger.LoadPortfolio(ctx)
	if err != nil {
		slog.Error("failed to load portfolio", "err", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	dailies, err := store.GetDailies(ctx)
	if err != nil {
		slog.Warn("could not read daily summaries", "err", err)
	}

	notifier.PrintReport(notify.ReportInput{
		Portfolio: port,
		Dailies:   dailies,
	})
}
