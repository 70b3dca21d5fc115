package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/coinscout/config"
	"github.com/alejandrodnm/coinscout/internal/adapters/marketdata"
	"github.com/alejandrodnm/coinscout/internal/adapters/notify"
	"github.com/alejandrodnm/coinscout/internal/adapters/storage"
	"github.com/alejandrodnm/coinscout/internal/application/executor"
)

func runApply(ctx context.Context, cfg *config.Config, notifier *notify.Console, date string) {
	ledger, err := storage.NewLedgerFiles(cfg.Storage.PortfolioDir, cfg.Execution.InitialCashUSD)
	if err != nil {
		slog.Error("failed to open ledger", "err", err, "dir", cfg.Storage.PortfolioDir)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	prices := marketdata.NewFileSource(cfg.Storage.DataDir)

	engine := executor.New(ledger, store, prices, executor.Config{
		SlippageBPS: cfg.Execution.SlippageBPS,
		FeeBPS:      cfg.Execution.FeeBPS,
	})

	result, err := engine.ApplyOnce(ctx, date)
	if err != nil {
		slog.Error("apply failed", "err", err)
		os.Exit(1)
	}

	notifier.PrintApply(notify.ApplyInput{
		Date:      result.Date,
		NoOp:      result.NoOp,
		Fills:     result.Fills,
		Rejected:  result.Rejected,
		Skipped:   result.Skipped,
		NAV:       result.NAV,
		Cash:      result.Cash,
		Positions: result.Positions,
		Unpriced:  result.Unpriced,
	})
}
