package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/coinscout/config"
	"github.com/alejandrodnm/coinscout/internal/adapters/marketdata"
	"github.com/alejandrodnm/coinscout/internal/adapters/notify"
	"github.com/alejandrodnm/coinscout/internal/adapters/storage"
	"github.com/alejandrodnm/coinscout/internal/application/research"
	"github.com/alejandrodnm/coinscout/internal/domain"
)

func runResearch(ctx context.Context, cfg *config.Config, notifier *notify.Console, asOf string) {
	ledger, err := storage.NewLedgerFiles(cfg.Storage.PortfolioDir, cfg.Execution.InitialCashUSD)
	if err != nil {
		slog.Error("failed to open ledger", "err", err, "dir", cfg.Storage.PortfolioDir)
		os.Exit(1)
	}

	features := marketdata.NewFileSource(cfg.Storage.DataDir)

	engine := research.New(features, ledger, research.Config{
		Ranker: research.RankerConfig{
			MaxMarketCapUSD: cfg.Universe.MaxMarketCapUSD,
			LiqPercentile:   cfg.Universe.LiqPercentile,
			Weights: domain.ScoreWeights{
				R7:    cfg.Universe.WeightR7,
				R30:   cfg.Universe.WeightR30,
				Vol20: cfg.Universe.WeightVol20,
			},
		},
		Sizer: research.SizerConfig{
			RiskPerTradeBPS: cfg.Risk.RiskPerTradeBPS,
			StopLossPct:     cfg.Risk.StopLossPct,
			TakeProfitPct:   cfg.Risk.TakeProfitPct,
			MaxAllocPct:     cfg.Risk.MaxAllocPct,
			MinAllocPct:     cfg.Risk.MinAllocPct,
			MaxNewPositions: cfg.Risk.MaxNewPositions,
			MaxPositions:    cfg.Risk.MaxPositions,
			CashReservePct:  cfg.Risk.CashReservePct,
		},
		ExitPercentile: cfg.Universe.ExitPercentile,
		Assumptions:    cfg.Assumptions(),
	})

	result, err := engine.RunOnce(ctx, asOf)
	if err != nil {
		slog.Error("research cycle failed", "err", err)
		os.Exit(1)
	}

	notifier.PrintResearch(notify.ResearchInput{
		AsOf:       result.AsOf,
		NAV:        result.NAV,
		Cash:       result.Cash,
		Positions:  result.Positions,
		TableRows:  result.TableRows,
		Candidates: result.Candidates,
		Orders:     result.Orders,
		Buys:       result.Buys,
		Sells:      result.Sells,
		Warnings:   result.Warnings,
	})
}
