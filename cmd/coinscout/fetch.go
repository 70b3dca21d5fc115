package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/coinscout/config"
	"github.com/alejandrodnm/coinscout/internal/adapters/coingecko"
	"github.com/alejandrodnm/coinscout/internal/adapters/marketdata"
)

func runFetch(ctx context.Context, cfg *config.Config, date string) {
	client := coingecko.NewClient(os.Getenv("COINGECKO_BASE"))

	rows, err := client.FetchMarkets(ctx)
	if err != nil {
		slog.Error("snapshot fetch failed", "err", err)
		os.Exit(1)
	}

	// Keep only the micro-cap universe; the full top-250 page is mostly
	// majors we never trade.
	kept := rows[:0]
	for _, r := range rows {
		if r.MarketCap != nil && *r.MarketCap > 0 && *r.MarketCap >= cfg.Universe.MaxMarketCapUSD {
			continue
		}
		kept = append(kept, r)
	}

	if err := marketdata.WriteSnapshot(cfg.Storage.DataDir, date, kept); err != nil {
		slog.Error("snapshot write failed", "err", err)
		os.Exit(1)
	}

	slog.Info("snapshot written",
		"date", date,
		"fetched", len(rows),
		"kept", len(kept),
		"dir", cfg.Storage.DataDir,
	)
}
