package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/coinscout/config"
	"github.com/alejandrodnm/coinscout/internal/adapters/notify"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	researchMode := flag.Bool("research", false, "rank the universe and write the order proposal file")
	applyMode := flag.Bool("apply", false, "apply the pending order proposal to the ledger")
	fetchMode := flag.Bool("fetch", false, "fetch a fresh market snapshot")
	reportMode := flag.Bool("report", false, "print portfolio state and NAV history")
	date := flag.String("date", "", "trade date YYYY-MM-DD (default: today UTC)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	asOf := *date
	if asOf == "" {
		asOf = time.Now().UTC().Format("2006-01-02")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	notifier := notify.NewConsole(*table)

	switch {
	case *fetchMode:
		runFetch(ctx, cfg, asOf)
	case *applyMode:
		runApply(ctx, cfg, notifier, asOf)
	case *reportMode:
		runReport(ctx, cfg, notifier)
	case *researchMode:
		runResearch(ctx, cfg, notifier, asOf)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
