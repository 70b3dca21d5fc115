package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full coinscout configuration. It is built once at the
// process boundary and handed to the engines by value — the core never
// reads ambient environment state.
type Config struct {
	Universe  UniverseConfig  `yaml:"universe"`
	Risk      RiskConfig      `yaml:"risk"`
	Execution ExecutionConfig `yaml:"execution"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// UniverseConfig controls candidate filtering and scoring.
type UniverseConfig struct {
	MaxMarketCapUSD float64 `yaml:"max_market_cap_usd"` // micro-cap ceiling
	LiqPercentile   float64 `yaml:"liq_percentile"`     // volume percentile floor (0–100)
	WeightR7        float64 `yaml:"weight_r7"`
	WeightR30       float64 `yaml:"weight_r30"`
	WeightVol20     float64 `yaml:"weight_vol20"`
	ExitPercentile  float64 `yaml:"exit_percentile"` // score percentile flagging held names for exit
}

// RiskConfig controls position sizing.
type RiskConfig struct {
	RiskPerTradeBPS float64 `yaml:"risk_per_trade_bps"`
	StopLossPct     float64 `yaml:"stop_loss_pct"`
	TakeProfitPct   float64 `yaml:"take_profit_pct"`
	MaxAllocPct     float64 `yaml:"max_alloc_pct"` // per-position ceiling, fraction of NAV
	MinAllocPct     float64 `yaml:"min_alloc_pct"` // per-position floor, fraction of NAV
	MaxNewPositions int     `yaml:"max_new_positions"`
	MaxPositions    int     `yaml:"max_positions"`
	CashReservePct  float64 `yaml:"cash_reserve_pct"` // sizing stops when cash falls to this fraction of NAV
}

// ExecutionConfig controls the simulated fill model and the ledger bootstrap.
type ExecutionConfig struct {
	SlippageBPS    float64 `yaml:"slippage_bps"`
	FeeBPS         float64 `yaml:"fee_bps"`
	InitialCashUSD float64 `yaml:"initial_cash_usd"`
}

// StorageConfig controls where state lives on disk.
type StorageConfig struct {
	DataDir      string `yaml:"data_dir"`      // market data root (ohlc/, time_series/, daily/)
	PortfolioDir string `yaml:"portfolio_dir"` // ledger + order proposal files
	DSN          string `yaml:"dsn"`           // SQLite path for fills log and daily summaries
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config and the .env file if present. Environment
// variables override YAML values key by key, which keeps the original
// env-tunable surface working.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// no config file — env + defaults only
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg, nil
}

// Assumptions echoes the sizing-relevant configuration into the order
// proposal file so every plan is auditable against the knobs that shaped it.
func (c *Config) Assumptions() map[string]float64 {
	return map[string]float64{
		"max_market_cap_usd": c.Universe.MaxMarketCapUSD,
		"liq_percentile":     c.Universe.LiqPercentile,
		"weight_r7":          c.Universe.WeightR7,
		"weight_r30":         c.Universe.WeightR30,
		"weight_vol20":       c.Universe.WeightVol20,
		"exit_percentile":    c.Universe.ExitPercentile,
		"risk_per_trade_bps": c.Risk.RiskPerTradeBPS,
		"stop_loss_pct":      c.Risk.StopLossPct,
		"take_profit_pct":    c.Risk.TakeProfitPct,
		"max_alloc_pct":      c.Risk.MaxAllocPct,
		"min_alloc_pct":      c.Risk.MinAllocPct,
		"max_new_positions":  float64(c.Risk.MaxNewPositions),
		"max_positions":      float64(c.Risk.MaxPositions),
		"cash_reserve_pct":   c.Risk.CashReservePct,
		"slippage_bps":       c.Execution.SlippageBPS,
		"fee_bps":            c.Execution.FeeBPS,
	}
}

// applyEnvOverrides maps the historical environment variables onto the
// config. YAML is the base; env wins when set.
func applyEnvOverrides(cfg *Config) {
	envFloat("MAX_MCAP_USD", &cfg.Universe.MaxMarketCapUSD)
	envFloat("LIQ_PERCENTILE", &cfg.Universe.LiqPercentile)
	envFloat("WEIGHT_R7", &cfg.Universe.WeightR7)
	envFloat("WEIGHT_R30", &cfg.Universe.WeightR30)
	envFloat("WEIGHT_VOL20", &cfg.Universe.WeightVol20)
	envFloat("EXIT_PERCENTILE", &cfg.Universe.ExitPercentile)

	envFloat("RISK_PER_TRADE_BPS", &cfg.Risk.RiskPerTradeBPS)
	envFloat("STOP_LOSS_PCT", &cfg.Risk.StopLossPct)
	envFloat("TAKE_PROFIT_PCT", &cfg.Risk.TakeProfitPct)
	envFloat("MAX_ALLOC_PCT", &cfg.Risk.MaxAllocPct)
	envFloat("MIN_ALLOC_PCT", &cfg.Risk.MinAllocPct)
	envInt("MAX_NEW_POS", &cfg.Risk.MaxNewPositions)
	envInt("MAX_POSITIONS", &cfg.Risk.MaxPositions)
	envFloat("CASH_RESERVE_PCT", &cfg.Risk.CashReservePct)

	envFloat("SLIPPAGE_BPS", &cfg.Execution.SlippageBPS)
	envFloat("FEE_BPS", &cfg.Execution.FeeBPS)
	envFloat("INITIAL_CASH_USD", &cfg.Execution.InitialCashUSD)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults fills in every zero value with the historical default.
func setDefaults(cfg *Config) {
	if cfg.Universe.MaxMarketCapUSD <= 0 {
		cfg.Universe.MaxMarketCapUSD = 300_000_000
	}
	if cfg.Universe.LiqPercentile <= 0 {
		cfg.Universe.LiqPercentile = 60
	}
	if cfg.Universe.WeightR7 == 0 && cfg.Universe.WeightR30 == 0 {
		cfg.Universe.WeightR7 = 0.5
		cfg.Universe.WeightR30 = 0.5
	}
	if cfg.Universe.WeightVol20 == 0 {
		cfg.Universe.WeightVol20 = 0.2
	}
	if cfg.Universe.ExitPercentile <= 0 {
		cfg.Universe.ExitPercentile = 30
	}

	if cfg.Risk.RiskPerTradeBPS <= 0 {
		cfg.Risk.RiskPerTradeBPS = 125 // 1.25% NAV
	}
	if cfg.Risk.StopLossPct <= 0 {
		cfg.Risk.StopLossPct = 0.20
	}
	if cfg.Risk.TakeProfitPct <= 0 {
		cfg.Risk.TakeProfitPct = 0.40
	}
	if cfg.Risk.MaxAllocPct <= 0 {
		cfg.Risk.MaxAllocPct = 0.10
	}
	if cfg.Risk.MinAllocPct <= 0 {
		cfg.Risk.MinAllocPct = 0.02
	}
	if cfg.Risk.MaxNewPositions <= 0 {
		cfg.Risk.MaxNewPositions = 8
	}
	if cfg.Risk.MaxPositions <= 0 {
		cfg.Risk.MaxPositions = 14
	}
	if cfg.Risk.CashReservePct <= 0 {
		cfg.Risk.CashReservePct = 0.02
	}

	if cfg.Execution.SlippageBPS <= 0 {
		cfg.Execution.SlippageBPS = 25 // 0.25%
	}
	if cfg.Execution.FeeBPS <= 0 {
		cfg.Execution.FeeBPS = 10 // 0.10%
	}
	if cfg.Execution.InitialCashUSD <= 0 {
		cfg.Execution.InitialCashUSD = 100_000
	}

	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.PortfolioDir == "" {
		cfg.Storage.PortfolioDir = "portfolio"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "coinscout.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
