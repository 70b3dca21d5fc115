package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/coinscout/internal/domain"
	"github.com/alejandrodnm/coinscout/internal/ports"
)

// Config bundles everything one research cycle needs. It is passed by
// value; the engine never reads ambient state.
type Config struct {
	Ranker         RankerConfig
	Sizer          SizerConfig
	ExitPercentile float64
	// Assumptions is echoed verbatim into the order proposal file.
	Assumptions map[string]float64
}

// Engine runs one research cycle: feature table → ranked candidates →
// sized entries + flagged exits → order proposal file.
type Engine struct {
	features ports.FeatureSource
	ledger   ports.LedgerStore
	cfg      Config
}

// New creates a research engine with all collaborators injected.
func New(features ports.FeatureSource, ledger ports.LedgerStore, cfg Config) *Engine {
	return &Engine{features: features, ledger: ledger, cfg: cfg}
}

// CycleResult contains everything produced by one research cycle.
type CycleResult struct {
	AsOf       string
	NAV        float64
	Cash       float64
	Positions  int
	TableRows  int
	Candidates []domain.Candidate
	Orders     []domain.Order
	Buys       int
	Sells      int
	Warnings   []string
}

// RunOnce executes a single research cycle for the given date and writes
// the order proposal file. An empty universe is not an error: the cycle
// still completes and writes an empty proposal.
func (e *Engine) RunOnce(ctx context.Context, asOf string) (*CycleResult, error) {
	result := &CycleResult{AsOf: asOf}

	table, err := e.features.BuildTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("research.RunOnce: build feature table: %w", err)
	}
	result.TableRows = len(table)

	port, err := e.ledger.LoadPortfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("research.RunOnce: load portfolio: %w", err)
	}

	// NAV off the feature table itself: the best view of the world this
	// cycle has. Unpriced holdings are flagged, never silently valued.
	prices := make(map[string]float64, len(table))
	for _, r := range table {
		if r.Price > 0 {
			prices[r.Symbol] = r.Price
		}
	}
	nav, unpriced := domain.NAVFromPrices(port, prices)
	if len(unpriced) > 0 {
		slog.Warn("research: held symbols without price, valued at 0",
			"symbols", strings.Join(unpriced, ","))
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no price for held: %s", strings.Join(unpriced, ", ")))
	}
	result.NAV = nav
	result.Cash = port.Cash
	result.Positions = len(port.Positions)

	candidates := Rank(table, e.cfg.Ranker)
	result.Candidates = candidates
	if len(candidates) == 0 {
		slog.Warn("research: universe empty after filters", "table_rows", len(table))
		result.Warnings = append(result.Warnings, "universe empty after filters")
	}

	// Sells first so freed capital is available to the buys downstream.
	sells := PlanExits(candidates, port.Positions, e.cfg.ExitPercentile)
	buys := PlanEntries(nav, port.Cash, candidates, len(port.Positions), e.cfg.Sizer)
	orders := append(append([]domain.Order{}, sells...), buys...)
	result.Orders = orders
	result.Buys = len(buys)
	result.Sells = len(sells)

	list := domain.OrderList{
		AsOf:        asOf,
		Orders:      orders,
		Assumptions: e.cfg.Assumptions,
	}
	if err := e.ledger.WriteOrders(ctx, list); err != nil {
		return nil, fmt.Errorf("research.RunOnce: write orders: %w", err)
	}

	slog.Info("research: cycle complete",
		"as_of", asOf,
		"table_rows", len(table),
		"candidates", len(candidates),
		"buys", len(buys),
		"sells", len(sells),
		"nav", fmt.Sprintf("%.2f", nav),
	)
	return result, nil
}
