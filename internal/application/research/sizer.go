package research

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/alejandrodnm/coinscout/internal/domain"
)

const (
	// epsStop guards the allocation formula against a zero stop-loss.
	epsStop = 1e-6
	// dustFactor: allocations below this fraction of the minimum are not
	// worth opening.
	dustFactor = 0.6
)

// SizerConfig is the risk budget for entry sizing.
type SizerConfig struct {
	RiskPerTradeBPS float64
	StopLossPct     float64
	TakeProfitPct   float64
	MaxAllocPct     float64 // fraction of NAV
	MinAllocPct     float64 // fraction of NAV
	MaxNewPositions int
	MaxPositions    int
	CashReservePct  float64 // sizing stops when cash falls to this fraction of NAV
}

// PlanEntries converts ranked candidates into sized BUY proposals. The
// allocation is greedy and sequential: candidates are consumed in score
// order and each accepted order debits the running cash, so earlier
// candidates crowd out later ones.
//
// Sizing per candidate:
//
//	risk$  = (risk_bps/10000) · NAV · min(1/max(vol20, ε), 3)
//	alloc  = risk$ / stop_loss, clamped into [min·NAV, max·NAV] and at most
//	         half of the remaining cash, skipped entirely below 0.6·min·NAV
func PlanEntries(nav, cash float64, candidates []domain.Candidate, currentPositions int, cfg SizerConfig) []domain.Order {
	riskPerTrade := cfg.RiskPerTradeBPS / 10_000.0 * nav
	maxAlloc := cfg.MaxAllocPct * nav
	minAlloc := cfg.MinAllocPct * nav
	reserve := cfg.CashReservePct * nav

	room := cfg.MaxPositions - currentPositions
	if room < 0 {
		room = 0
	}
	nToOpen := min(cfg.MaxNewPositions, room, len(candidates))

	var planned []domain.Order
	for _, c := range candidates[:nToOpen] {
		riskDollars := riskPerTrade * domain.VolFactor(c.EffVol20)
		alloc := riskDollars / max(cfg.StopLossPct, epsStop)
		alloc = min(max(alloc, minAlloc), maxAlloc, cash*0.5)
		if alloc < minAlloc*dustFactor {
			slog.Debug("sizer: allocation below dust threshold",
				"symbol", c.Symbol, "alloc", alloc, "min_alloc", minAlloc)
			continue
		}

		planned = append(planned, domain.Order{
			ID:            uuid.New().String(),
			Symbol:        c.Symbol,
			Side:          domain.SideBuy,
			OrderType:     "MARKET",
			NotionalUSD:   round2(alloc),
			Quantity:      domain.RoundQty(alloc / c.Price),
			StopLossPct:   cfg.StopLossPct,
			TakeProfitPct: cfg.TakeProfitPct,
			Notes: fmt.Sprintf("score=%.4f, r7=%.3f, r30=%.3f, vol20=%.4f",
				c.Score, c.EffR7, c.EffR30, c.EffVol20),
		})

		cash -= alloc
		if cash <= reserve {
			break
		}
	}
	return planned
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
