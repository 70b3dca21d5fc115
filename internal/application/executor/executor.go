package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/alejandrodnm/coinscout/internal/domain"
	"github.com/alejandrodnm/coinscout/internal/ports"
)

// Config is the simulated fill model.
type Config struct {
	SlippageBPS float64 // adverse price movement applied to every execution
	FeeBPS      float64 // fee charged on the traded notional
}

// Engine applies a claimed order proposal against the portfolio ledger.
// One invocation consumes the proposal at most once: the file is claimed
// exclusively before reading and deleted after the ledger is persisted.
type Engine struct {
	ledger ports.LedgerStore
	fills  ports.FillsStore
	prices ports.PriceSource
	cfg    Config
}

// New creates an executor with all collaborators injected.
func New(ledger ports.LedgerStore, fills ports.FillsStore, prices ports.PriceSource, cfg Config) *Engine {
	return &Engine{ledger: ledger, fills: fills, prices: prices, cfg: cfg}
}

// ApplyResult summarizes one executor run.
type ApplyResult struct {
	Date      string
	NoOp      bool // no proposal file, or an empty one
	Fills     []domain.Fill
	Rejected  []string // order-level rejections (insufficient cash, no price)
	Skipped   []string // no-op proposals (zero quantity, nothing held)
	NAV       float64
	Cash      float64
	Positions int
	Unpriced  []string // held symbols valued at 0 in the NAV
}

// ApplyOnce claims the order proposal and applies it to the ledger: fills
// with slippage and fees, NAV recomputation, atomic persist, proposal
// deletion. Re-running with no proposal present is a documented no-op.
// Partial success is normal: individual orders are rejected or skipped
// with a logged reason while the rest of the run proceeds.
func (e *Engine) ApplyOnce(ctx context.Context, date string) (*ApplyResult, error) {
	result := &ApplyResult{Date: date}

	list, err := e.ledger.ClaimOrders(ctx)
	if errors.Is(err, ports.ErrNoOrders) {
		slog.Info("executor: no order proposal; nothing to do")
		result.NoOp = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("executor.ApplyOnce: claim orders: %w", err)
	}
	if len(list.Orders) == 0 {
		slog.Info("executor: order list empty; nothing to do")
		if err := e.ledger.ReleaseOrders(ctx); err != nil {
			slog.Warn("executor: could not release empty proposal", "err", err)
		}
		result.NoOp = true
		return result, nil
	}

	port, err := e.ledger.LoadPortfolio(ctx)
	if err != nil {
		// Structural failure: put the claim back untouched and abort
		// before any state mutates.
		if relErr := e.ledger.ReleaseOrders(ctx); relErr != nil {
			slog.Error("executor: could not release claim after load failure", "err", relErr)
		}
		return nil, fmt.Errorf("executor.ApplyOnce: load portfolio: %w", err)
	}

	for _, o := range list.Orders {
		e.applyOrder(ctx, port, o, date, result)
	}

	port.AppendFills(result.Fills)

	nav, unpriced := e.markToMarket(ctx, port)
	result.NAV = nav
	result.Unpriced = unpriced
	port.UpsertNav(domain.NavPoint{Date: date, NAV: nav, Cash: port.Cash})

	if err := e.ledger.SavePortfolio(ctx, port); err != nil {
		if relErr := e.ledger.ReleaseOrders(ctx); relErr != nil {
			slog.Error("executor: could not release claim after save failure", "err", relErr)
		}
		return nil, fmt.Errorf("executor.ApplyOnce: save portfolio: %w", err)
	}

	if len(result.Fills) > 0 {
		if err := e.fills.SaveFills(ctx, result.Fills); err != nil {
			slog.Warn("executor: could not persist fills log", "err", err)
		}
	}
	var totalFees float64
	for _, f := range result.Fills {
		totalFees += f.Fee
	}
	if err := e.fills.SaveDaily(ctx, domain.DailySummary{
		Date:          date,
		NAV:           nav,
		Cash:          port.Cash,
		Positions:     len(port.Positions),
		OrdersApplied: len(result.Fills),
		Fees:          totalFees,
	}); err != nil {
		slog.Warn("executor: could not persist daily summary", "err", err)
	}

	// Consumed: the proposal must never be applicable twice.
	if err := e.ledger.CommitOrders(ctx); err != nil {
		return nil, fmt.Errorf("executor.ApplyOnce: delete consumed orders: %w", err)
	}

	result.Cash = port.Cash
	result.Positions = len(port.Positions)

	slog.Info("executor: applied orders",
		"date", date,
		"fills", len(result.Fills),
		"rejected", len(result.Rejected),
		"skipped", len(result.Skipped),
		"nav", fmt.Sprintf("%.2f", nav),
		"cash", fmt.Sprintf("%.2f", port.Cash),
	)
	return result, nil
}

// applyOrder executes one order against the in-memory portfolio.
func (e *Engine) applyOrder(ctx context.Context, port *domain.Portfolio, o domain.Order, date string, result *ApplyResult) {
	px, _, err := e.prices.Latest(ctx, o.Symbol)
	if err != nil {
		slog.Warn("executor: skip order, no price", "symbol", o.Symbol, "side", o.Side, "err", err)
		result.Rejected = append(result.Rejected,
			fmt.Sprintf("%s %s: no price data", o.Side, o.Symbol))
		return
	}

	feeRate := e.cfg.FeeBPS / 10_000.0

	switch o.Side {
	case domain.SideBuy:
		// Slippage always moves against the trader.
		effPx := px * (1 + e.cfg.SlippageBPS/10_000.0)

		qty := o.Quantity
		notional := o.NotionalUSD
		switch {
		case notional > 0 && qty == 0:
			qty = domain.RoundQty(notional / effPx)
		case qty > 0 && notional == 0:
			notional = qty * effPx
		case qty == 0 && notional == 0:
			result.Skipped = append(result.Skipped,
				fmt.Sprintf("BUY %s: no quantity or notional", o.Symbol))
			return
		}

		cost := qty * effPx
		fee := cost * feeRate
		total := cost + fee
		if port.Cash < total {
			slog.Warn("executor: reject BUY, insufficient cash",
				"symbol", o.Symbol, "needed", fmt.Sprintf("%.2f", total),
				"cash", fmt.Sprintf("%.2f", port.Cash))
			result.Rejected = append(result.Rejected,
				fmt.Sprintf("BUY %s: insufficient cash (need %.2f, have %.2f)", o.Symbol, total, port.Cash))
			return
		}
		port.Cash -= total
		port.AddPosition(o.Symbol, qty)
		result.Fills = append(result.Fills, domain.Fill{
			Date:   date,
			Symbol: o.Symbol,
			Side:   domain.SideBuy,
			Qty:    qty,
			Price:  round8(effPx),
			Fee:    round6(fee),
		})

	case domain.SideSell:
		effPx := px * (1 - e.cfg.SlippageBPS/10_000.0)

		held := port.Position(o.Symbol)
		qty := o.Quantity
		if o.All {
			qty = held
		}
		if qty <= 0 || held <= 0 {
			result.Skipped = append(result.Skipped,
				fmt.Sprintf("SELL %s: nothing to sell", o.Symbol))
			return
		}
		// Over-sells clamp to the held quantity rather than rejecting —
		// a long-standing leniency the ledger format relies on.
		if qty > held {
			slog.Info("executor: clamping over-sell",
				"symbol", o.Symbol, "requested", qty, "held", held)
			qty = held
		}

		proceeds := qty * effPx
		fee := proceeds * feeRate
		port.Cash += proceeds - fee
		port.ReducePosition(o.Symbol, qty)
		result.Fills = append(result.Fills, domain.Fill{
			Date:   date,
			Symbol: o.Symbol,
			Side:   domain.SideSell,
			Qty:    qty,
			Price:  round8(effPx),
			Fee:    round6(fee),
		})

	default:
		slog.Warn("executor: unknown order side", "symbol", o.Symbol, "side", o.Side)
		result.Skipped = append(result.Skipped,
			fmt.Sprintf("%s %s: unknown side", o.Side, o.Symbol))
	}
}

// markToMarket resolves the best available price for every held symbol and
// computes NAV over the updated position set.
func (e *Engine) markToMarket(ctx context.Context, port *domain.Portfolio) (float64, []string) {
	prices := make(map[string]float64, len(port.Positions))
	for sym := range port.Positions {
		px, _, err := e.prices.Latest(ctx, sym)
		if err != nil {
			continue // NAVFromPrices reports it as unpriced
		}
		prices[sym] = px
	}
	nav, unpriced := domain.NAVFromPrices(port, prices)
	for _, sym := range unpriced {
		slog.Warn("executor: no price for held symbol, valued at 0 in NAV", "symbol", sym)
	}
	return nav, unpriced
}

func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
