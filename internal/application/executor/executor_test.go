package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/coinscout/internal/domain"
	"github.com/alejandrodnm/coinscout/internal/ports"
)

// --- fakes ---

type fakeLedger struct {
	port     *domain.Portfolio
	orders   *domain.OrderList
	claimed  *domain.OrderList
	loadErr  error
	saves    int
	commits  int
	releases int
}

func (l *fakeLedger) LoadPortfolio(context.Context) (*domain.Portfolio, error) {
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	return l.port, nil
}

func (l *fakeLedger) SavePortfolio(_ context.Context, p *domain.Portfolio) error {
	l.port = p
	l.saves++
	return nil
}

func (l *fakeLedger) WriteOrders(_ context.Context, list domain.OrderList) error {
	l.orders = &list
	return nil
}

func (l *fakeLedger) ClaimOrders(context.Context) (*domain.OrderList, error) {
	if l.orders == nil {
		return nil, ports.ErrNoOrders
	}
	l.claimed = l.orders
	l.orders = nil
	return l.claimed, nil
}

func (l *fakeLedger) CommitOrders(context.Context) error {
	l.claimed = nil
	l.commits++
	return nil
}

func (l *fakeLedger) ReleaseOrders(context.Context) error {
	l.orders = l.claimed
	l.claimed = nil
	l.releases++
	return nil
}

type fakeFills struct {
	fills   []domain.Fill
	dailies []domain.DailySummary
}

func (f *fakeFills) SaveFills(_ context.Context, fills []domain.Fill) error {
	f.fills = append(f.fills, fills...)
	return nil
}

func (f *fakeFills) GetFills(_ context.Context, date string) ([]domain.Fill, error) {
	var out []domain.Fill
	for _, fl := range f.fills {
		if fl.Date == date {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fakeFills) SaveDaily(_ context.Context, d domain.DailySummary) error {
	f.dailies = append(f.dailies, d)
	return nil
}

func (f *fakeFills) GetDailies(context.Context) ([]domain.DailySummary, error) {
	return f.dailies, nil
}

type fakePrices map[string]float64

func (p fakePrices) Latest(_ context.Context, symbol string) (float64, string, error) {
	px, ok := p[symbol]
	if !ok {
		return 0, "", ports.ErrNoPrice
	}
	return px, "2026-08-31", nil
}

func newTestEngine(port *domain.Portfolio, orders []domain.Order, prices fakePrices, cfg Config) (*Engine, *fakeLedger, *fakeFills) {
	ledger := &fakeLedger{port: port}
	if orders != nil {
		ledger.orders = &domain.OrderList{AsOf: "2026-08-31", Orders: orders}
	}
	fills := &fakeFills{}
	return New(ledger, fills, prices, cfg), ledger, fills
}

// --- scenarios ---

func TestApplyOnce_BuyWithNotional(t *testing.T) {
	// price 50, slippage 25 bps → effective 50.125; fee 10 bps on cost
	port := domain.NewPortfolio(100_000)
	orders := []domain.Order{{Symbol: "WIF", Side: domain.SideBuy, NotionalUSD: 1000}}
	eng, ledger, _ := newTestEngine(port, orders, fakePrices{"WIF": 50}, Config{SlippageBPS: 25, FeeBPS: 10})

	result, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	require.Len(t, result.Fills, 1)

	effPx := 50 * 1.0025
	qty := domain.RoundQty(1000 / effPx)
	cost := qty * effPx
	fee := cost * 0.001
	total := cost + fee

	assert.Equal(t, qty, result.Fills[0].Qty)
	assert.InDelta(t, effPx, result.Fills[0].Price, 1e-8)
	assert.InDelta(t, 100_000-total, ledger.port.Cash, 1e-9)
	assert.Equal(t, qty, ledger.port.Position("WIF"))
	assert.Equal(t, 1, ledger.commits)
}

func TestApplyOnce_SellAll(t *testing.T) {
	// 2.5 units at effective price 100, fee 10 bps → proceeds 250, fee 0.25
	port := domain.NewPortfolio(0)
	port.AddPosition("WIF", 2.5)
	orders := []domain.Order{{Symbol: "WIF", Side: domain.SideSell, All: true}}
	eng, ledger, _ := newTestEngine(port, orders, fakePrices{"WIF": 100}, Config{SlippageBPS: 0, FeeBPS: 10})

	result, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	require.Len(t, result.Fills, 1)

	assert.Equal(t, 2.5, result.Fills[0].Qty)
	assert.Equal(t, 0.25, result.Fills[0].Fee)
	assert.InDelta(t, 249.75, ledger.port.Cash, 1e-9)
	assert.NotContains(t, ledger.port.Positions, "WIF")
}

func TestApplyOnce_InsufficientCashRejectsAndContinues(t *testing.T) {
	port := domain.NewPortfolio(100)
	orders := []domain.Order{
		{Symbol: "BIG", Side: domain.SideBuy, NotionalUSD: 5000},
		{Symbol: "SMALL", Side: domain.SideBuy, NotionalUSD: 50},
	}
	eng, ledger, _ := newTestEngine(port, orders, fakePrices{"BIG": 10, "SMALL": 1}, Config{FeeBPS: 10})

	result, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)

	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0], "BIG")
	require.Len(t, result.Fills, 1)
	assert.Equal(t, "SMALL", result.Fills[0].Symbol)
	assert.GreaterOrEqual(t, ledger.port.Cash, 0.0)
	assert.NotContains(t, ledger.port.Positions, "BIG")
}

func TestApplyOnce_OversellClampsToHeld(t *testing.T) {
	port := domain.NewPortfolio(0)
	port.AddPosition("WIF", 1.5)
	orders := []domain.Order{{Symbol: "WIF", Side: domain.SideSell, Quantity: 10}}
	eng, ledger, _ := newTestEngine(port, orders, fakePrices{"WIF": 100}, Config{})

	result, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	require.Len(t, result.Fills, 1)
	assert.Equal(t, 1.5, result.Fills[0].Qty)
	assert.NotContains(t, ledger.port.Positions, "WIF")
}

func TestApplyOnce_SellNothingHeldSkips(t *testing.T) {
	port := domain.NewPortfolio(100)
	orders := []domain.Order{{Symbol: "GHOST", Side: domain.SideSell, All: true}}
	eng, _, _ := newTestEngine(port, orders, fakePrices{"GHOST": 5}, Config{})

	result, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, result.Fills)
	assert.Len(t, result.Skipped, 1)
}

func TestApplyOnce_BuyWithoutSizeSkips(t *testing.T) {
	port := domain.NewPortfolio(100)
	orders := []domain.Order{{Symbol: "WIF", Side: domain.SideBuy}}
	eng, _, _ := newTestEngine(port, orders, fakePrices{"WIF": 5}, Config{})

	result, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, result.Fills)
	assert.Len(t, result.Skipped, 1)
}

func TestApplyOnce_NoPriceRejects(t *testing.T) {
	port := domain.NewPortfolio(1000)
	orders := []domain.Order{{Symbol: "DARK", Side: domain.SideBuy, NotionalUSD: 100}}
	eng, _, _ := newTestEngine(port, orders, fakePrices{}, Config{})

	result, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, result.Fills)
	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0], "no price")
}

func TestApplyOnce_NoProposalIsNoOp(t *testing.T) {
	port := domain.NewPortfolio(1000)
	eng, ledger, _ := newTestEngine(port, nil, fakePrices{}, Config{})

	result, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	assert.True(t, result.NoOp)
	assert.Zero(t, ledger.saves)
}

func TestApplyOnce_SecondApplyIsNoOp(t *testing.T) {
	port := domain.NewPortfolio(1000)
	orders := []domain.Order{{Symbol: "WIF", Side: domain.SideBuy, NotionalUSD: 100}}
	eng, ledger, _ := newTestEngine(port, orders, fakePrices{"WIF": 10}, Config{})

	first, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	assert.False(t, first.NoOp)
	cashAfter := ledger.port.Cash

	second, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	assert.True(t, second.NoOp)
	assert.Equal(t, cashAfter, ledger.port.Cash)
	assert.Equal(t, 1, ledger.saves)
}

func TestApplyOnce_CashConservation(t *testing.T) {
	port := domain.NewPortfolio(10_000)
	port.AddPosition("OLD", 5)
	orders := []domain.Order{
		{Symbol: "OLD", Side: domain.SideSell, All: true},
		{Symbol: "NEW", Side: domain.SideBuy, NotionalUSD: 2000},
		{Symbol: "ALSO", Side: domain.SideBuy, Quantity: 10},
	}
	prices := fakePrices{"OLD": 40, "NEW": 2, "ALSO": 15}
	cfg := Config{SlippageBPS: 25, FeeBPS: 10}
	eng, ledger, _ := newTestEngine(port, orders, prices, cfg)

	_, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)

	sellPx := 40 * (1 - 0.0025)
	sellProceeds := 5 * sellPx
	sellNet := sellProceeds - sellProceeds*0.001

	buy1Px := 2 * 1.0025
	buy1Qty := domain.RoundQty(2000 / buy1Px)
	buy1Cost := buy1Qty * buy1Px
	buy1Total := buy1Cost + buy1Cost*0.001

	buy2Px := 15 * 1.0025
	buy2Cost := 10 * buy2Px
	buy2Total := buy2Cost + buy2Cost*0.001

	expected := 10_000 + sellNet - buy1Total - buy2Total
	assert.InDelta(t, expected, ledger.port.Cash, 1e-9)

	// no phantom positions
	for sym, qty := range ledger.port.Positions {
		assert.Greater(t, qty, 0.0, sym)
	}
}

func TestApplyOnce_NavHistoryUpsertByDate(t *testing.T) {
	port := domain.NewPortfolio(1000)
	ledger := &fakeLedger{port: port}
	fills := &fakeFills{}
	eng := New(ledger, fills, fakePrices{"WIF": 10}, Config{})

	ledger.orders = &domain.OrderList{Orders: []domain.Order{
		{Symbol: "WIF", Side: domain.SideBuy, NotionalUSD: 100},
	}}
	_, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)

	// re-run the same date with a new proposal: history replaces, not appends
	ledger.orders = &domain.OrderList{Orders: []domain.Order{
		{Symbol: "WIF", Side: domain.SideBuy, NotionalUSD: 100},
	}}
	_, err = eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)

	require.Len(t, ledger.port.NavHistory, 1)
	assert.Equal(t, "2026-08-31", ledger.port.NavHistory[0].Date)
}

func TestApplyOnce_UnpricedHoldingFlaggedInNAV(t *testing.T) {
	port := domain.NewPortfolio(500)
	port.AddPosition("GHOST", 3)
	orders := []domain.Order{{Symbol: "WIF", Side: domain.SideBuy, NotionalUSD: 100}}
	eng, _, _ := newTestEngine(port, orders, fakePrices{"WIF": 10}, Config{})

	result, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	assert.Contains(t, result.Unpriced, "GHOST")
}

func TestApplyOnce_LoadFailureReleasesClaim(t *testing.T) {
	ledger := &fakeLedger{
		loadErr: errors.New("corrupt ledger"),
		orders:  &domain.OrderList{Orders: []domain.Order{{Symbol: "WIF", Side: domain.SideBuy, NotionalUSD: 100}}},
	}
	eng := New(ledger, &fakeFills{}, fakePrices{"WIF": 10}, Config{})

	_, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.Error(t, err)
	assert.Equal(t, 1, ledger.releases)
	assert.NotNil(t, ledger.orders, "proposal must be back in place for a later run")
}

func TestApplyOnce_DailySummaryWritten(t *testing.T) {
	port := domain.NewPortfolio(1000)
	orders := []domain.Order{{Symbol: "WIF", Side: domain.SideBuy, NotionalUSD: 100}}
	eng, _, fills := newTestEngine(port, orders, fakePrices{"WIF": 10}, Config{FeeBPS: 10})

	_, err := eng.ApplyOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)

	require.Len(t, fills.dailies, 1)
	assert.Equal(t, "2026-08-31", fills.dailies[0].Date)
	assert.Equal(t, 1, fills.dailies[0].OrdersApplied)
	assert.Greater(t, fills.dailies[0].Fees, 0.0)
}
