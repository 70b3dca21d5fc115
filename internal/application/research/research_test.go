package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/coinscout/internal/domain"
)

type stubFeatures []domain.FeatureRow

func (s stubFeatures) BuildTable(context.Context) ([]domain.FeatureRow, error) {
	return s, nil
}

type stubLedger struct {
	port    *domain.Portfolio
	written *domain.OrderList
}

func (l *stubLedger) LoadPortfolio(context.Context) (*domain.Portfolio, error) { return l.port, nil }
func (l *stubLedger) SavePortfolio(context.Context, *domain.Portfolio) error { return nil }
func (l *stubLedger) WriteOrders(_ context.Context, list domain.OrderList) error {
	l.written = &list
	return nil
}
func (l *stubLedger) ClaimOrders(context.Context) (*domain.OrderList, error) { return nil, nil }
func (l *stubLedger) CommitOrders(context.Context) error { return nil }
func (l *stubLedger) ReleaseOrders(context.Context) error { return nil }

func testEngineConfig() Config {
	return Config{
		Ranker:         testRankerConfig(),
		Sizer:          testSizerConfig(),
		ExitPercentile: 30,
		Assumptions:    map[string]float64{"fee_bps": 10},
	}
}

func TestRunOnce_WritesProposalWithSellsBeforeBuys(t *testing.T) {
	rows := []domain.FeatureRow{
		{Symbol: "HOT", Price: 2, MarketCap: fptr(50e6), Volume: fptr(1e6), R7: fptr(0.4), R30: fptr(0.4), Vol20: fptr(0.1)},
		{Symbol: "WARM", Price: 1, MarketCap: fptr(40e6), Volume: fptr(9e5), R7: fptr(0.2), R30: fptr(0.2), Vol20: fptr(0.1)},
		{Symbol: "COLD", Price: 5, MarketCap: fptr(30e6), Volume: fptr(8e5), R7: fptr(-0.3), R30: fptr(-0.3), Vol20: fptr(0.1)},
	}
	port := domain.NewPortfolio(80_000)
	port.AddPosition("COLD", 100)

	ledger := &stubLedger{port: port}
	cfg := testEngineConfig()
	cfg.Ranker.LiqPercentile = 0
	eng := New(stubFeatures(rows), ledger, cfg)

	result, err := eng.RunOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)

	require.NotNil(t, ledger.written)
	assert.Equal(t, "2026-08-31", ledger.written.AsOf)
	assert.Equal(t, 10.0, ledger.written.Assumptions["fee_bps"])

	require.NotEmpty(t, result.Orders)
	// COLD sits in the bottom 30% and is held: full liquidation first
	first := result.Orders[0]
	assert.Equal(t, domain.SideSell, first.Side)
	assert.Equal(t, "COLD", first.Symbol)
	assert.True(t, first.All)
	// all sells precede all buys
	sawBuy := false
	for _, o := range result.Orders {
		if o.Side == domain.SideBuy {
			sawBuy = true
		}
		if sawBuy {
			assert.Equal(t, domain.SideBuy, o.Side)
		}
	}

	// NAV = cash + 100 × 5
	assert.InDelta(t, 80_500, result.NAV, 1e-9)
}

func TestRunOnce_EmptyUniverseStillWritesProposal(t *testing.T) {
	ledger := &stubLedger{port: domain.NewPortfolio(1000)}
	eng := New(stubFeatures(nil), ledger, testEngineConfig())

	result, err := eng.RunOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, result.Orders)
	assert.NotEmpty(t, result.Warnings)
	require.NotNil(t, ledger.written)
	assert.Empty(t, ledger.written.Orders)
}

func TestRunOnce_UnpricedHoldingWarns(t *testing.T) {
	rows := []domain.FeatureRow{
		{Symbol: "WIF", Price: 2, MarketCap: fptr(50e6), Volume: fptr(1e6)},
	}
	port := domain.NewPortfolio(1000)
	port.AddPosition("GHOST", 10)

	eng := New(stubFeatures(rows), &stubLedger{port: port}, testEngineConfig())
	result, err := eng.RunOnce(context.Background(), "2026-08-31")
	require.NoError(t, err)

	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "GHOST")
	// GHOST contributes 0 to NAV
	assert.InDelta(t, 1000, result.NAV, 1e-9)
}
