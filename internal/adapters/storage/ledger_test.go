package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/coinscout/internal/domain"
	"github.com/alejandrodnm/coinscout/internal/ports"
)

func newTestLedger(t *testing.T) *LedgerFiles {
	t.Helper()
	s, err := NewLedgerFiles(t.TempDir(), 100_000)
	require.NoError(t, err)
	return s
}

func TestLoadPortfolio_BootstrapsFirstRun(t *testing.T) {
	s := newTestLedger(t)
	ctx := context.Background()

	p, err := s.LoadPortfolio(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, p.Cash)
	assert.Empty(t, p.Positions)

	// bootstrap persists immediately
	_, err = os.Stat(filepath.Join(s.dir, portfolioFile))
	assert.NoError(t, err)
}

func TestSaveLoadPortfolio_RoundTrip(t *testing.T) {
	s := newTestLedger(t)
	ctx := context.Background()

	p := domain.NewPortfolio(5000)
	p.AddPosition("WIF", 2.5)
	p.UpsertNav(domain.NavPoint{Date: "2026-08-31", NAV: 5100, Cash: 5000})
	p.AppendFills([]domain.Fill{{Date: "2026-08-31", Symbol: "WIF", Side: domain.SideBuy, Qty: 2.5, Price: 40, Fee: 0.1}})
	require.NoError(t, s.SavePortfolio(ctx, p))

	back, err := s.LoadPortfolio(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, back.Cash)
	assert.Equal(t, 2.5, back.Position("WIF"))
	require.Len(t, back.NavHistory, 1)
	require.Len(t, back.Fills, 1)
}

func TestLoadPortfolio_CorruptFileIsFatal(t *testing.T) {
	s := newTestLedger(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, portfolioFile), []byte("{not json"), 0o644))

	_, err := s.LoadPortfolio(context.Background())
	assert.Error(t, err)
}

func TestClaimOrders_NoFile(t *testing.T) {
	s := newTestLedger(t)
	_, err := s.ClaimOrders(context.Background())
	assert.ErrorIs(t, err, ports.ErrNoOrders)
}

func TestClaimCommit_ConsumesProposal(t *testing.T) {
	s := newTestLedger(t)
	ctx := context.Background()

	list := domain.OrderList{
		AsOf:   "2026-08-31",
		Orders: []domain.Order{{Symbol: "WIF", Side: domain.SideSell, All: true}},
	}
	require.NoError(t, s.WriteOrders(ctx, list))

	claimed, err := s.ClaimOrders(ctx)
	require.NoError(t, err)
	require.Len(t, claimed.Orders, 1)
	assert.True(t, claimed.Orders[0].All)

	// claimed: the proposal path is gone, a second claim loses
	_, err = s.ClaimOrders(ctx)
	assert.ErrorIs(t, err, ports.ErrNoOrders)

	require.NoError(t, s.CommitOrders(ctx))
	_, err = os.Stat(filepath.Join(s.dir, ordersFile+ordersClaimExt))
	assert.True(t, os.IsNotExist(err))
}

func TestReleaseOrders_RestoresProposal(t *testing.T) {
	s := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, s.WriteOrders(ctx, domain.OrderList{AsOf: "2026-08-31"}))
	_, err := s.ClaimOrders(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ReleaseOrders(ctx))

	again, err := s.ClaimOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-31", again.AsOf)
}

func TestWriteOrders_ReplacesPending(t *testing.T) {
	s := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, s.WriteOrders(ctx, domain.OrderList{AsOf: "2026-08-30"}))
	require.NoError(t, s.WriteOrders(ctx, domain.OrderList{AsOf: "2026-08-31"}))

	claimed, err := s.ClaimOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-31", claimed.AsOf)
}

func TestSavePortfolio_LeavesNoTempFiles(t *testing.T) {
	s := newTestLedger(t)
	require.NoError(t, s.SavePortfolio(context.Background(), domain.NewPortfolio(1)))

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, portfolioFile, entries[0].Name())
}
