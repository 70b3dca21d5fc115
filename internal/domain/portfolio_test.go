package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPortfolio(t *testing.T) {
	p := NewPortfolio(100_000)
	assert.Equal(t, 100_000.0, p.Cash)
	assert.Empty(t, p.Positions)
	assert.Empty(t, p.NavHistory)
	assert.Empty(t, p.Fills)
}

func TestAddPosition_CreatesAndAccumulates(t *testing.T) {
	p := NewPortfolio(1000)
	p.AddPosition("WIF", 1.5)
	p.AddPosition("WIF", 0.25)
	assert.Equal(t, 1.75, p.Position("WIF"))
}

func TestAddPosition_RoundsToSixDecimals(t *testing.T) {
	p := NewPortfolio(1000)
	p.AddPosition("PEPE", 0.1234567)
	assert.Equal(t, 0.123457, p.Position("PEPE"))
}

func TestReducePosition_Partial(t *testing.T) {
	p := NewPortfolio(1000)
	p.AddPosition("WIF", 2.5)
	p.ReducePosition("WIF", 1.0)
	assert.Equal(t, 1.5, p.Position("WIF"))
}

func TestReducePosition_ExactlyZero_RemovesEntry(t *testing.T) {
	p := NewPortfolio(1000)
	p.AddPosition("WIF", 2.5)
	p.ReducePosition("WIF", 2.5)
	assert.NotContains(t, p.Positions, "WIF")
}

func TestReducePosition_Oversell_RemovesEntry(t *testing.T) {
	p := NewPortfolio(1000)
	p.AddPosition("WIF", 1.0)
	p.ReducePosition("WIF", 5.0)
	assert.NotContains(t, p.Positions, "WIF")
}

func TestReducePosition_DustRemainder_RemovesEntry(t *testing.T) {
	p := NewPortfolio(1000)
	p.AddPosition("WIF", 1.0)
	// remainder rounds to 0 at 6 decimals
	p.ReducePosition("WIF", 0.9999999)
	assert.NotContains(t, p.Positions, "WIF")
}

func TestUpsertNav_SameDateReplaces(t *testing.T) {
	p := NewPortfolio(1000)
	p.UpsertNav(NavPoint{Date: "2026-08-30", NAV: 1000, Cash: 1000})
	p.UpsertNav(NavPoint{Date: "2026-08-31", NAV: 1010, Cash: 500})
	p.UpsertNav(NavPoint{Date: "2026-08-31", NAV: 1020, Cash: 400})

	assert.Len(t, p.NavHistory, 2)
	assert.Equal(t, 1020.0, p.NavHistory[1].NAV)
	assert.Equal(t, 400.0, p.NavHistory[1].Cash)
}

func TestUpsertNav_DistinctDatesAppend(t *testing.T) {
	p := NewPortfolio(1000)
	p.UpsertNav(NavPoint{Date: "2026-08-29", NAV: 1000})
	p.UpsertNav(NavPoint{Date: "2026-08-30", NAV: 1005})
	p.UpsertNav(NavPoint{Date: "2026-08-31", NAV: 1010})
	assert.Len(t, p.NavHistory, 3)
	assert.Equal(t, "2026-08-29", p.NavHistory[0].Date)
}
