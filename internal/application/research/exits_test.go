package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/coinscout/internal/domain"
)

func scored(symbol string, score float64) domain.Candidate {
	return domain.Candidate{
		FeatureRow: domain.FeatureRow{Symbol: symbol, Price: 1},
		Score:      score,
	}
}

func TestPlanExits_FlagsBottomPercentileHoldings(t *testing.T) {
	cands := []domain.Candidate{
		scored("A", 0.5), scored("B", 0.4), scored("C", 0.3),
		scored("D", 0.2), scored("E", 0.1),
	}
	positions := map[string]float64{"A": 1, "D": 1, "E": 1}

	// 30th pct of [0.1..0.5] = 0.22 → D (0.2) and E (0.1) flagged, A is not
	exits := PlanExits(cands, positions, 30)
	require.Len(t, exits, 2)
	assert.Equal(t, "D", exits[0].Symbol)
	assert.Equal(t, "E", exits[1].Symbol)
	for _, e := range exits {
		assert.Equal(t, domain.SideSell, e.Side)
		assert.True(t, e.All)
	}
}

func TestPlanExits_UnheldLowScorersIgnored(t *testing.T) {
	cands := []domain.Candidate{
		scored("A", 0.5), scored("B", 0.1),
	}
	exits := PlanExits(cands, map[string]float64{"A": 1}, 30)
	assert.Empty(t, exits)
}

func TestPlanExits_AbsentFromUniverseNotFlagged(t *testing.T) {
	// GHOST is held but fell out of the filtered universe entirely.
	// Dropping out is not an exit signal.
	cands := []domain.Candidate{
		scored("A", 0.5), scored("B", 0.1),
	}
	exits := PlanExits(cands, map[string]float64{"GHOST": 2, "B": 1}, 30)
	require.Len(t, exits, 1)
	assert.Equal(t, "B", exits[0].Symbol)
}

func TestPlanExits_Deterministic(t *testing.T) {
	cands := []domain.Candidate{
		scored("A", 0.4), scored("B", 0.3), scored("C", 0.2), scored("D", 0.1),
	}
	positions := map[string]float64{"A": 1, "B": 1, "C": 1, "D": 1}

	first := PlanExits(cands, positions, 50)
	for n := 0; n < 10; n++ {
		again := PlanExits(cands, positions, 50)
		require.Len(t, again, len(first))
		for i := range first {
			assert.Equal(t, first[i].Symbol, again[i].Symbol)
		}
	}
}

func TestPlanExits_EmptyInputs(t *testing.T) {
	assert.Nil(t, PlanExits(nil, map[string]float64{"A": 1}, 30))
	assert.Nil(t, PlanExits([]domain.Candidate{scored("A", 1)}, nil, 30))
}
