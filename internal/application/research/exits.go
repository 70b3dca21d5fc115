package research

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/alejandrodnm/coinscout/internal/domain"
)

// PlanExits flags currently held symbols whose score sits in the bottom
// exitPercentile of the filtered universe and proposes a full liquidation
// for each. A held symbol that is absent from the filtered universe is NOT
// flagged — dropping out of the universe (illiquidity, missing data) is
// deliberately not treated as an exit signal.
//
// candidates must be the ranked output of Rank; the cutoff is computed over
// its scores, so the flagged set is deterministic for identical input.
func PlanExits(candidates []domain.Candidate, positions map[string]float64, exitPercentile float64) []domain.Order {
	if len(candidates) == 0 || len(positions) == 0 {
		return nil
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Score
	}
	cutoff := domain.Quantile(scores, exitPercentile/100.0)

	var exits []domain.Order
	for _, c := range candidates {
		if c.Score > cutoff {
			continue
		}
		if _, held := positions[c.Symbol]; !held {
			continue
		}
		exits = append(exits, domain.Order{
			ID:        uuid.New().String(),
			Symbol:    c.Symbol,
			Side:      domain.SideSell,
			OrderType: "MARKET",
			All:       true,
			Notes: fmt.Sprintf("Exit: score in bottom %.0f%% of universe",
				exitPercentile),
		})
	}
	return exits
}
