package research

import (
	"log/slog"
	"sort"

	"github.com/alejandrodnm/coinscout/internal/domain"
)

// RankerConfig contains the universe filtering and scoring parameters.
type RankerConfig struct {
	// MaxMarketCapUSD drops anything at or above this ceiling (micro-cap
	// universe restriction). Rows with unknown or non-positive market cap
	// are dropped too.
	MaxMarketCapUSD float64
	// LiqPercentile (0–100) sets the volume floor at this percentile of
	// the surviving rows' volumes.
	LiqPercentile float64
	// Weights parameterize the momentum/volatility score.
	Weights domain.ScoreWeights
}

// Rank filters the feature table and returns the surviving rows annotated
// with their score, best first. The sort is stable so identical inputs
// always produce identical output, with input order breaking score ties.
func Rank(rows []domain.FeatureRow, cfg RankerConfig) []domain.Candidate {
	kept := make([]domain.FeatureRow, 0, len(rows))
	for _, r := range rows {
		if r.Price <= 0 {
			slog.Debug("ranker: dropping row without price", "symbol", r.Symbol)
			continue
		}
		if r.MarketCap == nil || *r.MarketCap <= 0 || *r.MarketCap >= cfg.MaxMarketCapUSD {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil
	}

	// Liquidity floor: percentile of volume across the remaining rows.
	// A missing volume counts as 0 here, without touching the row itself.
	volumes := make([]float64, len(kept))
	for i, r := range kept {
		if r.Volume != nil {
			volumes[i] = *r.Volume
		}
	}
	volThr := domain.Quantile(volumes, cfg.LiqPercentile/100.0)

	liquid := kept[:0]
	for i, r := range kept {
		if volumes[i] >= volThr {
			liquid = append(liquid, r)
		}
	}
	if len(liquid) == 0 {
		return nil
	}

	// Missing vol20 falls back to the median across the surviving rows
	// (0 when nobody has one); missing momentum is neutral.
	var present []float64
	for _, r := range liquid {
		if r.Vol20 != nil {
			present = append(present, *r.Vol20)
		}
	}
	vol20Fill := 0.0
	if len(present) > 0 {
		vol20Fill = domain.Median(present)
	}

	candidates := make([]domain.Candidate, 0, len(liquid))
	for _, r := range liquid {
		c := domain.Candidate{
			FeatureRow: r,
			EffR7:      orZero(r.R7),
			EffR30:     orZero(r.R30),
			EffVol20:   vol20Fill,
		}
		if r.Vol20 != nil {
			c.EffVol20 = *r.Vol20
		}
		c.Score = domain.Score(c.EffR7, c.EffR30, c.EffVol20, cfg.Weights)
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
