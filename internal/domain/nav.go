package domain

import "sort"

// NAVFromPrices marks the portfolio to market: cash plus quantity × price
// for every held symbol. Symbols missing from prices contribute 0 and are
// returned in unpriced so callers can surface the data-quality problem —
// a zero valuation is never a legitimate price.
//
// Positions are summed in sorted symbol order so the result is identical
// across runs for identical input.
func NAVFromPrices(p *Portfolio, prices map[string]float64) (nav float64, unpriced []string) {
	nav = p.Cash

	symbols := make([]string, 0, len(p.Positions))
	for sym := range p.Positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		px, ok := prices[sym]
		if !ok || px <= 0 {
			unpriced = append(unpriced, sym)
			continue
		}
		nav += p.Positions[sym] * px
	}
	return nav, unpriced
}
