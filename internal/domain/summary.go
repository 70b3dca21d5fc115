package domain

// DailySummary is the per-run snapshot persisted alongside the fills log,
// one row per calendar date (re-runs on the same date overwrite).
type DailySummary struct {
	Date          string
	NAV           float64
	Cash          float64
	Positions     int
	OrdersApplied int
	Fees          float64
}
