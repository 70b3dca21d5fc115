package domain

// FeatureRow is one symbol's entry in the daily feature table.
// Price and Symbol are mandatory; every other field is optional and a nil
// pointer means "unknown", which is distinct from zero.
type FeatureRow struct {
	Symbol    string
	Price     float64
	Volume    *float64 // trailing USD volume
	MarketCap *float64 // USD market capitalization
	R7        *float64 // 7-period trailing return
	R30       *float64 // 30-period trailing return
	R90       *float64 // 90-period trailing return
	Vol20     *float64 // stddev of the last 20 one-period returns
	Source    string   // which data source produced the row
	AsOf      string   // date of the last observation, "2006-01-02"
}

// Candidate is a feature row that survived filtering, annotated with its
// momentum/volatility score.
type Candidate struct {
	FeatureRow
	Score float64

	// EffR7, EffR30, EffVol20 are the values actually used in the score
	// after the missing-data fill policy was applied.
	EffR7    float64
	EffR30   float64
	EffVol20 float64
}
