package marketdata

// files.go — feature table and latest-price lookup over the on-disk market
// data layout:
//
//	<dataDir>/ohlc/SYM__ccxt_kraken_*.csv   exchange OHLCV
//	<dataDir>/ohlc/SYM__ccxt_*.csv          alternate exchange OHLCV
//	<dataDir>/ohlc/SYM__*.csv               aggregator OHLC
//	<dataDir>/time_series/SYM__*.csv        coarse daily series
//	<dataDir>/daily/<date>.json             raw market snapshot
//
// Per symbol the highest-priority source wins; lower tiers only fill
// symbols not already covered. Market cap (and volume, when the OHLC file
// lacks it) is joined in from the symbol's time-series twin.

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alejandrodnm/coinscout/internal/domain"
	"github.com/alejandrodnm/coinscout/internal/ports"
)

const (
	sourceKrakenOHLC   = "ccxt_kraken"
	sourceExchangeOHLC = "ccxt"
	sourceAggOHLC      = "ohlc"
	sourceTimeSeries   = "time_series"
	sourceSnapshot     = "daily_snapshot"
)

var (
	ohlcPriceCols = []string{"close"}
	tsPriceCols   = []string{"price_usd"}
	volumeCols    = []string{"volume", "volume_usd", "total_volume"}
	tsVolumeCols  = []string{"volume_usd", "total_volume"}
	mcapCols      = []string{"market_cap_usd", "market_cap"}
)

// FileSource implements ports.FeatureSource and ports.PriceSource over the
// data directory.
type FileSource struct {
	dataDir string
}

// NewFileSource creates a source rooted at dataDir.
func NewFileSource(dataDir string) *FileSource {
	return &FileSource{dataDir: dataDir}
}

// BuildTable assembles the per-symbol feature table, one row per symbol.
// Unreadable files are skipped with a warning; an empty table is returned
// as-is (the ranker reports the empty universe, the cycle still completes).
func (fs *FileSource) BuildTable(ctx context.Context) ([]domain.FeatureRow, error) {
	var table []domain.FeatureRow
	seen := map[string]bool{}

	for _, tier := range []string{sourceKrakenOHLC, sourceExchangeOHLC, sourceAggOHLC} {
		files := fs.ohlcFiles(tier)
		for _, sym := range sortedKeys(files) {
			if seen[sym] {
				continue
			}
			row, ok := fs.ohlcRow(sym, files[sym], tier)
			if !ok {
				continue
			}
			seen[sym] = true
			table = append(table, row)
		}
	}

	tsFiles := fs.timeSeriesFiles()
	for _, sym := range sortedKeys(tsFiles) {
		if seen[sym] {
			continue
		}
		row, ok := fs.timeSeriesRow(sym, tsFiles[sym])
		if !ok {
			continue
		}
		seen[sym] = true
		table = append(table, row)
	}

	// Last resort: the newest raw snapshot fills symbols with no series at
	// all (price, volume and cap only — no trailing features).
	for _, row := range fs.snapshotRows() {
		if seen[row.Symbol] {
			continue
		}
		seen[row.Symbol] = true
		table = append(table, row)
	}

	return table, nil
}

// Latest resolves the most recent price for a symbol using the same source
// priority as BuildTable.
func (fs *FileSource) Latest(ctx context.Context, symbol string) (float64, string, error) {
	sym := strings.ToUpper(symbol)

	for _, tier := range []string{sourceKrakenOHLC, sourceExchangeOHLC, sourceAggOHLC} {
		if path, ok := fs.ohlcFiles(tier)[sym]; ok {
			s, err := loadCSVSeries(path, ohlcPriceCols, volumeCols, nil)
			if err == nil && !s.empty() {
				return s.lastPrice(), s.lastDate(), nil
			}
		}
	}
	if path, ok := fs.timeSeriesFiles()[sym]; ok {
		s, err := loadCSVSeries(path, tsPriceCols, tsVolumeCols, mcapCols)
		if err == nil && !s.empty() {
			return s.lastPrice(), s.lastDate(), nil
		}
	}
	for _, row := range fs.snapshotRows() {
		if row.Symbol == sym && row.Price > 0 {
			return row.Price, row.AsOf, nil
		}
	}
	return 0, "", ports.ErrNoPrice
}

// ohlcRow builds a feature row from an OHLC series, joining market cap and
// missing volume from the time-series twin.
func (fs *FileSource) ohlcRow(sym, path, source string) (domain.FeatureRow, bool) {
	s, err := loadCSVSeries(path, ohlcPriceCols, volumeCols, nil)
	if err != nil {
		slog.Warn("marketdata: skipping unreadable series", "path", path, "err", err)
		return domain.FeatureRow{}, false
	}
	if s.empty() {
		return domain.FeatureRow{}, false
	}

	row := domain.FeatureRow{
		Symbol: sym,
		Price:  s.lastPrice(),
		Volume: s.lastVolume(),
		R7:     trailingReturn(s.prices, 7),
		R30:    trailingReturn(s.prices, 30),
		R90:    trailingReturn(s.prices, 90),
		Vol20:  returnVolatility(s.prices, 20),
		Source: source,
		AsOf:   s.lastDate(),
	}

	if twin, ok := fs.timeSeriesFiles()[sym]; ok {
		if ts, err := loadCSVSeries(twin, tsPriceCols, tsVolumeCols, mcapCols); err == nil && !ts.empty() {
			row.MarketCap = ts.lastMcap()
			if row.Volume == nil {
				row.Volume = ts.lastVolume()
			}
		}
	}
	return row, true
}

// timeSeriesRow builds a feature row straight from a coarse daily series.
func (fs *FileSource) timeSeriesRow(sym, path string) (domain.FeatureRow, bool) {
	s, err := loadCSVSeries(path, tsPriceCols, tsVolumeCols, mcapCols)
	if err != nil {
		slog.Warn("marketdata: skipping unreadable series", "path", path, "err", err)
		return domain.FeatureRow{}, false
	}
	if s.empty() {
		return domain.FeatureRow{}, false
	}
	return domain.FeatureRow{
		Symbol:    sym,
		Price:     s.lastPrice(),
		Volume:    s.lastVolume(),
		MarketCap: s.lastMcap(),
		R7:        trailingReturn(s.prices, 7),
		R30:       trailingReturn(s.prices, 30),
		R90:       trailingReturn(s.prices, 90),
		Vol20:     returnVolatility(s.prices, 20),
		Source:    sourceTimeSeries,
		AsOf:      s.lastDate(),
	}, true
}

// ohlcFiles maps symbol → lexically last matching file for one tier.
func (fs *FileSource) ohlcFiles(tier string) map[string]string {
	out := map[string]string{}
	dir := filepath.Join(fs.dataDir, "ohlc")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		sym, ok := symbolOf(name)
		if !ok || classifyOHLC(name) != tier {
			continue
		}
		if prev, ok := out[sym]; !ok || name > filepath.Base(prev) {
			out[sym] = filepath.Join(dir, name)
		}
	}
	return out
}

// timeSeriesFiles maps symbol → lexically last time-series file.
func (fs *FileSource) timeSeriesFiles() map[string]string {
	out := map[string]string{}
	dir := filepath.Join(fs.dataDir, "time_series")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		sym, ok := symbolOf(name)
		if !ok {
			continue
		}
		if prev, ok := out[sym]; !ok || name > filepath.Base(prev) {
			out[sym] = filepath.Join(dir, name)
		}
	}
	return out
}

func classifyOHLC(name string) string {
	switch {
	case strings.Contains(name, "__ccxt_kraken_"):
		return sourceKrakenOHLC
	case strings.Contains(name, "__ccxt_"):
		return sourceExchangeOHLC
	default:
		return sourceAggOHLC
	}
}

// symbolOf extracts the uppercase symbol from a "SYM__rest.csv" filename.
func symbolOf(name string) (string, bool) {
	idx := strings.Index(name, "__")
	if idx <= 0 {
		return "", false
	}
	return strings.ToUpper(name[:idx]), true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// trailingReturn is the n-period trailing return, nil when the series is
// too short.
func trailingReturn(prices []float64, n int) *float64 {
	if len(prices) <= n+1 {
		return nil
	}
	last := prices[len(prices)-1]
	base := prices[len(prices)-1-n]
	if base == 0 {
		return nil
	}
	r := last/base - 1
	return &r
}

// returnVolatility is the sample standard deviation of the last n
// one-period returns, nil when fewer than n+1 prices exist.
func returnVolatility(prices []float64, n int) *float64 {
	if len(prices) < n+1 {
		return nil
	}
	rets := make([]float64, 0, n)
	for i := len(prices) - n; i < len(prices); i++ {
		if prices[i-1] == 0 {
			return nil
		}
		rets = append(rets, prices[i]/prices[i-1]-1)
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var ss float64
	for _, r := range rets {
		d := r - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(rets)-1))
	return &sd
}
