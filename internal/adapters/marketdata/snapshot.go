package marketdata

// snapshot.go — the raw daily market snapshot (<dataDir>/daily/<date>.json),
// one JSON array per day in the aggregator's wire shape. Written by the
// fetch mode, consumed here as the lowest-priority feature source.

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alejandrodnm/coinscout/internal/domain"
)

// snapshotCoin is the subset of the aggregator row the table needs.
type snapshotCoin struct {
	Symbol       string   `json:"symbol"`
	CurrentPrice float64  `json:"current_price"`
	MarketCap    *float64 `json:"market_cap"`
	TotalVolume  *float64 `json:"total_volume"`
}

// WriteSnapshot persists one day's snapshot as <dataDir>/daily/<date>.json.
// rows is marshalled as-is so the file stays in the provider's shape.
func WriteSnapshot(dataDir, date string, rows any) error {
	dir := filepath.Join(dataDir, "daily")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("marketdata.WriteSnapshot: mkdir %q: %w", dir, err)
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marketdata.WriteSnapshot: marshal: %w", err)
	}
	path := filepath.Join(dir, date+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("marketdata.WriteSnapshot: write %q: %w", path, err)
	}
	return nil
}

// snapshotRows loads the newest snapshot as feature rows (no trailing
// features — snapshots have no history).
func (fs *FileSource) snapshotRows() []domain.FeatureRow {
	dir := filepath.Join(fs.dataDir, "daily")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	newest := names[len(names)-1]

	data, err := os.ReadFile(filepath.Join(dir, newest))
	if err != nil {
		slog.Warn("marketdata: unreadable snapshot", "file", newest, "err", err)
		return nil
	}
	var coins []snapshotCoin
	if err := json.Unmarshal(data, &coins); err != nil {
		slog.Warn("marketdata: malformed snapshot", "file", newest, "err", err)
		return nil
	}

	asOf := strings.TrimSuffix(newest, ".json")
	var rows []domain.FeatureRow
	for _, c := range coins {
		if c.Symbol == "" || c.CurrentPrice <= 0 {
			continue
		}
		rows = append(rows, domain.FeatureRow{
			Symbol:    strings.ToUpper(c.Symbol),
			Price:     c.CurrentPrice,
			Volume:    c.TotalVolume,
			MarketCap: c.MarketCap,
			Source:    sourceSnapshot,
			AsOf:      asOf,
		})
	}
	return rows
}
