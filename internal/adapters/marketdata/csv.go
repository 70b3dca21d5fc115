package marketdata

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// csvSeries is one symbol's parsed time series, sorted by date ascending.
type csvSeries struct {
	dates  []string
	prices []float64
	// volume and mcap mirror prices index-wise; NaN means the cell was
	// empty or the column absent.
	volume []float64
	mcap   []float64
}

func (s *csvSeries) empty() bool { return len(s.prices) == 0 }

func (s *csvSeries) lastDate() string { return s.dates[len(s.dates)-1] }
func (s *csvSeries) lastPrice() float64 { return s.prices[len(s.prices)-1] }

func (s *csvSeries) lastVolume() *float64 { return lastValid(s.volume) }
func (s *csvSeries) lastMcap() *float64 { return lastValid(s.mcap) }

func lastValid(col []float64) *float64 {
	if len(col) == 0 {
		return nil
	}
	v := col[len(col)-1]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// loadCSVSeries parses a per-symbol CSV. The price column is resolved from
// priceCols in order (different sources name it differently); volume and
// market cap columns are optional.
func loadCSVSeries(path string, priceCols, volumeCols, mcapCols []string) (*csvSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("marketdata.loadCSVSeries: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("marketdata.loadCSVSeries: parse %q: %w", path, err)
	}
	if len(records) < 2 {
		return &csvSeries{}, nil
	}

	header := records[0]
	dateIdx := colIndex(header, "date")
	priceIdx := firstColIndex(header, priceCols)
	if dateIdx < 0 || priceIdx < 0 {
		return nil, fmt.Errorf("marketdata.loadCSVSeries: %q: no date/price column", path)
	}
	volIdx := firstColIndex(header, volumeCols)
	mcapIdx := firstColIndex(header, mcapCols)

	rows := records[1:]
	sort.SliceStable(rows, func(i, j int) bool {
		return cell(rows[i], dateIdx) < cell(rows[j], dateIdx)
	})

	s := &csvSeries{}
	for _, rec := range rows {
		price, err := strconv.ParseFloat(cell(rec, priceIdx), 64)
		if err != nil {
			continue // unusable row
		}
		s.dates = append(s.dates, dateOnly(cell(rec, dateIdx)))
		s.prices = append(s.prices, price)
		s.volume = append(s.volume, parseCell(rec, volIdx))
		s.mcap = append(s.mcap, parseCell(rec, mcapIdx))
	}
	return s, nil
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func parseCell(rec []string, idx int) float64 {
	v, err := strconv.ParseFloat(cell(rec, idx), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func colIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(strings.ToLower(h)) == name {
			return i
		}
	}
	return -1
}

func firstColIndex(header []string, names []string) int {
	for _, n := range names {
		if idx := colIndex(header, n); idx >= 0 {
			return idx
		}
	}
	return -1
}

// dateOnly keeps the calendar-day prefix of a timestamp cell.
func dateOnly(v string) string {
	if len(v) > 10 {
		return v[:10]
	}
	return v
}
