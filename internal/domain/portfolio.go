package domain

// QtyDecimals is the precision used for position quantities.
// All quantities are rounded to 6 decimal places before being stored.
const QtyDecimals = 6

// Side is the direction of an order or fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// NavPoint is one entry in the portfolio NAV history.
// Dates are calendar days in "2006-01-02" format; the history holds at most
// one point per date (re-running the same day replaces the entry).
type NavPoint struct {
	Date string  `json:"date"`
	NAV  float64 `json:"nav"`
	Cash float64 `json:"cash"`
}

// Fill is an immutable record of one simulated execution.
// Price includes slippage; Fee is the cost charged on the traded notional.
type Fill struct {
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
	Side   Side    `json:"side"`
	Qty    float64 `json:"qty"`
	Price  float64 `json:"price"`
	Fee    float64 `json:"fee"`
}

// Portfolio is the simulated spot portfolio ledger.
// It is read fully, mutated in memory by one executor run, and rewritten
// atomically by the ledger store.
type Portfolio struct {
	Cash       float64            `json:"cash"`
	Positions  map[string]float64 `json:"positions"`
	NavHistory []NavPoint         `json:"nav_history"`
	Fills      []Fill             `json:"fills"`
}

// NewPortfolio creates an empty portfolio with the given starting cash.
func NewPortfolio(cash float64) *Portfolio {
	return &Portfolio{
		Cash:       cash,
		Positions:  map[string]float64{},
		NavHistory: []NavPoint{},
		Fills:      []Fill{},
	}
}

// Position returns the held quantity for a symbol (0 if not held).
func (p *Portfolio) Position(symbol string) float64 {
	return p.Positions[symbol]
}

// AddPosition credits quantity to a symbol, creating the entry if absent.
// The stored quantity is rounded to QtyDecimals.
func (p *Portfolio) AddPosition(symbol string, qty float64) {
	if p.Positions == nil {
		p.Positions = map[string]float64{}
	}
	p.Positions[symbol] = RoundQty(p.Positions[symbol] + qty)
}

// ReducePosition debits quantity from a symbol. If the remainder rounds to
// zero or below, the entry is removed — a zero or negative position is never
// stored.
func (p *Portfolio) ReducePosition(symbol string, qty float64) {
	rest := RoundQty(p.Positions[symbol] - qty)
	if rest <= 0 {
		delete(p.Positions, symbol)
		return
	}
	p.Positions[symbol] = rest
}

// UpsertNav records a NAV point, replacing any existing entry for the same
// date. History stays append-only across distinct dates.
func (p *Portfolio) UpsertNav(point NavPoint) {
	for i := range p.NavHistory {
		if p.NavHistory[i].Date == point.Date {
			p.NavHistory[i] = point
			return
		}
	}
	p.NavHistory = append(p.NavHistory, point)
}

// AppendFills adds executed fills to the in-memory fill trail.
func (p *Portfolio) AppendFills(fills []Fill) {
	p.Fills = append(p.Fills, fills...)
}
