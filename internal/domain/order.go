package domain

import (
	"encoding/json"
	"fmt"
)

// sellAllSentinel is the wire value a SELL order carries in place of a
// numeric quantity to liquidate the whole position.
const sellAllSentinel = "ALL"

// Order is a proposed trade. Orders are ephemeral: written once by the
// research cycle, consumed exactly once by the executor.
//
// For a BUY either Quantity or NotionalUSD may be set (the executor derives
// the missing one from the effective price). For a SELL, Quantity is
// authoritative and All requests full liquidation.
type Order struct {
	ID            string
	Symbol        string
	Side          Side
	OrderType     string
	NotionalUSD   float64
	Quantity      float64
	All           bool
	StopLossPct   float64
	TakeProfitPct float64
	Notes         string
}

// OrderList is the order proposal file contents: the day's orders plus an
// echo of the configuration they were derived under.
type OrderList struct {
	AsOf        string             `json:"as_of"`
	Orders      []Order            `json:"orders"`
	Assumptions map[string]float64 `json:"assumptions,omitempty"`
}

// orderJSON is the wire shape of an Order. Quantity is a raw message because
// the original file format allows the string "ALL" for sells.
type orderJSON struct {
	ID            string          `json:"id,omitempty"`
	Symbol        string          `json:"symbol"`
	Side          Side            `json:"side"`
	OrderType     string          `json:"order_type,omitempty"`
	NotionalUSD   float64         `json:"notional_usd,omitempty"`
	Quantity      json.RawMessage `json:"quantity,omitempty"`
	StopLossPct   float64         `json:"stop_loss_pct,omitempty"`
	TakeProfitPct float64         `json:"take_profit_pct,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// MarshalJSON writes the quantity as "ALL" for full liquidations and as a
// number otherwise (omitted when zero).
func (o Order) MarshalJSON() ([]byte, error) {
	w := orderJSON{
		ID:            o.ID,
		Symbol:        o.Symbol,
		Side:          o.Side,
		OrderType:     o.OrderType,
		NotionalUSD:   o.NotionalUSD,
		StopLossPct:   o.StopLossPct,
		TakeProfitPct: o.TakeProfitPct,
		Notes:         o.Notes,
	}
	switch {
	case o.All:
		w.Quantity = json.RawMessage(`"` + sellAllSentinel + `"`)
	case o.Quantity != 0:
		q, err := json.Marshal(o.Quantity)
		if err != nil {
			return nil, err
		}
		w.Quantity = q
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts a numeric quantity, the string "ALL", or no quantity
// at all.
func (o *Order) UnmarshalJSON(data []byte) error {
	var w orderJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = Order{
		ID:            w.ID,
		Symbol:        w.Symbol,
		Side:          w.Side,
		OrderType:     w.OrderType,
		NotionalUSD:   w.NotionalUSD,
		StopLossPct:   w.StopLossPct,
		TakeProfitPct: w.TakeProfitPct,
		Notes:         w.Notes,
	}
	if len(w.Quantity) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(w.Quantity, &s); err == nil {
		if s != sellAllSentinel {
			return fmt.Errorf("domain.Order: unknown quantity sentinel %q", s)
		}
		o.All = true
		return nil
	}
	if err := json.Unmarshal(w.Quantity, &o.Quantity); err != nil {
		return fmt.Errorf("domain.Order: parse quantity: %w", err)
	}
	return nil
}
