package ports

import (
	"context"
	"errors"
)

// ErrNoPrice is returned when no data source can price a symbol.
var ErrNoPrice = errors.New("no price data")

// PriceSource resolves the best available latest price for a symbol, using
// the same source priority as the feature table.
type PriceSource interface {
	// Latest returns the most recent price and its observation date
	// ("2006-01-02"), or ErrNoPrice.
	Latest(ctx context.Context, symbol string) (price float64, asOf string, err error)
}
