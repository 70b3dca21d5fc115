package ports

import (
	"context"

	"github.com/alejandrodnm/coinscout/internal/domain"
)

// FeatureSource builds the daily per-symbol feature table the ranker
// consumes. Rows are deduplicated by symbol: when several data sources cover
// the same symbol, the highest-priority source wins and later sources only
// fill symbols not already present.
type FeatureSource interface {
	BuildTable(ctx context.Context) ([]domain.FeatureRow, error)
}
