package ports

import (
	"context"

	"github.com/alejandrodnm/coinscout/internal/domain"
)

// FillsStore persists the daily fills log and per-run daily summaries.
// Fills are keyed by (date, symbol, side): writing the same key twice merges
// quantities instead of duplicating rows.
type FillsStore interface {
	SaveFills(ctx context.Context, fills []domain.Fill) error
	GetFills(ctx context.Context, date string) ([]domain.Fill, error)

	SaveDaily(ctx context.Context, d domain.DailySummary) error
	GetDailies(ctx context.Context) ([]domain.DailySummary, error)
}
