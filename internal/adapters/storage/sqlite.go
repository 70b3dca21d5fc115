package storage

// sqlite.go — the fills log and daily summaries.
//
// Strategy:
//   - `fills`: one row per (date, symbol, side). A re-run that produces the
//     same key merges into the existing row (quantities and fees summed,
//     price averaged by notional) instead of duplicating it.
//   - `daily`: one row per calendar date (UPSERT), the per-run snapshot of
//     NAV, cash and position count the report mode renders.

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/coinscout/internal/domain"
)

const schema = `
-- One merged row per executed (date, symbol, side)
CREATE TABLE IF NOT EXISTS fills (
    date   TEXT NOT NULL,
    symbol TEXT NOT NULL,
    side   TEXT NOT NULL,
    qty    REAL NOT NULL DEFAULT 0,
    price  REAL NOT NULL DEFAULT 0,
    fee    REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (date, symbol, side)
);

-- One snapshot per run date
CREATE TABLE IF NOT EXISTS daily (
    date           TEXT PRIMARY KEY,
    nav            REAL    NOT NULL DEFAULT 0,
    cash           REAL    NOT NULL DEFAULT 0,
    positions      INTEGER NOT NULL DEFAULT 0,
    orders_applied INTEGER NOT NULL DEFAULT 0,
    fees           REAL    NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_fills_symbol ON fills(symbol);
CREATE INDEX IF NOT EXISTS idx_fills_date   ON fills(date DESC);
`

// SQLiteStorage implements ports.FillsStore using SQLite (pure Go, no CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveFills merges fills into the log. Writing the same (date, symbol, side)
// twice adds quantities and fees and recomputes the price as the
// notional-weighted average — never a duplicate row.
func (s *SQLiteStorage) SaveFills(ctx context.Context, fills []domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveFills: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fills (date, symbol, side, qty, price, fee)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, symbol, side) DO UPDATE SET
			price = CASE WHEN fills.qty + excluded.qty > 0
			             THEN (fills.qty * fills.price + excluded.qty * excluded.price)
			                  / (fills.qty + excluded.qty)
			             ELSE excluded.price END,
			qty   = fills.qty + excluded.qty,
			fee   = fills.fee + excluded.fee
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveFills: prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range fills {
		if _, err := stmt.ExecContext(ctx,
			f.Date, f.Symbol, string(f.Side), f.Qty, f.Price, f.Fee,
		); err != nil {
			return fmt.Errorf("storage.SaveFills: upsert %s %s: %w", f.Side, f.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveFills: commit: %w", err)
	}
	return nil
}

// GetFills returns the merged fills for a date, ordered by symbol then side.
func (s *SQLiteStorage) GetFills(ctx context.Context, date string) ([]domain.Fill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, symbol, side, qty, price, fee
		FROM fills WHERE date = ?
		ORDER BY symbol, side`, date)
	if err != nil {
		return nil, fmt.Errorf("storage.GetFills: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Fill
	for rows.Next() {
		var f domain.Fill
		var side string
		if err := rows.Scan(&f.Date, &f.Symbol, &side, &f.Qty, &f.Price, &f.Fee); err != nil {
			return nil, fmt.Errorf("storage.GetFills: scan: %w", err)
		}
		f.Side = domain.Side(side)
		out = append(out, f)
	}
	return out, rows.Err()
}

// SaveDaily upserts the daily snapshot.
func (s *SQLiteStorage) SaveDaily(ctx context.Context, d domain.DailySummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily (date, nav, cash, positions, orders_applied, fees)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			nav            = excluded.nav,
			cash           = excluded.cash,
			positions      = excluded.positions,
			orders_applied = excluded.orders_applied,
			fees           = excluded.fees`,
		d.Date, d.NAV, d.Cash, d.Positions, d.OrdersApplied, d.Fees,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveDaily: %w", err)
	}
	return nil
}

// GetDailies returns the daily snapshots in chronological order.
func (s *SQLiteStorage) GetDailies(ctx context.Context) ([]domain.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, nav, cash, positions, orders_applied, fees
		FROM daily ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetDailies: query: %w", err)
	}
	defer rows.Close()

	var out []domain.DailySummary
	for rows.Next() {
		var d domain.DailySummary
		if err := rows.Scan(&d.Date, &d.NAV, &d.Cash, &d.Positions, &d.OrdersApplied, &d.Fees); err != nil {
			return nil, fmt.Errorf("storage.GetDailies: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
