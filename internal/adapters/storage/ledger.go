package storage

// ledger.go — the portfolio ledger and order proposal files.
//
// The ledger is a single JSON file read fully, mutated in memory, and
// replaced atomically (temp file + rename), so a crash can never leave a
// half-written portfolio. The order proposal is handed out through an
// exclusive claim: ClaimOrders renames it to a private path first, so of two
// concurrent executor runs only one can ever see it.

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alejandrodnm/coinscout/internal/domain"
	"github.com/alejandrodnm/coinscout/internal/ports"
)

const (
	portfolioFile  = "positions.json"
	ordersFile     = "next_orders.json"
	ordersClaimExt = ".applying"
)

// LedgerFiles implements ports.LedgerStore on top of a portfolio directory.
type LedgerFiles struct {
	dir         string
	initialCash float64
}

// NewLedgerFiles creates the store, making the directory if needed.
// initialCash seeds the portfolio on first run.
func NewLedgerFiles(dir string, initialCash float64) (*LedgerFiles, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewLedgerFiles: mkdir %q: %w", dir, err)
	}
	return &LedgerFiles{dir: dir, initialCash: initialCash}, nil
}

// LoadPortfolio reads the ledger. On first run it bootstraps and persists a
// fresh portfolio with the configured starting cash.
func (s *LedgerFiles) LoadPortfolio(ctx context.Context) (*domain.Portfolio, error) {
	path := filepath.Join(s.dir, portfolioFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		p := domain.NewPortfolio(s.initialCash)
		if err := s.SavePortfolio(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.LoadPortfolio: read %q: %w", path, err)
	}

	var p domain.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("storage.LoadPortfolio: parse %q: %w", path, err)
	}
	if p.Positions == nil {
		p.Positions = map[string]float64{}
	}
	return &p, nil
}

// SavePortfolio atomically replaces the ledger file.
func (s *LedgerFiles) SavePortfolio(_ context.Context, p *domain.Portfolio) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.SavePortfolio: marshal: %w", err)
	}
	if err := s.writeAtomic(filepath.Join(s.dir, portfolioFile), data); err != nil {
		return fmt.Errorf("storage.SavePortfolio: %w", err)
	}
	return nil
}

// WriteOrders writes the order proposal file, replacing any unapplied one.
func (s *LedgerFiles) WriteOrders(_ context.Context, list domain.OrderList) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.WriteOrders: marshal: %w", err)
	}
	if err := s.writeAtomic(filepath.Join(s.dir, ordersFile), data); err != nil {
		return fmt.Errorf("storage.WriteOrders: %w", err)
	}
	return nil
}

// ClaimOrders atomically takes the proposal file. The rename is the claim:
// a concurrent invocation racing on the same file loses the rename and gets
// ErrNoOrders.
func (s *LedgerFiles) ClaimOrders(_ context.Context) (*domain.OrderList, error) {
	src := filepath.Join(s.dir, ordersFile)
	claim := src + ordersClaimExt

	if err := os.Rename(src, claim); err != nil {
		if os.IsNotExist(err) {
			return nil, ports.ErrNoOrders
		}
		return nil, fmt.Errorf("storage.ClaimOrders: claim %q: %w", src, err)
	}

	data, err := os.ReadFile(claim)
	if err != nil {
		return nil, fmt.Errorf("storage.ClaimOrders: read claim: %w", err)
	}
	var list domain.OrderList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("storage.ClaimOrders: parse %q: %w", claim, err)
	}
	return &list, nil
}

// CommitOrders deletes the claimed proposal file.
func (s *LedgerFiles) CommitOrders(_ context.Context) error {
	claim := filepath.Join(s.dir, ordersFile) + ordersClaimExt
	if err := os.Remove(claim); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage.CommitOrders: %w", err)
	}
	return nil
}

// ReleaseOrders restores an unapplied claim to the proposal path.
func (s *LedgerFiles) ReleaseOrders(_ context.Context) error {
	src := filepath.Join(s.dir, ordersFile)
	claim := src + ordersClaimExt
	if err := os.Rename(claim, src); err != nil {
		return fmt.Errorf("storage.ReleaseOrders: %w", err)
	}
	return nil
}

// writeAtomic writes data to a temp file in the same directory and renames
// it over path.
func (s *LedgerFiles) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
