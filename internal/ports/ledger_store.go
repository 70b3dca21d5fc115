package ports

import (
	"context"
	"errors"

	"github.com/alejandrodnm/coinscout/internal/domain"
)

// ErrNoOrders is returned by ClaimOrders when there is no proposal file to
// consume. Callers treat it as a clean no-op, not a failure.
var ErrNoOrders = errors.New("no order proposal file")

// LedgerStore owns the persisted portfolio ledger and the order proposal
// file. The ledger is a single-writer resource: implementations must replace
// it atomically and must hand out the order file through an exclusive claim
// so that two concurrent executor runs cannot both consume it.
type LedgerStore interface {
	// LoadPortfolio reads the ledger, bootstrapping a fresh portfolio on
	// first run.
	LoadPortfolio(ctx context.Context) (*domain.Portfolio, error)

	// SavePortfolio atomically replaces the ledger file.
	SavePortfolio(ctx context.Context, p *domain.Portfolio) error

	// WriteOrders writes the day's order proposal file.
	WriteOrders(ctx context.Context, list domain.OrderList) error

	// ClaimOrders atomically takes exclusive ownership of the proposal file
	// and returns its contents, or ErrNoOrders. After a claim, exactly one
	// of CommitOrders or ReleaseOrders must follow.
	ClaimOrders(ctx context.Context) (*domain.OrderList, error)

	// CommitOrders deletes the claimed proposal so it can never be applied
	// twice.
	CommitOrders(ctx context.Context) error

	// ReleaseOrders puts an unapplied claim back for a later run.
	ReleaseOrders(ctx context.Context) error
}
