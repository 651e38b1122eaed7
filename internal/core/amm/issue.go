package amm

import (
	"context"
	"fmt"

	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
)

// Issue credits amount of an external asset to an account. It stands in for
// the asset issuer when the engine runs on its own ledger. LP mints and
// vault accounts are owned by the engine: only pool and escrow operations
// move them.
func (e *Engine) Issue(ctx context.Context, asset ledger.AssetID, to ledger.AccountID, amount uint64) error {
	_, err := e.execute(ctx, events.OpLedgerMint, func(tx *Tx) (events.Event, error) {
		if amount == 0 {
			return events.Event{}, ErrZeroAmount
		}
		if asset == "" || to == "" {
			return events.Event{}, ErrInvalidAccount
		}
		if keylet.IsDerived(string(asset)) {
			return events.Event{}, fmt.Errorf("%w: %s is an engine-owned mint", ErrUnauthorized, asset)
		}
		if keylet.IsDerived(string(to)) {
			return events.Event{}, fmt.Errorf("%w: %s is an engine-owned account", ErrInvalidAccount, to)
		}
		if err := tx.Ledger.Mint(asset, to, amount); err != nil {
			return events.Event{}, err
		}
		return events.Event{
			Actor:     string(to),
			AssetOut:  string(asset),
			AmountOut: amount,
		}, nil
	})
	return err
}

// Balance returns an account's balance of asset.
func (e *Engine) Balance(account ledger.AccountID, asset ledger.AssetID) (uint64, error) {
	return e.backend.Ledger().Balance(account, asset)
}
