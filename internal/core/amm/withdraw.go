package amm

import (
	"context"
	"fmt"

	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
)

// WithdrawParams redeems LPAmount tokens for at least MinAmountX and
// MinAmountY.
type WithdrawParams struct {
	Pool       keylet.Keylet
	Withdrawer ledger.AccountID
	LPAmount   uint64
	MinAmountX uint64
	MinAmountY uint64
}

// Withdraw burns LP tokens and pays out their proportional share of both
// reserves, rounded down. Redeeming the whole supply drains the pool.
func (e *Engine) Withdraw(ctx context.Context, p WithdrawParams) (LiquidityResult, error) {
	var res LiquidityResult

	unlock := e.lockPool(p.Pool, "")
	defer unlock()

	_, err := e.execute(ctx, events.OpWithdraw, func(tx *Tx) (events.Event, error) {
		if p.LPAmount == 0 {
			return events.Event{}, ErrZeroAmount
		}
		pool, err := tx.pool(p.Pool)
		if err != nil {
			return events.Event{}, err
		}
		if pool.Locked {
			return events.Event{}, ErrPoolLocked
		}

		held, err := tx.Ledger.Balance(p.Withdrawer, pool.MintLP)
		if err != nil {
			return events.Event{}, err
		}
		if p.LPAmount > held {
			return events.Event{}, fmt.Errorf("%w: %s holds %d LP, redeeming %d", ErrInsufficientBalance, p.Withdrawer, held, p.LPAmount)
		}

		rx, ry, supply, err := reserves(tx.Ledger, pool)
		if err != nil {
			return events.Event{}, err
		}
		x, err := proportionalShare(p.LPAmount, rx, supply)
		if err != nil {
			return events.Event{}, err
		}
		y, err := proportionalShare(p.LPAmount, ry, supply)
		if err != nil {
			return events.Event{}, err
		}
		if x < p.MinAmountX || y < p.MinAmountY {
			return events.Event{}, fmt.Errorf("%w: share %d/%d, minimum %d/%d", ErrSlippageExceeded, x, y, p.MinAmountX, p.MinAmountY)
		}

		if err := tx.Ledger.Burn(pool.MintLP, p.Withdrawer, p.LPAmount); err != nil {
			return events.Event{}, err
		}
		if err := tx.Ledger.Transfer(pool.MintX, pool.VaultX, p.Withdrawer, x); err != nil {
			return events.Event{}, err
		}
		if err := tx.Ledger.Transfer(pool.MintY, pool.VaultY, p.Withdrawer, y); err != nil {
			return events.Event{}, err
		}

		res = LiquidityResult{AmountX: x, AmountY: y, LPAmount: p.LPAmount}
		return events.Event{
			Key:       p.Pool.ID(),
			Actor:     string(p.Withdrawer),
			AssetIn:   string(pool.MintX),
			AmountIn:  x,
			AssetOut:  string(pool.MintY),
			AmountOut: y,
			LPAmount:  p.LPAmount,
		}, nil
	})
	if err != nil {
		return LiquidityResult{}, err
	}
	return res, nil
}
