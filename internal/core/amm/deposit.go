package amm

import (
	"context"
	"fmt"

	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
)

// DepositParams requests LPAmount new LP tokens for at most MaxX and MaxY.
type DepositParams struct {
	Pool      keylet.Keylet
	Depositor ledger.AccountID
	LPAmount  uint64
	MaxX      uint64
	MaxY      uint64
}

// LiquidityResult reports the reserve amounts and LP tokens moved by a
// deposit or withdrawal.
type LiquidityResult struct {
	AmountX  uint64
	AmountY  uint64
	LPAmount uint64
}

// depositAmounts prices a deposit of lpAmount tokens. A live pool charges
// the proportional cost rounded up; a dormant pool is re-seeded with the
// initialization rule using maxX as the X deposit.
func depositAmounts(reserveX, reserveY, supply, lpAmount, maxX, maxY uint64) (x, y uint64, err error) {
	if supply == 0 {
		x, y, _, err = seedAmounts(lpAmount, maxX, maxY)
		return x, y, err
	}
	if x, err = proportionalCost(lpAmount, reserveX, supply); err != nil {
		return 0, 0, err
	}
	if y, err = proportionalCost(lpAmount, reserveY, supply); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// Deposit adds liquidity to an existing pool and mints LP tokens to the
// depositor.
func (e *Engine) Deposit(ctx context.Context, p DepositParams) (LiquidityResult, error) {
	var res LiquidityResult

	unlock := e.lockPool(p.Pool, "")
	defer unlock()

	_, err := e.execute(ctx, events.OpDeposit, func(tx *Tx) (events.Event, error) {
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
		rx, ry, supply, err := reserves(tx.Ledger, pool)
		if err != nil {
			return events.Event{}, err
		}

		x, y, err := depositAmounts(rx, ry, supply, p.LPAmount, p.MaxX, p.MaxY)
		if err != nil {
			return events.Event{}, err
		}
		if x > p.MaxX || y > p.MaxY {
			return events.Event{}, fmt.Errorf("%w: deposit needs %d/%d, bounds %d/%d", ErrSlippageExceeded, x, y, p.MaxX, p.MaxY)
		}

		if err := tx.Ledger.Transfer(pool.MintX, p.Depositor, pool.VaultX, x); err != nil {
			return events.Event{}, err
		}
		if err := tx.Ledger.Transfer(pool.MintY, p.Depositor, pool.VaultY, y); err != nil {
			return events.Event{}, err
		}
		if err := tx.Ledger.Mint(pool.MintLP, p.Depositor, p.LPAmount); err != nil {
			return events.Event{}, err
		}

		res = LiquidityResult{AmountX: x, AmountY: y, LPAmount: p.LPAmount}
		return events.Event{
			Key:       p.Pool.ID(),
			Actor:     string(p.Depositor),
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
