package amm

import (
	"context"
	"fmt"

	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
	"github.com/holiman/uint256"
)

// PoolInfo is a pool record together with its live reserves.
type PoolInfo struct {
	Key      keylet.Keylet
	Pool     state.Pool
	ReserveX uint64
	ReserveY uint64
	LPSupply uint64
}

// K returns the pool invariant reserveX*reserveY.
func (i PoolInfo) K() *uint256.Int {
	return invariant(i.ReserveX, i.ReserveY)
}

// Dormant reports whether the pool has been fully drained.
func (i PoolInfo) Dormant() bool {
	return i.LPSupply == 0
}

// PoolInfo returns a consistent snapshot of one pool.
func (e *Engine) PoolInfo(ctx context.Context, k keylet.Keylet) (PoolInfo, error) {
	if err := ctx.Err(); err != nil {
		return PoolInfo{}, err
	}
	e.locks.RLock(k.ID())
	defer e.locks.RUnlock(k.ID())

	var p state.Pool
	ok, err := state.Get(e.backend.State(), k, &p)
	if err != nil {
		return PoolInfo{}, err
	}
	if !ok {
		return PoolInfo{}, fmt.Errorf("%w: %s", ErrPoolNotFound, k.ID())
	}
	x, y, supply, err := reserves(e.backend.Ledger(), &p)
	if err != nil {
		return PoolInfo{}, err
	}
	return PoolInfo{Key: k, Pool: p, ReserveX: x, ReserveY: y, LPSupply: supply}, nil
}

// Pools lists every pool in key order. Each entry is read under its pool's
// lock, so its record and reserves belong to the same moment.
func (e *Engine) Pools(ctx context.Context) ([]PoolInfo, error) {
	var keys []keylet.Keylet
	err := e.backend.ForEach(keylet.TypePool, func(k keylet.Keylet, _ []byte) bool {
		keys = append(keys, k)
		return true
	})
	if err != nil {
		return nil, err
	}

	out := make([]PoolInfo, 0, len(keys))
	for _, k := range keys {
		info, err := e.PoolInfo(ctx, k)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// QuoteExactIn prices an exact-input swap against current reserves without
// executing it. Fee shares are not computed.
func (e *Engine) QuoteExactIn(ctx context.Context, k keylet.Keylet, d Direction, amountIn uint64) (SwapResult, error) {
	if amountIn == 0 {
		return SwapResult{}, ErrZeroAmount
	}
	info, err := e.PoolInfo(ctx, k)
	if err != nil {
		return SwapResult{}, err
	}
	rIn, rOut := info.directional(d)
	out, fee, err := exactInOutput(rIn, rOut, amountIn, info.Pool.FeeBps)
	if err != nil {
		return SwapResult{}, err
	}
	return SwapResult{AmountIn: amountIn, AmountOut: out, Fee: fee}, nil
}

// QuoteExactOut prices an exact-output swap without executing it.
func (e *Engine) QuoteExactOut(ctx context.Context, k keylet.Keylet, d Direction, amountOut uint64) (SwapResult, error) {
	if amountOut == 0 {
		return SwapResult{}, ErrZeroAmount
	}
	info, err := e.PoolInfo(ctx, k)
	if err != nil {
		return SwapResult{}, err
	}
	rIn, rOut := info.directional(d)
	in, fee, err := exactOutInput(rIn, rOut, amountOut, info.Pool.FeeBps)
	if err != nil {
		return SwapResult{}, err
	}
	return SwapResult{AmountIn: in, AmountOut: amountOut, Fee: fee}, nil
}

func (i PoolInfo) directional(d Direction) (in, out uint64) {
	if d == YToX {
		return i.ReserveY, i.ReserveX
	}
	return i.ReserveX, i.ReserveY
}
