package amm

import (
	"context"
	"fmt"
	"strings"

	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
)

// Direction selects which pool asset a swap sells.
type Direction uint8

const (
	// XToY sells X for Y
	XToY Direction = iota
	// YToX sells Y for X
	YToX
)

func (d Direction) String() string {
	if d == YToX {
		return "y_to_x"
	}
	return "x_to_y"
}

// ParseDirection accepts "x_to_y"/"xy" and "y_to_x"/"yx".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "x_to_y", "xy":
		return XToY, nil
	case "y_to_x", "yx":
		return YToX, nil
	default:
		return 0, fmt.Errorf("unknown swap direction %q", s)
	}
}

// Referral optionally names the referrer credited for a swap. The zero value
// is "no referrer".
type Referral struct {
	referrer ledger.AccountID
}

// ReferredBy returns a Referral crediting referrer.
func ReferredBy(referrer ledger.AccountID) Referral {
	return Referral{referrer: referrer}
}

// Referrer returns the referrer and whether one is set.
func (r Referral) Referrer() (ledger.AccountID, bool) {
	return r.referrer, r.referrer != ""
}

// SwapExactInParams sells exactly AmountIn for at least MinAmountOut.
type SwapExactInParams struct {
	Pool         keylet.Keylet
	Trader       ledger.AccountID
	Direction    Direction
	AmountIn     uint64
	MinAmountOut uint64
	Referral     Referral
}

// SwapExactOutParams buys exactly AmountOut for at most MaxAmountIn.
type SwapExactOutParams struct {
	Pool        keylet.Keylet
	Trader      ledger.AccountID
	Direction   Direction
	AmountOut   uint64
	MaxAmountIn uint64
	Referral    Referral
}

// SwapResult reports the settled amounts of a swap. Fee is the whole fee
// withheld from the input; ProtocolFee and ReferralFee are the parts of it
// paid out of the pool.
type SwapResult struct {
	AmountIn    uint64
	AmountOut   uint64
	Fee         uint64
	ProtocolFee uint64
	ReferralFee uint64
}

// leg resolves the input and output side of a pool for a direction.
type leg struct {
	mintIn, mintOut   ledger.AssetID
	vaultIn, vaultOut ledger.AccountID
}

func legOf(p *state.Pool, d Direction) leg {
	if d == YToX {
		return leg{mintIn: p.MintY, mintOut: p.MintX, vaultIn: p.VaultY, vaultOut: p.VaultX}
	}
	return leg{mintIn: p.MintX, mintOut: p.MintY, vaultIn: p.VaultX, vaultOut: p.VaultY}
}

func (l leg) reserves(r ledger.Reader) (in, out uint64, err error) {
	if in, err = r.Balance(l.vaultIn, l.mintIn); err != nil {
		return 0, 0, err
	}
	if out, err = r.Balance(l.vaultOut, l.mintOut); err != nil {
		return 0, 0, err
	}
	return in, out, nil
}

// SwapExactIn sells an exact input amount.
func (e *Engine) SwapExactIn(ctx context.Context, p SwapExactInParams) (SwapResult, error) {
	referrer, _ := p.Referral.Referrer()
	unlock := e.lockPool(p.Pool, referrer)
	defer unlock()

	var res SwapResult
	_, err := e.execute(ctx, events.OpSwapExactIn, func(tx *Tx) (events.Event, error) {
		if p.AmountIn == 0 {
			return events.Event{}, ErrZeroAmount
		}
		pool, l, rIn, rOut, err := tx.swapSide(p.Pool, p.Direction)
		if err != nil {
			return events.Event{}, err
		}

		out, fee, err := exactInOutput(rIn, rOut, p.AmountIn, pool.FeeBps)
		if err != nil {
			return events.Event{}, err
		}
		if out == 0 {
			return events.Event{}, fmt.Errorf("%w: %d in returns nothing", ErrZeroAmount, p.AmountIn)
		}
		if out < p.MinAmountOut {
			return events.Event{}, fmt.Errorf("%w: out %d < min %d", ErrSlippageExceeded, out, p.MinAmountOut)
		}
		if out >= rOut {
			return events.Event{}, ErrInsufficientLiquidity
		}

		res = SwapResult{AmountIn: p.AmountIn, AmountOut: out, Fee: fee}
		return tx.settleSwap(p.Pool, pool, l, p.Trader, p.Referral, &res)
	})
	if err != nil {
		return SwapResult{}, err
	}
	return res, nil
}

// SwapExactOut buys an exact output amount.
func (e *Engine) SwapExactOut(ctx context.Context, p SwapExactOutParams) (SwapResult, error) {
	referrer, _ := p.Referral.Referrer()
	unlock := e.lockPool(p.Pool, referrer)
	defer unlock()

	var res SwapResult
	_, err := e.execute(ctx, events.OpSwapExactOut, func(tx *Tx) (events.Event, error) {
		if p.AmountOut == 0 {
			return events.Event{}, ErrZeroAmount
		}
		pool, l, rIn, rOut, err := tx.swapSide(p.Pool, p.Direction)
		if err != nil {
			return events.Event{}, err
		}

		in, fee, err := exactOutInput(rIn, rOut, p.AmountOut, pool.FeeBps)
		if err != nil {
			return events.Event{}, err
		}
		if in > p.MaxAmountIn {
			return events.Event{}, fmt.Errorf("%w: in %d > max %d", ErrSlippageExceeded, in, p.MaxAmountIn)
		}

		res = SwapResult{AmountIn: in, AmountOut: p.AmountOut, Fee: fee}
		return tx.settleSwap(p.Pool, pool, l, p.Trader, p.Referral, &res)
	})
	if err != nil {
		return SwapResult{}, err
	}
	return res, nil
}

func (tx *Tx) swapSide(k keylet.Keylet, d Direction) (*state.Pool, leg, uint64, uint64, error) {
	pool, err := tx.pool(k)
	if err != nil {
		return nil, leg{}, 0, 0, err
	}
	if pool.Locked {
		return nil, leg{}, 0, 0, ErrPoolLocked
	}
	l := legOf(pool, d)
	rIn, rOut, err := l.reserves(tx.Ledger)
	if err != nil {
		return nil, leg{}, 0, 0, err
	}
	return pool, l, rIn, rOut, nil
}

// settleSwap stages the trade movements and the fee split, filling the fee
// shares of res.
func (tx *Tx) settleSwap(k keylet.Keylet, pool *state.Pool, l leg, trader ledger.AccountID, ref Referral, res *SwapResult) (events.Event, error) {
	if err := tx.Ledger.Transfer(l.mintIn, trader, l.vaultIn, res.AmountIn); err != nil {
		return events.Event{}, err
	}
	if err := tx.Ledger.Transfer(l.mintOut, l.vaultOut, trader, res.AmountOut); err != nil {
		return events.Event{}, err
	}

	split, err := tx.splitFee(res.Fee, ref)
	if err != nil {
		return events.Event{}, err
	}
	if split.protocol > 0 {
		if err := tx.Ledger.Transfer(l.mintIn, l.vaultIn, split.protocolAccount, split.protocol); err != nil {
			return events.Event{}, err
		}
	}
	if split.referral > 0 {
		if err := tx.Ledger.Transfer(l.mintIn, l.vaultIn, split.referralAccount, split.referral); err != nil {
			return events.Event{}, err
		}
	}
	res.ProtocolFee = split.protocol
	res.ReferralFee = split.referral

	return events.Event{
		Key:         k.ID(),
		Actor:       string(trader),
		AssetIn:     string(l.mintIn),
		AmountIn:    res.AmountIn,
		AssetOut:    string(l.mintOut),
		AmountOut:   res.AmountOut,
		Fee:         res.Fee,
		ProtocolFee: res.ProtocolFee,
		ReferralFee: res.ReferralFee,
	}, nil
}

type feeSplit struct {
	protocol        uint64
	protocolAccount ledger.AccountID
	referral        uint64
	referralAccount ledger.AccountID
}

// splitFee divides a collected fee. Without a protocol config nothing leaves
// the pool. The referral share is paid only to a resolvable profile;
// otherwise it stays in the pool.
func (tx *Tx) splitFee(fee uint64, ref Referral) (feeSplit, error) {
	var split feeSplit
	if fee == 0 {
		return split, nil
	}
	cfg, err := tx.protocolConfig()
	if err != nil || cfg == nil {
		return split, err
	}

	if split.protocol, err = feeOf(fee, cfg.ProtocolFeeBps); err != nil {
		return feeSplit{}, err
	}
	split.protocolAccount = cfg.FeeAccount

	referrer, ok := ref.Referrer()
	if !ok {
		return split, nil
	}
	profile, err := tx.profile(referrer)
	if err != nil {
		return feeSplit{}, err
	}
	if !profile.Resolvable(tx.Now) {
		return split, nil
	}
	if split.referral, err = feeOf(fee, cfg.ReferralFeeBps); err != nil {
		return feeSplit{}, err
	}
	split.referralAccount = profile.PayoutAccount
	return split, nil
}
