package amm

import (
	"context"
	"fmt"

	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
)

// InitializeParams describes a new pool and its seed deposit.
//
// With RequestedLP set, the creator receives exactly RequestedLP tokens and
// deposits DepositX of X and ceil(RequestedLP²/DepositX) of Y. Without it,
// the creator deposits DepositX and MaxY and receives floor(sqrt(x*y)).
type InitializeParams struct {
	Creator     ledger.AccountID
	MintX       ledger.AssetID
	MintY       ledger.AssetID
	PoolID      uint64
	FeeBps      uint16
	RequestedLP uint64
	DepositX    uint64
	MaxX        uint64
	MaxY        uint64
}

// InitializeResult reports the created pool and its seed amounts.
type InitializeResult struct {
	Pool     keylet.Keylet
	DepositX uint64
	DepositY uint64
	LPMinted uint64
}

// PoolKey derives the keylet of the pool the params would create.
func (p InitializeParams) PoolKey() keylet.Keylet {
	return keylet.Pool(string(p.MintX), string(p.MintY), p.PoolID)
}

func (p InitializeParams) validate() error {
	if p.MintX == "" || p.MintY == "" || p.MintX == p.MintY {
		return fmt.Errorf("%w: %q/%q", ErrInvalidPair, p.MintX, p.MintY)
	}
	if p.FeeBps >= BpsDenominator {
		return fmt.Errorf("%w: pool fee %d bps", ErrInvalidFeeRate, p.FeeBps)
	}
	return nil
}

// NewPoolRecord builds the record of a pool at k with its derived LP mint
// and vault accounts.
func NewPoolRecord(k keylet.Keylet, p InitializeParams, createdAt int64) *state.Pool {
	return &state.Pool{
		MintX:     p.MintX,
		MintY:     p.MintY,
		PoolID:    p.PoolID,
		MintLP:    ledger.AssetID(keylet.LPMint(k).ID()),
		VaultX:    ledger.AccountID(keylet.Vault(k, string(p.MintX)).ID()),
		VaultY:    ledger.AccountID(keylet.Vault(k, string(p.MintY)).ID()),
		FeeBps:    p.FeeBps,
		Creator:   p.Creator,
		CreatedAt: createdAt,
	}
}

// seedAmounts applies the initialization rule to a requested LP amount and
// deposit bounds.
func seedAmounts(requestedLP, depositX, maxY uint64) (x, y, lp uint64, err error) {
	if depositX == 0 {
		return 0, 0, 0, ErrZeroDeposit
	}
	if requestedLP > 0 {
		y, err = seedAmountY(requestedLP, depositX)
		if err != nil {
			return 0, 0, 0, err
		}
		lp = requestedLP
	} else {
		y = maxY
		lp = geometricMean(depositX, y)
	}
	if y == 0 {
		return 0, 0, 0, ErrZeroDeposit
	}
	if lp == 0 {
		return 0, 0, 0, fmt.Errorf("%w: seed mints no LP", ErrZeroAmount)
	}
	return depositX, y, lp, nil
}

// InitializePool creates a pool, moves the seed deposit into its vaults and
// mints LP tokens to the creator.
func (e *Engine) InitializePool(ctx context.Context, p InitializeParams) (InitializeResult, error) {
	k := p.PoolKey()
	res := InitializeResult{Pool: k}

	unlock := e.lockPool(k, "")
	defer unlock()

	_, err := e.execute(ctx, events.OpInitializePool, func(tx *Tx) (events.Event, error) {
		if err := p.validate(); err != nil {
			return events.Event{}, err
		}
		exists, err := tx.Table.Exists(k)
		if err != nil {
			return events.Event{}, err
		}
		if exists {
			return events.Event{}, fmt.Errorf("%w: %s", ErrPoolAlreadyExists, k.ID())
		}

		x, y, lp, err := seedAmounts(p.RequestedLP, p.DepositX, p.MaxY)
		if err != nil {
			return events.Event{}, err
		}
		if x > p.MaxX || y > p.MaxY {
			return events.Event{}, fmt.Errorf("%w: seed needs %d/%d, bounds %d/%d", ErrSlippageExceeded, x, y, p.MaxX, p.MaxY)
		}

		pool := NewPoolRecord(k, p, tx.Now.Unix())
		if err := tx.Ledger.Transfer(pool.MintX, p.Creator, pool.VaultX, x); err != nil {
			return events.Event{}, err
		}
		if err := tx.Ledger.Transfer(pool.MintY, p.Creator, pool.VaultY, y); err != nil {
			return events.Event{}, err
		}
		if err := tx.Ledger.Mint(pool.MintLP, p.Creator, lp); err != nil {
			return events.Event{}, err
		}
		if err := state.Put(tx.Table, k, pool); err != nil {
			return events.Event{}, err
		}

		res.DepositX, res.DepositY, res.LPMinted = x, y, lp
		return events.Event{
			Key:       k.ID(),
			Actor:     string(p.Creator),
			AssetIn:   string(p.MintX),
			AmountIn:  x,
			AssetOut:  string(p.MintY),
			AmountOut: y,
			LPAmount:  lp,
		}, nil
	})
	if err != nil {
		return InitializeResult{Pool: k}, err
	}
	return res, nil
}
