package testing

import (
	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// RequireReserves asserts a pool's current reserves.
func (e *TestEnv) RequireReserves(k keylet.Keylet, x, y uint64) {
	e.t.Helper()
	info := e.Pool(k)
	require.Equal(e.t, x, info.ReserveX, "reserve X")
	require.Equal(e.t, y, info.ReserveY, "reserve Y")
}

// RequireBalance asserts an account balance.
func (e *TestEnv) RequireBalance(account ledger.AccountID, asset ledger.AssetID, expected uint64) {
	e.t.Helper()
	require.Equal(e.t, expected, e.Balance(account, asset), "%s balance of %s", account, asset)
}

// RequireCode asserts that err carries the given engine error code.
func (e *TestEnv) RequireCode(err error, code string) {
	e.t.Helper()
	require.Error(e.t, err)
	require.Equal(e.t, code, amm.Code(err), "error: %v", err)
}

// RequireKNotBelow asserts that a pool's reserve product is at least prev
// and returns the current product.
func (e *TestEnv) RequireKNotBelow(k keylet.Keylet, prev *uint256.Int) *uint256.Int {
	e.t.Helper()
	cur := e.Pool(k).K()
	require.False(e.t, cur.Lt(prev), "k decreased from %s to %s", prev, cur)
	return cur
}

// RequireLPConservation asserts that the LP supply equals the sum of the
// given holders' LP balances.
func (e *TestEnv) RequireLPConservation(k keylet.Keylet, holders ...ledger.AccountID) {
	e.t.Helper()
	info := e.Pool(k)
	var sum uint64
	for _, h := range holders {
		sum += e.Balance(h, info.Pool.MintLP)
	}
	require.Equal(e.t, info.LPSupply, sum, "LP supply vs holder balances")
}
