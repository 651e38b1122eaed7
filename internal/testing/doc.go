// Package testing provides a deterministic environment for engine tests.
//
// TestEnv wires an amm.Engine and an escrow.Service to an in-memory backend
// and a ManualClock, and offers helpers to fund accounts, seed pools and
// assert on balances and reserves.
//
//	func TestSwap(t *testing.T) {
//	    env := jtx.NewTestEnv(t)
//	    pool := env.CreatePool(jtx.Alice, jtx.X, jtx.Y, 0, 100, 100)
//
//	    env.Fund(jtx.Bob, jtx.X, 5)
//	    _, err := env.Engine().SwapExactIn(ctx, amm.SwapExactInParams{...})
//	    require.NoError(t, err)
//	    env.RequireReserves(pool, 105, 96)
//	}
package testing
