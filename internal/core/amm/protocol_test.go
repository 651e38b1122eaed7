package amm_test

import (
	"context"
	"testing"
	"time"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	jtx "github.com/LeJamon/cpamm/internal/testing"
	"github.com/stretchr/testify/require"
)

func setupProtocol(t *testing.T, protocolBps, referralBps uint16) (*jtx.TestEnv, keylet.Keylet) {
	t.Helper()
	env := jtx.NewTestEnv(t)
	require.NoError(t, env.Engine().InitializeProtocol(context.Background(), amm.ProtocolParams{
		Admin:          jtx.Admin,
		ProtocolFeeBps: protocolBps,
		ReferralFeeBps: referralBps,
		FeeAccount:     jtx.Treasury,
	}))
	pool := env.CreatePool(jtx.Alice, jtx.X, jtx.Y, 30, 1_000_000, 1_000_000)
	env.Fund(jtx.Bob, jtx.X, 100_000)
	return env, pool
}

func swapWithReferral(t *testing.T, env *jtx.TestEnv, pool keylet.Keylet, ref amm.Referral) amm.SwapResult {
	t.Helper()
	res, err := env.Engine().SwapExactIn(context.Background(), amm.SwapExactInParams{
		Pool: pool, Trader: jtx.Bob, AmountIn: 10_000, Referral: ref,
	})
	require.NoError(t, err)
	return res
}

func TestFeeSplit(t *testing.T) {
	ctx := context.Background()

	t.Run("ProtocolOnly", func(t *testing.T) {
		env, pool := setupProtocol(t, 2000, amm.DefaultReferralFeeBps)
		res := swapWithReferral(t, env, pool, amm.Referral{})
		require.Equal(t, uint64(30), res.Fee)
		require.Equal(t, uint64(6), res.ProtocolFee)
		require.Zero(t, res.ReferralFee)
		env.RequireBalance(jtx.Treasury, jtx.X, 6)
		env.RequireReserves(pool, 1_009_994, 990_129)
	})

	t.Run("ProtocolAndReferral", func(t *testing.T) {
		env, pool := setupProtocol(t, 2000, amm.DefaultReferralFeeBps)
		_, err := env.Engine().CreateReferralProfile(ctx, amm.ProfileParams{
			Referrer: jtx.Referrer, ProfileID: "ref-1", PayoutAccount: jtx.Payout,
		})
		require.NoError(t, err)

		res := swapWithReferral(t, env, pool, amm.ReferredBy(jtx.Referrer))
		require.Equal(t, uint64(6), res.ProtocolFee)
		require.Equal(t, uint64(19), res.ReferralFee)
		env.RequireBalance(jtx.Treasury, jtx.X, 6)
		env.RequireBalance(jtx.Payout, jtx.X, 19)
		env.RequireBalance(jtx.Referrer, jtx.X, 0)
		env.RequireReserves(pool, 1_009_975, 990_129)
	})

	t.Run("UnknownReferrer", func(t *testing.T) {
		env, pool := setupProtocol(t, 2000, amm.DefaultReferralFeeBps)
		res := swapWithReferral(t, env, pool, amm.ReferredBy(jtx.Carol))
		require.Zero(t, res.ReferralFee)
		env.RequireReserves(pool, 1_009_994, 990_129)
	})

	t.Run("ExpiredProfile", func(t *testing.T) {
		env, pool := setupProtocol(t, 2000, amm.DefaultReferralFeeBps)
		profile, err := env.Engine().CreateReferralProfile(ctx, amm.ProfileParams{Referrer: jtx.Referrer})
		require.NoError(t, err)
		require.Equal(t, jtx.Referrer, profile.PayoutAccount)
		require.Equal(t, env.Clock().Now().Add(amm.DefaultProfileTTL).Unix(), profile.ExpiresAt)

		env.Clock().Advance(amm.DefaultProfileTTL - time.Second)
		res := swapWithReferral(t, env, pool, amm.ReferredBy(jtx.Referrer))
		require.Equal(t, uint64(19), res.ReferralFee)

		env.Clock().Advance(time.Second)
		res = swapWithReferral(t, env, pool, amm.ReferredBy(jtx.Referrer))
		require.Zero(t, res.ReferralFee)
		require.NotZero(t, res.ProtocolFee)
	})

	t.Run("LockedProfile", func(t *testing.T) {
		env, pool := setupProtocol(t, 0, amm.DefaultReferralFeeBps)
		_, err := env.Engine().CreateReferralProfile(ctx, amm.ProfileParams{Referrer: jtx.Referrer})
		require.NoError(t, err)

		err = env.Engine().SetProfileLock(ctx, jtx.Bob, jtx.Referrer, true)
		env.RequireCode(err, "Unauthorized")
		require.NoError(t, env.Engine().SetProfileLock(ctx, jtx.Admin, jtx.Referrer, true))

		res := swapWithReferral(t, env, pool, amm.ReferredBy(jtx.Referrer))
		require.Zero(t, res.ReferralFee)
		require.Zero(t, res.ProtocolFee)
		env.RequireReserves(pool, 1_010_000, 990_129)

		require.NoError(t, env.Engine().SetProfileLock(ctx, jtx.Admin, jtx.Referrer, false))
		res = swapWithReferral(t, env, pool, amm.ReferredBy(jtx.Referrer))
		require.NotZero(t, res.ReferralFee)

		err = env.Engine().SetProfileLock(ctx, jtx.Admin, jtx.Carol, true)
		env.RequireCode(err, "ProfileNotFound")
	})

	t.Run("ExactOutSplitsInputFee", func(t *testing.T) {
		env, pool := setupProtocol(t, 5000, 5000)
		_, err := env.Engine().CreateReferralProfile(ctx, amm.ProfileParams{Referrer: jtx.Referrer})
		require.NoError(t, err)

		res, err := env.Engine().SwapExactOut(ctx, amm.SwapExactOutParams{
			Pool: pool, Trader: jtx.Bob, AmountOut: 9871, MaxAmountIn: 10_000,
			Referral: amm.ReferredBy(jtx.Referrer),
		})
		require.NoError(t, err)
		require.Equal(t, uint64(30), res.Fee)
		require.Equal(t, uint64(15), res.ProtocolFee)
		require.Equal(t, uint64(15), res.ReferralFee)
		env.RequireReserves(pool, 1_009_970, 990_129)
	})
}

func TestProtocolConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("Lifecycle", func(t *testing.T) {
		env := jtx.NewTestEnv(t)
		_, err := env.Engine().ProtocolConfig(ctx)
		env.RequireCode(err, "ConfigNotFound")

		err = env.Engine().SetReferralFee(ctx, jtx.Admin, 100)
		env.RequireCode(err, "ConfigNotFound")

		params := amm.ProtocolParams{Admin: jtx.Admin, ProtocolFeeBps: 1000, ReferralFeeBps: amm.DefaultReferralFeeBps, FeeAccount: jtx.Treasury}
		require.NoError(t, env.Engine().InitializeProtocol(ctx, params))
		env.RequireCode(env.Engine().InitializeProtocol(ctx, params), "ConfigAlreadyExists")

		env.RequireCode(env.Engine().SetProtocolConfig(ctx, jtx.Bob, 500, jtx.Bob), "Unauthorized")
		require.NoError(t, env.Engine().SetProtocolConfig(ctx, jtx.Admin, 500, jtx.Carol))
		require.NoError(t, env.Engine().SetReferralFee(ctx, jtx.Admin, 9500))

		cfg, err := env.Engine().ProtocolConfig(ctx)
		require.NoError(t, err)
		require.Equal(t, jtx.Admin, cfg.Admin)
		require.Equal(t, uint16(500), cfg.ProtocolFeeBps)
		require.Equal(t, uint16(9500), cfg.ReferralFeeBps)
		require.Equal(t, jtx.Carol, cfg.FeeAccount)
	})

	t.Run("FeeShareBounds", func(t *testing.T) {
		env := jtx.NewTestEnv(t)
		tests := []struct {
			name                     string
			protocolBps, referralBps uint16
		}{
			{"ProtocolWhole", 10_000, 0},
			{"ReferralWhole", 0, 10_000},
			{"SumAboveWhole", 5000, 5001},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				err := env.Engine().InitializeProtocol(ctx, amm.ProtocolParams{
					Admin: jtx.Admin, ProtocolFeeBps: tc.protocolBps, ReferralFeeBps: tc.referralBps, FeeAccount: jtx.Treasury,
				})
				env.RequireCode(err, "InvalidFeeRate")
			})
		}

		err := env.Engine().InitializeProtocol(ctx, amm.ProtocolParams{Admin: jtx.Admin, ProtocolFeeBps: 100})
		env.RequireCode(err, "InvalidAccount")

		require.NoError(t, env.Engine().InitializeProtocol(ctx, amm.ProtocolParams{
			Admin: jtx.Admin, ProtocolFeeBps: 4000, ReferralFeeBps: 6000, FeeAccount: jtx.Treasury,
		}))
		env.RequireCode(env.Engine().SetReferralFee(ctx, jtx.Admin, 6001), "InvalidFeeRate")
		env.RequireCode(env.Engine().SetProtocolConfig(ctx, jtx.Admin, 4001, jtx.Treasury), "InvalidFeeRate")
		env.RequireCode(env.Engine().SetProtocolConfig(ctx, jtx.Admin, 100, ""), "InvalidAccount")
	})
}

func TestPoolLock(t *testing.T) {
	ctx := context.Background()
	env, pool := setupProtocol(t, 0, 0)

	env.RequireCode(env.Engine().SetPoolLock(ctx, jtx.Bob, pool, true), "Unauthorized")
	require.NoError(t, env.Engine().SetPoolLock(ctx, jtx.Admin, pool, true))
	require.True(t, env.Pool(pool).Pool.Locked)

	_, err := env.Engine().SwapExactIn(ctx, amm.SwapExactInParams{Pool: pool, Trader: jtx.Bob, AmountIn: 10})
	env.RequireCode(err, "PoolLocked")
	_, err = env.Engine().SwapExactOut(ctx, amm.SwapExactOutParams{Pool: pool, Trader: jtx.Bob, AmountOut: 10, MaxAmountIn: 100})
	env.RequireCode(err, "PoolLocked")
	_, err = env.Engine().Deposit(ctx, amm.DepositParams{Pool: pool, Depositor: jtx.Alice, LPAmount: 1, MaxX: 10, MaxY: 10})
	env.RequireCode(err, "PoolLocked")
	_, err = env.Engine().Withdraw(ctx, amm.WithdrawParams{Pool: pool, Withdrawer: jtx.Alice, LPAmount: 1})
	env.RequireCode(err, "PoolLocked")

	require.NoError(t, env.Engine().SetPoolLock(ctx, jtx.Admin, pool, false))
	_, err = env.Engine().SwapExactIn(ctx, amm.SwapExactInParams{Pool: pool, Trader: jtx.Bob, AmountIn: 10})
	require.NoError(t, err)

	missing := keylet.Pool(string(jtx.USD), string(jtx.EUR), 0)
	env.RequireCode(env.Engine().SetPoolLock(ctx, jtx.Admin, missing, true), "PoolNotFound")
}

func TestReferralProfile(t *testing.T) {
	ctx := context.Background()
	env := jtx.NewTestEnv(t)

	_, err := env.Engine().Profile(ctx, jtx.Referrer)
	env.RequireCode(err, "ProfileNotFound")

	created, err := env.Engine().CreateReferralProfile(ctx, amm.ProfileParams{Referrer: jtx.Referrer, ProfileID: "p1"})
	require.NoError(t, err)

	got, err := env.Engine().Profile(ctx, jtx.Referrer)
	require.NoError(t, err)
	require.Equal(t, created, got)
	require.True(t, got.Resolvable(env.Clock().Now()))

	_, err = env.Engine().CreateReferralProfile(ctx, amm.ProfileParams{Referrer: jtx.Referrer})
	env.RequireCode(err, "ProfileAlreadyExists")

	_, err = env.Engine().CreateReferralProfile(ctx, amm.ProfileParams{})
	env.RequireCode(err, "InvalidAccount")
}

// TestInvariantWithFeesPaidOut repeats the random trade walk with the whole
// fee leaving the pool as protocol and referral shares.
func TestInvariantWithFeesPaidOut(t *testing.T) {
	ctx := context.Background()
	for _, fee := range []uint16{500, 1000} {
		env := jtx.NewTestEnv(t)
		require.NoError(t, env.Engine().InitializeProtocol(ctx, amm.ProtocolParams{
			Admin:          jtx.Admin,
			ProtocolFeeBps: amm.BpsDenominator - amm.DefaultReferralFeeBps,
			ReferralFeeBps: amm.DefaultReferralFeeBps,
			FeeAccount:     jtx.Treasury,
		}))
		_, err := env.Engine().CreateReferralProfile(ctx, amm.ProfileParams{Referrer: jtx.Referrer, PayoutAccount: jtx.Payout})
		require.NoError(t, err)
		ref := amm.ReferredBy(jtx.Referrer)

		pool := env.CreatePool(jtx.Alice, jtx.X, jtx.Y, fee, 10_000, 7_919)
		env.Fund(jtx.Bob, jtx.X, 1_000_000)
		env.Fund(jtx.Bob, jtx.Y, 1_000_000)

		k := env.Pool(pool).K()
		var protocolPaid, referralPaid uint64
		amount := uint64(7)
		for i := 0; i < 200; i++ {
			amount = (amount*31 + 17) % 997
			d := amm.Direction(i % 2)
			var (
				res amm.SwapResult
				err error
			)
			if i%3 == 0 {
				res, err = env.Engine().SwapExactOut(ctx, amm.SwapExactOutParams{
					Pool: pool, Trader: jtx.Bob, Direction: d, AmountOut: amount%50 + 1, MaxAmountIn: 1_000_000, Referral: ref,
				})
			} else {
				res, err = env.Engine().SwapExactIn(ctx, amm.SwapExactInParams{
					Pool: pool, Trader: jtx.Bob, Direction: d, AmountIn: amount + 1, Referral: ref,
				})
			}
			if err != nil {
				require.Contains(t, []string{"ZeroAmount", "InsufficientLiquidity", "SlippageExceeded", "InsufficientBalance"}, amm.Code(err))
				continue
			}
			require.LessOrEqual(t, res.ProtocolFee+res.ReferralFee, res.Fee)
			protocolPaid += res.ProtocolFee
			referralPaid += res.ReferralFee

			k = env.RequireKNotBelow(pool, k)
			info := env.Pool(pool)
			require.NotZero(t, info.ReserveX)
			require.NotZero(t, info.ReserveY)
		}
		require.NotZero(t, protocolPaid, "fee %d", fee)
		require.NotZero(t, referralPaid, "fee %d", fee)
		require.Equal(t, protocolPaid,
			env.Balance(jtx.Treasury, jtx.X)+env.Balance(jtx.Treasury, jtx.Y))
		require.Equal(t, referralPaid,
			env.Balance(jtx.Payout, jtx.X)+env.Balance(jtx.Payout, jtx.Y))
	}
}
