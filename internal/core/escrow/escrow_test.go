package escrow_test

import (
	"context"
	"testing"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/escrow"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
	jtx "github.com/LeJamon/cpamm/internal/testing"
	"github.com/stretchr/testify/require"
)

func setupEscrow(t *testing.T) (*jtx.TestEnv, keylet.Keylet) {
	t.Helper()
	env := jtx.NewTestEnv(t)
	env.Fund(jtx.Alice, jtx.USD, 500)
	env.Fund(jtx.Bob, jtx.EUR, 500)

	k, err := env.Escrow().Make(context.Background(), escrow.MakeParams{
		Maker:         jtx.Alice,
		Seed:          7,
		MintA:         jtx.USD,
		MintB:         jtx.EUR,
		DepositAmount: 100,
		ReceiveAmount: 90,
	})
	require.NoError(t, err)
	require.Equal(t, keylet.Escrow(string(jtx.Alice), 7), k)
	return env, k
}

func TestMake(t *testing.T) {
	ctx := context.Background()
	env, k := setupEscrow(t)

	esc, err := env.Escrow().Get(ctx, k)
	require.NoError(t, err)
	require.Equal(t, state.EscrowOpen, esc.Status)
	require.Equal(t, uint64(100), esc.DepositAmount)
	env.RequireBalance(jtx.Alice, jtx.USD, 400)
	env.RequireBalance(esc.Vault, jtx.USD, 100)

	_, err = env.Escrow().Make(ctx, escrow.MakeParams{
		Maker: jtx.Alice, Seed: 7, MintA: jtx.USD, MintB: jtx.EUR, DepositAmount: 1, ReceiveAmount: 1,
	})
	env.RequireCode(err, "EscrowAlreadyExists")

	tests := []struct {
		name   string
		params escrow.MakeParams
		code   string
	}{
		{"ZeroDeposit", escrow.MakeParams{Seed: 1, MintA: jtx.USD, MintB: jtx.EUR, ReceiveAmount: 1}, "ZeroAmount"},
		{"ZeroReceive", escrow.MakeParams{Seed: 1, MintA: jtx.USD, MintB: jtx.EUR, DepositAmount: 1}, "ZeroAmount"},
		{"SameMint", escrow.MakeParams{Seed: 1, MintA: jtx.USD, MintB: jtx.USD, DepositAmount: 1, ReceiveAmount: 1}, "InvalidPair"},
		{"Unfunded", escrow.MakeParams{Seed: 1, MintA: jtx.USD, MintB: jtx.EUR, DepositAmount: 401, ReceiveAmount: 1}, "InsufficientBalance"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.params.Maker = jtx.Alice
			_, err := env.Escrow().Make(ctx, tc.params)
			env.RequireCode(err, tc.code)
		})
	}
	env.RequireBalance(jtx.Alice, jtx.USD, 400)
}

func TestTake(t *testing.T) {
	ctx := context.Background()
	env, k := setupEscrow(t)

	require.NoError(t, env.Escrow().Take(ctx, jtx.Bob, k))
	env.RequireBalance(jtx.Bob, jtx.USD, 100)
	env.RequireBalance(jtx.Bob, jtx.EUR, 410)
	env.RequireBalance(jtx.Alice, jtx.EUR, 90)

	esc, err := env.Escrow().Get(ctx, k)
	require.NoError(t, err)
	require.Equal(t, state.EscrowFilled, esc.Status)
	require.Equal(t, jtx.Bob, esc.Taker)
	env.RequireBalance(esc.Vault, jtx.USD, 0)

	env.RequireCode(env.Escrow().Take(ctx, jtx.Bob, k), "EscrowClosed")
	env.RequireCode(env.Escrow().Refund(ctx, jtx.Alice, k), "EscrowClosed")
}

func TestTakeUnfunded(t *testing.T) {
	ctx := context.Background()
	env, k := setupEscrow(t)

	env.RequireCode(env.Escrow().Take(ctx, jtx.Carol, k), "InsufficientBalance")
	esc, err := env.Escrow().Get(ctx, k)
	require.NoError(t, err)
	require.Equal(t, state.EscrowOpen, esc.Status)
	env.RequireBalance(esc.Vault, jtx.USD, 100)
}

func TestRefund(t *testing.T) {
	ctx := context.Background()
	env, k := setupEscrow(t)

	env.RequireCode(env.Escrow().Refund(ctx, jtx.Bob, k), "Unauthorized")
	require.NoError(t, env.Escrow().Refund(ctx, jtx.Alice, k))
	env.RequireBalance(jtx.Alice, jtx.USD, 500)

	esc, err := env.Escrow().Get(ctx, k)
	require.NoError(t, err)
	require.Equal(t, state.EscrowRefunded, esc.Status)
	env.RequireCode(env.Escrow().Take(ctx, jtx.Bob, k), "EscrowClosed")
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	env := jtx.NewTestEnv(t)
	k := keylet.Escrow(string(jtx.Alice), 1)

	_, err := env.Escrow().Get(ctx, k)
	env.RequireCode(err, "EscrowNotFound")
	env.RequireCode(env.Escrow().Take(ctx, jtx.Bob, k), "EscrowNotFound")
	require.Equal(t, "EscrowNotFound", amm.Code(escrow.ErrEscrowNotFound))
}
