package kvstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
	"github.com/LeJamon/cpamm/internal/storage/compression"
	"github.com/LeJamon/cpamm/internal/storage/database"
	"github.com/LeJamon/cpamm/internal/storage/database/leveldb"
	"github.com/LeJamon/cpamm/internal/storage/database/pebble"
	"github.com/LeJamon/cpamm/internal/storage/kvstore"
	jtx "github.com/LeJamon/cpamm/internal/testing"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, db database.DB) *kvstore.Store {
	t.Helper()
	s, err := kvstore.New(db, kvstore.Options{Compressor: compression.LZ4Compressor{}, CacheEntries: 8})
	require.NoError(t, err)
	return s
}

func backends() map[string]func(t *testing.T) *kvstore.Store {
	return map[string]func(t *testing.T) *kvstore.Store{
		"leveldb": func(t *testing.T) *kvstore.Store {
			db, err := leveldb.OpenMem()
			require.NoError(t, err)
			return newStore(t, db)
		},
		"pebble": func(t *testing.T) *kvstore.Store {
			db, err := pebble.Open("state", pebble.Options{FS: vfs.NewMem()})
			require.NoError(t, err)
			return newStore(t, db)
		},
	}
}

func TestEngineOnStore(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			env := jtx.NewTestEnvWithBackend(t, open(t))
			pool := env.CreatePool(jtx.Alice, jtx.X, jtx.Y, 0, 100, 100)

			env.Fund(jtx.Bob, jtx.X, 5)
			res, err := env.Engine().SwapExactIn(ctx, amm.SwapExactInParams{Pool: pool, Trader: jtx.Bob, AmountIn: 5})
			require.NoError(t, err)
			require.Equal(t, uint64(4), res.AmountOut)
			env.RequireReserves(pool, 105, 96)
			env.RequireBalance(jtx.Bob, jtx.X, 0)

			_, err = env.Engine().SwapExactIn(ctx, amm.SwapExactInParams{Pool: pool, Trader: jtx.Bob, AmountIn: 5})
			env.RequireCode(err, "InsufficientBalance")

			_, err = env.Engine().Withdraw(ctx, amm.WithdrawParams{Pool: pool, Withdrawer: jtx.Alice, LPAmount: 100})
			require.NoError(t, err)
			info := env.Pool(pool)
			require.True(t, info.Dormant())
			require.Zero(t, info.ReserveX)
		})
	}
}

func TestForEachAcrossCache(t *testing.T) {
	ctx := context.Background()
	db, err := leveldb.OpenMem()
	require.NoError(t, err)
	env := jtx.NewTestEnvWithBackend(t, newStore(t, db))

	// more pools than cache entries
	for i := uint64(0); i < 20; i++ {
		env.Fund(jtx.Alice, jtx.X, 10)
		env.Fund(jtx.Alice, jtx.Y, 10)
		_, err := env.Engine().InitializePool(ctx, amm.InitializeParams{
			Creator: jtx.Alice, MintX: jtx.X, MintY: jtx.Y, PoolID: i, DepositX: 10, MaxX: 10, MaxY: 10,
		})
		require.NoError(t, err)
	}

	pools, err := env.Engine().Pools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 20)
	for _, p := range pools {
		require.Equal(t, uint64(10), p.ReserveX)
		require.Equal(t, uint64(10), p.LPSupply)
	}
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state")

	db, err := leveldb.Open(path, 0)
	require.NoError(t, err)
	store := newStore(t, db)
	engine := amm.NewEngine(store, amm.Config{})
	require.NoError(t, engine.Issue(ctx, jtx.X, jtx.Alice, 100))
	require.NoError(t, engine.Issue(ctx, jtx.Y, jtx.Alice, 100))
	res, err := engine.InitializePool(ctx, amm.InitializeParams{
		Creator: jtx.Alice, MintX: jtx.X, MintY: jtx.Y, DepositX: 100, MaxX: 100, MaxY: 100,
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err = leveldb.Open(path, 0)
	require.NoError(t, err)
	store = newStore(t, db)
	defer store.Close()
	engine = amm.NewEngine(store, amm.Config{})

	info, err := engine.PoolInfo(ctx, res.Pool)
	require.NoError(t, err)
	require.Equal(t, uint64(100), info.ReserveX)
	require.Equal(t, uint64(100), info.LPSupply)
	bal, err := engine.Balance(jtx.Alice, jtx.X)
	require.NoError(t, err)
	require.Zero(t, bal)
}

func TestCommitPreconditions(t *testing.T) {
	ctx := context.Background()
	db, err := leveldb.OpenMem()
	require.NoError(t, err)
	store := newStore(t, db)
	defer store.Close()

	k := keylet.Config()
	cfg, err := state.Encode(&state.ProtocolConfig{Admin: "a", FeeAccount: "f"})
	require.NoError(t, err)
	insert := []state.Change{{Keylet: k, Action: state.ActionInsert, Data: cfg}}

	require.NoError(t, store.Commit(ctx, insert, nil))
	require.ErrorIs(t, store.Commit(ctx, insert, nil), state.ErrEntryExists)

	erase := []state.Change{{Keylet: k, Action: state.ActionErase}}
	require.NoError(t, store.Commit(ctx, erase, nil))
	require.ErrorIs(t, store.Commit(ctx, erase, nil), state.ErrEntryNotFound)

	// a failed debit rolls back the whole unit
	ops := []ledger.Op{
		{Type: ledger.OpMint, Asset: "X", To: "a", Amount: 5},
		{Type: ledger.OpTransfer, Asset: "X", From: "b", To: "a", Amount: 1},
	}
	require.ErrorIs(t, store.Commit(ctx, insert, ops), ledger.ErrInsufficientBalance)
	exists, err := store.State().Exists(k)
	require.NoError(t, err)
	require.False(t, exists)
	supply, err := store.Ledger().Supply("X")
	require.NoError(t, err)
	require.Zero(t, supply)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, store.Commit(cancelled, insert, nil), context.Canceled)
}
