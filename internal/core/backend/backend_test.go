package backend

import (
	"context"
	"testing"

	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCommit(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()

	require.NoError(t, b.Commit(ctx, nil, []ledger.Op{
		{Type: ledger.OpMint, Asset: "X", To: "alice", Amount: 10},
	}))

	table := state.NewTable(b.State())
	require.NoError(t, state.Put(table, keylet.Config(), &state.ProtocolConfig{Admin: "alice"}))
	sb := ledger.NewSandbox(b.Ledger())
	require.NoError(t, sb.Transfer("X", "alice", "bob", 4))

	require.NoError(t, b.Commit(ctx, table.Changes(), sb.Ops()))

	bal, err := b.Ledger().Balance("bob", "X")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), bal)

	ok, err := b.State().Exists(keylet.Config())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCommitRevalidatesBalances(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	require.NoError(t, b.Commit(ctx, nil, []ledger.Op{
		{Type: ledger.OpMint, Asset: "X", To: "alice", Amount: 10},
	}))

	// Two operations staged against the same snapshot.
	first := ledger.NewSandbox(b.Ledger())
	require.NoError(t, first.Transfer("X", "alice", "bob", 8))
	second := ledger.NewSandbox(b.Ledger())
	require.NoError(t, second.Transfer("X", "alice", "carol", 8))

	table := state.NewTable(b.State())
	require.NoError(t, state.Put(table, keylet.Profile("carol"), &state.ReferralProfile{Referrer: "carol"}))

	require.NoError(t, b.Commit(ctx, nil, first.Ops()))
	err := b.Commit(ctx, table.Changes(), second.Ops())
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// The record change of the failed commit was not applied.
	ok, err := b.State().Exists(keylet.Profile("carol"))
	require.NoError(t, err)
	assert.False(t, ok)
	bal, _ := b.Ledger().Balance("carol", "X")
	assert.Zero(t, bal)
}

func TestMemoryCommitRejectsDuplicateInsert(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()

	a := state.NewTable(b.State())
	require.NoError(t, state.Put(a, keylet.Config(), &state.ProtocolConfig{Admin: "a"}))
	c := state.NewTable(b.State())
	require.NoError(t, state.Put(c, keylet.Config(), &state.ProtocolConfig{Admin: "c"}))

	require.NoError(t, b.Commit(ctx, a.Changes(), nil))
	require.ErrorIs(t, b.Commit(ctx, c.Changes(), []ledger.Op{
		{Type: ledger.OpMint, Asset: "X", To: "c", Amount: 1},
	}), state.ErrEntryExists)

	supply, _ := b.Ledger().Supply("X")
	assert.Zero(t, supply)
}

func TestMemoryCommitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, NewMemory().Commit(ctx, nil, nil), context.Canceled)
}
