package state

import (
	"testing"
	"time"

	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePool() *Pool {
	return &Pool{
		MintX:     "X",
		MintY:     "Y",
		PoolID:    1,
		MintLP:    "lp",
		VaultX:    "vx",
		VaultY:    "vy",
		FeeBps:    30,
		Creator:   "alice",
		CreatedAt: 1700000000,
	}
}

func TestEncodeDecode(t *testing.T) {
	p := samplePool()
	data, err := Encode(p)
	require.NoError(t, err)
	assert.Equal(t, EntryPool, TypeOf(data))

	var got Pool
	require.NoError(t, Decode(data, &got))
	assert.Equal(t, *p, got)

	var wrong ProtocolConfig
	err = Decode(data, &wrong)
	require.ErrorIs(t, err, ErrUnexpectedEntry)

	require.Error(t, Decode(nil, &got))
}

func TestTableStagesChanges(t *testing.T) {
	base := NewMemory()
	existing := keylet.Pool("A", "B", 0)
	data, err := Encode(samplePool())
	require.NoError(t, err)
	require.NoError(t, base.Insert(existing, data))

	table := NewTable(base)

	fresh := keylet.Config()
	require.NoError(t, Put(table, fresh, &ProtocolConfig{Admin: "admin"}))
	require.NoError(t, Put(table, existing, &Pool{MintX: "A", MintY: "B", FeeBps: 5}))

	// Base untouched until applied.
	ok, err := base.Exists(fresh)
	require.NoError(t, err)
	assert.False(t, ok)

	changes := table.Changes()
	require.Len(t, changes, 2)

	require.NoError(t, Check(base, changes))
	require.NoError(t, Apply(base, changes))

	var pool Pool
	found, err := Get(base, existing, &pool)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint16(5), pool.FeeBps)

	var cfg ProtocolConfig
	found, err = Get(base, fresh, &cfg)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "admin", string(cfg.Admin))
}

func TestTableTransitions(t *testing.T) {
	base := NewMemory()
	k := keylet.Profile("bob")

	t.Run("insert then erase leaves nothing", func(t *testing.T) {
		table := NewTable(base)
		require.NoError(t, table.Insert(k, []byte{1}))
		require.NoError(t, table.Erase(k))
		assert.Empty(t, table.Changes())
	})

	t.Run("double insert fails", func(t *testing.T) {
		table := NewTable(base)
		require.NoError(t, table.Insert(k, []byte{1}))
		require.ErrorIs(t, table.Insert(k, []byte{2}), ErrEntryExists)
	})

	t.Run("update of missing fails", func(t *testing.T) {
		table := NewTable(base)
		require.ErrorIs(t, table.Update(k, []byte{1}), ErrEntryNotFound)
		require.ErrorIs(t, table.Erase(k), ErrEntryNotFound)
	})

	t.Run("cached reads are not changes", func(t *testing.T) {
		require.NoError(t, base.Insert(k, []byte{7}))
		table := NewTable(base)
		data, err := table.Read(k)
		require.NoError(t, err)
		assert.Equal(t, []byte{7}, data)
		assert.Empty(t, table.Changes())

		require.NoError(t, table.Erase(k))
		data, err = table.Read(k)
		require.NoError(t, err)
		assert.Nil(t, data)

		changes := table.Changes()
		require.Len(t, changes, 1)
		assert.Equal(t, ActionErase, changes[0].Action)
	})
}

func TestCheckDetectsRacingInsert(t *testing.T) {
	base := NewMemory()
	k := keylet.Pool("A", "B", 9)

	table := NewTable(base)
	require.NoError(t, table.Insert(k, []byte{1}))

	// Another writer lands first.
	require.NoError(t, base.Insert(k, []byte{2}))

	require.ErrorIs(t, Check(base, table.Changes()), ErrEntryExists)
}

func TestMemoryForEach(t *testing.T) {
	m := NewMemory()
	for i := uint64(0); i < 3; i++ {
		require.NoError(t, m.Insert(keylet.Pool("A", "B", i), []byte{byte(i)}))
	}
	require.NoError(t, m.Insert(keylet.Config(), []byte{9}))

	var seen int
	require.NoError(t, m.ForEach(keylet.TypePool, func(k keylet.Keylet, data []byte) bool {
		assert.Equal(t, keylet.TypePool, k.Type)
		seen++
		return true
	}))
	assert.Equal(t, 3, seen)

	seen = 0
	require.NoError(t, m.ForEach(keylet.TypePool, func(keylet.Keylet, []byte) bool {
		seen++
		return false
	}))
	assert.Equal(t, 1, seen)
}

func TestProfileResolvable(t *testing.T) {
	now := time.Unix(1000, 0)
	p := &ReferralProfile{ExpiresAt: 2000}
	assert.True(t, p.Resolvable(now))
	assert.False(t, p.Resolvable(time.Unix(2000, 0)))

	p.Locked = true
	assert.False(t, p.Resolvable(now))

	var missing *ReferralProfile
	assert.False(t, missing.Resolvable(now))
}
