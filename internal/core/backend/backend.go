// Package backend defines where the engine's records and balances live and
// how a staged operation is committed to them.
package backend

import (
	"context"
	"sync"

	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
)

// Backend holds engine records and ledger balances.
//
// Commit applies a record change set and a list of ledger movements as one
// unit. The movements are replayed against the balances current at commit
// time, so a debit that another commit has since made uncoverable fails the
// whole unit with ledger.ErrInsufficientBalance.
type Backend interface {
	State() state.Reader
	Ledger() ledger.Reader
	ForEach(t keylet.Type, fn func(k keylet.Keylet, data []byte) bool) error
	Commit(ctx context.Context, changes []state.Change, ops []ledger.Op) error
	Close() error
}

// Memory is a Backend kept entirely in process.
type Memory struct {
	mu     sync.Mutex
	state  *state.Memory
	ledger *ledger.Memory
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		state:  state.NewMemory(),
		ledger: ledger.NewMemory(),
	}
}

func (b *Memory) State() state.Reader { return b.state }

func (b *Memory) Ledger() ledger.Reader { return b.ledger }

func (b *Memory) ForEach(t keylet.Type, fn func(k keylet.Keylet, data []byte) bool) error {
	return b.state.ForEach(t, fn)
}

func (b *Memory) Commit(ctx context.Context, changes []state.Change, ops []ledger.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.ledger.ApplyFunc(ops, func() error {
		if err := state.Check(b.state, changes); err != nil {
			return err
		}
		return state.Apply(b.state, changes)
	})
}

func (b *Memory) Close() error { return nil }

// Holdings returns every non-zero balance.
func (b *Memory) Holdings() map[ledger.Holding]uint64 {
	return b.ledger.Holdings()
}
