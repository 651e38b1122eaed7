// Package escrow implements single-shot maker/taker swaps: a maker locks a
// deposit of one asset that any taker can claim by paying the asked amount
// of another, until the maker refunds it.
package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
)

var (
	ErrEscrowAlreadyExists = errors.New("escrow already exists")
	ErrEscrowNotFound      = errors.New("escrow not found")
	ErrEscrowClosed        = errors.New("escrow closed")
)

func init() {
	amm.RegisterCode(ErrEscrowAlreadyExists, "EscrowAlreadyExists")
	amm.RegisterCode(ErrEscrowNotFound, "EscrowNotFound")
	amm.RegisterCode(ErrEscrowClosed, "EscrowClosed")
}

// Service runs escrow operations through an engine so they share its
// backend, locks and commit path.
type Service struct {
	engine *amm.Engine
}

// NewService creates an escrow service on engine.
func NewService(engine *amm.Engine) *Service {
	return &Service{engine: engine}
}

// MakeParams opens an escrow.
type MakeParams struct {
	Maker         ledger.AccountID
	Seed          uint64
	MintA         ledger.AssetID
	MintB         ledger.AssetID
	DepositAmount uint64
	ReceiveAmount uint64
}

// Make locks DepositAmount of MintA from the maker in a new escrow.
func (s *Service) Make(ctx context.Context, p MakeParams) (keylet.Keylet, error) {
	k := keylet.Escrow(string(p.Maker), p.Seed)
	unlock := s.lock(k)
	defer unlock()

	_, err := s.engine.Execute(ctx, events.OpEscrowMake, func(tx *amm.Tx) (events.Event, error) {
		if p.DepositAmount == 0 || p.ReceiveAmount == 0 {
			return events.Event{}, amm.ErrZeroAmount
		}
		if p.MintA == "" || p.MintB == "" || p.MintA == p.MintB {
			return events.Event{}, fmt.Errorf("%w: %q/%q", amm.ErrInvalidPair, p.MintA, p.MintB)
		}
		exists, err := tx.Table.Exists(k)
		if err != nil {
			return events.Event{}, err
		}
		if exists {
			return events.Event{}, fmt.Errorf("%w: %s/%d", ErrEscrowAlreadyExists, p.Maker, p.Seed)
		}

		esc := &state.Escrow{
			Maker:         p.Maker,
			Seed:          p.Seed,
			MintA:         p.MintA,
			MintB:         p.MintB,
			DepositAmount: p.DepositAmount,
			ReceiveAmount: p.ReceiveAmount,
			Vault:         ledger.AccountID(keylet.EscrowVault(k).ID()),
			Status:        state.EscrowOpen,
		}
		if err := tx.Ledger.Transfer(p.MintA, p.Maker, esc.Vault, p.DepositAmount); err != nil {
			return events.Event{}, err
		}
		if err := state.Put(tx.Table, k, esc); err != nil {
			return events.Event{}, err
		}
		return events.Event{
			Key:      k.ID(),
			Actor:    string(p.Maker),
			AssetIn:  string(p.MintA),
			AmountIn: p.DepositAmount,
		}, nil
	})
	return k, err
}

// Take fills an open escrow: the taker pays ReceiveAmount of MintB to the
// maker and receives the deposit.
func (s *Service) Take(ctx context.Context, taker ledger.AccountID, k keylet.Keylet) error {
	unlock := s.lock(k)
	defer unlock()

	_, err := s.engine.Execute(ctx, events.OpEscrowTake, func(tx *amm.Tx) (events.Event, error) {
		esc, err := load(tx, k)
		if err != nil {
			return events.Event{}, err
		}
		if err := tx.Ledger.Transfer(esc.MintB, taker, esc.Maker, esc.ReceiveAmount); err != nil {
			return events.Event{}, err
		}
		if err := tx.Ledger.Transfer(esc.MintA, esc.Vault, taker, esc.DepositAmount); err != nil {
			return events.Event{}, err
		}
		esc.Status = state.EscrowFilled
		esc.Taker = taker
		if err := state.Put(tx.Table, k, esc); err != nil {
			return events.Event{}, err
		}
		return events.Event{
			Key:       k.ID(),
			Actor:     string(taker),
			AssetIn:   string(esc.MintB),
			AmountIn:  esc.ReceiveAmount,
			AssetOut:  string(esc.MintA),
			AmountOut: esc.DepositAmount,
		}, nil
	})
	return err
}

// Refund returns the deposit of an open escrow to its maker.
func (s *Service) Refund(ctx context.Context, caller ledger.AccountID, k keylet.Keylet) error {
	unlock := s.lock(k)
	defer unlock()

	_, err := s.engine.Execute(ctx, events.OpEscrowRefund, func(tx *amm.Tx) (events.Event, error) {
		esc, err := load(tx, k)
		if err != nil {
			return events.Event{}, err
		}
		if caller != esc.Maker {
			return events.Event{}, fmt.Errorf("%w: only the maker can refund", amm.ErrUnauthorized)
		}
		if err := tx.Ledger.Transfer(esc.MintA, esc.Vault, esc.Maker, esc.DepositAmount); err != nil {
			return events.Event{}, err
		}
		esc.Status = state.EscrowRefunded
		if err := state.Put(tx.Table, k, esc); err != nil {
			return events.Event{}, err
		}
		return events.Event{
			Key:       k.ID(),
			Actor:     string(caller),
			AssetOut:  string(esc.MintA),
			AmountOut: esc.DepositAmount,
		}, nil
	})
	return err
}

// Get returns an escrow in any status.
func (s *Service) Get(ctx context.Context, k keylet.Keylet) (*state.Escrow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.engine.Locks().RLock(k.ID())
	defer s.engine.Locks().RUnlock(k.ID())

	var esc state.Escrow
	ok, err := state.Get(s.engine.Backend().State(), k, &esc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEscrowNotFound, k.ID())
	}
	return &esc, nil
}

func (s *Service) lock(k keylet.Keylet) func() {
	s.engine.Locks().Lock(k.ID())
	return func() { s.engine.Locks().Unlock(k.ID()) }
}

// load reads an escrow that must still be open.
func load(tx *amm.Tx, k keylet.Keylet) (*state.Escrow, error) {
	var esc state.Escrow
	ok, err := state.Get(tx.Table, k, &esc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEscrowNotFound, k.ID())
	}
	if esc.Status != state.EscrowOpen {
		return nil, fmt.Errorf("%w: %s", ErrEscrowClosed, esc.Status)
	}
	return &esc, nil
}
