// Package ledger defines the asset ledger the pool engine settles against:
// balances per (account, asset), a supply counter per asset, and the
// transfer/mint/burn primitives that move them.
package ledger

import (
	"errors"
	"fmt"
)

//go:generate mockgen -source=ledger.go -destination=mocks/mock_ledger.go -package=mocks

// AccountID identifies a balance holder. Pool and escrow vaults use the hex
// form of their keylet.
type AccountID string

// AssetID identifies a fungible asset (a mint).
type AssetID string

var (
	// ErrInsufficientBalance is returned when a debit exceeds the holder's balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceOverflow is returned when a credit would exceed the uint64 range
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Reader exposes the read side of the ledger.
type Reader interface {
	Balance(account AccountID, asset AssetID) (uint64, error)
	Supply(asset AssetID) (uint64, error)
}

// Ledger is the full asset ledger adapter.
type Ledger interface {
	Reader
	Transfer(asset AssetID, from, to AccountID, amount uint64) error
	Mint(asset AssetID, to AccountID, amount uint64) error
	Burn(asset AssetID, from AccountID, amount uint64) error
}

// OpType is the kind of a ledger movement.
type OpType int

const (
	OpTransfer OpType = iota
	OpMint
	OpBurn
)

func (t OpType) String() string {
	switch t {
	case OpTransfer:
		return "transfer"
	case OpMint:
		return "mint"
	case OpBurn:
		return "burn"
	default:
		return fmt.Sprintf("op(%d)", int(t))
	}
}

// Op is a single recorded ledger movement. From is empty for mints and To
// is empty for burns.
type Op struct {
	Type   OpType
	Asset  AssetID
	From   AccountID
	To     AccountID
	Amount uint64
}

// Holding addresses one balance.
type Holding struct {
	Account AccountID
	Asset   AssetID
}
