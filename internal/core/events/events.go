// Package events carries the record of committed engine operations to
// journals and metrics sinks.
package events

import (
	"context"
	"time"
)

// Operation names.
const (
	OpInitializePool     = "initialize_pool"
	OpDeposit            = "deposit"
	OpSwapExactIn        = "swap_exact_in"
	OpSwapExactOut       = "swap_exact_out"
	OpWithdraw           = "withdraw"
	OpInitializeProtocol = "initialize_protocol"
	OpSetProtocolConfig  = "set_protocol_config"
	OpSetReferralFee     = "set_referral_fee"
	OpSetPoolLock        = "set_pool_lock"
	OpCreateProfile      = "create_profile"
	OpSetProfileLock     = "set_profile_lock"
	OpEscrowMake         = "escrow_make"
	OpEscrowTake         = "escrow_take"
	OpEscrowRefund       = "escrow_refund"
	OpLedgerMint         = "ledger_mint"
)

// Event describes one committed operation. Fields that do not apply to an
// operation are left zero. Liquidity operations report the X leg in the In
// fields and the Y leg in the Out fields.
type Event struct {
	Op          string
	Key         string
	Actor       string
	AssetIn     string
	AmountIn    uint64
	AssetOut    string
	AmountOut   uint64
	LPAmount    uint64
	Fee         uint64
	ProtocolFee uint64
	ReferralFee uint64
	Time        time.Time
}

// Recorder persists committed events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Observer receives per-operation measurements.
type Observer interface {
	ObserveOperation(op, code string, elapsed time.Duration)
	ObserveEvent(ev Event)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

func (Nop) ObserveOperation(string, string, time.Duration) {}

func (Nop) ObserveEvent(Event) {}
