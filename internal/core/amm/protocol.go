package amm

import (
	"context"
	"fmt"

	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
)

// DefaultReferralFeeBps gives referrers two thirds of the swap fee.
const DefaultReferralFeeBps = 6666

// ProtocolParams seeds the protocol config.
type ProtocolParams struct {
	Admin          ledger.AccountID
	ProtocolFeeBps uint16
	ReferralFeeBps uint16
	FeeAccount     ledger.AccountID
}

func validateFeeShares(protocolBps, referralBps uint16) error {
	if protocolBps >= BpsDenominator || referralBps >= BpsDenominator {
		return fmt.Errorf("%w: protocol %d bps, referral %d bps", ErrInvalidFeeRate, protocolBps, referralBps)
	}
	if uint32(protocolBps)+uint32(referralBps) > BpsDenominator {
		return fmt.Errorf("%w: protocol %d + referral %d bps exceeds the whole fee", ErrInvalidFeeRate, protocolBps, referralBps)
	}
	return nil
}

// InitializeProtocol creates the protocol config. It can run once.
func (e *Engine) InitializeProtocol(ctx context.Context, p ProtocolParams) error {
	k := keylet.Config()
	e.locks.Lock(k.ID())
	defer e.locks.Unlock(k.ID())

	_, err := e.execute(ctx, events.OpInitializeProtocol, func(tx *Tx) (events.Event, error) {
		if p.Admin == "" || p.FeeAccount == "" {
			return events.Event{}, fmt.Errorf("%w: admin and fee account are required", ErrInvalidAccount)
		}
		if err := validateFeeShares(p.ProtocolFeeBps, p.ReferralFeeBps); err != nil {
			return events.Event{}, err
		}
		exists, err := tx.Table.Exists(k)
		if err != nil {
			return events.Event{}, err
		}
		if exists {
			return events.Event{}, ErrConfigAlreadyExists
		}
		cfg := &state.ProtocolConfig{
			Admin:          p.Admin,
			ProtocolFeeBps: p.ProtocolFeeBps,
			ReferralFeeBps: p.ReferralFeeBps,
			FeeAccount:     p.FeeAccount,
		}
		if err := state.Put(tx.Table, k, cfg); err != nil {
			return events.Event{}, err
		}
		return events.Event{Key: k.ID(), Actor: string(p.Admin)}, nil
	})
	return err
}

// SetProtocolConfig updates the protocol fee share and fee account. Only
// the admin may call it.
func (e *Engine) SetProtocolConfig(ctx context.Context, caller ledger.AccountID, protocolFeeBps uint16, feeAccount ledger.AccountID) error {
	return e.updateConfig(ctx, events.OpSetProtocolConfig, caller, func(cfg *state.ProtocolConfig) error {
		if err := validateFeeShares(protocolFeeBps, cfg.ReferralFeeBps); err != nil {
			return err
		}
		if feeAccount == "" {
			return fmt.Errorf("%w: empty fee account", ErrInvalidAccount)
		}
		cfg.ProtocolFeeBps = protocolFeeBps
		cfg.FeeAccount = feeAccount
		return nil
	})
}

// SetReferralFee updates the referral share of the swap fee. Only the
// admin may call it.
func (e *Engine) SetReferralFee(ctx context.Context, caller ledger.AccountID, referralFeeBps uint16) error {
	return e.updateConfig(ctx, events.OpSetReferralFee, caller, func(cfg *state.ProtocolConfig) error {
		if err := validateFeeShares(cfg.ProtocolFeeBps, referralFeeBps); err != nil {
			return err
		}
		cfg.ReferralFeeBps = referralFeeBps
		return nil
	})
}

func (e *Engine) updateConfig(ctx context.Context, op string, caller ledger.AccountID, mutate func(*state.ProtocolConfig) error) error {
	k := keylet.Config()
	e.locks.Lock(k.ID())
	defer e.locks.Unlock(k.ID())

	_, err := e.execute(ctx, op, func(tx *Tx) (events.Event, error) {
		cfg, err := tx.adminConfig(caller)
		if err != nil {
			return events.Event{}, err
		}
		if err := mutate(cfg); err != nil {
			return events.Event{}, err
		}
		if err := state.Put(tx.Table, k, cfg); err != nil {
			return events.Event{}, err
		}
		return events.Event{Key: k.ID(), Actor: string(caller)}, nil
	})
	return err
}

// adminConfig loads the config and checks that caller is its admin.
func (tx *Tx) adminConfig(caller ledger.AccountID) (*state.ProtocolConfig, error) {
	cfg, err := tx.protocolConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrConfigNotFound
	}
	if caller != cfg.Admin {
		return nil, fmt.Errorf("%w: %s is not the protocol admin", ErrUnauthorized, caller)
	}
	return cfg, nil
}

// SetPoolLock freezes or thaws a pool. Only the protocol admin may call it.
func (e *Engine) SetPoolLock(ctx context.Context, caller ledger.AccountID, pool keylet.Keylet, locked bool) error {
	unlock := e.lockPool(pool, "")
	defer unlock()

	_, err := e.execute(ctx, events.OpSetPoolLock, func(tx *Tx) (events.Event, error) {
		if _, err := tx.adminConfig(caller); err != nil {
			return events.Event{}, err
		}
		p, err := tx.pool(pool)
		if err != nil {
			return events.Event{}, err
		}
		p.Locked = locked
		if err := state.Put(tx.Table, pool, p); err != nil {
			return events.Event{}, err
		}
		return events.Event{Key: pool.ID(), Actor: string(caller)}, nil
	})
	return err
}

// ProtocolConfig returns the current config or ErrConfigNotFound.
func (e *Engine) ProtocolConfig(ctx context.Context) (*state.ProtocolConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := keylet.Config()
	e.locks.RLock(k.ID())
	defer e.locks.RUnlock(k.ID())

	var cfg state.ProtocolConfig
	ok, err := state.Get(e.backend.State(), k, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConfigNotFound
	}
	return &cfg, nil
}
