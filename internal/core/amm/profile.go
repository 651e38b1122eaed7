package amm

import (
	"context"
	"fmt"

	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
)

// ProfileParams registers a referrer. PayoutAccount defaults to Referrer.
type ProfileParams struct {
	Referrer      ledger.AccountID
	ProfileID     string
	PayoutAccount ledger.AccountID
}

// CreateReferralProfile registers a referral profile, once per referrer.
// The profile stays resolvable for the engine's profile TTL.
func (e *Engine) CreateReferralProfile(ctx context.Context, p ProfileParams) (*state.ReferralProfile, error) {
	k := keylet.Profile(string(p.Referrer))
	e.locks.Lock(k.ID())
	defer e.locks.Unlock(k.ID())

	var created *state.ReferralProfile
	_, err := e.execute(ctx, events.OpCreateProfile, func(tx *Tx) (events.Event, error) {
		if p.Referrer == "" {
			return events.Event{}, fmt.Errorf("%w: empty referrer", ErrInvalidAccount)
		}
		exists, err := tx.Table.Exists(k)
		if err != nil {
			return events.Event{}, err
		}
		if exists {
			return events.Event{}, fmt.Errorf("%w: %s", ErrProfileAlreadyExists, p.Referrer)
		}

		payout := p.PayoutAccount
		if payout == "" {
			payout = p.Referrer
		}
		profile := &state.ReferralProfile{
			Referrer:      p.Referrer,
			ProfileID:     p.ProfileID,
			PayoutAccount: payout,
			CreatedAt:     tx.Now.Unix(),
			ExpiresAt:     tx.Now.Add(e.profileTTL).Unix(),
		}
		if err := state.Put(tx.Table, k, profile); err != nil {
			return events.Event{}, err
		}
		created = profile
		return events.Event{Key: k.ID(), Actor: string(p.Referrer)}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SetProfileLock blocks or restores referral payouts to a profile. Only
// the protocol admin may call it.
func (e *Engine) SetProfileLock(ctx context.Context, caller, referrer ledger.AccountID, locked bool) error {
	configKey := keylet.Config().ID()
	k := keylet.Profile(string(referrer))
	e.locks.RLock(configKey)
	defer e.locks.RUnlock(configKey)
	e.locks.Lock(k.ID())
	defer e.locks.Unlock(k.ID())

	_, err := e.execute(ctx, events.OpSetProfileLock, func(tx *Tx) (events.Event, error) {
		if _, err := tx.adminConfig(caller); err != nil {
			return events.Event{}, err
		}
		profile, err := tx.profile(referrer)
		if err != nil {
			return events.Event{}, err
		}
		if profile == nil {
			return events.Event{}, fmt.Errorf("%w: %s", ErrProfileNotFound, referrer)
		}
		profile.Locked = locked
		if err := state.Put(tx.Table, k, profile); err != nil {
			return events.Event{}, err
		}
		return events.Event{Key: k.ID(), Actor: string(caller)}, nil
	})
	return err
}

// Profile returns a referrer's profile or ErrProfileNotFound.
func (e *Engine) Profile(ctx context.Context, referrer ledger.AccountID) (*state.ReferralProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := keylet.Profile(string(referrer))
	e.locks.RLock(k.ID())
	defer e.locks.RUnlock(k.ID())

	var p state.ReferralProfile
	ok, err := state.Get(e.backend.State(), k, &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, referrer)
	}
	return &p, nil
}
