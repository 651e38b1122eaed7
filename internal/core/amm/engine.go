// Package amm implements the constant-product pool engine: pool
// initialization, liquidity deposit and withdrawal, exact-in and exact-out
// swaps with fee splitting, and the protocol and referral configuration
// those swaps consult.
//
// Every operation stages its record writes and ledger movements and commits
// them through the backend in one unit. Operations on the same pool are
// serialized by a per-pool lock; different pools proceed in parallel.
package amm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeJamon/cpamm/internal/core/backend"
	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/lockmap"
	"github.com/LeJamon/cpamm/internal/core/state"
	"go.uber.org/zap"
)

// DefaultProfileTTL is how long a referral profile stays resolvable.
const DefaultProfileTTL = 30 * 24 * time.Hour

// Config holds the engine's collaborators. Zero values get no-op defaults.
type Config struct {
	Logger     *zap.Logger
	Observer   events.Observer
	Recorder   events.Recorder
	Clock      func() time.Time
	ProfileTTL time.Duration
	Locks      *lockmap.Lockmap
}

// Engine executes pool operations against a backend.
type Engine struct {
	backend    backend.Backend
	locks      *lockmap.Lockmap
	log        *zap.Logger
	observer   events.Observer
	recorder   events.Recorder
	clock      func() time.Time
	profileTTL time.Duration
}

// NewEngine creates an engine over b.
func NewEngine(b backend.Backend, cfg Config) *Engine {
	e := &Engine{
		backend:    b,
		locks:      cfg.Locks,
		log:        cfg.Logger,
		observer:   cfg.Observer,
		recorder:   cfg.Recorder,
		clock:      cfg.Clock,
		profileTTL: cfg.ProfileTTL,
	}
	if e.locks == nil {
		e.locks = lockmap.New(64)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.observer == nil {
		e.observer = events.Nop{}
	}
	if e.recorder == nil {
		e.recorder = events.Nop{}
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.profileTTL <= 0 {
		e.profileTTL = DefaultProfileTTL
	}
	return e
}

// Backend returns the backend the engine commits to.
func (e *Engine) Backend() backend.Backend {
	return e.backend
}

// Tx is the staging area of one operation. Writes to Table and Ledger reach
// the backend only if the operation succeeds.
type Tx struct {
	Table  *state.Table
	Ledger *ledger.Sandbox
	Now    time.Time
}

// Locks returns the key lock map shared by every operation on the engine.
func (e *Engine) Locks() *lockmap.Lockmap {
	return e.locks
}

// Execute runs fn as one engine operation named op: it is staged, committed
// atomically, measured, logged and journaled like the built-in operations.
// The caller holds the locks fn's records need.
func (e *Engine) Execute(ctx context.Context, op string, fn func(tx *Tx) (events.Event, error)) (events.Event, error) {
	return e.execute(ctx, op, fn)
}

// execute runs fn against a fresh stage and commits the result. Callers
// hold whatever locks the operation needs.
func (e *Engine) execute(ctx context.Context, op string, fn func(tx *Tx) (events.Event, error)) (events.Event, error) {
	start := time.Now()
	ev, err := e.stageAndCommit(ctx, fn)
	code := Code(err)
	e.observer.ObserveOperation(op, code, time.Since(start))

	if err != nil {
		e.log.Debug("operation rejected",
			zap.String("op", op),
			zap.String("code", code),
			zap.Error(err))
		return events.Event{}, err
	}

	ev.Op = op
	e.observer.ObserveEvent(ev)
	e.log.Info("operation committed",
		zap.String("op", op),
		zap.String("key", ev.Key),
		zap.String("actor", ev.Actor),
		zap.Uint64("amount_in", ev.AmountIn),
		zap.Uint64("amount_out", ev.AmountOut),
		zap.Uint64("lp_amount", ev.LPAmount),
		zap.Uint64("fee", ev.Fee))

	if err := e.recorder.Record(ctx, ev); err != nil {
		e.log.Warn("failed to journal operation", zap.String("op", op), zap.Error(err))
	}
	return ev, nil
}

func (e *Engine) stageAndCommit(ctx context.Context, fn func(tx *Tx) (events.Event, error)) (events.Event, error) {
	if err := ctx.Err(); err != nil {
		return events.Event{}, err
	}

	tx := &Tx{
		Table:  state.NewTable(e.backend.State()),
		Ledger: ledger.NewSandbox(e.backend.Ledger()),
		Now:    e.clock(),
	}
	ev, err := fn(tx)
	if err != nil {
		return events.Event{}, normalize(err)
	}
	ev.Time = tx.Now

	if err := e.backend.Commit(ctx, tx.Table.Changes(), tx.Ledger.Ops()); err != nil {
		return events.Event{}, normalize(fmt.Errorf("commit: %w", err))
	}
	return ev, nil
}

// normalize folds ledger overflow into the engine's overflow error.
func normalize(err error) error {
	if errors.Is(err, ledger.ErrBalanceOverflow) && !errors.Is(err, ErrArithmeticOverflow) {
		return fmt.Errorf("%w: %w", ErrArithmeticOverflow, err)
	}
	return err
}

// lockPool takes the exclusive lock of a pool and shared locks on the
// protocol config and, when given, a referrer's profile. Locks are always
// taken in pool, config, profile order.
func (e *Engine) lockPool(pool keylet.Keylet, referrer ledger.AccountID) func() {
	poolKey := pool.ID()
	configKey := keylet.Config().ID()
	e.locks.Lock(poolKey)
	e.locks.RLock(configKey)

	var profileKey string
	if referrer != "" {
		profileKey = keylet.Profile(string(referrer)).ID()
		e.locks.RLock(profileKey)
	}
	return func() {
		if profileKey != "" {
			e.locks.RUnlock(profileKey)
		}
		e.locks.RUnlock(configKey)
		e.locks.Unlock(poolKey)
	}
}

func (tx *Tx) pool(k keylet.Keylet) (*state.Pool, error) {
	var p state.Pool
	ok, err := state.Get(tx.Table, k, &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, k.ID())
	}
	return &p, nil
}

func (tx *Tx) protocolConfig() (*state.ProtocolConfig, error) {
	var cfg state.ProtocolConfig
	ok, err := state.Get(tx.Table, keylet.Config(), &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (tx *Tx) profile(referrer ledger.AccountID) (*state.ReferralProfile, error) {
	var p state.ReferralProfile
	ok, err := state.Get(tx.Table, keylet.Profile(string(referrer)), &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// reserves returns the current vault balances and LP supply of p.
func reserves(r ledger.Reader, p *state.Pool) (x, y, supply uint64, err error) {
	if x, err = r.Balance(p.VaultX, p.MintX); err != nil {
		return 0, 0, 0, err
	}
	if y, err = r.Balance(p.VaultY, p.MintY); err != nil {
		return 0, 0, 0, err
	}
	if supply, err = r.Supply(p.MintLP); err != nil {
		return 0, 0, 0, err
	}
	return x, y, supply, nil
}
