package testing

import (
	"context"
	"testing"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/backend"
	"github.com/LeJamon/cpamm/internal/core/escrow"
	"github.com/LeJamon/cpamm/internal/core/events"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// TestEnv manages an engine over an isolated backend.
type TestEnv struct {
	t       *testing.T
	backend backend.Backend
	engine  *amm.Engine
	escrow  *escrow.Service
	clock   *ManualClock
}

// Option customises the engine a TestEnv builds.
type Option func(*amm.Config)

// WithObserver routes engine measurements to o.
func WithObserver(o events.Observer) Option {
	return func(c *amm.Config) { c.Observer = o }
}

// WithRecorder routes committed events to r.
func WithRecorder(r events.Recorder) Option {
	return func(c *amm.Config) { c.Recorder = r }
}

// NewTestEnv creates an environment over a fresh in-memory backend.
func NewTestEnv(t *testing.T, opts ...Option) *TestEnv {
	t.Helper()
	return NewTestEnvWithBackend(t, backend.NewMemory(), opts...)
}

// NewTestEnvWithBackend creates an environment over b. The backend is closed
// when the test ends.
func NewTestEnvWithBackend(t *testing.T, b backend.Backend, opts ...Option) *TestEnv {
	t.Helper()

	clock := NewManualClock()
	cfg := amm.Config{
		Logger: zaptest.NewLogger(t),
		Clock:  clock.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	engine := amm.NewEngine(b, cfg)
	t.Cleanup(func() { _ = b.Close() })

	return &TestEnv{
		t:       t,
		backend: b,
		engine:  engine,
		escrow:  escrow.NewService(engine),
		clock:   clock,
	}
}

// Engine returns the engine under test.
func (e *TestEnv) Engine() *amm.Engine { return e.engine }

// Escrow returns the escrow service under test.
func (e *TestEnv) Escrow() *escrow.Service { return e.escrow }

// Clock returns the environment clock.
func (e *TestEnv) Clock() *ManualClock { return e.clock }

// Backend returns the environment backend.
func (e *TestEnv) Backend() backend.Backend { return e.backend }

// Fund credits amount of asset to account.
func (e *TestEnv) Fund(account ledger.AccountID, asset ledger.AssetID, amount uint64) {
	e.t.Helper()
	require.NoError(e.t, e.engine.Issue(context.Background(), asset, account, amount))
}

// Balance returns account's balance of asset.
func (e *TestEnv) Balance(account ledger.AccountID, asset ledger.AssetID) uint64 {
	e.t.Helper()
	bal, err := e.backend.Ledger().Balance(account, asset)
	require.NoError(e.t, err)
	return bal
}

// CreatePool funds creator and initializes pool 0 of the pair seeded with
// exactly x and y. The creator receives floor(sqrt(x*y)) LP tokens.
func (e *TestEnv) CreatePool(creator ledger.AccountID, mintX, mintY ledger.AssetID, feeBps uint16, x, y uint64) keylet.Keylet {
	e.t.Helper()
	e.Fund(creator, mintX, x)
	e.Fund(creator, mintY, y)

	res, err := e.engine.InitializePool(context.Background(), amm.InitializeParams{
		Creator:  creator,
		MintX:    mintX,
		MintY:    mintY,
		FeeBps:   feeBps,
		DepositX: x,
		MaxX:     x,
		MaxY:     y,
	})
	require.NoError(e.t, err)
	return res.Pool
}

// Pool returns a live snapshot of a pool.
func (e *TestEnv) Pool(k keylet.Keylet) amm.PoolInfo {
	e.t.Helper()
	info, err := e.engine.PoolInfo(context.Background(), k)
	require.NoError(e.t, err)
	return info
}

// LPBalance returns account's LP token balance in pool k.
func (e *TestEnv) LPBalance(k keylet.Keylet, account ledger.AccountID) uint64 {
	e.t.Helper()
	return e.Balance(account, e.Pool(k).Pool.MintLP)
}
