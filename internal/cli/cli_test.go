package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LeJamon/cpamm/internal/config"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// run executes one cpammd invocation and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

// persistentEnv points storage and the journal at a fresh directory.
func persistentEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CPAMM_LOG_LEVEL", "error")
	t.Setenv("CPAMM_STORAGE_BACKEND", "leveldb")
	t.Setenv("CPAMM_STORAGE_PATH", filepath.Join(dir, "state"))
	t.Setenv("CPAMM_JOURNAL_DRIVER", "sqlite")
	t.Setenv("CPAMM_JOURNAL_DSN", filepath.Join(dir, "journal.db"))
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "version")
	assert.Contains(t, out, "cpammd version "+Version)
}

func TestPoolLifecycle(t *testing.T) {
	persistentEnv(t)

	mustRun(t, "ledger", "mint", "--to", "alice", "--asset", "X", "--amount", "1000")
	mustRun(t, "ledger", "mint", "--to", "alice", "--asset", "Y", "--amount", "1000")
	mustRun(t, "ledger", "mint", "--to", "bob", "--asset", "X", "--amount", "50")

	out := mustRun(t, "pool", "init", "--creator", "alice", "--x", "X", "--y", "Y",
		"--deposit-x", "100", "--max-y", "100", "--fee-bps", "0")
	assert.Contains(t, out, "pool "+keylet.Pool("X", "Y", 0).ID())
	assert.Contains(t, out, "deposited x=100 y=100 lp=100")

	out = mustRun(t, "swap", "in", "--x", "X", "--y", "Y", "--trader", "bob", "--amount", "5")
	assert.Contains(t, out, "in=5 out=4 fee=0")

	// Reversed pair addresses the same pool.
	out = mustRun(t, "pool", "show", "--x", "Y", "--y", "X")
	assert.Contains(t, out, `"reserve_x": 105`)
	assert.Contains(t, out, `"reserve_y": 96`)
	assert.Contains(t, out, `"lp_supply": 100`)

	out = mustRun(t, "ledger", "balance", "--account", "bob", "--asset", "Y")
	assert.Contains(t, out, "bob Y=4")

	out, err := run(t, "swap", "in", "--x", "X", "--y", "Y", "--trader", "bob", "--amount", "5", "--min-out", "10")
	require.Error(t, err, out)
	assert.True(t, strings.HasPrefix(err.Error(), "SlippageExceeded"), err.Error())

	out = mustRun(t, "pool", "withdraw", "--x", "X", "--y", "Y", "--withdrawer", "alice", "--lp", "100")
	assert.Contains(t, out, "withdrew x=105 y=96 lp=100")

	out = mustRun(t, "pool", "list")
	assert.Contains(t, out, `"dormant": true`)

	out = mustRun(t, "history", "--op", "swap_exact_in")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "actor=bob")
	assert.Contains(t, lines[0], "in=5 X out=4 Y")
}

func TestProtocolAndReferral(t *testing.T) {
	persistentEnv(t)

	mustRun(t, "ledger", "mint", "--to", "alice", "--asset", "X", "--amount", "1000000")
	mustRun(t, "ledger", "mint", "--to", "alice", "--asset", "Y", "--amount", "1000000")
	mustRun(t, "ledger", "mint", "--to", "bob", "--asset", "X", "--amount", "10000")
	mustRun(t, "pool", "init", "--creator", "alice", "--x", "X", "--y", "Y",
		"--deposit-x", "1000000", "--max-y", "1000000", "--fee-bps", "30")
	mustRun(t, "protocol", "init", "--admin", "admin", "--fee-account", "treasury", "--protocol-fee-bps", "2000")
	mustRun(t, "profile", "create", "--referrer", "carol", "--payout", "payout")

	out := mustRun(t, "swap", "in", "--x", "X", "--y", "Y", "--trader", "bob", "--amount", "10000", "--referrer", "carol")
	assert.Contains(t, out, "in=10000 out=9871 fee=30 protocol_fee=6 referral_fee=19")

	assert.Contains(t, mustRun(t, "ledger", "balance", "--account", "treasury", "--asset", "X"), "treasury X=6")
	assert.Contains(t, mustRun(t, "ledger", "balance", "--account", "payout", "--asset", "X"), "payout X=19")

	_, err := run(t, "protocol", "referral-fee", "--admin", "bob", "--bps", "100")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Unauthorized"), err.Error())

	out = mustRun(t, "protocol", "show")
	assert.Contains(t, out, `"protocol_fee_bps": 2000`)
}

func TestEscrowCommands(t *testing.T) {
	persistentEnv(t)

	mustRun(t, "ledger", "mint", "--to", "alice", "--asset", "X", "--amount", "100")
	mustRun(t, "ledger", "mint", "--to", "bob", "--asset", "Y", "--amount", "100")

	out := mustRun(t, "escrow", "make", "--maker", "alice", "--seed", "7",
		"--give", "X", "--want", "Y", "--deposit", "40", "--receive", "60")
	key := keylet.Escrow("alice", 7).ID()
	assert.Contains(t, out, "escrow "+key)

	mustRun(t, "escrow", "take", "--taker", "bob", "--escrow", key)
	assert.Contains(t, mustRun(t, "escrow", "show", "--escrow", key), `"status": "filled"`)
	assert.Contains(t, mustRun(t, "ledger", "balance", "--account", "alice", "--asset", "Y"), "alice Y=60")

	_, err := run(t, "escrow", "refund", "--maker", "alice", "--escrow", key)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "EscrowClosed"), err.Error())
}

func TestSimulate(t *testing.T) {
	t.Setenv("CPAMM_LOG_LEVEL", "error")

	out := mustRun(t, "simulate", "--pools", "2", "--traders", "4", "--swaps", "25", "--liquidity", "100000")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "SIM-0/SIM-QUOTE")
	assert.Contains(t, out, "SIM-1/SIM-QUOTE")
}

func TestConfigExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpamm.toml")
	mustRun(t, "config", "example", path)

	out := mustRun(t, "--conf", path, "config", "show")
	assert.Contains(t, out, `"Backend": "pebble"`)
}

func TestServeMux(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	cfg.Metrics.Enabled = true

	a, err := newApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.engine.Issue(context.Background(), "X", "alice", 10))
	srv := httptest.NewServer(newServeMux(a))
	defer srv.Close()

	for _, path := range []string{"/health", "/pools", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
