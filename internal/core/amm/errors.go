package amm

import (
	"errors"

	"github.com/LeJamon/cpamm/internal/core/ledger"
)

var (
	ErrPoolAlreadyExists     = errors.New("pool already exists")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrInvalidPair           = errors.New("invalid mint pair")
	ErrZeroAmount            = errors.New("zero amount")
	ErrZeroDeposit           = errors.New("zero deposit")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrArithmeticOverflow    = errors.New("arithmetic overflow")
	ErrInvalidFeeRate        = errors.New("invalid fee rate")
	ErrPoolLocked            = errors.New("pool locked")
	ErrConfigAlreadyExists   = errors.New("protocol config already exists")
	ErrConfigNotFound        = errors.New("protocol config not found")
	ErrProfileAlreadyExists  = errors.New("referral profile already exists")
	ErrProfileNotFound       = errors.New("referral profile not found")
	ErrInvalidAccount        = errors.New("invalid account")

	// ErrInsufficientBalance is the ledger's error so that a failed debit
	// anywhere in the commit path matches it.
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
)

var codes = []struct {
	err  error
	code string
}{
	{ErrPoolAlreadyExists, "PoolAlreadyExists"},
	{ErrPoolNotFound, "PoolNotFound"},
	{ErrInvalidPair, "InvalidPair"},
	{ErrZeroAmount, "ZeroAmount"},
	{ErrZeroDeposit, "ZeroDeposit"},
	{ErrSlippageExceeded, "SlippageExceeded"},
	{ErrInsufficientLiquidity, "InsufficientLiquidity"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrArithmeticOverflow, "ArithmeticOverflow"},
	{ledger.ErrBalanceOverflow, "ArithmeticOverflow"},
	{ErrInvalidFeeRate, "InvalidFeeRate"},
	{ErrPoolLocked, "PoolLocked"},
	{ErrConfigAlreadyExists, "ConfigAlreadyExists"},
	{ErrConfigNotFound, "ConfigNotFound"},
	{ErrProfileAlreadyExists, "ProfileAlreadyExists"},
	{ErrProfileNotFound, "ProfileNotFound"},
	{ErrInvalidAccount, "InvalidAccount"},
}

// Code returns the stable name of err, "OK" for nil and "Internal" for
// errors outside the engine's set.
func Code(err error) string {
	if err == nil {
		return "OK"
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "Internal"
}

// RegisterCode adds a sentinel to the set Code recognises. Sibling engines
// sharing the amm error space call it from init.
func RegisterCode(err error, code string) {
	codes = append(codes, struct {
		err  error
		code string
	}{err, code})
}
