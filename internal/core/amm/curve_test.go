package amm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name    string
		a, b, d uint64
		roundUp bool
		want    uint64
	}{
		{"exact", 10, 10, 5, false, 20},
		{"exact rounded up", 10, 10, 5, true, 20},
		{"floor", 10, 10, 3, false, 33},
		{"ceil", 10, 10, 3, true, 34},
		{"wide product", math.MaxUint64, 2, 4, false, math.MaxUint64 / 2},
		{"zero", 0, 123, 7, true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mulDiv(tc.a, tc.b, tc.d, tc.roundUp)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("quotient overflow", func(t *testing.T) {
		_, err := mulDiv(math.MaxUint64, 3, 2, false)
		require.True(t, errors.Is(err, ErrArithmeticOverflow))
	})

	t.Run("division by zero", func(t *testing.T) {
		_, err := mulDiv(1, 1, 0, false)
		require.True(t, errors.Is(err, ErrArithmeticOverflow))
	})
}

func TestExactInOutput(t *testing.T) {
	out, fee, err := exactInOutput(100, 100, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), out)
	assert.Equal(t, uint64(0), fee)

	out, fee, err = exactInOutput(1_000_000, 1_000_000, 10_000, 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(9871), out)
	assert.Equal(t, uint64(30), fee)

	t.Run("rounds in favour of the pool", func(t *testing.T) {
		// (1000+1)*(1000-0) >= 1000*1000
		out, _, err := exactInOutput(1000, 1000, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), out)
	})

	t.Run("empty reserve", func(t *testing.T) {
		_, _, err := exactInOutput(0, 100, 5, 0)
		require.ErrorIs(t, err, ErrInsufficientLiquidity)
	})

	t.Run("max reserves do not overflow", func(t *testing.T) {
		out, _, err := exactInOutput(math.MaxUint64/2, math.MaxUint64, math.MaxUint64/2, 0)
		require.NoError(t, err)
		assert.Less(t, out, uint64(math.MaxUint64))
	})
}

func TestExactOutInput(t *testing.T) {
	in, fee, err := exactOutInput(1000, 1000, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(112), in)
	assert.Equal(t, uint64(0), fee)

	in, fee, err = exactOutInput(1000, 1000, 100, 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(113), in)
	assert.Equal(t, uint64(1), fee)

	t.Run("whole reserve", func(t *testing.T) {
		_, _, err := exactOutInput(1000, 1000, 1000, 0)
		require.ErrorIs(t, err, ErrInsufficientLiquidity)
	})

	t.Run("overflowing input", func(t *testing.T) {
		_, _, err := exactOutInput(math.MaxUint64, 3, 2, 0)
		require.ErrorIs(t, err, ErrArithmeticOverflow)
	})
}

func TestLiquidityMath(t *testing.T) {
	share, err := proportionalShare(50, 101, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), share)

	cost, err := proportionalCost(50, 101, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(51), cost)

	_, err = proportionalShare(1, 1, 0)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	assert.Equal(t, uint64(100), geometricMean(100, 100))
	assert.Equal(t, uint64(141), geometricMean(100, 200))
	assert.Equal(t, uint64(math.MaxUint64), geometricMean(math.MaxUint64, math.MaxUint64))

	y, err := seedAmountY(100, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), y)
	y, err = seedAmountY(10, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(34), y)
}

func TestFeeOf(t *testing.T) {
	f, err := feeOf(30, DefaultReferralFeeBps)
	require.NoError(t, err)
	assert.Equal(t, uint64(19), f)

	f, err = feeOf(math.MaxUint64, 9999)
	require.NoError(t, err)
	assert.Less(t, f, uint64(math.MaxUint64))
}
