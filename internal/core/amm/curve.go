package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// BpsDenominator is the basis point scale of every fee rate.
const BpsDenominator = 10_000

// mulDiv returns a*b/d rounded down, or up when roundUp is set. The product
// is computed in 256 bits; a quotient outside uint64 is an overflow.
func mulDiv(a, b, d uint64, roundUp bool) (uint64, error) {
	if d == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrArithmeticOverflow)
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	q, r := new(uint256.Int).DivMod(product, uint256.NewInt(d), new(uint256.Int))
	if roundUp && !r.IsZero() {
		q.AddUint64(q, 1)
	}
	if !q.IsUint64() {
		return 0, fmt.Errorf("%w: %d*%d/%d", ErrArithmeticOverflow, a, b, d)
	}
	return q.Uint64(), nil
}

func ceilDiv(n *uint256.Int, d *uint256.Int) *uint256.Int {
	q, r := new(uint256.Int).DivMod(n, d, new(uint256.Int))
	if !r.IsZero() {
		q.AddUint64(q, 1)
	}
	return q
}

// invariant returns x*y.
func invariant(x, y uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(x), uint256.NewInt(y))
}

// feeOf returns floor(amount*bps/10000).
func feeOf(amount uint64, bps uint16) (uint64, error) {
	return mulDiv(amount, uint64(bps), BpsDenominator, false)
}

// exactInOutput prices an exact-input swap. It returns the output amount and
// the fee withheld from amountIn. The post-trade output reserve is rounded up
// so the pool keeps any rounding remainder.
func exactInOutput(reserveIn, reserveOut, amountIn uint64, feeBps uint16) (out, fee uint64, err error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, 0, ErrInsufficientLiquidity
	}
	fee, err = feeOf(amountIn, feeBps)
	if err != nil {
		return 0, 0, err
	}
	inAfterFee := amountIn - fee

	k := invariant(reserveIn, reserveOut)
	denominator := new(uint256.Int).AddUint64(uint256.NewInt(reserveIn), inAfterFee)
	newOut := ceilDiv(k, denominator)

	// newOut <= reserveOut because denominator >= reserveIn.
	return reserveOut - newOut.Uint64(), fee, nil
}

// exactOutInput prices an exact-output swap. It returns the input amount
// the trader pays and the fee portion of it. Both roundings are up.
func exactOutInput(reserveIn, reserveOut, amountOut uint64, feeBps uint16) (in, fee uint64, err error) {
	if amountOut >= reserveOut {
		return 0, 0, ErrInsufficientLiquidity
	}
	beforeFee, err := mulDiv(reserveIn, amountOut, reserveOut-amountOut, true)
	if err != nil {
		return 0, 0, err
	}
	in, err = mulDiv(beforeFee, BpsDenominator, BpsDenominator-uint64(feeBps), true)
	if err != nil {
		return 0, 0, err
	}
	return in, in - beforeFee, nil
}

// proportionalShare returns floor(lpAmount*reserve/lpSupply), the reserve
// claim of lpAmount LP tokens.
func proportionalShare(lpAmount, reserve, lpSupply uint64) (uint64, error) {
	if lpSupply == 0 {
		return 0, ErrInsufficientLiquidity
	}
	return mulDiv(lpAmount, reserve, lpSupply, false)
}

// proportionalCost returns ceil(lpAmount*reserve/lpSupply), what minting
// lpAmount LP tokens costs in one reserve.
func proportionalCost(lpAmount, reserve, lpSupply uint64) (uint64, error) {
	if lpSupply == 0 {
		return 0, ErrInsufficientLiquidity
	}
	return mulDiv(lpAmount, reserve, lpSupply, true)
}

// geometricMean returns floor(sqrt(x*y)).
func geometricMean(x, y uint64) uint64 {
	return new(uint256.Int).Sqrt(invariant(x, y)).Uint64()
}

// seedAmountY returns ceil(lp^2/depositX), the Y deposit that makes lp the
// geometric mean of the seeded reserves.
func seedAmountY(lp, depositX uint64) (uint64, error) {
	return mulDiv(lp, lp, depositX, true)
}
