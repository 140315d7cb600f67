// Package fixedmath implements the overflow-safe fixed-point arithmetic used
// by the risk and accrual engines. Amounts and prices are uint64 values
// scaled by 1e9; every multiplication is carried out in 256-bit intermediates
// and only the final narrowing saturates at the uint64 maximum.
package fixedmath

import (
	"math"

	"github.com/holiman/uint256"
)

const (
	// Scale is the fixed-point scaling factor (9 decimal places).
	Scale uint64 = 1_000_000_000
	// BpsDenominator converts basis-point fields into ratios.
	BpsDenominator uint64 = 10_000
	// MaxHealthFactor is the sentinel returned for debt-free positions,
	// interpreted as infinite health.
	MaxHealthFactor uint64 = math.MaxUint64
)

// saturate narrows a wide intermediate to uint64, clamping at the maximum
// representable value instead of wrapping.
func saturate(v *uint256.Int) uint64 {
	if !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}

// SatAdd returns a+b, clamped at the uint64 maximum.
func SatAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}

// SatMul returns a*b, clamped at the uint64 maximum.
func SatMul(a, b uint64) uint64 {
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return saturate(product)
}

// MulDiv returns floor(a*b/div) with the product held in a wide intermediate.
// A zero divisor yields zero.
func MulDiv(a, b, div uint64) uint64 {
	if div == 0 {
		return 0
	}
	wide := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	wide.Div(wide, uint256.NewInt(div))
	return saturate(wide)
}

// CollateralValue converts a token amount and a scaled price into a USD-scale
// value: floor(amount * price / Scale).
func CollateralValue(amount, price uint64) uint64 {
	return MulDiv(amount, price, Scale)
}

// MaxBorrow returns the debt ceiling for a collateral value at the supplied
// loan-to-value limit: floor(value * ltvBps / 10_000).
func MaxBorrow(value, ltvBps uint64) uint64 {
	return MulDiv(value, ltvBps, BpsDenominator)
}

// HealthFactor computes the scaled health factor for a position:
// floor(value * liqThresholdBps / 10_000 * Scale / debt). A debt-free
// position reports MaxHealthFactor. Values below Scale mean the position is
// past the liquidation threshold.
func HealthFactor(value, debt, liqThresholdBps uint64) uint64 {
	if debt == 0 {
		return MaxHealthFactor
	}
	weighted := new(uint256.Int).Mul(uint256.NewInt(value), uint256.NewInt(liqThresholdBps))
	weighted.Div(weighted, uint256.NewInt(BpsDenominator))
	weighted.Mul(weighted, uint256.NewInt(Scale))
	weighted.Div(weighted, uint256.NewInt(debt))
	return saturate(weighted)
}

// LTVBps returns debt/value expressed in basis points, saturating when the
// ratio exceeds the representable range. A zero value yields zero; callers
// must treat that case separately.
func LTVBps(debt, value uint64) uint64 {
	if value == 0 {
		return 0
	}
	return MulDiv(debt, BpsDenominator, value)
}

// IntervalReward computes floor(shares * ratePerInterval * intervals / Scale)
// in one wide intermediate, saturating only at the final narrowing.
func IntervalReward(shares, ratePerInterval, intervals uint64) uint64 {
	wide := new(uint256.Int).Mul(uint256.NewInt(shares), uint256.NewInt(ratePerInterval))
	wide.Mul(wide, uint256.NewInt(intervals))
	wide.Div(wide, uint256.NewInt(Scale))
	return saturate(wide)
}
