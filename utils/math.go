package utils

import (
	"fmt"

	"cosmossdk.io/math"
)

// MulDivFloor returns floor(a * b / c).
func MulDivFloor(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, fmt.Errorf("division by zero")
	}
	return a.Mul(b).Quo(c), nil
}

// MulDivCeil returns ceil(a * b / c) for non-negative operands.
func MulDivCeil(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, fmt.Errorf("division by zero")
	}
	num := a.Mul(b)
	q := num.Quo(c)
	if !num.Mod(c).IsZero() {
		q = q.AddRaw(1)
	}
	return q, nil
}

// SaturatingSub returns a - b, or zero when b exceeds a.
func SaturatingSub(a, b math.Int) math.Int {
	if b.GT(a) {
		return math.ZeroInt()
	}
	return a.Sub(b)
}
