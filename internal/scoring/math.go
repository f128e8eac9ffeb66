// Package scoring holds the pure arithmetic of the arena: fee splits, score
// deltas, the rank table and prize shares. All money math is widened to 256
// bits and narrowed back with an explicit overflow check.
package scoring

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrOverflow is returned when a result does not fit in 64 bits.
var ErrOverflow = errors.New("arithmetic overflow")

// MulDiv returns a*b/d with a 256-bit intermediate. d must be nonzero.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, errors.New("division by zero")
	}
	z := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	z.Div(z, uint256.NewInt(d))
	if !z.IsUint64() {
		return 0, ErrOverflow
	}
	return z.Uint64(), nil
}

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	z := new(uint256.Int).Add(uint256.NewInt(a), uint256.NewInt(b))
	if !z.IsUint64() {
		return 0, ErrOverflow
	}
	return z.Uint64(), nil
}

// Sub returns a-b or ErrOverflow when b > a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// Inc returns v+1 or ErrOverflow.
func Inc(v uint64) (uint64, error) {
	return Add(v, 1)
}
