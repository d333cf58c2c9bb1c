package factor

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var (
	zero = big.NewInt(0)
	one  = big.NewInt(1)
	two  = big.NewInt(2)
)

// GCD returns the greatest common divisor of two non-negative integers
// using the iterative Euclidean algorithm. GCD(a, 0) = a.
func GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Set(a)
	y := new(big.Int).Set(b)

	for y.Sign() != 0 {
		x.Mod(x, y)
		x, y = y, x
	}

	return x
}

// ModPow returns base^exp mod mod computed by repeated squaring.
// It requires exp >= 0 and mod >= 1.
func ModPow(base, exp, mod *big.Int) *big.Int {
	result := big.NewInt(1)
	result.Mod(result, mod) // mod 1 collapses everything to 0

	b := new(big.Int).Mod(base, mod)
	e := new(big.Int).Set(exp)

	for e.Sign() > 0 {
		if e.Bit(0) == 1 {
			result.Mul(result, b)
			result.Mod(result, mod)
		}
		b.Mul(b, b)
		b.Mod(b, mod)
		e.Rsh(e, 1)
	}

	return result
}

// RandRange returns a uniformly distributed integer in [min, max).
// It draws from crypto/rand with rejection sampling, so the result is
// unbiased for ranges of any width. It requires min < max.
func RandRange(min, max *big.Int) (*big.Int, error) {
	width := new(big.Int).Sub(max, min)
	if width.Sign() <= 0 {
		return nil, fmt.Errorf("invalid range [%s, %s)", min, max)
	}

	n, err := rand.Int(rand.Reader, width)
	if err != nil {
		return nil, fmt.Errorf("failed to draw random integer: %w", err)
	}

	return n.Add(n, min), nil
}
