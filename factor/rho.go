package factor

import (
	"fmt"
	"math/big"
)

// DefaultRhoRetries bounds how many times the rho walk is restarted
// with fresh randomness after cycling back to a trivial divisor.
const DefaultRhoRetries = 50

// FindFactor returns a nontrivial factor of the composite n using
// Pollard's rho with Floyd cycle detection. Even n returns 2
// immediately. A walk that degenerates (gcd == n) is restarted with a
// fresh seed and increment, up to maxRetries times; after that the
// search falls back to a deterministic trial-division sweep so the call
// always terminates on composite input.
//
// The caller is responsible for ensuring n is composite and n > 3;
// passing a prime makes every walk degenerate and lands in the
// fallback, which then fails.
func FindFactor(n *big.Int, maxRetries int) (*big.Int, error) {
	if n.Bit(0) == 0 {
		return new(big.Int).Set(two), nil
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		g, err := rhoWalk(n)
		if err != nil {
			return nil, err
		}
		// g == n means the walk cycled without finding a proper
		// divisor; retry with fresh randomness.
		if g.Cmp(n) != 0 {
			return g, nil
		}
	}

	return sweepFactor(n)
}

// rhoWalk runs one rho iteration x -> x^2 + c mod n with a random seed
// and increment, returning gcd(|x-y|, n). The result is n itself when
// the walk degenerates.
func rhoWalk(n *big.Int) (*big.Int, error) {
	seedMax := new(big.Int).Sub(n, one)

	x0, err := RandRange(two, seedMax)
	if err != nil {
		return nil, err
	}
	c, err := RandRange(one, seedMax)
	if err != nil {
		return nil, err
	}

	x := new(big.Int).Set(x0)
	y := new(big.Int).Set(x0)
	g := big.NewInt(1)
	diff := new(big.Int)

	step := func(v *big.Int) {
		v.Mul(v, v)
		v.Add(v, c)
		v.Mod(v, n)
	}

	for g.Cmp(one) == 0 {
		step(x)
		step(y)
		step(y)

		diff.Sub(x, y)
		diff.Abs(diff)
		g = GCD(diff, n)
	}

	return g, nil
}

// sweepFactor is the deterministic fallback: odd trial division from 3
// up to sqrt(n). Slow, but it cannot fail on composite n.
func sweepFactor(n *big.Int) (*big.Int, error) {
	d := big.NewInt(3)
	sq := new(big.Int)
	rem := new(big.Int)

	for {
		sq.Mul(d, d)
		if sq.Cmp(n) > 0 {
			break
		}
		rem.Mod(n, d)
		if rem.Sign() == 0 {
			return new(big.Int).Set(d), nil
		}
		d.Add(d, two)
	}

	return nil, fmt.Errorf("no nontrivial factor of %s: value is prime", n)
}
