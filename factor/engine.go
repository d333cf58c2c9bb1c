package factor

import (
	"fmt"
	"math/big"
)

// Options contains the engine tunables.
type Options struct {
	// SieveLimit is the trial-division bound; all primes up to it are
	// sieved once at engine construction.
	SieveLimit uint64

	// Rounds is the Miller-Rabin round count used during factorization.
	Rounds int

	// RhoRetries bounds rho walk restarts before the deterministic
	// fallback kicks in.
	RhoRetries int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		SieveLimit: 100000,
		Rounds:     DefaultRounds,
		RhoRetries: DefaultRhoRetries,
	}
}

// Engine factors integers into prime powers. It holds the sieved prime
// table, which is built once and never mutated, so a single Engine may
// be shared by any number of goroutines.
type Engine struct {
	opts   Options
	primes []*big.Int
}

// NewEngine builds an engine, running the sieve once. Zero-valued
// options fall back to their defaults.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.SieveLimit < 2 {
		opts.SieveLimit = def.SieveLimit
	}
	if opts.Rounds <= 0 {
		opts.Rounds = def.Rounds
	}
	if opts.RhoRetries <= 0 {
		opts.RhoRetries = def.RhoRetries
	}

	small := Primes(opts.SieveLimit)
	primes := make([]*big.Int, len(small))
	for i, p := range small {
		primes[i] = new(big.Int).SetUint64(p)
	}

	return &Engine{opts: opts, primes: primes}
}

// Options returns the effective engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// PrimeCount returns the size of the sieved prime table.
func (e *Engine) PrimeCount() int {
	return len(e.primes)
}

// ParseInput converts a decimal-digit string into the integer to
// factor. It rejects anything that is not a plain decimal rendering of
// an integer n >= 1: signs, whitespace, non-digit characters and zero.
func ParseInput(s string) (*big.Int, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("invalid decimal integer %q", s)
		}
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal integer %q", s)
	}
	if n.Sign() == 0 {
		return nil, fmt.Errorf("input must be at least 1")
	}
	return n, nil
}

// Factorize returns the complete prime-power decomposition of n >= 1.
// Factorize(1) is the empty decomposition.
//
// Small factors are stripped by trial division against the sieved prime
// table; whatever remains is reduced on an explicit work stack by the
// primality oracle and the rho finder. The call runs to completion with
// no internal suspension points; a host that needs cancellation must
// enforce it externally.
func (e *Engine) Factorize(n *big.Int) (*Decomposition, error) {
	if n == nil || n.Sign() < 1 {
		return nil, fmt.Errorf("factorize requires n >= 1")
	}

	result := NewDecomposition()
	remaining := new(big.Int).Set(n)

	// Trial division. Stop once prime^2 exceeds the remainder: with all
	// smaller primes already removed, no larger prime below its own
	// square can divide it.
	sq := new(big.Int)
	quo := new(big.Int)
	rem := new(big.Int)
	for _, p := range e.primes {
		sq.Mul(p, p)
		if sq.Cmp(remaining) > 0 {
			break
		}
		for {
			quo.QuoRem(remaining, p, rem)
			if rem.Sign() != 0 {
				break
			}
			remaining.Set(quo)
			result.Add(p)
		}
	}

	if remaining.Cmp(one) == 0 {
		return result, nil
	}

	// Reduce the remainder with an explicit stack rather than
	// recursion, so stack depth stays bounded on large inputs.
	stack := []*big.Int{remaining}
	for len(stack) > 0 {
		candidate := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if candidate.Cmp(one) == 0 {
			continue
		}
		if IsProbablyPrime(candidate, e.opts.Rounds) {
			result.Add(candidate)
			continue
		}

		f, err := FindFactor(candidate, e.opts.RhoRetries)
		if err != nil {
			return nil, fmt.Errorf("failed to split %s: %w", candidate, err)
		}
		stack = append(stack,
			new(big.Int).Quo(candidate, f),
			f,
		)
	}

	return result, nil
}
