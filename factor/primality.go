package factor

import "math/big"

// DefaultRounds is the number of Miller-Rabin rounds used when no
// explicit round count is configured. Five rounds push the composite
// false-positive probability below 1/4^5 per tested value.
const DefaultRounds = 5

// IsProbablyPrime reports whether n is prime using the Miller-Rabin
// probabilistic test with the given number of witness rounds.
//
// A false return is always correct: n is composite. A true return is
// probabilistic: a composite can slip through with probability at most
// 4^-rounds. Callers that need more certainty should raise rounds.
func IsProbablyPrime(n *big.Int, rounds int) bool {
	if n.Cmp(two) < 0 {
		return false
	}
	if n.Cmp(two) == 0 || n.Cmp(big.NewInt(3)) == 0 {
		return true
	}
	if n.Bit(0) == 0 {
		return false
	}

	// Write n-1 = d * 2^r with d odd.
	nMinusOne := new(big.Int).Sub(n, one)
	d := new(big.Int).Set(nMinusOne)
	r := 0
	for d.Bit(0) == 0 {
		d.Rsh(d, 1)
		r++
	}

	// Witnesses are drawn from [2, n-2].
	witnessMax := new(big.Int).Sub(n, one) // [2, n-1) == [2, n-2]

	for i := 0; i < rounds; i++ {
		a, err := RandRange(two, witnessMax)
		if err != nil {
			// The system random source failed; treat the round as
			// inconclusive rather than misclassify.
			continue
		}

		x := ModPow(a, d, n)
		if x.Cmp(one) == 0 || x.Cmp(nMinusOne) == 0 {
			continue
		}

		passed := false
		for j := 0; j < r-1; j++ {
			x.Mul(x, x)
			x.Mod(x, n)
			if x.Cmp(nMinusOne) == 0 {
				passed = true
				break
			}
		}
		if !passed {
			return false
		}
	}

	return true
}
