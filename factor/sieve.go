package factor

// Primes computes all prime numbers up to and including limit using the
// Sieve of Eratosthenes. The result is in ascending order. A limit below
// 2 yields an empty slice.
func Primes(limit uint64) []uint64 {
	if limit < 2 {
		return []uint64{}
	}

	composite := make([]bool, limit+1)
	for i := uint64(2); i*i <= limit; i++ {
		if !composite[i] {
			for j := i * i; j <= limit; j += i {
				composite[j] = true
			}
		}
	}

	result := make([]uint64, 0, limit/2)
	for i := uint64(2); i <= limit; i++ {
		if !composite[i] {
			result = append(result, i)
		}
	}

	return result
}
