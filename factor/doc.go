// Package factor implements the prime factorization engine.
//
// The engine combines a small-prime sieve, a probabilistic primality
// test (Miller-Rabin) and a probabilistic factor finder (Pollard's rho)
// into a complete prime-power decomposition of arbitrary-precision
// integers. It is pure computation: no I/O, no logging, no goroutines.
// A single Engine is safe for concurrent use because its prime table is
// never mutated after construction.
package factor
