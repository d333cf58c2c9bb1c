// Package core implements the actor runtime hosting the factorization
// workers.
//
// An Actor owns a mailbox channel and processes messages sequentially
// in its own goroutine. Synchronous request/response is built on
// session-correlated calls, so a caller can hand an integer to a worker
// and wait for the decomposition without the worker ever blocking on
// the caller.
package core
