// Package worker implements the factorization service: actors that
// parse a decimal input, run the engine and answer with the rendered
// decomposition, plus the pool that dispatches requests to them.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/primeworks/factord/core"
	"github.com/primeworks/factord/factor"
	"github.com/primeworks/factord/protocol"
)

// Handler is the message handler run by each worker actor. The message
// payload is the decimal input string; the response payload is an
// encoded protocol.FactorizeResult. All workers share one engine and
// one cache.
type Handler struct {
	engine *factor.Engine
	cache  Cache
	logger *zap.Logger
}

// NewHandler creates a worker handler. cache may be nil and logger may
// be nil.
func NewHandler(engine *factor.Engine, cache Cache, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, cache: cache, logger: logger}
}

// HandleMessage factors one input.
func (h *Handler) HandleMessage(ctx context.Context, msg *core.Message) ([]byte, error) {
	input := string(msg.Data)

	n, err := factor.ParseInput(input)
	if err != nil {
		// Parse errors never start a computation
		return nil, fmt.Errorf("parse error: %w", err)
	}

	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, input); ok {
			if resp, err := markCached(cached); err == nil {
				h.logger.Debug("cache hit", zap.String("n", input))
				return resp, nil
			}
			// A corrupt cache entry falls through to recompute
		}
	}

	start := time.Now()
	decomposition, err := h.engine.Factorize(n)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("factorization failed: %w", err)
	}

	result := protocol.FactorizeResult{
		N:         input,
		Factors:   protocol.RenderFactors(decomposition),
		ElapsedMS: float64(elapsed.Microseconds()) / 1000.0,
	}

	encoded, err := protocol.Encode(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	if h.cache != nil {
		h.cache.Set(ctx, input, encoded)
	}

	h.logger.Info("factorized",
		zap.String("n", input),
		zap.Int("digits", len(input)),
		zap.Int("distinct_primes", decomposition.Len()),
		zap.Duration("elapsed", elapsed))

	return encoded, nil
}

// markCached re-encodes a cached result with its cached flag set.
func markCached(cached []byte) ([]byte, error) {
	var result protocol.FactorizeResult
	if err := protocol.Decode(cached, &result); err != nil {
		return nil, err
	}
	result.Cached = true
	return protocol.Encode(result)
}
