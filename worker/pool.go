package worker

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/primeworks/factord/config"
	"github.com/primeworks/factord/core"
	"github.com/primeworks/factord/factor"
	"github.com/primeworks/factord/protocol"
)

// ServiceName is the name the first worker is registered under in the
// actor system, so in-process callers can reach the service by name.
const ServiceName = "factor"

// Pool owns the worker actors and dispatches factorization requests to
// them. It implements the transport's Handler interface, translating
// protocol envelopes to actor calls.
type Pool struct {
	workers []core.Actor
	cfg     config.WorkerConfig
	cache   Cache
	logger  *zap.Logger

	// Round-robin cursor
	next uint32
}

// NewPool builds cfg.Count worker actors over one shared engine and
// registers the first one as the named service.
func NewPool(system core.ActorSystem, engine *factor.Engine, cfg config.WorkerConfig, cache Cache, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		cfg:    cfg,
		cache:  cache,
		logger: logger,
	}

	handler := NewHandler(engine, cache, logger)

	for i := 0; i < cfg.Count; i++ {
		opts := core.DefaultActorOptions()
		opts.MailboxSize = cfg.MailboxSize
		opts.Name = fmt.Sprintf("factor-worker-%d", i)

		var (
			actor core.Actor
			err   error
		)
		if i == 0 {
			actor, err = system.NewService(ServiceName, handler, opts)
		} else {
			actor, err = system.NewActor(handler, opts)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to start worker %d: %w", i, err)
		}
		p.workers = append(p.workers, actor)
	}

	logger.Info("worker pool started",
		zap.Int("workers", cfg.Count),
		zap.String("dispatch", cfg.Dispatch))

	return p, nil
}

// pick selects a worker according to the dispatch strategy.
func (p *Pool) pick() core.Actor {
	if len(p.workers) == 1 {
		return p.workers[0]
	}

	switch p.cfg.Dispatch {
	case config.DispatchLeastBusy:
		best := p.workers[0]
		bestBacklog := best.Backlog()
		for _, w := range p.workers[1:] {
			if b := w.Backlog(); b < bestBacklog {
				best, bestBacklog = w, b
			}
		}
		return best

	default: // round-robin
		idx := atomic.AddUint32(&p.next, 1)
		return p.workers[int(idx)%len(p.workers)]
	}
}

// Serve handles one transport payload: unpack the envelope, dispatch
// factorize requests to a worker, answer heartbeats, honor quit.
func (p *Pool) Serve(ctx context.Context, payload []byte) ([]byte, bool) {
	msgType, session, body, err := protocol.Unpack(payload)
	if err != nil {
		return p.packError(session, "", fmt.Sprintf("malformed request: %v", err)), false
	}

	switch msgType {
	case protocol.TypeHeartbeat:
		resp, _ := protocol.Pack(protocol.TypeHeartbeat, session, nil)
		return resp, false

	case protocol.TypeQuit:
		return nil, true

	case protocol.TypeFactorize:
		var req protocol.FactorizeRequest
		if err := protocol.Decode(body, &req); err != nil {
			return p.packError(session, "", fmt.Sprintf("malformed request body: %v", err)), false
		}
		return p.factorize(ctx, session, req), false

	default:
		return p.packError(session, "", fmt.Sprintf("unknown message type %d", msgType)), false
	}
}

// factorize dispatches one request to a worker actor and waits for the
// result.
func (p *Pool) factorize(ctx context.Context, session uint32, req protocol.FactorizeRequest) []byte {
	actor := p.pick()

	resp, err := actor.Call(ctx, &core.Message{
		Type: core.MessageTypeRequest,
		Data: []byte(req.N),
	})
	if err != nil {
		p.logger.Warn("worker call failed", zap.String("n", req.N), zap.Error(err))
		return p.packError(session, req.N, fmt.Sprintf("service unavailable: %v", err))
	}

	if resp.Type == core.MessageTypeError {
		return p.packError(session, req.N, string(resp.Data))
	}

	// The worker payload is an already-encoded result body; wrap it in
	// the response envelope without a decode round trip.
	header, err := protocol.Encode(protocol.Package{Type: protocol.TypeResult, Session: session})
	if err != nil {
		return p.packError(session, req.N, "internal encoding failure")
	}
	return append(header, resp.Data...)
}

// packError builds an error response, logging when even that fails.
func (p *Pool) packError(session uint32, n, msg string) []byte {
	packed, err := protocol.Pack(protocol.TypeError, session, protocol.ErrorResponse{
		N:     strings.TrimSpace(n),
		Error: msg,
	})
	if err != nil {
		p.logger.Error("failed to encode error response", zap.Error(err))
		return nil
	}
	return packed
}

// Stats returns per-worker statistics.
func (p *Pool) Stats() []core.ActorStats {
	stats := make([]core.ActorStats, 0, len(p.workers))
	for _, w := range p.workers {
		stats = append(stats, w.Stats())
	}
	return stats
}

// Close releases the cache; actors are stopped by the actor system
// shutdown.
func (p *Pool) Close() error {
	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}
