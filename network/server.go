package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/primeworks/factord/config"
	"github.com/primeworks/factord/protocol"
)

// Handler processes one request payload and returns the response
// payload. A true close return asks the server to end the connection
// after writing the response.
type Handler interface {
	Serve(ctx context.Context, payload []byte) (resp []byte, close bool)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload []byte) ([]byte, bool)

// Serve calls f(ctx, payload).
func (f HandlerFunc) Serve(ctx context.Context, payload []byte) ([]byte, bool) {
	return f(ctx, payload)
}

// Server accepts TCP connections and pumps request frames through a
// Handler. Each connection gets its own reader goroutine, an idle
// deadline and a token-bucket request rate limit.
type Server struct {
	cfg     config.NetworkConfig
	handler Handler
	logger  *zap.Logger

	listener net.Listener

	// Live connection count
	connCount int32

	// Rate limit settings, swappable on config reload
	rateMu    sync.RWMutex
	rateLimit config.RateLimitConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started int32
}

// NewServer creates a server. The handler must not be nil.
func NewServer(cfg config.NetworkConfig, handler Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:       cfg,
		handler:   handler,
		logger:    logger,
		rateLimit: cfg.RateLimit,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins listening and accepting connections.
func (s *Server) Start() error {
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		return fmt.Errorf("server already started")
	}

	listener, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address(), err)
	}
	s.listener = listener

	s.logger.Info("server listening", zap.String("address", listener.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Addr returns the bound listen address, useful when port 0 was
// requested.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for connection goroutines.
func (s *Server) Stop() error {
	s.cancel()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	s.wg.Wait()
	return err
}

// ConnCount returns the number of live connections.
func (s *Server) ConnCount() int {
	return int(atomic.LoadInt32(&s.connCount))
}

// SetRateLimit swaps the rate limit settings applied to new
// connections. Used by config hot reload.
func (s *Server) SetRateLimit(rl config.RateLimitConfig) {
	s.rateMu.Lock()
	s.rateLimit = rl
	s.rateMu.Unlock()
}

func (s *Server) currentRateLimit() config.RateLimitConfig {
	s.rateMu.RLock()
	defer s.rateMu.RUnlock()
	return s.rateLimit
}

// acceptLoop accepts connections until the listener closes.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			s.logger.Warn("accept failed", zap.Error(err))
			return
		}

		if int(atomic.AddInt32(&s.connCount, 1)) > s.cfg.MaxConnections {
			atomic.AddInt32(&s.connCount, -1)
			s.logger.Warn("connection limit reached, rejecting",
				zap.String("remote", conn.RemoteAddr().String()))
			s.rejectConn(conn)
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// rejectConn tells an over-limit client why it is being dropped.
func (s *Server) rejectConn(conn net.Conn) {
	defer conn.Close()

	packed, err := protocol.Pack(protocol.TypeError, 0, protocol.ErrorResponse{
		Error: "server at connection limit",
	})
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_ = WriteFrame(conn, packed, s.cfg.MaxFrameBytes)
}

// handleConn runs the per-connection request loop.
func (s *Server) handleConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()

	defer func() {
		conn.Close()
		atomic.AddInt32(&s.connCount, -1)
		s.wg.Done()
		s.logger.Debug("connection closed", zap.String("remote", remote))
	}()

	s.logger.Debug("connection established", zap.String("remote", remote))

	rl := s.currentRateLimit()
	var limiter *rate.Limiter
	if rl.Enabled {
		limiter = rate.NewLimiter(rate.Limit(rl.RPS), rl.Burst)
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if s.cfg.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout.Std()))
		}

		payload, err := ReadFrame(conn, s.cfg.MaxFrameBytes)
		if err != nil {
			if !errors.Is(err, io.EOF) && s.ctx.Err() == nil {
				s.logger.Debug("read failed", zap.String("remote", remote), zap.Error(err))
			}
			return
		}

		if limiter != nil && !limiter.Allow() {
			if !s.writeError(conn, payload, "rate limit exceeded") {
				return
			}
			continue
		}

		resp, closeAfter := s.handler.Serve(s.ctx, payload)
		if resp != nil {
			conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := WriteFrame(conn, resp, s.cfg.MaxFrameBytes); err != nil {
				s.logger.Debug("write failed", zap.String("remote", remote), zap.Error(err))
				return
			}
		}
		if closeAfter {
			return
		}
	}
}

// writeError sends a protocol error response preserving the request's
// session when it can be recovered. It reports whether the connection
// is still usable.
func (s *Server) writeError(conn net.Conn, request []byte, msg string) bool {
	var session uint32
	if _, sess, _, err := protocol.Unpack(request); err == nil {
		session = sess
	}

	packed, err := protocol.Pack(protocol.TypeError, session, protocol.ErrorResponse{Error: msg})
	if err != nil {
		return false
	}

	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return WriteFrame(conn, packed, s.cfg.MaxFrameBytes) == nil
}
