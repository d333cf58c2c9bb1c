package worker

import (
	"context"
	"testing"
	"time"

	"github.com/primeworks/factord/config"
	"github.com/primeworks/factord/core"
	"github.com/primeworks/factord/factor"
	"github.com/primeworks/factord/protocol"
)

func testEngine(t *testing.T) *factor.Engine {
	t.Helper()
	opts := factor.DefaultOptions()
	opts.SieveLimit = 10000
	return factor.NewEngine(opts)
}

func decodeResult(t *testing.T, data []byte) protocol.FactorizeResult {
	t.Helper()
	var result protocol.FactorizeResult
	if err := protocol.Decode(data, &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	return result
}

func TestHandlerFactorize(t *testing.T) {
	h := NewHandler(testEngine(t), nil, nil)

	resp, err := h.HandleMessage(context.Background(), &core.Message{
		Type: core.MessageTypeRequest,
		Data: []byte("360"),
	})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	result := decodeResult(t, resp)
	if result.N != "360" {
		t.Errorf("N = %q, want 360", result.N)
	}
	want := map[string]int{"2": 3, "3": 2, "5": 1}
	if len(result.Factors) != len(want) {
		t.Fatalf("got %d factors, want %d", len(result.Factors), len(want))
	}
	for p, e := range want {
		if result.Factors[p] != e {
			t.Errorf("exponent of %s = %d, want %d", p, result.Factors[p], e)
		}
	}
	if result.Cached {
		t.Error("fresh result marked as cached")
	}
}

func TestHandlerParseError(t *testing.T) {
	h := NewHandler(testEngine(t), nil, nil)

	for _, input := range []string{"", "abc", "-12", "0", "12.5"} {
		if _, err := h.HandleMessage(context.Background(), &core.Message{
			Type: core.MessageTypeRequest,
			Data: []byte(input),
		}); err == nil {
			t.Errorf("input %q: expected parse error", input)
		}
	}
}

func TestHandlerCacheHit(t *testing.T) {
	cache := NewMemoryCache(16, time.Minute)
	h := NewHandler(testEngine(t), cache, nil)
	msg := &core.Message{Type: core.MessageTypeRequest, Data: []byte("720")}

	first, err := h.HandleMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if decodeResult(t, first).Cached {
		t.Error("first result marked as cached")
	}

	second, err := h.HandleMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	result := decodeResult(t, second)
	if !result.Cached {
		t.Error("second result not marked as cached")
	}
	if result.Factors["2"] != 4 || result.Factors["3"] != 2 || result.Factors["5"] != 1 {
		t.Errorf("cached factors wrong: %v", result.Factors)
	}
}

func newTestPool(t *testing.T, count int, dispatch string) (*Pool, core.ActorSystem) {
	t.Helper()

	system := core.NewActorSystem()
	cfg := config.WorkerConfig{
		Count:       count,
		MailboxSize: 64,
		Dispatch:    dispatch,
	}

	pool, err := NewPool(system, testEngine(t), cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		system.Shutdown(ctx)
		pool.Close()
	})

	return pool, system
}

func TestPoolServeFactorize(t *testing.T) {
	pool, _ := newTestPool(t, 2, config.DispatchRoundRobin)

	packed, err := protocol.Pack(protocol.TypeFactorize, 7, protocol.FactorizeRequest{N: "8051"})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	resp, closeAfter := pool.Serve(context.Background(), packed)
	if closeAfter {
		t.Error("factorize request asked to close the connection")
	}

	msgType, session, body, err := protocol.Unpack(resp)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if msgType != protocol.TypeResult {
		t.Fatalf("response type = %d, want %d", msgType, protocol.TypeResult)
	}
	if session != 7 {
		t.Errorf("session = %d, want 7", session)
	}

	result := decodeResult(t, body)
	if result.Factors["83"] != 1 || result.Factors["97"] != 1 {
		t.Errorf("8051 factors = %v, want 83 and 97", result.Factors)
	}
}

func TestPoolServeParseError(t *testing.T) {
	pool, _ := newTestPool(t, 1, config.DispatchRoundRobin)

	packed, err := protocol.Pack(protocol.TypeFactorize, 3, protocol.FactorizeRequest{N: "not-a-number"})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	resp, closeAfter := pool.Serve(context.Background(), packed)
	if closeAfter {
		t.Error("error response asked to close the connection")
	}

	msgType, session, body, err := protocol.Unpack(resp)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if msgType != protocol.TypeError {
		t.Fatalf("response type = %d, want %d", msgType, protocol.TypeError)
	}
	if session != 3 {
		t.Errorf("session = %d, want 3", session)
	}

	var errResp protocol.ErrorResponse
	if err := protocol.Decode(body, &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Error == "" {
		t.Error("error response has empty message")
	}
}

func TestPoolServeHeartbeat(t *testing.T) {
	pool, _ := newTestPool(t, 1, config.DispatchRoundRobin)

	packed, err := protocol.Pack(protocol.TypeHeartbeat, 9, nil)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	resp, closeAfter := pool.Serve(context.Background(), packed)
	if closeAfter {
		t.Error("heartbeat asked to close the connection")
	}

	msgType, session, _, err := protocol.Unpack(resp)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if msgType != protocol.TypeHeartbeat || session != 9 {
		t.Errorf("heartbeat reply = (%d, %d), want (%d, 9)", msgType, session, protocol.TypeHeartbeat)
	}
}

func TestPoolServeQuit(t *testing.T) {
	pool, _ := newTestPool(t, 1, config.DispatchRoundRobin)

	packed, err := protocol.Pack(protocol.TypeQuit, 1, nil)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	resp, closeAfter := pool.Serve(context.Background(), packed)
	if !closeAfter {
		t.Error("quit did not ask to close the connection")
	}
	if resp != nil {
		t.Error("quit produced a response payload")
	}
}

func TestPoolServeUnknownType(t *testing.T) {
	pool, _ := newTestPool(t, 1, config.DispatchRoundRobin)

	packed, err := protocol.Pack(999, 5, nil)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	resp, closeAfter := pool.Serve(context.Background(), packed)
	if closeAfter {
		t.Error("unknown type asked to close the connection")
	}

	msgType, _, _, err := protocol.Unpack(resp)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if msgType != protocol.TypeError {
		t.Errorf("response type = %d, want %d", msgType, protocol.TypeError)
	}
}

func TestPoolServeMalformed(t *testing.T) {
	pool, _ := newTestPool(t, 1, config.DispatchRoundRobin)

	resp, closeAfter := pool.Serve(context.Background(), []byte("garbage"))
	if closeAfter {
		t.Error("malformed payload asked to close the connection")
	}

	msgType, _, _, err := protocol.Unpack(resp)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if msgType != protocol.TypeError {
		t.Errorf("response type = %d, want %d", msgType, protocol.TypeError)
	}
}

func TestPoolRegistersService(t *testing.T) {
	_, system := newTestPool(t, 2, config.DispatchLeastBusy)

	if _, ok := system.GetService(ServiceName); !ok {
		t.Errorf("service %q not registered", ServiceName)
	}
}

func TestPoolConcurrentRequests(t *testing.T) {
	pool, _ := newTestPool(t, 4, config.DispatchLeastBusy)

	inputs := []string{"2", "97", "360", "1024", "8051", "99991", "123456789"}
	done := make(chan error, len(inputs))

	for _, in := range inputs {
		go func(n string) {
			packed, err := protocol.Pack(protocol.TypeFactorize, 1, protocol.FactorizeRequest{N: n})
			if err != nil {
				done <- err
				return
			}
			resp, _ := pool.Serve(context.Background(), packed)
			msgType, _, _, err := protocol.Unpack(resp)
			if err != nil {
				done <- err
				return
			}
			if msgType != protocol.TypeResult {
				done <- &protocolError{n: n, msgType: msgType}
				return
			}
			done <- nil
		}(in)
	}

	for range inputs {
		if err := <-done; err != nil {
			t.Errorf("concurrent request failed: %v", err)
		}
	}
}

type protocolError struct {
	n       string
	msgType int
}

func (e *protocolError) Error() string {
	return "unexpected response type for " + e.n
}

func TestMemoryCacheTTL(t *testing.T) {
	cache := NewMemoryCache(16, 20*time.Millisecond)
	cache.Set(context.Background(), "k", []byte("v"))

	if _, ok := cache.Get(context.Background(), "k"); !ok {
		t.Fatal("fresh entry missing")
	}

	time.Sleep(40 * time.Millisecond)

	if _, ok := cache.Get(context.Background(), "k"); ok {
		t.Error("expired entry still served")
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	cache := NewMemoryCache(3, time.Minute)
	for _, k := range []string{"a", "b", "c", "d"} {
		cache.Set(context.Background(), k, []byte(k))
	}

	if got := cache.Len(); got != 3 {
		t.Errorf("Len = %d, want 3 after eviction", got)
	}
	if _, ok := cache.Get(context.Background(), "d"); !ok {
		t.Error("most recent entry was evicted")
	}
}

func TestMemoryCacheJanitor(t *testing.T) {
	cache := NewMemoryCache(16, 10*time.Millisecond)
	cache.Set(context.Background(), "k", []byte("v"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache.StartJanitor(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for cache.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not sweep expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewCacheDisabled(t *testing.T) {
	if c := NewCache(config.CacheConfig{Enabled: false}); c != nil {
		t.Error("disabled cache config produced a cache")
	}
}

func TestNewCacheMemory(t *testing.T) {
	c := NewCache(config.CacheConfig{
		Enabled:    true,
		Backend:    config.CacheBackendMemory,
		TTL:        config.Duration(time.Minute),
		MaxEntries: 8,
	})
	if _, ok := c.(*MemoryCache); !ok {
		t.Fatalf("expected *MemoryCache, got %T", c)
	}
	c.Close()
}
