package network

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/primeworks/factord/protocol"
)

// Client is a simple synchronous client for the factord transport,
// used by the example client and integration tests. One request is in
// flight at a time.
type Client struct {
	conn          net.Conn
	maxFrameBytes int

	mu      sync.Mutex
	session uint32
}

// Dial connects to a factord server.
func Dial(addr string, maxFrameBytes int, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	return &Client{conn: conn, maxFrameBytes: maxFrameBytes}, nil
}

// Call sends a request body and waits for the matching response.
// It returns the response type and body bytes.
func (c *Client) Call(msgType int, body interface{}, timeout time.Duration) (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := atomic.AddUint32(&c.session, 1)

	packed, err := protocol.Pack(msgType, session, body)
	if err != nil {
		return 0, nil, err
	}

	if timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(timeout))
	}

	if err := WriteFrame(c.conn, packed, c.maxFrameBytes); err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Responses come back in request order on one connection, but skip
	// any stray frames with a foreign session just in case.
	for {
		payload, err := ReadFrame(c.conn, c.maxFrameBytes)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to read response: %w", err)
		}

		respType, respSession, respBody, err := protocol.Unpack(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to unpack response: %w", err)
		}
		if respSession != session && respSession != 0 {
			continue
		}
		return respType, respBody, nil
	}
}

// Factorize asks the server to factor the given decimal string.
func (c *Client) Factorize(n string, timeout time.Duration) (*protocol.FactorizeResult, error) {
	respType, body, err := c.Call(protocol.TypeFactorize, protocol.FactorizeRequest{N: n}, timeout)
	if err != nil {
		return nil, err
	}

	switch respType {
	case protocol.TypeResult:
		var result protocol.FactorizeResult
		if err := protocol.Decode(body, &result); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
		return &result, nil

	case protocol.TypeError:
		var resp protocol.ErrorResponse
		if err := protocol.Decode(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode error response: %w", err)
		}
		return nil, fmt.Errorf("%s", resp.Error)

	default:
		return nil, fmt.Errorf("unexpected response type %d", respType)
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
