// Package protocol defines the wire vocabulary between clients and the
// factorization service: a JSON package header carrying type and
// session, followed by a JSON body.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/primeworks/factord/factor"
)

// Message type identifiers. Client-to-server types are below 100,
// server-to-client at 100 and above.
const (
	TypeFactorize = 1
	TypeQuit      = 2
	TypeHeartbeat = 3

	TypeResult = 101
	TypeError  = 102
)

// Package represents a protocol package header.
type Package struct {
	Type    int    `json:"type"`
	Session uint32 `json:"session"`
}

// FactorizeRequest asks the service to factor a decimal integer.
type FactorizeRequest struct {
	// N is the decimal-digit rendering of the integer to factor.
	N string `json:"n"`
}

// FactorizeResult carries a completed decomposition.
type FactorizeResult struct {
	// N echoes the request input.
	N string `json:"n"`

	// Factors maps each prime (decimal string) to its exponent.
	Factors map[string]int `json:"factors"`

	// ElapsedMS is the wall-clock computation time. Informational
	// only; a cached result reports the original computation time.
	ElapsedMS float64 `json:"elapsed_ms"`

	// Cached reports whether the result came from the result cache.
	Cached bool `json:"cached"`
}

// ErrorResponse reports why a request failed.
type ErrorResponse struct {
	N     string `json:"n,omitempty"`
	Error string `json:"error"`
}

// RenderFactors converts a decomposition into its wire form: decimal
// string keys to exponents. This is the only place big integers are
// rendered for transport.
func RenderFactors(d *factor.Decomposition) map[string]int {
	out := make(map[string]int, d.Len())
	for _, pw := range d.Powers() {
		out[pw.Prime.String()] = pw.Exponent
	}
	return out
}

// Encode encodes a message body to bytes.
func Encode(msg interface{}) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode decodes bytes into a message body.
func Decode(data []byte, msg interface{}) error {
	return json.Unmarshal(data, msg)
}

// Pack packages a body with its type and session: header JSON followed
// immediately by body JSON.
func Pack(msgType int, session uint32, body interface{}) ([]byte, error) {
	header, err := json.Marshal(Package{Type: msgType, Session: session})
	if err != nil {
		return nil, err
	}

	if body == nil {
		return header, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal body: %w", err)
	}

	result := make([]byte, 0, len(header)+len(data))
	result = append(result, header...)
	result = append(result, data...)
	return result, nil
}

// Unpack splits a packed message into type, session and body bytes.
// The body slice is empty for header-only messages.
func Unpack(data []byte) (int, uint32, []byte, error) {
	headerEnd := findJSONEnd(data)
	if headerEnd == -1 {
		return 0, 0, nil, fmt.Errorf("invalid message format")
	}

	var pkg Package
	if err := json.Unmarshal(data[:headerEnd], &pkg); err != nil {
		return 0, 0, nil, fmt.Errorf("failed to decode package header: %w", err)
	}

	return pkg.Type, pkg.Session, data[headerEnd:], nil
}

// findJSONEnd locates the end of the first complete JSON object.
func findJSONEnd(data []byte) int {
	braceCount := 0
	inString := false
	escape := false

	for i, b := range data {
		if escape {
			escape = false
			continue
		}

		if b == '\\' {
			escape = true
			continue
		}

		if b == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if b == '{' {
			braceCount++
		} else if b == '}' {
			braceCount--
			if braceCount == 0 {
				return i + 1
			}
		}
	}

	return -1
}
