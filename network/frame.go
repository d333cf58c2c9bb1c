// Package network provides the TCP transport that delivers
// factorization requests to the worker pool and carries results back.
//
// Frames are a 4-byte big-endian length prefix followed by the payload.
// Payload semantics (package headers, request and response bodies) live
// in the protocol package.
package network

import (
	"encoding/binary"
	"fmt"
	"io"
)

// frameHeaderSize is the size of the length prefix in bytes.
const frameHeaderSize = 4

// WriteFrame writes one length-prefixed frame to w.
func WriteFrame(w io.Writer, payload []byte, maxFrameBytes int) error {
	if len(payload) > maxFrameBytes {
		return fmt.Errorf("frame too large: %d bytes (max %d)", len(payload), maxFrameBytes)
	}

	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.Reader, maxFrameBytes int) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if int(length) > maxFrameBytes {
		return nil, fmt.Errorf("frame too large: %d bytes (max %d)", length, maxFrameBytes)
	}
	if length == 0 {
		return nil, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
