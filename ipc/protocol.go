package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
)

// MaxFrame bounds a single envelope. A full snapshot of the largest map is a
// few hundred kilobytes.
const MaxFrame = 4 << 20

// Envelope is the wire format shared with the game runner.
// Data is kept as RawMessage so handlers can defer deserialization to the concrete type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func NewEnvelope(msgType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal data: %w", err)
	}
	return Envelope{Type: msgType, Data: raw}, nil
}

// ReadEnvelope reads a single length-prefixed JSON envelope.
// The prefix is a 4-byte little-endian payload length.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return Envelope{}, fmt.Errorf("read length: %w", err)
	}

	// Guard against corrupted frames or malicious payloads.
	if length == 0 || length > MaxFrame {
		return Envelope{}, fmt.Errorf("invalid message length: %d", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Envelope{}, fmt.Errorf("read payload: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	return env, nil
}

func WriteEnvelope(w io.Writer, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if len(payload) > MaxFrame {
		return fmt.Errorf("envelope %q too large: %d bytes", env.Type, len(payload))
	}

	// One write per frame so concurrent readers never see a split prefix.
	frame := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// Transport moves whole envelopes. Implementations need not be safe for
// concurrent use; a Connection serialises access.
type Transport interface {
	Read() (Envelope, error)
	Write(Envelope) error
	Close() error
	RemoteAddr() string
}

type streamTransport struct {
	conn net.Conn
}

// NewStreamTransport frames envelopes over a byte stream such as a unix
// socket.
func NewStreamTransport(conn net.Conn) Transport {
	return &streamTransport{conn: conn}
}

func (s *streamTransport) Read() (Envelope, error)  { return ReadEnvelope(s.conn) }
func (s *streamTransport) Write(env Envelope) error { return WriteEnvelope(s.conn, env) }
func (s *streamTransport) Close() error             { return s.conn.Close() }

func (s *streamTransport) RemoteAddr() string {
	if a := s.conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}
