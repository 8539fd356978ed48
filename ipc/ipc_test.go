package ipc

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestEnvelopeFraming(t *testing.T) {
	var buf bytes.Buffer
	env, err := NewEnvelope(TypeActions, ActionsMessage{Turn: 4, Actions: []string{"m u_1 n"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatalf("WriteEnvelope failed: %v", err)
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()); int(got) != buf.Len()-4 {
		t.Errorf("length prefix = %d, want %d", got, buf.Len()-4)
	}

	got, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope failed: %v", err)
	}
	var msg ActionsMessage
	if err := json.Unmarshal(got.Data, &msg); err != nil {
		t.Fatal(err)
	}
	if got.Type != TypeActions || msg.Turn != 4 || len(msg.Actions) != 1 {
		t.Errorf("ReadEnvelope() = %s %+v", got.Type, msg)
	}
}

func TestReadEnvelopeRejectsBadFrames(t *testing.T) {
	frame := func(length uint32, payload string) []byte {
		b := binary.LittleEndian.AppendUint32(nil, length)
		return append(b, payload...)
	}
	tests := []struct {
		name string
		in   []byte
	}{
		{"zero length", frame(0, "")},
		{"oversize", frame(MaxFrame+1, "{}")},
		{"truncated", frame(10, "{}")},
		{"bad json", frame(3, "{{{")},
		{"short prefix", []byte{1, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadEnvelope(bytes.NewReader(tc.in)); err == nil {
				t.Error("ReadEnvelope() succeeded, want error")
			}
		})
	}
}

func TestReadLoop(t *testing.T) {
	server, client := net.Pipe()
	conn := NewConnection(NewStreamTransport(server), nil)
	conn.RegisterHandler(TypeHello, func(ctx context.Context, env Envelope) (*Envelope, error) {
		var hello HelloMessage
		if err := json.Unmarshal(env.Data, &hello); err != nil {
			return nil, err
		}
		conn.Player = "p0"
		ack, err := NewEnvelope(TypeAck, AckMessage{Status: "ok"})
		return &ack, err
	})
	conn.RegisterHandler(TypeTurn, func(ctx context.Context, env Envelope) (*Envelope, error) {
		return nil, errors.New("bad snapshot")
	})

	done := make(chan struct{})
	go func() {
		conn.ReadLoop(context.Background())
		close(done)
	}()

	send := func(msgType string, data any) {
		t.Helper()
		env, err := NewEnvelope(msgType, data)
		if err != nil {
			t.Fatal(err)
		}
		if err := WriteEnvelope(client, env); err != nil {
			t.Fatalf("write %s: %v", msgType, err)
		}
	}

	send("unknown", struct{}{})
	send(TypeHello, HelloMessage{PlayerID: 0, Width: 12, Height: 12})
	resp, err := ReadEnvelope(client)
	if err != nil || resp.Type != TypeAck {
		t.Fatalf("hello reply = %v, %v, want ack", resp.Type, err)
	}

	send(TypeTurn, json.RawMessage(`{}`))
	resp, err = ReadEnvelope(client)
	if err != nil || resp.Type != TypeError {
		t.Fatalf("turn reply = %v, %v, want error", resp.Type, err)
	}
	var msg ErrorMessage
	if err := json.Unmarshal(resp.Data, &msg); err != nil || msg.Type != TypeTurn || msg.Error != "bad snapshot" {
		t.Errorf("error message = %+v, %v", msg, err)
	}

	client.Close()
	<-done
}

func TestReadLoopStopsOnCancel(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewConnection(NewStreamTransport(server), nil).ReadLoop(ctx)
		close(done)
	}()
	cancel()
	<-done
}

func TestWebSocketHandler(t *testing.T) {
	srv := httptest.NewServer(WebSocketHandler(func(tr Transport) {
		conn := NewConnection(tr, map[string]Handler{
			TypeHello: func(ctx context.Context, env Envelope) (*Envelope, error) {
				ack, err := NewEnvelope(TypeAck, AckMessage{Status: "ok"})
				return &ack, err
			},
		})
		conn.ReadLoop(context.Background())
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello","data":{"player_id":1,"width":8,"height":8}}`)); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := ws.ReadJSON(&env); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if env.Type != TypeAck {
		t.Errorf("reply type = %q, want %q", env.Type, TypeAck)
	}
}
