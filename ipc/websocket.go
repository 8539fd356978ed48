package ipc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsReadTimeout  = 5 * time.Minute
)

type wsTransport struct {
	conn *websocket.Conn
}

// NewWebSocketTransport carries one envelope per text frame.
func NewWebSocketTransport(conn *websocket.Conn) Transport {
	conn.SetReadLimit(MaxFrame)
	return &wsTransport{conn: conn}
}

func (w *wsTransport) Read() (Envelope, error) {
	_ = w.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	kind, msg, err := w.conn.ReadMessage()
	if err != nil {
		return Envelope{}, fmt.Errorf("read frame: %w", err)
	}
	if kind != websocket.TextMessage {
		return Envelope{}, fmt.Errorf("unexpected frame type %d", kind)
	}
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return env, nil
}

func (w *wsTransport) Write(env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := w.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (w *wsTransport) Close() error { return w.conn.Close() }

func (w *wsTransport) RemoteAddr() string { return w.conn.RemoteAddr().String() }

// WebSocketHandler upgrades each request and hands the resulting transport
// to serve, which runs for the life of the connection.
func WebSocketHandler(serve func(Transport)) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		slog.Info("websocket connection accepted", "remote", r.RemoteAddr)
		serve(NewWebSocketTransport(conn))
	})
}
