package realtime

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 512
)

// AuthorizeFunc reports whether the request may watch table.
type AuthorizeFunc func(r *http.Request, table string) bool

// Handler upgrades requests such as /realtime?tables=bookings,contact_messages
// to a websocket and relays matching hub events as JSON.
type Handler struct {
	hub       *Hub
	authorize AuthorizeFunc
	upgrader  websocket.Upgrader

	// PingInterval controls keepalive pings. It must be shorter than the
	// 60s pong deadline.
	PingInterval time.Duration
}

// NewHandler returns a Handler for hub. A nil authorize allows every table.
func NewHandler(hub *Hub, authorize AuthorizeFunc) *Handler {
	return &Handler{
		hub:       hub,
		authorize: authorize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		PingInterval: 50 * time.Second,
	}
}

// ParseTables splits a comma separated table list, dropping blanks.
func ParseTables(raw string) []string {
	var tables []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tables := ParseTables(r.URL.Query().Get("tables"))
	if len(tables) == 0 {
		http.Error(w, "tables parameter is required", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("realtime upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Refusals go out as a policy-violation close frame. Browsers only see
	// 1006 for a failed handshake and would keep reconnecting.
	for _, t := range tables {
		if h.authorize != nil && !h.authorize(r, t) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "forbidden: "+t),
				time.Now().Add(writeWait))
			return
		}
	}

	sub := h.hub.Subscribe(tables...)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
