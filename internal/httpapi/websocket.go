package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/graylogic-labs/knxnetip/config"
	"github.com/graylogic-labs/knxnetip/internal/xlog"
)

// wsSendBufferSize is the per-client outbound message buffer size.
const wsSendBufferSize = 64

// wsMessage is the envelope broadcast to every connected client.
type wsMessage struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload"`
}

// Hub fans out transport events to every connected WebSocket client.
// There is no per-client subscription filtering: a gateway instance has
// exactly one active transport, so every client gets the same stream.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *xlog.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// NewHub creates an empty Hub.
func NewHub(cfg config.WebSocketConfig, logger *xlog.Logger) *Hub {
	return &Hub{cfg: cfg, logger: logger, clients: make(map[*wsClient]struct{})}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Broadcast sends payload, tagged with channel, to every connected client.
func (h *Hub) Broadcast(channel string, payload any) {
	msg := wsMessage{Channel: channel, Timestamp: time.Now().UTC().Format(time.RFC3339), Payload: payload}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket broadcast", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if existed {
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

// handleWebSocket upgrades the connection and starts its read/write
// pumps. There is no admin-only restriction: the event stream carries
// telegram traffic, not configuration.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBufferSize)}
	s.hub.register(c)

	go c.writePump(s.hub, s.wsCfg)
	go c.readPump(s.hub, s.wsCfg)
}

func (c *wsClient) readPump(h *Hub, cfg config.WebSocketConfig) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait)) //nolint:errcheck // best-effort deadline on setup
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		// Clients never send application messages — this stream is
		// read-only — so readPump only exists to notice disconnects
		// and answer control frames.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump(h *Hub, cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil) //nolint:errcheck // best-effort close
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(pongWait)) //nolint:errcheck // best-effort deadline
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(pongWait)) //nolint:errcheck // best-effort deadline
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) trySend(data []byte) {
	defer func() { recover() }() //nolint:errcheck // absorb send-on-closed-channel panic

	select {
	case c.send <- data:
	default:
		// slow client; drop rather than block the broadcaster
	}
}
