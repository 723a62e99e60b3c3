package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"corridor/internal/input"
	"corridor/internal/metrics"
)

const (
	// DefaultMaxWSConnections is used when the hub is built without a limit
	DefaultMaxWSConnections = 64

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 4

	// BroadcastInterval is the state push period (10 Hz)
	BroadcastInterval = 100 * time.Millisecond

	maxMessageSize = 8 << 10
	writeWait      = 2 * time.Second
)

// Websocket events
const (
	EventState = "engine:state"
	EventError = "input:error"
)

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn  *websocket.Conn
	ip    string
	input *rate.Limiter
	send  sync.Mutex // serialises writes to conn
}

func (c *wsClient) write(message []byte) error {
	c.send.Lock()
	defer c.send.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// wsMessage is the envelope for every server push
type wsMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// WebSocketHub fans engine state out to clients and feeds their input
// into the sampler.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	done       chan struct{} // closed when Run returns
	mu         sync.RWMutex

	input    InputSink
	origins  *OriginPolicy
	maxConns int
	upgrader websocket.Upgrader

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter
}

// NewWebSocketHub creates a hub. Workers start with Run.
func NewWebSocketHub(sink InputSink, origins *OriginPolicy, maxConns int) *WebSocketHub {
	if origins == nil {
		origins = DefaultOrigins()
	}
	if maxConns <= 0 {
		maxConns = DefaultMaxWSConnections
	}
	h := &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		input:      sink,
		origins:    origins,
		maxConns:   maxConns,
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WebSocketHub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if h.origins.Allowed(origin) {
		return true
	}
	log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
	metrics.RecordConnectionRejected("origin")
	return false
}

// Run owns the client set until ctx is cancelled, then closes every connection
func (h *WebSocketHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			metrics.UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.remove(conn)

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*wsClient, 0, len(h.clients))
			for _, c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			for _, c := range clients {
				if err := c.write(message); err != nil {
					h.remove(c.conn)
				}
			}
			metrics.IncrementWSMessages()
		}
	}
}

func (h *WebSocketHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	client, ok := h.clients[conn]
	if ok {
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	conn.Close()
	log.Printf("📱 Client disconnected (%d remaining)", count)
	metrics.UpdateWSConnections(count)
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	for conn, client := range h.clients {
		h.wsLimiter.Release(client.ip)
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	metrics.UpdateWSConnections(0)
}

// Broadcast queues a message for every client. Drops when the queue is full.
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	jsonBytes, err := json.Marshal(wsMessage{Event: event, Data: data})
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes the engine snapshot at BroadcastInterval
// while clients are connected.
func (h *WebSocketHub) StartBroadcastLoop(ctx context.Context, engine EngineInterface) {
	ticker := time.NewTicker(BroadcastInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if h.ClientCount() == 0 {
				continue
			}
			if snap := engine.Snapshot(); snap != nil {
				h.Broadcast(EventState, snap)
			}
		}
	}()
}

// HandleWebSocket upgrades the connection and reads input events until the
// client goes away.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= h.maxConns {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", h.maxConns)
		metrics.RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		metrics.RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	client := &wsClient{
		conn:  conn,
		ip:    ip,
		input: rate.NewLimiter(InputEventsPerSecond, InputBurst),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		h.wsLimiter.Release(ip)
		return
	}

	go h.readLoop(client)
}

// readLoop applies client input. Keys held by a departing client are
// released, like a browser losing focus.
func (h *WebSocketHub) readLoop(c *wsClient) {
	defer func() {
		if h.input != nil {
			h.input.Apply(input.Event{Type: input.EventBlur})
		}
		select {
		case h.unregister <- c.conn:
		case <-h.done:
			c.conn.Close()
		}
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		events, err := input.DecodeEvents(message)
		if err != nil {
			h.reply(c, EventError, map[string]string{"error": "invalid message"})
			continue
		}
		if !c.input.AllowN(time.Now(), len(events)) {
			metrics.RecordConnectionRejected("input_rate")
			h.reply(c, EventError, map[string]string{"error": "input rate exceeded"})
			continue
		}
		if h.input == nil {
			continue
		}
		if _, err := applyEvents(h.input, events); err != nil {
			h.reply(c, EventError, map[string]string{"error": err.Error()})
		}
	}
}

func (h *WebSocketHub) reply(c *wsClient, event string, data interface{}) {
	msg, err := json.Marshal(wsMessage{Event: event, Data: data})
	if err != nil {
		return
	}
	c.write(msg)
}
