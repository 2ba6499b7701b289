package events

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/docveil/docveil/internal/config"
	"github.com/docveil/docveil/internal/pipeline"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Fallbacks used when the corresponding config value is unset.
	defaultWriteWait  = 10 * time.Second
	defaultPongWait   = 60 * time.Second
	defaultBufferSize = 1024
	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// Hub maintains the set of active subscribers and fans pipeline events out
// to them. A slow subscriber gets disconnected rather than backing up the
// pipeline.
type Hub struct {
	cfg        config.EventsConfig
	upgrader   websocket.Upgrader
	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	logger     *zap.Logger
	mu         sync.RWMutex
}

// NewHub creates an event hub. Run must be called before broadcasting.
func NewHub(cfg config.EventsConfig, logger *zap.Logger) *Hub {
	readBuf := cfg.ReadBufferSize
	if readBuf <= 0 {
		readBuf = defaultBufferSize
	}
	writeBuf := cfg.WriteBufferSize
	if writeBuf <= 0 {
		writeBuf = defaultBufferSize
	}
	writeWait := cfg.WriteTimeout
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	pongWait := cfg.PongTimeout
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	pingPeriod := cfg.PingInterval
	// Pings must arrive before the pong deadline expires.
	if pingPeriod <= 0 || pingPeriod >= pongWait {
		pingPeriod = (pongWait * 9) / 10
	}

	return &Hub{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from any origin for now
				return true
			},
		},
		writeWait:  writeWait,
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run handles registration, unregistration, and broadcasting. It blocks
// and is meant to run in its own goroutine.
func (h *Hub) Run() {
	h.logger.Info("Starting event hub", zap.String("component", "events"))

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// PublishTransition implements pipeline.EventSink.
func (h *Hub) PublishTransition(source string, state pipeline.State, totalItems int) {
	if !h.cfg.Broadcast.Transitions {
		return
	}
	h.publish(Event{
		Type:      EventTypeTransition,
		Timestamp: time.Now(),
		Data: TransitionEvent{
			Source:     source,
			State:      string(state),
			TotalItems: totalItems,
		},
	})
}

// PublishBatch broadcasts a batch summary.
func (h *Hub) PublishBatch(batch *pipeline.BatchResult) {
	if !h.cfg.Broadcast.Batches {
		return
	}
	h.publish(Event{
		Type:      EventTypeBatch,
		Timestamp: time.Now(),
		Data: BatchEvent{
			Files:     len(batch.Files),
			Succeeded: batch.Succeeded(),
			Failed:    batch.Failed(),
			Duration:  batch.Duration,
		},
	})
}

// publish enqueues an event, dropping it when the broadcast channel is
// full. Telemetry must never block processing.
func (h *Hub) publish(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping event",
			zap.String("component", "events"),
			zap.String("event_type", string(event.Type)),
		)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	h.logger.Info("Subscriber connected",
		zap.String("component", "events"),
		zap.String("client_id", client.ID),
		zap.String("client_ip", client.IP),
		zap.Int("active_subscribers", len(h.clients)),
	)

	if h.cfg.Broadcast.Connections {
		h.publish(Event{
			Type:      EventTypeConnection,
			Timestamp: time.Now(),
			Data: ConnectionEvent{
				ClientID:          client.ID,
				Action:            "connected",
				ActiveSubscribers: len(h.clients),
			},
		})
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)

		h.logger.Info("Subscriber disconnected",
			zap.String("component", "events"),
			zap.String("client_id", client.ID),
			zap.Int("active_subscribers", len(h.clients)),
		)

		if h.cfg.Broadcast.Connections {
			h.publish(Event{
				Type:      EventTypeConnection,
				Timestamp: time.Now(),
				Data: ConnectionEvent{
					ClientID:          client.ID,
					Action:            "disconnected",
					ActiveSubscribers: len(h.clients),
				},
			})
		}
	}
}

func (h *Hub) broadcastEvent(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.Send <- event:
		default:
			// Client's send channel is full, close it
			h.logger.Warn("Subscriber send channel full, closing connection",
				zap.String("component", "events"),
				zap.String("client_id", client.ID),
			)
			delete(h.clients, client)
			close(client.Send)
		}
	}
}

// HandleWebSocket upgrades an HTTP request to a subscriber connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection",
			zap.String("component", "events"),
			zap.Error(err),
		)
		return
	}

	client := &Client{
		ID:          fmt.Sprintf("client_%d", time.Now().UnixNano()),
		Conn:        conn,
		Send:        make(chan Event, 256),
		ConnectedAt: time.Now(),
		IP:          clientIP(r),
	}

	h.register <- client

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(event); err != nil {
				h.logger.Error("Failed to write event",
					zap.String("component", "events"),
					zap.String("client_id", client.ID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(client *Client) {
	defer func() {
		h.unregister <- client
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(h.pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error",
					zap.String("component", "events"),
					zap.String("client_id", client.ID),
					zap.Error(err),
				)
			}
			break
		}

		if msg.Type == "ping" {
			select {
			case client.Send <- Event{Type: "pong", Timestamp: time.Now()}:
			default:
			}
		}
	}
}

// ActiveSubscribers reports the current connection count.
func (h *Hub) ActiveSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
