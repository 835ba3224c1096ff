package realtime

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendQueueSize = 64
	writeWait     = 10 * time.Second
)

type HubConfig struct {
	PingInterval time.Duration
	PongWait     time.Duration
	// OnDrop is called for every event that could not be queued.
	OnDrop func(recipientID string)
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval: 54 * time.Second,
		PongWait:     60 * time.Second,
	}
}

// Hub is a thread-safe registry of WebSocket connections keyed by recipient id.
type Hub struct {
	cfg        HubConfig
	clients    map[string]map[string]*Client
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewHub(cfg HubConfig) *Hub {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultHubConfig().PingInterval
	}
	if cfg.PongWait <= cfg.PingInterval {
		cfg.PongWait = cfg.PingInterval + cfg.PingInterval/5
	}
	return &Hub{
		cfg:        cfg,
		clients:    make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done: make(chan struct{}),
	}
}

// SetCheckOrigin installs the origin policy used by Upgrade.
func (h *Hub) SetCheckOrigin(fn func(r *http.Request) bool) {
	h.upgrader.CheckOrigin = fn
}

// Upgrade turns an HTTP request into a WebSocket connection.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return h.upgrader.Upgrade(w, r, nil)
}

func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
	slog.Info("realtime hub started")
}

// Stop closes every connection and waits for connection goroutines to exit.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mutex.Lock()
		for recipient, conns := range h.clients {
			for _, c := range conns {
				close(c.Send)
				c.Conn.Close()
			}
			delete(h.clients, recipient)
		}
		h.mutex.Unlock()

		h.wg.Wait()
		slog.Info("realtime hub stopped")
	})
}

func (h *Hub) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.PongWait)
	defer ticker.Stop()

	for {
		select {
		case c := <-h.register:
			if !h.add(c) {
				continue
			}
			h.wg.Add(2)
			go h.readPump(c)
			go h.writePump(c)
			slog.Debug("realtime client registered", "client_id", c.ID, "recipient", c.RecipientID)

		case c := <-h.unregister:
			h.remove(c)

		case <-ticker.C:
			h.expireStale()

		case <-h.done:
			return
		}
	}
}

// Register attaches conn to recipientID and starts serving it.
func (h *Hub) Register(recipientID string, conn *websocket.Conn) (*Client, error) {
	c := &Client{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Conn:        conn,
		Send:        make(chan Event, sendQueueSize),
	}
	c.touch(time.Now())

	select {
	case h.register <- c:
		return c, nil
	case <-h.done:
		conn.Close()
		return nil, ErrHubStopped
	}
}

// SendTo queues event on every connection of recipientID without blocking.
func (h *Hub) SendTo(recipientID string, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	conns := h.clients[recipientID]
	if len(conns) == 0 {
		return ErrNotConnected
	}

	var err error
	for _, c := range conns {
		select {
		case c.Send <- event:
		default:
			err = ErrQueueFull
			if h.cfg.OnDrop != nil {
				h.cfg.OnDrop(recipientID)
			}
			slog.Warn("realtime queue full, dropping event", "client_id", c.ID, "recipient", recipientID, "type", event.Type)
		}
	}
	return err
}

func (h *Hub) Stats() HubStats {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	stats := HubStats{Recipients: len(h.clients)}
	for _, conns := range h.clients {
		stats.Connections += len(conns)
	}
	return stats
}

// IsConnected reports whether recipientID has at least one live connection.
func (h *Hub) IsConnected(recipientID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[recipientID]) > 0
}

func (h *Hub) add(c *Client) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	select {
	case <-h.done:
		c.Conn.Close()
		return false
	default:
	}

	conns, ok := h.clients[c.RecipientID]
	if !ok {
		conns = make(map[string]*Client)
		h.clients[c.RecipientID] = conns
	}
	conns[c.ID] = c
	return true
}

func (h *Hub) remove(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns, ok := h.clients[c.RecipientID]
	if !ok {
		return
	}
	if _, ok := conns[c.ID]; !ok {
		return
	}
	delete(conns, c.ID)
	if len(conns) == 0 {
		delete(h.clients, c.RecipientID)
	}
	close(c.Send)
	c.Conn.Close()
	slog.Debug("realtime client unregistered", "client_id", c.ID, "recipient", c.RecipientID)
}

func (h *Hub) expireStale() {
	cutoff := time.Now().Add(-h.cfg.PongWait)

	var stale []*Client
	h.mutex.RLock()
	for _, conns := range h.clients {
		for _, c := range conns {
			if c.lastSeen().Before(cutoff) {
				stale = append(stale, c)
			}
		}
	}
	h.mutex.RUnlock()

	for _, c := range stale {
		slog.Info("realtime client timed out", "client_id", c.ID, "recipient", c.RecipientID)
		h.remove(c)
	}
}

func (h *Hub) readPump(c *Client) {
	defer h.wg.Done()
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()

	c.Conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.touch(time.Now())
		return c.Conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("realtime read error", "client_id", c.ID, "error", err)
			}
			return
		}

		c.touch(time.Now())
		c.Conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))

		if msg.Type == "ping" {
			h.reply(c, Event{Type: EventPong, Timestamp: time.Now().UTC()})
		}
	}
}

// reply queues an event for a single connection if it is still registered.
func (h *Hub) reply(c *Client, event Event) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, ok := h.clients[c.RecipientID][c.ID]; !ok {
		return
	}
	select {
	case c.Send <- event:
	default:
	}
}

func (h *Hub) writePump(c *Client) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(event); err != nil {
				slog.Debug("realtime write error", "client_id", c.ID, "error", err)
				c.Conn.Close()
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Conn.Close()
				return
			}
		}
	}
}
