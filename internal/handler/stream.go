package handler

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"fleetview/internal/mapsync"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development, configure for production
			return true
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// StreamMessage is a control message from a console client.
type StreamMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// StreamClient is one connected console map.
type StreamClient struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *StreamHub
}

// Snapshotter provides the op replay for a newly connected client.
type Snapshotter interface {
	Snapshot() [][]byte
}

// StreamHub fans renderer ops out to all connected console maps. It is the
// broadcaster behind the remote renderer: every map mutation the sync engine
// performs arrives here as an encoded op.
type StreamHub struct {
	clients    map[*StreamClient]bool
	broadcast  chan []byte
	register   chan *StreamClient
	unregister chan *StreamClient
	snapshots  Snapshotter
	engine     *mapsync.Engine
	mu         sync.RWMutex
	done       chan struct{}
}

// NewStreamHub creates a hub. The snapshot source and engine are wired
// afterwards because the remote renderer and sync engine are constructed on
// top of the hub.
func NewStreamHub() *StreamHub {
	return &StreamHub{
		clients:    make(map[*StreamClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *StreamClient),
		unregister: make(chan *StreamClient),
		done:       make(chan struct{}),
	}
}

// SetSnapshotter wires the op replay source.
func (h *StreamHub) SetSnapshotter(s Snapshotter) {
	h.snapshots = s
}

// SetEngine wires the sync engine receiving client selection messages.
func (h *StreamHub) SetEngine(engine *mapsync.Engine) {
	h.engine = engine
}

// Broadcast queues an op for all connected clients. Never blocks the caller;
// a full queue drops the op (late joiners recover via snapshot replay).
func (h *StreamHub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		log.Println("[Stream] Broadcast queue full, dropping op")
	}
}

// Run starts the hub's event loop.
func (h *StreamHub) Run() {
	log.Println("[Stream] Hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[Stream] Client connected: %s, total clients: %d", client.ID, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[Stream] Client disconnected: %s, total clients: %d", client.ID, total)

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*StreamClient, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.Send <- message:
				default:
					// Client send buffer is full, close connection
					h.unregister <- client
				}
			}

		case <-h.done:
			return
		}
	}
}

// Stop stops the hub and closes all client connections.
func (h *StreamHub) Stop() {
	close(h.done)
	h.mu.Lock()
	for client := range h.clients {
		close(client.Send)
		client.Conn.Close()
		delete(h.clients, client)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *StreamHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ReadPump handles incoming control messages from the client.
func (c *StreamClient) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(64 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Stream] Client %s read error: %v", c.ID, err)
			}
			break
		}

		var msg StreamMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "select":
			var data struct {
				DeviceID uint `json:"device_id"`
			}
			if err := json.Unmarshal(msg.Data, &data); err == nil && c.Hub.engine != nil {
				c.Hub.engine.Select(data.DeviceID)
				log.Printf("[Stream] Client %s selected device %d", c.ID, data.DeviceID)
			}
		case "ping":
			select {
			case c.Send <- []byte(`{"type":"pong"}`):
			default:
			}
		}
	}
}

// WritePump handles outgoing ops to the client.
func (c *StreamClient) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued ops to the current websocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// StreamHandler upgrades console connections onto the hub.
type StreamHandler struct {
	hub *StreamHub
}

// NewStreamHandler creates a stream handler.
func NewStreamHandler(hub *StreamHub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// HandleStream handles WebSocket connections for the feature stream
// @Summary Open the map feature stream
// @Description Upgrades to WebSocket and streams renderer ops; new clients receive a full snapshot replay first
// @Tags Stream
// @Param client_id query string false "Client identifier"
// @Success 101 {string} string "Switching Protocols"
// @Router /stream [get]
func (h *StreamHandler) HandleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Stream] Failed to upgrade connection: %v", err)
		return
	}

	clientID := c.Query("client_id")
	if clientID == "" {
		clientID = generateClientID()
	}

	client := &StreamClient{
		ID:   clientID,
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  h.hub,
	}

	// Replay the current map state directly on the connection before the
	// client joins the broadcast set, so snapshot ops always precede live ops
	// no matter how large the snapshot is. Nothing else writes to the
	// connection until WritePump starts below.
	if h.hub.snapshots != nil {
		for _, op := range h.hub.snapshots.Snapshot() {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, op); err != nil {
				log.Printf("[Stream] Client %s snapshot replay failed: %v", clientID, err)
				conn.Close()
				return
			}
		}
	}

	client.Hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

// GetStats returns feature stream statistics
// @Summary Stream statistics
// @Tags Stream
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /stream/stats [get]
func (h *StreamHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": h.hub.ClientCount(),
	})
}

func generateClientID() string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 8)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return time.Now().Format("20060102150405") + "-" + string(b)
}
