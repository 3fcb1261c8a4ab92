package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rfboard/internal/store"
)

const (
	// flushInterval batches store events before broadcasting, so a burst of
	// chart samples becomes one frame instead of dozens.
	flushInterval = 50 * time.Millisecond

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 256

	// hubEventBuffer sizes the hub's store subscription channel.
	hubEventBuffer = 1024

	wsWriteWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Local-network appliance, same policy as the backend's own socket.
		return true
	},
}

// Hub relays store changes to connected UI clients. Events accumulate into
// chart-update / data-update / group-update batches and are flushed as one
// frame on a fixed interval, mirroring the backend's own push format.
type Hub struct {
	store  *store.Store
	events chan store.Event

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool

	pendingCharts []store.ChartSample
	pendingData   map[int]store.Transmitter
	pendingGroups map[int]store.Group
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a relay hub over the given store.
func NewHub(s *store.Store) *Hub {
	return &Hub{
		store:         s,
		events:        make(chan store.Event, hubEventBuffer),
		clients:       make(map[*wsClient]struct{}),
		pendingData:   make(map[int]store.Transmitter),
		pendingGroups: make(map[int]store.Group),
	}
}

// Run consumes store events and flushes batches until the context is
// cancelled, then disconnects every client. Once it returns the hub accepts
// no new clients.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	if err := h.store.Subscribe("ws-relay", h.events); err != nil {
		log.Printf("Error subscribing relay hub: %v", err)
		return
	}
	defer h.store.Unsubscribe("ws-relay")

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			h.collect(ev)
		case <-ticker.C:
			h.flush()
		}
	}
}

func (h *Hub) collect(ev store.Event) {
	switch ev.Kind {
	case store.EventChart:
		h.pendingCharts = append(h.pendingCharts, ev.Sample)
	case store.EventData:
		h.pendingData[ev.Transmitter.Slot] = ev.Transmitter
	case store.EventGroups:
		for _, g := range ev.Groups {
			h.pendingGroups[g.Group] = g
		}
	case store.EventConnection:
		// Connection state travels in the poll response, not the relay.
	}
}

// flush broadcasts one frame holding everything collected since the last
// tick. An empty tick sends nothing.
func (h *Hub) flush() {
	frame := make(map[string]any, 3)
	if len(h.pendingCharts) > 0 {
		frame["chart-update"] = h.pendingCharts
	}
	if len(h.pendingData) > 0 {
		data := make([]store.Transmitter, 0, len(h.pendingData))
		for _, tx := range h.pendingData {
			data = append(data, tx)
		}
		frame["data-update"] = data
	}
	if len(h.pendingGroups) > 0 {
		groups := make([]store.Group, 0, len(h.pendingGroups))
		for _, g := range h.pendingGroups {
			groups = append(groups, g)
		}
		frame["group-update"] = groups
	}
	if len(frame) == 0 {
		return
	}

	h.pendingCharts = nil
	h.pendingData = make(map[int]store.Transmitter)
	h.pendingGroups = make(map[int]store.Group)

	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("Error marshaling relay frame: %v", err)
		return
	}
	h.broadcast(data)
}

// broadcast sends under the mutex so no frame can race a channel close in
// readPump or closeAll. Sends are non-blocking, so the lock is held briefly.
func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Slow client, drop the frame.
		}
	}
}

// ClientCount returns the number of connected relay clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

// Handle upgrades the request and serves the relay connection. After the hub
// has shut down new clients are refused; a client that slips past the first
// check is closed at registration instead of being stranded without frames.
func (h *Hub) Handle(c *gin.Context) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading relay client: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBufferSize)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go client.writePump()
	go h.readPump(client)
}

// readPump discards inbound messages and unregisters the client on close.
func (h *Hub) readPump(client *wsClient) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()
		client.conn.Close()
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for {
		message, ok := <-c.send
		if !ok {
			// Hub closed the channel.
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
