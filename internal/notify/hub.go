package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"auction-escrow/internal/events"
	"auction-escrow/utils"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout   = 10 * time.Second
	pongTimeout    = 60 * time.Second
	pingInterval   = 30 * time.Second
	clientBacklog  = 64
	auctionIDParam = "auction_id"
)

// Envelope is the JSON frame pushed to websocket subscribers
type Envelope struct {
	Kind      events.Kind  `json:"kind"`
	At        time.Time    `json:"at"`
	AuctionID string       `json:"auction_id,omitempty"`
	Event     events.Event `json:"event"`
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	auctionID string // empty = all auctions
}

// Hub broadcasts engine events to connected websocket clients.
// Slow clients whose backlog fills up are disconnected instead of blocking the engine.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Notify implements events.Notifier
func (h *Hub) Notify(_ context.Context, ev events.Event) {
	env := Envelope{Kind: ev.Kind(), At: ev.OccurredAt(), AuctionID: auctionOf(ev), Event: ev}
	frame, err := json.Marshal(env)
	if err != nil {
		utils.Error("hub: failed to marshal event", map[string]any{"kind": string(ev.Kind()), "error": err.Error()})
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		if c.auctionID != "" && c.auctionID != env.AuctionID {
			continue
		}
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		utils.Warn("hub: dropping slow subscriber", map[string]any{"remote": c.conn.RemoteAddr().String()})
		h.remove(c)
	}
}

// ServeWS upgrades the request and subscribes the connection.
// The optional auction_id query parameter restricts the stream to one auction.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("hub: upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	c := &client{
		conn:      conn,
		send:      make(chan []byte, clientBacklog),
		auctionID: r.URL.Query().Get(auctionIDParam),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	utils.Debug("hub: subscriber connected", map[string]any{"remote": conn.RemoteAddr().String(), "auction_id": c.auctionID})

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Subscribers returns the number of connected clients
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readLoop only drains control frames; subscribers never send data
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)

	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func auctionOf(ev events.Event) string {
	switch e := ev.(type) {
	case events.BidAccepted:
		return e.After.AuctionID
	case events.BidRejected:
		return e.Auction.AuctionID
	case events.AuctionClosed:
		return e.Auction.AuctionID
	case events.TransactionTransitioned:
		return e.After.AuctionID
	}
	return ""
}
