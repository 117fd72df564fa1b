package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conn is one live websocket of a user.
type Conn struct {
	userID uuid.UUID
	ws     *websocket.Conn
	send   chan []byte
}

// Hub tracks live websocket connections per user. All methods are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]map[*Conn]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]map[*Conn]struct{}),
		logger: logger,
	}
}

// Serve upgrades the request and keeps the connection registered until the peer goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := h.Register(userID, ws)
	go h.writePump(c)
	go h.readPump(c)
	return nil
}

func (h *Hub) Register(userID uuid.UUID, ws *websocket.Conn) *Conn {
	c := &Conn{userID: userID, ws: ws, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*Conn]struct{})
	}
	h.conns[userID][c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("Websocket registered", zap.String("user_id", userID.String()))
	return c
}

// Unregister drops the connection and closes its send queue. Calling it twice is harmless.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.conns, c.userID)
	}
}

// Connections returns the number of live connections of a user.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// SendToUser queues msg on every connection of the user and returns how many accepted it.
// A connection whose queue is full is dropped.
func (h *Hub) SendToUser(userID uuid.UUID, msg []byte) int {
	delivered := 0
	var slow []*Conn

	// Sends happen under the read lock so Unregister cannot close a queue mid-send.
	h.mu.RLock()
	for c := range h.conns[userID] {
		select {
		case c.send <- msg:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow websocket", zap.String("user_id", userID.String()))
		h.Unregister(c)
	}
	return delivered
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Conn
	for _, set := range h.conns {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Unregister(c)
	}
}

func (h *Hub) readPump(c *Conn) {
	defer func() {
		h.Unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients only listen; anything they send is discarded.
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
