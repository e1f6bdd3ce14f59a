package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024

	// Outbound buffer per connection. When it fills up the event is dropped
	// rather than blocking the dispatching goroutine; the client recovers
	// missed pushes through a history read on reconnect.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is the reverse proxy's job in this deployment.
		return true
	},
}

// Client is one live connection session. It owns its websocket and is the
// unit of concurrency: one read pump and one write pump per connection.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	mu     sync.RWMutex
	userID string // Empty until a register event arrives.

	connectedAt time.Time
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		hub:         hub,
		connectedAt: time.Now(),
	}
}

// UserID returns the identity bound to this connection, or "" if the client
// has not registered yet.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) setUserID(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// readPump pumps events from the websocket connection into the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.dropClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("websocket read error")
			}
			break
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			logrus.WithError(err).Warn("dropping malformed event")
			continue
		}

		c.hub.handleEvent(c, &ev)
	}
}

// writePump pumps events from the send buffer to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendEvent marshals and queues an event for this client. A stalled peer
// cannot block the caller: if the buffer is full the event is dropped.
func (c *Client) sendEvent(t EventType, data interface{}) {
	ev, err := NewEvent(t, data)
	if err != nil {
		logrus.WithError(err).Error("failed to encode event")
		return
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).Error("failed to encode event envelope")
		return
	}

	select {
	case c.send <- raw:
	default:
		logrus.WithFields(logrus.Fields{
			"user_id": c.UserID(),
			"event":   t,
		}).Warn("send buffer full, dropping event")
	}
}

// close tears down the underlying transport. The read pump notices and runs
// the normal disconnect path.
func (c *Client) close() {
	c.conn.Close()
}

// ServeWS upgrades an HTTP request to a websocket connection and starts the
// session pumps. The identity stays unknown until the client sends a register
// event.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := newClient(hub, conn)
	hub.addClient(client)

	go client.writePump()
	go client.readPump()
}
