package rooms

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin browsers connect directly; the HTTP layer already
	// applies the CORS policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection bound to a single room.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	roomID   string
	username string
	send     chan []byte
}

// ServeWS upgrades the request and runs the client until disconnect.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, roomID, username string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("rooms: websocket upgrade failed: %v", err)
		return
	}

	c := &Client{
		hub:      h,
		conn:     conn,
		roomID:   roomID,
		username: username,
		send:     make(chan []byte, sendBuffer),
	}
	h.join(c)

	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("rooms: unexpected close in room %s: %v", c.roomID, err)
			}
			return
		}
		c.hub.handleInbound(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
