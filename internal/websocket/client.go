package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"social-go/internal/config"
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// Buffered channel of outbound payloads.
	send chan []byte

	// Authenticated username for this connection.
	Username string

	// onClose fires when the hub drops this client while it is still the
	// registered connection for its username; the gateway uses it to submit
	// a disconnect intent. A connection superseded by a reconnect never
	// fires it.
	onClose func()
}

// readPump drains the connection so ping/pong keepalive works and the close
// handshake is observed. Clients do not send application traffic on this
// socket; the bus is one-directional.
func (c *Client) readPump(wsCfg config.WebSocketConfig) {
	defer func() {
		// The hub decides whether this teardown counts as a disconnect; a
		// superseded connection unregistering late must not fire onClose.
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(int64(wsCfg.MaxMessageSizeBytes))
	c.conn.SetReadDeadline(time.Now().Add(time.Duration(wsCfg.PongWaitSeconds) * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(time.Duration(wsCfg.PongWaitSeconds) * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error (client %s): %v", c.Username, err)
			}
			break
		}
	}
}

// writePump pumps payloads from the hub to the websocket connection,
// aggregating whatever is queued into a single frame write.
func (c *Client) writePump(wsCfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(wsCfg.PingPeriodSeconds) * time.Second)
	newline := []byte("\n")
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(wsCfg.WriteWaitSeconds) * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(wsCfg.WriteWaitSeconds) * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an authenticated request to a websocket connection and
// registers the resulting client with the hub.
func ServeWs(hub *Hub, username string, w http.ResponseWriter, r *http.Request, wsCfg config.WebSocketConfig, onClose func()) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("ServeWs - upgrade failed:", err)
		return
	}
	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		Username: username,
		onClose:  onClose,
	}
	client.hub.register <- client

	go client.writePump(wsCfg)
	go client.readPump(wsCfg)

	log.Printf("Client connected: %s", username)
}
