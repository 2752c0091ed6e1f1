package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"caramelo/internal/engine"
	"caramelo/internal/models"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64 // buffered channel size; stale views are dropped when full
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient wraps a WebSocket connection and implements engine.Client.
type WSClient struct {
	conn   *websocket.Conn
	eng    *engine.Engine
	sendCh chan models.WSMessage
	done   chan struct{}
}

// NewWSClient creates a WSClient and registers it with the engine.
func NewWSClient(conn *websocket.Conn, eng *engine.Engine) *WSClient {
	c := &WSClient{
		conn:   conn,
		eng:    eng,
		sendCh: make(chan models.WSMessage, sendBuffer),
		done:   make(chan struct{}),
	}
	go c.writeLoop()
	eng.RegisterClient(c)
	return c
}

// SendMessage queues a message for async delivery. It never blocks the
// engine: when the buffer is full the oldest queued message is dropped.
// Every view supersedes the previous one, so losing an old view is harmless.
func (c *WSClient) SendMessage(msg models.WSMessage) error {
	select {
	case <-c.done:
		return nil
	default:
	}
	for {
		select {
		case c.sendCh <- msg:
			return nil
		default:
		}
		select {
		case <-c.sendCh:
		default:
		}
	}
}

// writeLoop drains the send channel and writes to the WebSocket.
func (c *WSClient) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("WebSocket write failed")
				return
			}
		case <-c.done:
			return
		}
	}
}

// ReadLoop reads operator commands and hands them to the engine.
func (c *WSClient) ReadLoop() {
	defer func() {
		c.eng.UnregisterClient(c)
		close(c.done)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg models.WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}
		c.eng.Submit(c, msg)
	}
}

func (c *WSClient) sendError(message string) {
	payload, _ := json.Marshal(models.ErrorPayload{Message: message})
	c.SendMessage(models.WSMessage{Type: models.MsgError, Payload: payload})
}

// HandleWebSocket is the HTTP handler for WebSocket upgrades.
func HandleWebSocket(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Warn("WebSocket upgrade failed")
			return
		}
		log.WithField("remote", r.RemoteAddr).Info("Operator connected")
		client := NewWSClient(conn, eng)
		client.ReadLoop()
		log.WithField("remote", r.RemoteAddr).Info("Operator disconnected")
	}
}
