package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stowage/internal/network"
	"github.com/gravitas-games/stowage/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // keepalive pings land before the read deadline
	maxMessageSize = 8192                // client triggers are small JSON objects
)

// Connection carries one authenticated player's triggers to the session
// and the session's reports back to the player
type Connection struct {
	ws     *websocket.Conn
	server *Server
	log    logrus.FieldLogger
	player *models.Player

	// encoded server messages waiting for writePump
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewConnection creates a new connection for an authenticated player
func NewConnection(ws *websocket.Conn, server *Server, player *models.Player) *Connection {
	return &Connection{
		ws:     ws,
		server: server,
		player: player,
		log:    server.log.WithField("player", player.ID),
		send:   make(chan []byte, 256),
	}
}

// Handle serves the connection until the peer goes away
func (c *Connection) Handle() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump()
	c.readPump()
}

// readPump decodes client triggers and hands them to the session until the
// socket fails
func (c *Connection) readPump() {
	defer c.Close()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WebSocket read error")
			}
			break
		}

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.log.WithError(err).Debug("Failed to parse client message")
			sendError(c, "invalid_message", "Failed to parse message")
			continue
		}

		c.handleMessage(&clientMsg)
	}
}

// writePump is the only writer on the socket. It forwards session output and
// keeps the connection alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Warn("WebSocket write error")
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.server.ctx.Done():
			return
		}
	}
}

func (c *Connection) write(kind int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(kind, data)
}

// handleMessage routes join and leave locally and queues everything else on
// the session loop
func (c *Connection) handleMessage(msg *network.ClientMessage) {
	c.log.WithField("type", msg.Type).Trace("Received message")

	session := c.server.session
	ctx := c.server.ctx

	switch msg.Type {
	case network.MsgTypeJoin:
		c.player.Connected = true
		c.player.ConnectedAt = time.Now()
		joined := session.Enqueue(func() {
			if err := session.Join(ctx, c.player, c); err != nil {
				c.log.WithError(err).Warn("Failed to add player to session")
				sendError(c, "join_failed", "Failed to join session")
			}
		})
		if !joined {
			sendError(c, "busy", "Server busy, retry join")
		}

	case network.MsgTypeLeave:
		c.leave()

	default:
		id := c.player.ID
		if !session.Enqueue(func() { session.Handle(ctx, id, msg) }) {
			sendError(c, "busy", "Server busy")
		}
	}
}

func (c *Connection) leave() {
	// leaves drained during shutdown still persist their slot locks
	c.server.session.EnqueueLeave(context.WithoutCancel(c.server.ctx), c.player.ID)
}

// SendMessage sends a message to the client. Messages sent after Close
// are dropped.
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.WithError(err).Error("Failed to marshal message")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("Send buffer full, dropping message")
	}
}

// Close leaves the session and closes the connection. The leave runs after
// any join still queued, so it always wins.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.leave()
	c.ws.Close()
}
