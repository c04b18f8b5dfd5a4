/*
Package pairing contains the matchmaking core.

This file defines the Client struct, representing an active WebSocket connection. It manages the
connection's read and write loops and forwards decoded messages to the Router.
*/
package pairing

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pairrelay/internal/pkg/errs"
	"pairrelay/internal/pkg/logx"
	"pairrelay/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// MaxMessageSize is the largest inbound frame; images travel inline so it is generous.
	MaxMessageSize = 8 << 20

	// sendQueueSize is the number of outbound messages buffered per client.
	sendQueueSize = 256

	// EventRate and EventBurst bound how many messages one client may send.
	EventRate  = 20
	EventBurst = 40
)

// Client struct represents an active WebSocket connection.
type Client struct {
	id string

	router *Router

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// a buffered channel used to queue messages waiting to be sent to the client.
	send chan []byte

	// closed once the client is shutting down; send is never closed.
	done      chan struct{}
	closeOnce sync.Once

	limiter *rate.Limiter

	logger zerolog.Logger
}

// NewClient constructs a Client with a fresh connection id.
func NewClient(router *Router, wsConn *websocket.Conn) *Client {
	id := randx.ConnID()

	return &Client{
		id:      id,
		router:  router,
		conn:    wsConn,
		send:    make(chan []byte, sendQueueSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(EventRate), EventBurst),
		logger:  logx.Component("Client").With().Str("conn_id", id).Logger(),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Send queues msg without blocking. It returns false when the queue is full or the client is closed.
func (c *Client) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping message")
		return false
	}
}

// Close signals the write loop to send a close frame and stop. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ReadPump registers the client with the Router, reads messages until the connection fails,
// and reports the disconnect.
func (c *Client) ReadPump() {
	if err := c.router.Connect(c); err != nil {
		c.logger.Warn().Err(err).Msg("Router unavailable, dropping connection")
		c.Close()
		c.conn.Close()
		return
	}

	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(MaxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			return
		}

		if !c.processInboundMessage(messageBytes) {
			return
		}
	}
}

// processInboundMessage validates one frame and forwards it. It returns false once the router is gone.
func (c *Client) processInboundMessage(messageBytes []byte) bool {
	if !c.limiter.Allow() {
		c.SendError(errs.NewError(errs.ErrRateLimitExceeded))
		return true
	}

	var inbound Inbound
	if err := json.Unmarshal(messageBytes, &inbound); err != nil || inbound.Type == "" {
		c.logger.Warn().Err(err).Int("bytes", len(messageBytes)).Msg("Client sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return true
	}

	if err := c.router.Deliver(c.id, inbound); err != nil {
		c.logger.Warn().Err(err).Msg("Router unavailable, closing connection")
		return false
	}

	return true
}

// cleanupOnDisconnect tells the Router the connection is gone and releases the socket.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	if err := c.router.Disconnect(c.id); err != nil {
		c.logger.Warn().Err(err).Msg("Router unavailable during disconnect cleanup.")
	}

	c.Close()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// SendError queues an error event built from err.
func (c *Client) SendError(err *errs.CustomError) {
	msg, buildErr := NewMessage(TypeError, ErrorPayload{Message: err.Message})
	if buildErr != nil {
		c.logger.Error().Err(buildErr).Msg("Failed to build error message")
		return
	}
	c.Send(msg)
}

// WritePump writes queued messages and periodic pings until the client is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message := <-c.send:
			if !c.writeMessage(websocket.TextMessage, message) {
				return
			}

		case <-ticker.C:
			if !c.writeMessage(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			c.drain()
			c.writeMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// drain flushes messages queued before Close, such as a final sessionEnded.
func (c *Client) drain() {
	for {
		select {
		case message := <-c.send:
			if !c.writeMessage(websocket.TextMessage, message) {
				return
			}
		default:
			return
		}
	}
}

// writeMessage writes one frame with a deadline. It returns false if the loop should stop.
func (c *Client) writeMessage(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("frame_type", messageType).Msg("Error writing frame")
		return false
	}

	return true
}
