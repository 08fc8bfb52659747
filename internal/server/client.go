package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tickstream/tickstream/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum inbound message size.
	maxMessageSize = 4096
)

// client ties one WebSocket connection to its session: inbound frames are
// dispatched to the session, outbound session events flow through the
// outbox into the write pump.
type client struct {
	conn    *websocket.Conn
	outbox  *Outbox
	session *session.Session
	logger  *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	onClose   func(*client)
}

// Emit implements session.Emitter: events are serialized into envelopes
// and queued for the write pump.
func (c *client) Emit(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	if !c.outbox.Send(msg) {
		return ErrClientClosed
	}
	return nil
}

// readPump reads frames from the connection and dispatches them to the
// session until the connection drops. A read failure is a disconnect.
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read failed", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.Emit(session.EventError, session.ErrorPayload{
				Code:    session.CodeInvalidCommand,
				Message: "malformed frame: " + err.Error(),
			})
			continue
		}
		if env.Event == "" {
			c.Emit(session.EventError, session.ErrorPayload{
				Code:    session.CodeInvalidCommand,
				Message: "frame has no event name",
			})
			continue
		}

		c.session.Dispatch(env.Event, env.Data)
	}
}

// writePump drains the outbox onto the connection. It exits once the
// outbox is closed and drained, sending a close frame on the way out.
func (c *client) writePump() {
	for {
		msg, ok := c.outbox.Receive()
		if !ok {
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.logger.Debug("write failed", "error", err)
			c.close()
			return
		}
	}
}

// heartbeatLoop keeps the connection alive with periodic pings.
// WriteControl is safe concurrently with the write pump.
func (c *client) heartbeatLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// close tears the client down exactly once: the session stops first so no
// further emissions occur, then the pumps and the connection are released.
func (c *client) close() {
	c.closeOnce.Do(func() {
		c.session.Close()
		c.outbox.Close()
		close(c.done)
		c.conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
		c.logger.Debug("client disconnected")
	})
}
